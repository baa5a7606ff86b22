package chatclient

import (
	"sort"
)

// MergeHistory combines a fetched history page with messages that arrived
// live, typically after a reconnect. Duplicates are dropped by ID and the
// result is ordered oldest first by creation time, with the server sequence
// breaking timestamp ties.
func MergeHistory(history, live []Message) []Message {
	merged := make([]Message, 0, len(history)+len(live))
	seen := make(map[string]struct{}, len(history)+len(live))

	for _, msg := range history {
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		merged = append(merged, msg)
	}
	for _, msg := range live {
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		merged = append(merged, msg)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].Seq < merged[j].Seq
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	return merged
}
