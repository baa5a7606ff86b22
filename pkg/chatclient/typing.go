package chatclient

import (
	"sync"
	"time"
)

// typingTracker turns the raw typing frames into indicator state changes.
// An indicator that is not refreshed within the decay window expires on its
// own, so a peer that disconnects mid-keystroke never stays "typing"
// forever.
type typingTracker struct {
	decay time.Duration
	subs  *subscriptionSet

	mu      sync.Mutex
	timers  map[typingKey]*time.Timer
	stopped bool
}

type typingKey struct {
	jobID  string
	userID string
}

func newTypingTracker(decay time.Duration, subs *subscriptionSet) *typingTracker {
	return &typingTracker{
		decay:  decay,
		subs:   subs,
		timers: make(map[typingKey]*time.Timer),
	}
}

// observe processes one inbound typing frame. A true signal arms or resets
// the decay timer; a false signal clears it and forwards immediately.
func (t *typingTracker) observe(event TypingEvent) {
	key := typingKey{jobID: event.JobID, userID: event.UserID}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}

	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}

	if event.IsTyping {
		t.timers[key] = time.AfterFunc(t.decay, func() {
			t.expire(key)
		})
	}
	t.mu.Unlock()

	t.subs.publishTyping(event)
}

func (t *typingTracker) expire(key typingKey) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if _, ok := t.timers[key]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.timers, key)
	t.mu.Unlock()

	t.subs.publishTyping(TypingEvent{JobID: key.jobID, UserID: key.userID, IsTyping: false})
}

func (t *typingTracker) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}
