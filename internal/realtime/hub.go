package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/config"
	"masterful/services/chat-api/internal/domain/chat"
	"masterful/services/chat-api/internal/infrastructure/metrics"
)

// Hub is the room registry for the realtime transport. It owns every live
// connection, tracks room membership keyed by job ID, and fans events out to
// subscribers. Thread-safe via sync.RWMutex.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Connection]struct{} // room name -> subscribers
	conns map[*Connection]struct{}

	cfg      *config.Config
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

var _ chat.Broadcaster = (*Hub)(nil)

// NewHub creates the realtime hub.
func NewHub(cfg *config.Config, log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Connection]struct{}),
		conns: make(map[*Connection]struct{}),
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: cfg.WSHandshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "realtime-hub").Logger(),
	}
}

// HandleConnection upgrades an authenticated HTTP request and runs the
// connection's pumps. Blocks until the connection closes.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, userID string) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	conn := newConnection(h, ws, userID)

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	metrics.ActiveConnections.Inc()

	h.log.Info().Str("user_id", userID).Msg("realtime connection opened")

	go conn.writePump()
	conn.readPump()
	return nil
}

// BroadcastMessage delivers a persisted message to every live subscriber of
// its job room. Implements chat.Broadcaster.
func (h *Hub) BroadcastMessage(jobID string, msg *chat.Message) error {
	frame := Frame{Type: FrameMessage, JobID: jobID, Message: msg}
	return h.broadcast(RoomName(jobID), frame)
}

// BroadcastTyping relays an ephemeral typing signal to a job room. The
// sender is excluded from delivery.
func (h *Hub) BroadcastTyping(jobID string, event chat.TypingEvent) error {
	metrics.TypingEvents.Inc()
	frame := Frame{Type: FrameTyping, JobID: jobID, Typing: &event}
	return h.broadcastExcept(RoomName(jobID), frame, event.UserID)
}

func (h *Hub) broadcast(room string, frame Frame) error {
	return h.broadcastExcept(room, frame, "")
}

func (h *Hub) broadcastExcept(room string, frame Frame, excludeUserID string) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	h.mu.RLock()
	subscribers := make([]*Connection, 0, len(h.rooms[room]))
	for conn := range h.rooms[room] {
		if excludeUserID != "" && conn.userID == excludeUserID {
			continue
		}
		subscribers = append(subscribers, conn)
	}
	h.mu.RUnlock()

	for _, conn := range subscribers {
		if !conn.enqueue(data) {
			// A consumer that cannot drain its queue would stall the
			// room; drop it and let it reconnect.
			metrics.SlowConsumerDisconnects.Inc()
			h.log.Warn().Str("user_id", conn.userID).Msg("dropping slow consumer")
			conn.close()
		}
	}
	return nil
}

// join subscribes a connection to a job room. Idempotent: joining a room the
// connection is already in is a no-op.
func (h *Hub) join(conn *Connection, jobID string) {
	room := RoomName(jobID)

	h.mu.Lock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Connection]struct{})
		metrics.ActiveRooms.Inc()
	}
	if _, already := h.rooms[room][conn]; already {
		h.mu.Unlock()
		return
	}
	h.rooms[room][conn] = struct{}{}
	h.mu.Unlock()

	conn.addRoom(jobID)

	h.broadcastExcept(room, Frame{
		Type:     FramePresence,
		JobID:    jobID,
		Presence: &PresenceEvent{JobID: jobID, UserID: conn.userID, Online: true},
	}, conn.userID)
}

// leave unsubscribes a connection from a job room. In-flight sends to the
// room still persist and broadcast; this connection just stops receiving.
func (h *Hub) leave(conn *Connection, jobID string) {
	room := RoomName(jobID)

	h.mu.Lock()
	subscribers, ok := h.rooms[room]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, member := subscribers[conn]; !member {
		h.mu.Unlock()
		return
	}
	delete(subscribers, conn)
	if len(subscribers) == 0 {
		delete(h.rooms, room)
		metrics.ActiveRooms.Dec()
	}
	h.mu.Unlock()

	conn.removeRoom(jobID)

	h.broadcastExcept(room, Frame{
		Type:     FramePresence,
		JobID:    jobID,
		Presence: &PresenceEvent{JobID: jobID, UserID: conn.userID, Online: false},
	}, conn.userID)
}

// unregister removes a closing connection from the hub and all its rooms.
func (h *Hub) unregister(conn *Connection) {
	for _, jobID := range conn.joinedRooms() {
		h.leave(conn, jobID)
	}

	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		metrics.ActiveConnections.Dec()
	}
	h.mu.Unlock()

	h.log.Info().Str("user_id", conn.userID).Msg("realtime connection closed")
}

// RoomSize returns the number of live subscribers in a job room.
func (h *Hub) RoomSize(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[RoomName(jobID)])
}

// isMember reports whether the connection currently subscribes to the room.
func (h *Hub) isMember(conn *Connection, jobID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[RoomName(jobID)][conn]
	return ok
}
