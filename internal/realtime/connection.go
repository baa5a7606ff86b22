package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"masterful/services/chat-api/internal/domain/chat"
)

// Connection is one authenticated WebSocket session. It owns the set of job
// rooms the user has joined and a buffered outbound queue drained by the
// write pump.
type Connection struct {
	hub    *Hub
	ws     *websocket.Conn
	userID string

	send chan []byte

	mu    sync.Mutex
	rooms map[string]struct{} // jobID -> joined

	closeOnce sync.Once
}

func newConnection(h *Hub, ws *websocket.Conn, userID string) *Connection {
	return &Connection{
		hub:    h,
		ws:     ws,
		userID: userID,
		send:   make(chan []byte, h.cfg.WSSendBuffer),
		rooms:  make(map[string]struct{}),
	}
}

// enqueue queues an outbound frame. Returns false when the buffer is full.
func (c *Connection) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// readPump consumes inbound control frames until the connection drops.
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()

	c.ws.SetReadLimit(16 * 1024)
	c.ws.SetReadDeadline(time.Now().Add(c.hub.cfg.WSPongTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.hub.cfg.WSPongTimeout))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("user_id", c.userID).Msg("unexpected connection drop")
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError("malformed frame")
			continue
		}

		c.handleFrame(frame)
	}
}

func (c *Connection) handleFrame(frame Frame) {
	switch frame.Type {
	case FrameJoin:
		if frame.JobID == "" {
			c.sendError("join requires job_id")
			return
		}
		c.hub.join(c, frame.JobID)
	case FrameLeave:
		if frame.JobID == "" {
			c.sendError("leave requires job_id")
			return
		}
		c.hub.leave(c, frame.JobID)
	case FrameTyping:
		if frame.Typing == nil || frame.Typing.JobID == "" {
			c.sendError("typing requires a payload with job_id")
			return
		}
		// Typing signals only flow through rooms the sender has joined,
		// and the user identity comes from the session, not the frame.
		if !c.hub.isMember(c, frame.Typing.JobID) {
			return
		}
		event := chat.TypingEvent{
			JobID:    frame.Typing.JobID,
			UserID:   c.userID,
			IsTyping: frame.Typing.IsTyping,
		}
		c.hub.BroadcastTyping(event.JobID, event)
	default:
		c.sendError("unsupported frame type")
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Connection) writePump() {
	pingInterval := c.hub.cfg.WSPongTimeout * 9 / 10
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WSWriteTimeout))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WSWriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) sendError(message string) {
	data, err := json.Marshal(Frame{Type: FrameError, Error: message})
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *Connection) addRoom(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[jobID] = struct{}{}
}

func (c *Connection) removeRoom(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, jobID)
}

func (c *Connection) joinedRooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]string, 0, len(c.rooms))
	for jobID := range c.rooms {
		rooms = append(rooms, jobID)
	}
	return rooms
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.ws.Close()
	})
}
