package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Config holds the client configuration.
type Config struct {
	// URL is the WebSocket endpoint, e.g. ws://localhost:8290/v1/ws.
	URL string
	// Token is the bearer token for the session. Required unless the
	// server runs with authentication disabled and UserID is set.
	Token string
	// UserID identifies the session when the server has auth disabled.
	UserID string

	// HandshakeTimeout bounds the WebSocket dial. Defaults to 20s.
	HandshakeTimeout time.Duration
	// ReconnectDelay is the first backoff step. Defaults to 1s and
	// doubles on every failed attempt.
	ReconnectDelay time.Duration
	// MaxReconnectAttempts caps the backoff loop. Defaults to 5.
	MaxReconnectAttempts int

	// TypingDebounce is the minimum gap between typing=true signals for
	// the same room. Defaults to 1s.
	TypingDebounce time.Duration
	// TypingDecay is how long a received typing indicator stays active
	// without a refresh. Defaults to 3s.
	TypingDecay time.Duration

	Logger zerolog.Logger
}

func (c *Config) withDefaults() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 20 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = time.Second
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = 5
	}
	if c.TypingDebounce <= 0 {
		c.TypingDebounce = time.Second
	}
	if c.TypingDecay <= 0 {
		c.TypingDecay = 3 * time.Second
	}
}

// Client is a realtime chat session. Safe for concurrent use.
type Client struct {
	cfg Config
	log zerolog.Logger

	state atomic.Int32

	mu        sync.Mutex
	ws        *websocket.Conn
	rooms     map[string]struct{}
	closed    bool
	closeCh   chan struct{}
	writeMu   sync.Mutex
	lastTyped map[string]time.Time

	subs   *subscriptionSet
	typing *typingTracker
}

// New creates a client. Connect must be called before any room operation.
func New(cfg Config) *Client {
	cfg.withDefaults()
	c := &Client{
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "chatclient").Logger(),
		rooms:     make(map[string]struct{}),
		closeCh:   make(chan struct{}),
		lastTyped: make(map[string]time.Time),
		subs:      newSubscriptionSet(),
	}
	c.typing = newTypingTracker(cfg.TypingDecay, c.subs)
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Connect dials the server, retrying with exponential backoff. It returns
// ErrAuthentication immediately when no credentials are configured or the
// server rejects them, and ErrConnection once every attempt is exhausted.
func (c *Client) Connect(ctx context.Context) error {
	if c.cfg.Token == "" && c.cfg.UserID == "" {
		return ErrAuthentication
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	c.state.Store(int32(StateConnecting))

	delay := c.cfg.ReconnectDelay
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		err := c.dial(ctx)
		if err == nil {
			return nil
		}
		if err == ErrAuthentication {
			c.state.Store(int32(StateDisconnected))
			return err
		}
		lastErr = err
		c.log.Debug().Err(err).Int("attempt", attempt).Dur("next_delay", delay).Msg("dial failed")

		if attempt == c.cfg.MaxReconnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			c.state.Store(int32(StateDisconnected))
			return ctx.Err()
		case <-c.closeCh:
			c.state.Store(int32(StateDisconnected))
			return ErrClosed
		case <-time.After(delay):
		}
		delay *= 2
	}

	c.state.Store(int32(StateDisconnected))
	return fmt.Errorf("%w: %v", ErrConnection, lastErr)
}

func (c *Client) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}

	header := http.Header{}
	url := c.cfg.URL
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	} else {
		url = appendQuery(url, "user_id", c.cfg.UserID)
	}

	ws, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return ErrAuthentication
		}
		return err
	}

	c.mu.Lock()
	c.ws = ws
	rooms := make([]string, 0, len(c.rooms))
	for jobID := range c.rooms {
		rooms = append(rooms, jobID)
	}
	c.mu.Unlock()

	c.state.Store(int32(StateConnected))
	c.log.Info().Str("url", c.cfg.URL).Msg("connected")

	// Rejoin every room the session held before the drop.
	for _, jobID := range rooms {
		if err := c.send(frame{Type: frameJoin, JobID: jobID}); err != nil {
			c.log.Warn().Err(err).Str("job_id", jobID).Msg("rejoin failed")
		}
	}

	go c.readLoop(ws)
	return nil
}

// Disconnect closes the session intentionally. No reconnect follows.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.closeCh)
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	if ws != nil {
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ws.Close()
	}

	c.state.Store(int32(StateDisconnected))
	c.typing.stop()
	c.subs.closeAll()
}

// JoinRoom subscribes the session to a job room. The membership survives
// reconnects; while disconnected it is recorded and sent on the next
// successful dial.
func (c *Client) JoinRoom(jobID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.rooms[jobID] = struct{}{}
	connected := c.ws != nil
	c.mu.Unlock()

	if !connected {
		return nil
	}
	return c.send(frame{Type: frameJoin, JobID: jobID})
}

// LeaveRoom unsubscribes the session from a job room.
func (c *Client) LeaveRoom(jobID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	delete(c.rooms, jobID)
	connected := c.ws != nil
	c.mu.Unlock()

	if !connected {
		return nil
	}
	return c.send(frame{Type: frameLeave, JobID: jobID})
}

// StartTyping signals that the user is typing in a room. Signals for the
// same room within the debounce window are suppressed.
func (c *Client) StartTyping(jobID string) error {
	c.mu.Lock()
	last, ok := c.lastTyped[jobID]
	now := time.Now()
	if ok && now.Sub(last) < c.cfg.TypingDebounce {
		c.mu.Unlock()
		return nil
	}
	c.lastTyped[jobID] = now
	c.mu.Unlock()

	return c.send(frame{Type: frameTyping, Typing: &TypingEvent{JobID: jobID, IsTyping: true}})
}

// StopTyping clears the typing signal immediately and resets the debounce.
func (c *Client) StopTyping(jobID string) error {
	c.mu.Lock()
	delete(c.lastTyped, jobID)
	c.mu.Unlock()

	return c.send(frame{Type: frameTyping, Typing: &TypingEvent{JobID: jobID, IsTyping: false}})
}

// Messages returns a subscription delivering live messages.
func (c *Client) Messages() *Subscription[Message] {
	return c.subs.addMessages()
}

// Typing returns a subscription delivering typing indicator changes,
// including the automatic decay to is_typing=false.
func (c *Client) Typing() *Subscription[TypingEvent] {
	return c.subs.addTyping()
}

// Presence returns a subscription delivering room presence changes.
func (c *Client) Presence() *Subscription[PresenceEvent] {
	return c.subs.addPresence()
}

func (c *Client) send(f frame) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return ErrClosed
	}

	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return ws.WriteMessage(websocket.TextMessage, data)
}

// readLoop consumes frames until the connection drops, then reconnects
// unless the drop was an intentional Disconnect.
func (c *Client) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.Debug().Err(err).Msg("malformed frame")
			continue
		}
		c.dispatch(f)
	}

	c.mu.Lock()
	intentional := c.closed
	if c.ws == ws {
		c.ws = nil
	}
	c.mu.Unlock()
	ws.Close()

	if intentional {
		return
	}

	c.state.Store(int32(StateConnecting))
	c.log.Warn().Msg("connection dropped, reconnecting")
	if err := c.Connect(context.Background()); err != nil {
		c.log.Error().Err(err).Msg("reconnect failed")
	}
}

func (c *Client) dispatch(f frame) {
	switch f.Type {
	case frameMessage:
		if f.Message != nil {
			c.subs.publishMessage(*f.Message)
		}
	case frameTyping:
		if f.Typing != nil {
			c.typing.observe(*f.Typing)
		}
	case framePresence:
		if f.Presence != nil {
			c.subs.publishPresence(*f.Presence)
		}
	case frameError:
		c.log.Warn().Str("error", f.Error).Msg("server error frame")
	}
}

func appendQuery(url, key, value string) string {
	sep := "?"
	for i := 0; i < len(url); i++ {
		if url[i] == '?' {
			sep = "&"
			break
		}
	}
	return url + sep + key + "=" + value
}
