package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/config"
	"masterful/services/chat-api/internal/domain/chat"
)

func testConfig() *config.Config {
	return &config.Config{
		WSHandshakeTimeout: 5 * time.Second,
		WSWriteTimeout:     5 * time.Second,
		WSPongTimeout:      30 * time.Second,
		WSSendBuffer:       16,
	}
}

// newTestServer runs the hub behind an httptest server that takes the user
// identity from the user_id query parameter.
func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(testConfig(), zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleConnection(w, r, r.URL.Query().Get("user_id"))
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dialUser(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user_id=" + userID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial as %s: %v", userID, err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendFrame(t *testing.T, ws *websocket.Conn, f Frame) {
	t.Helper()
	if err := ws.WriteJSON(f); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func readFrame(t *testing.T, ws *websocket.Conn) Frame {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return f
}

// expectNoFrame asserts that nothing arrives within a short window.
func expectNoFrame(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, data, err := ws.ReadMessage(); err == nil {
		t.Fatalf("unexpected frame: %s", data)
	}
}

func waitForRoomSize(t *testing.T, hub *Hub, jobID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(jobID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %s size never reached %d", jobID, want)
}

func TestBroadcastReachesRoomMembers(t *testing.T) {
	hub, srv := newTestServer(t)

	client := dialUser(t, srv, "client-1")
	provider := dialUser(t, srv, "provider-7")

	sendFrame(t, client, Frame{Type: FrameJoin, JobID: "job-42"})
	waitForRoomSize(t, hub, "job-42", 1)
	sendFrame(t, provider, Frame{Type: FrameJoin, JobID: "job-42"})
	waitForRoomSize(t, hub, "job-42", 2)

	// The second join produces a presence frame for the first member.
	if f := readFrame(t, client); f.Type != FramePresence || !f.Presence.Online || f.Presence.UserID != "provider-7" {
		t.Fatalf("presence frame = %+v", f)
	}

	msg := &chat.Message{
		ID:          "msg_1",
		JobID:       "job-42",
		SenderID:    "client-1",
		RecipientID: "provider-7",
		Type:        chat.TypeText,
		Payload:     chat.Payload{Text: &chat.TextPayload{Body: "Salut"}},
		Seq:         1,
		CreatedAt:   time.Now().UTC(),
	}
	if err := hub.BroadcastMessage("job-42", msg); err != nil {
		t.Fatalf("BroadcastMessage: %v", err)
	}

	for _, ws := range []*websocket.Conn{client, provider} {
		f := readFrame(t, ws)
		if f.Type != FrameMessage {
			t.Fatalf("frame type = %s, want message", f.Type)
		}
		if f.Message.Payload.Text.Body != "Salut" {
			t.Errorf("body = %q", f.Message.Payload.Text.Body)
		}
	}
}

func TestBroadcastRespectsRoomBoundaries(t *testing.T) {
	hub, srv := newTestServer(t)

	member := dialUser(t, srv, "provider-7")
	outsider := dialUser(t, srv, "provider-9")

	sendFrame(t, member, Frame{Type: FrameJoin, JobID: "job-1"})
	waitForRoomSize(t, hub, "job-1", 1)
	sendFrame(t, outsider, Frame{Type: FrameJoin, JobID: "job-2"})
	waitForRoomSize(t, hub, "job-2", 1)

	hub.BroadcastMessage("job-1", &chat.Message{ID: "msg_1", JobID: "job-1", Type: chat.TypeText,
		Payload: chat.Payload{Text: &chat.TextPayload{Body: "doar job-1"}}})

	if f := readFrame(t, member); f.Type != FrameMessage || f.JobID != "job-1" {
		t.Fatalf("member frame = %+v", f)
	}
	expectNoFrame(t, outsider)
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub, srv := newTestServer(t)

	ws := dialUser(t, srv, "client-1")
	sendFrame(t, ws, Frame{Type: FrameJoin, JobID: "job-1"})
	waitForRoomSize(t, hub, "job-1", 1)
	sendFrame(t, ws, Frame{Type: FrameLeave, JobID: "job-1"})
	waitForRoomSize(t, hub, "job-1", 0)

	hub.BroadcastMessage("job-1", &chat.Message{ID: "msg_1", JobID: "job-1", Type: chat.TypeText,
		Payload: chat.Payload{Text: &chat.TextPayload{Body: "nimeni"}}})
	expectNoFrame(t, ws)
}

func TestTypingRelayExcludesSender(t *testing.T) {
	hub, srv := newTestServer(t)

	typist := dialUser(t, srv, "client-1")
	watcher := dialUser(t, srv, "provider-7")

	sendFrame(t, typist, Frame{Type: FrameJoin, JobID: "job-1"})
	waitForRoomSize(t, hub, "job-1", 1)
	sendFrame(t, watcher, Frame{Type: FrameJoin, JobID: "job-1"})
	waitForRoomSize(t, hub, "job-1", 2)
	readFrame(t, typist) // watcher's presence frame

	sendFrame(t, typist, Frame{Type: FrameTyping, Typing: &chat.TypingEvent{JobID: "job-1", IsTyping: true}})

	f := readFrame(t, watcher)
	if f.Type != FrameTyping {
		t.Fatalf("frame type = %s, want typing", f.Type)
	}
	// Identity comes from the session, not the frame.
	if f.Typing.UserID != "client-1" || !f.Typing.IsTyping {
		t.Errorf("typing event = %+v", f.Typing)
	}
	expectNoFrame(t, typist)
}

func TestTypingRequiresMembership(t *testing.T) {
	hub, srv := newTestServer(t)

	member := dialUser(t, srv, "provider-7")
	stranger := dialUser(t, srv, "client-1")

	sendFrame(t, member, Frame{Type: FrameJoin, JobID: "job-1"})
	waitForRoomSize(t, hub, "job-1", 1)

	// The stranger never joined job-1; its typing signal is dropped.
	sendFrame(t, stranger, Frame{Type: FrameTyping, Typing: &chat.TypingEvent{JobID: "job-1", IsTyping: true}})
	expectNoFrame(t, member)
}

func TestMalformedFrameGetsErrorResponse(t *testing.T) {
	_, srv := newTestServer(t)

	ws := dialUser(t, srv, "client-1")
	if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if f := readFrame(t, ws); f.Type != FrameError || f.Error == "" {
		t.Fatalf("frame = %+v, want error frame", f)
	}

	sendFrame(t, ws, Frame{Type: FrameJoin})
	if f := readFrame(t, ws); f.Type != FrameError {
		t.Fatalf("join without job_id: %+v", f)
	}
}

func TestDisconnectCleansUpRooms(t *testing.T) {
	hub, srv := newTestServer(t)

	ws := dialUser(t, srv, "client-1")
	sendFrame(t, ws, Frame{Type: FrameJoin, JobID: "job-1"})
	waitForRoomSize(t, hub, "job-1", 1)

	ws.Close()
	waitForRoomSize(t, hub, "job-1", 0)
}
