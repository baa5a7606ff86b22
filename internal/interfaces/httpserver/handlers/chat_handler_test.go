package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"masterful/services/chat-api/internal/domain/chat"
	"masterful/services/chat-api/internal/infrastructure/store"
)

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastMessage(string, *chat.Message) error { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordMessageSent(string)   {}
func (noopMetrics) RecordBroadcastFailure()    {}
func (noopMetrics) RecordSendDuration(float64) {}

// asUser injects the authenticated identity the way the auth middleware does.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func newTestRouter(t *testing.T, userID string) (*gin.Engine, chat.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := store.NewMemoryStore(zerolog.Nop())
	svc := chat.NewService(repo, noopBroadcaster{}, noopMetrics{}, 1000, 100, zerolog.Nop())
	handler := NewChatHandler(svc, zerolog.Nop())

	engine := gin.New()
	group := engine.Group("/v1", asUser(userID))
	group.POST("/messages", handler.SendMessage)
	group.GET("/messages/:jobId", handler.History)
	group.PATCH("/messages/:id/read", handler.MarkRead)
	group.GET("/conversations", handler.ListConversations)
	return engine, svc
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSendMessageEndpoint(t *testing.T) {
	engine, _ := newTestRouter(t, "client-1")

	w := doJSON(t, engine, http.MethodPost, "/v1/messages", gin.H{
		"job_id":       "job-42",
		"recipient_id": "provider-7",
		"message_type": "TEXT",
		"payload":      gin.H{"text": gin.H{"body": "Salut"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    chat.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "job-42", resp.Data.JobID)
	require.Equal(t, "client-1", resp.Data.SenderID)
	require.Equal(t, "Salut", resp.Data.Payload.Text.Body)
	require.Equal(t, int64(1), resp.Data.Seq)
}

func TestSendMessageValidation(t *testing.T) {
	engine, _ := newTestRouter(t, "client-1")

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing job_id", gin.H{"recipient_id": "p", "message_type": "TEXT", "payload": gin.H{"text": gin.H{"body": "x"}}}},
		{"unknown type", gin.H{"job_id": "j", "recipient_id": "p", "message_type": "VOICE", "payload": gin.H{}}},
		{"empty text body", gin.H{"job_id": "j", "recipient_id": "p", "message_type": "TEXT", "payload": gin.H{"text": gin.H{"body": ""}}}},
		{"text over limit", gin.H{"job_id": "j", "recipient_id": "p", "message_type": "TEXT", "payload": gin.H{"text": gin.H{"body": strings.Repeat("x", 1001)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, engine, http.MethodPost, "/v1/messages", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				Success bool `json:"success"`
				Error   *struct {
					Type string `json:"type"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.False(t, resp.Success)
			require.NotNil(t, resp.Error)
		})
	}
}

func TestHistoryEndpoint(t *testing.T) {
	engine, svc := newTestRouter(t, "client-1")
	ctx := context.Background()

	for _, body := range []string{"unu", "doi"} {
		_, err := svc.Send(ctx, chat.SendRequest{
			JobID: "job-1", SenderID: "client-1", RecipientID: "provider-7",
			Type: chat.TypeText, Payload: chat.Payload{Text: &chat.TextPayload{Body: body}},
		})
		require.NoError(t, err)
	}

	w := doJSON(t, engine, http.MethodGet, "/v1/messages/job-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			JobID    string         `json:"job_id"`
			Messages []chat.Message `json:"messages"`
			Count    int            `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, 2, resp.Data.Count)
	require.Equal(t, "unu", resp.Data.Messages[0].Payload.Text.Body)

	// An unknown room is an empty history, not an error.
	w = doJSON(t, engine, http.MethodGet, "/v1/messages/job-nope", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestMarkReadEndpoint(t *testing.T) {
	engine, svc := newTestRouter(t, "provider-7")

	msg, err := svc.Send(context.Background(), chat.SendRequest{
		JobID: "job-1", SenderID: "client-1", RecipientID: "provider-7",
		Type: chat.TypeText, Payload: chat.Payload{Text: &chat.TextPayload{Body: "citit"}},
	})
	require.NoError(t, err)

	w := doJSON(t, engine, http.MethodPatch, "/v1/messages/"+msg.ID+"/read", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data chat.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Data.IsRead)
	require.NotNil(t, resp.Data.ReadAt)

	// Missing message maps to 404 in the error envelope.
	w = doJSON(t, engine, http.MethodPatch, "/v1/messages/msg_missing/read", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkReadForbiddenForSender(t *testing.T) {
	engine, svc := newTestRouter(t, "client-1")

	msg, err := svc.Send(context.Background(), chat.SendRequest{
		JobID: "job-1", SenderID: "client-1", RecipientID: "provider-7",
		Type: chat.TypeText, Payload: chat.Payload{Text: &chat.TextPayload{Body: "al meu"}},
	})
	require.NoError(t, err)

	w := doJSON(t, engine, http.MethodPatch, "/v1/messages/"+msg.ID+"/read", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestListConversationsEndpoint(t *testing.T) {
	engine, svc := newTestRouter(t, "client-1")
	ctx := context.Background()

	_, err := svc.Send(ctx, chat.SendRequest{
		JobID: "job-1", SenderID: "provider-7", RecipientID: "client-1",
		Type: chat.TypeText, Payload: chat.Payload{Text: &chat.TextPayload{Body: "oferta mea"}},
	})
	require.NoError(t, err)

	w := doJSON(t, engine, http.MethodGet, "/v1/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Conversations []struct {
				JobID          string `json:"job_id"`
				CounterpartyID string `json:"counterparty_id"`
				Preview        string `json:"preview"`
				UnreadCount    int64  `json:"unread_count"`
			} `json:"conversations"`
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, 1, resp.Data.Count)
	require.Equal(t, "provider-7", resp.Data.Conversations[0].CounterpartyID)
	require.Equal(t, "oferta mea", resp.Data.Conversations[0].Preview)
	require.Equal(t, int64(1), resp.Data.Conversations[0].UnreadCount)
}
