package chat_client_service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"easychat-service/controller/auth"
	"easychat-service/models"
	"easychat-service/tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":           code,
		"message":        message,
		"processingTime": 1,
		"data":           data,
	})
}

func TestAPIClientHistoryAndSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.Header.Get(auth.HeaderUserID))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/messages/bob":
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			assert.Equal(t, "6", r.URL.Query().Get("skip"))
			writeEnvelope(w, http.StatusOK, 0, "success", []models.Message{{ID: "m1", SenderID: "bob", ReceiverID: "alice"}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/messages/send/bob":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "hi", body["text"])
			writeEnvelope(w, http.StatusCreated, 0, "success", models.Message{ID: "m2", SenderID: "alice", ReceiverID: "bob", Text: "hi"})
		case r.URL.Path == "/api/messages/send/carol":
			writeEnvelope(w, http.StatusForbidden, 403, "cannot send message to blocked user", nil)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewAPIClient(&APIConfig{BaseURL: srv.URL, UserID: "alice"})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	msgs, err := c.History(ctx, "bob", 3, 6)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)

	msg, err := c.Send(ctx, "bob", "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "m2", msg.ID)

	_, err = c.Send(ctx, "carol", "hi", "")
	require.Error(t, err)
	assert.True(t, IsBlocked(err))
	assert.Contains(t, err.Error(), "blocked")
}

func TestAPIClientSignsRequests(t *testing.T) {
	const priv = "8170940a65bda743704be89096ce6d292f052dbb897f4b7aa5d92aa1d0e64531"
	pub, err := tool.PublicKeyFromPrivate(priv)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pub, r.Header.Get(auth.HeaderPublicKey))
		payload := auth.SignPayload(r.Method, r.URL.Path, r.Header.Get(auth.HeaderTimestamp))
		ok, err := tool.VerifySign(payload, r.Header.Get(auth.HeaderSignature), pub)
		assert.NoError(t, err)
		assert.True(t, ok)
		writeEnvelope(w, http.StatusOK, 0, "success", []models.BlockRelation{})
	}))
	defer srv.Close()

	c, err := NewAPIClient(&APIConfig{BaseURL: srv.URL, PrivKey: priv})
	require.NoError(t, err)
	defer c.Close()

	blocks, err := c.Blocks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestNewAPIClientRequiresIdentity(t *testing.T) {
	_, err := NewAPIClient(&APIConfig{BaseURL: "http://localhost"})
	assert.Error(t, err)
	_, err = NewAPIClient(&APIConfig{UserID: "alice"})
	assert.Error(t, err)
}
