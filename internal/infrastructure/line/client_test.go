package line

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "U0123456789abcdef0123456789abcdef"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{ChannelSecret: "secret", ChannelAccessToken: "token", APIEndpoint: srv.URL}, logger.NewNop())
	require.NoError(t, err)
	return c
}

func TestClient_Send(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bot/message/push", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var got struct {
			To       string `json:"to"`
			Messages []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, testUserID, got.To)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "text", got.Messages[0].Type)
		assert.Equal(t, "see you tomorrow", got.Messages[0].Text)

		w.Header().Set("X-Line-Request-Id", "req-1")
		_, _ = w.Write([]byte(`{}`))
	})

	id, err := c.Send(context.Background(), testUserID, nil, "see you tomorrow")
	require.NoError(t, err)
	assert.Equal(t, "req-1", id)
}

func TestClient_SendClassification(t *testing.T) {
	tests := []struct {
		status   int
		terminal bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusForbidden, true},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"failed"}`))
			})
			_, err := c.Send(context.Background(), testUserID, nil, "hi")
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrProvider)
			assert.Equal(t, tt.terminal, appErrors.IsTerminal(err))
		})
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{ChannelSecret: "s"}, logger.NewNop())
	assert.Error(t, err)
}
