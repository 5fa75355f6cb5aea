package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appErrors "notifier/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoSender_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/smtp/email", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("api-key"))

		var got brevoEmail
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "studio@example.com", got.Sender.Email)
		assert.Equal(t, []brevoContact{{Email: "ann@example.com"}}, got.To)
		assert.Equal(t, "Your appointment", got.Subject)
		assert.Equal(t, "<p>hi</p>", got.HTMLContent)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<abc@smtp-relay>"}`))
	}))
	defer srv.Close()

	s, err := NewBrevoSender(BrevoConfig{APIKey: "key-1", SenderEmail: "studio@example.com", BaseURL: srv.URL})
	require.NoError(t, err)

	subject := "Your appointment"
	id, err := s.Send(context.Background(), "ann@example.com", &subject, "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "<abc@smtp-relay>", id)
}

func TestBrevoSender_Classification(t *testing.T) {
	tests := []struct {
		status   int
		terminal bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusUnauthorized, true},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"code":"x","message":"nope"}`))
			}))
			defer srv.Close()

			s, err := NewBrevoSender(BrevoConfig{APIKey: "k", SenderEmail: "a@b.co", BaseURL: srv.URL})
			require.NoError(t, err)
			_, err = s.Send(context.Background(), "ann@example.com", nil, "body")
			require.Error(t, err)
			assert.Equal(t, tt.terminal, appErrors.IsTerminal(err))
		})
	}
}
