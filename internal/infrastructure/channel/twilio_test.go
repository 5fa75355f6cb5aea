package channel

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	appErrors "notifier/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTwilio(t *testing.T, handler http.HandlerFunc) *TwilioSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s, err := NewTwilioSender(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550000000",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)
	return s
}

func TestTwilioSender_Send(t *testing.T) {
	s := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		raw, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(raw))
		require.NoError(t, err)
		assert.Equal(t, "+15551234567", form.Get("To"))
		assert.Equal(t, "+15550000000", form.Get("From"))
		assert.Equal(t, "hello", form.Get("Body"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42"}`))
	})

	id, err := s.Send(context.Background(), "+15551234567", nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "SM42", id)
}

func TestTwilioSender_Classification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		terminal bool
	}{
		{"invalid number", http.StatusBadRequest, `{"code":21211,"message":"invalid To"}`, true},
		{"unsubscribed", http.StatusBadRequest, `{"code":21610,"message":"unsubscribed"}`, true},
		{"other client error", http.StatusUnauthorized, `{"code":20003,"message":"auth"}`, true},
		{"throttled", http.StatusTooManyRequests, `{"code":20429,"message":"slow down"}`, false},
		{"server error", http.StatusServiceUnavailable, `oops`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestTwilio(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := s.Send(context.Background(), "+15551234567", nil, "hello")
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrProvider)
			assert.Equal(t, tt.terminal, appErrors.IsTerminal(err))
		})
	}
}

func TestTwilioSender_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	s, err := NewTwilioSender(TwilioConfig{AccountSID: "AC1", AuthToken: "t", MessagingServiceSID: "MG1", BaseURL: base})
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "+15551234567", nil, "hello")
	require.Error(t, err)
	assert.False(t, appErrors.IsTerminal(err))
}

func TestNewTwilioSender_RequiresCredentials(t *testing.T) {
	_, err := NewTwilioSender(TwilioConfig{AuthToken: "t", FromNumber: "+1"})
	assert.Error(t, err)
	_, err = NewTwilioSender(TwilioConfig{AccountSID: "AC1", AuthToken: "t"})
	assert.Error(t, err)
}
