// Package channel holds the outbound provider adapters. Every adapter sends one
// rendered message to one normalized destination and classifies provider
// failures as terminal or transient.
package channel

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Sender is implemented by every provider adapter.
type Sender interface {
	Send(ctx context.Context, destination string, subject *string, body string) (string, error)
}

const defaultHTTPTimeout = 10 * time.Second

// maxErrorBody bounds how much of a provider error response is kept in the error text.
const maxErrorBody = 2048

func newHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return string(b)
}
