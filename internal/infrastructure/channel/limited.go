package channel

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles an adapter to the provider's sending rate.
type RateLimited struct {
	next    Sender
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond sends per second with a burst of burst.
// A non-positive perSecond returns next unchanged.
func NewRateLimited(next Sender, perSecond float64, burst int) Sender {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Send waits for a token, then delegates.
func (r *RateLimited) Send(ctx context.Context, to string, subject *string, body string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.Send(ctx, to, subject, body)
}
