package channel

import (
	"context"
	"testing"
	"time"

	"notifier/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimited_DisabledReturnsNext(t *testing.T) {
	sim := NewSimulated("sms", logger.NewNop())
	assert.Same(t, Sender(sim), NewRateLimited(sim, 0, 1))
}

func TestRateLimited_Send(t *testing.T) {
	limited := NewRateLimited(NewSimulated("sms", logger.NewNop()), 1, 1)

	id, err := limited.Send(context.Background(), "+15551234567", nil, "first")
	require.NoError(t, err)
	assert.Contains(t, id, "sim-")

	// The bucket is empty now; a short deadline cannot wait a full second.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = limited.Send(ctx, "+15551234567", nil, "second")
	assert.Error(t, err)
}

func TestSimulated_Send(t *testing.T) {
	sim := NewSimulated("email", logger.NewNop())
	subject := "hi"
	id, err := sim.Send(context.Background(), "ann@example.com", &subject, "<p>body</p>")
	require.NoError(t, err)
	assert.Regexp(t, `^sim-[0-9a-f-]{36}$`, id)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.Send(ctx, "ann@example.com", nil, "body")
	assert.ErrorIs(t, err, context.Canceled)
}
