package channel

import (
	"context"
	"fmt"
	"notifier/internal/pkg/logger"

	"github.com/google/uuid"
)

// Simulated stands in for a provider whose credentials are not configured.
// It logs the message and reports success.
type Simulated struct {
	name string
	log  logger.Logger
}

// NewSimulated creates a simulated adapter for the named channel.
func NewSimulated(name string, log logger.Logger) *Simulated {
	return &Simulated{name: name, log: log}
}

// Send logs the message and returns a sim-<uuid> message ID.
func (s *Simulated) Send(ctx context.Context, to string, subject *string, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := "sim-" + uuid.NewString()
	subj := ""
	if subject != nil {
		subj = fmt.Sprintf(" subject=%q", *subject)
	}
	s.log.Info(fmt.Sprintf("[simulated %s] to=%s%s id=%s body=%q", s.name, to, subj, id, body))
	return id, nil
}
