package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminal(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unclassified", cause, false},
		{"deadline", context.DeadlineExceeded, false},
		{"cancelled", context.Canceled, true},
		{"terminal provider", NewTerminal("twilio", "21211", cause), true},
		{"transient provider", NewTransient("twilio", "", cause), false},
		{"wrapped terminal", fmt.Errorf("send: %w", NewTerminal("brevo", "400", cause)), true},
		{"invalid destination", fmt.Errorf("%w: bad phone", ErrInvalidDestination), true},
		{"missing field", fmt.Errorf("%w: date", ErrMissingField), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTerminal(tt.err))
		})
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("opted out")
	err := NewTerminal("aws_sns", "OptedOut", cause)

	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "aws_sns terminal error (code OptedOut): opted out", err.Error())
	assert.Equal(t, "twilio transient error: opted out", NewTransient("twilio", "", cause).Error())
}
