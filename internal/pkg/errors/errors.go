package errors

import (
	"context"
	"errors"
	"fmt"
)

// Custom application errors
var (
	ErrInvalidDestination   = errors.New("invalid destination")                 // Malformed phone number, email or LINE user ID
	ErrMissingField         = errors.New("missing required template field")     // Payload lacks data a template needs
	ErrUnknownKind          = errors.New("unknown notification kind")           // No template registered for the kind
	ErrUnknownChannel       = errors.New("unknown channel")                     // Channel name not registered with the engine
	ErrQuotaExceeded        = errors.New("channel quota exceeded")              // Daily or monthly cap reached
	ErrAllChannelsExhausted = errors.New("all channels exhausted")              // No channel delivered the notification
	ErrMissingDedupKey      = errors.New("dedup key is required")               // Request without a business event key
	ErrDatabaseOperation    = errors.New("database operation failed")           // Generic database error
	ErrScheduling           = errors.New("scheduling failed")                   // Generic scheduling error
	ErrEngineStopped        = errors.New("notification engine is stopped")      // NotifyNow after Stop
	ErrInternalServer       = errors.New("internal server error")               // Generic internal error
	ErrProvider             = errors.New("provider rejected the notification") // Base for provider errors
)

// ErrorClass tells the orchestrator whether retrying the same channel can help.
type ErrorClass int

const (
	// Transient errors may succeed on retry (network, timeout, throttling).
	Transient ErrorClass = iota
	// Terminal errors will never succeed on the same channel (rejected destination, region).
	Terminal
)

func (c ErrorClass) String() string {
	if c == Terminal {
		return "terminal"
	}
	return "transient"
}

// ProviderError is returned by channel adapters.
type ProviderError struct {
	Provider string
	Class    ErrorClass
	Code     string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s error (code %s): %v", e.Provider, e.Class, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Class, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}

// NewTerminal builds a terminal provider error.
func NewTerminal(provider, code string, err error) error {
	return &ProviderError{Provider: provider, Class: Terminal, Code: code, Err: err}
}

// NewTransient builds a transient provider error.
func NewTransient(provider, code string, err error) error {
	return &ProviderError{Provider: provider, Class: Transient, Code: code, Err: err}
}

// IsTerminal reports whether err must not be retried on the same channel.
// Anything not explicitly classified as terminal is treated as transient.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Class == Terminal
	}
	return errors.Is(err, ErrInvalidDestination) || errors.Is(err, ErrMissingField)
}
