package repository

import "context"

// StateRepository stores small pieces of advisory scheduler state.
type StateRepository interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put creates or replaces the value.
	Put(ctx context.Context, key, value string) error
}
