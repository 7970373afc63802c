package state

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is an exported constant or variable used by the flow engine.
	ErrNotFound = errors.New("state key not found")
	// ErrUnavailable is an exported constant or variable used by the flow engine.
	ErrUnavailable = errors.New("state backend unavailable")
)

// Store defines a public type used by authflow APIs.
//
// Store is the durable client-local key/value surface. Values are opaque
// byte slices; callers own their encoding. Implementations must be safe for
// concurrent use and must persist writes across process restarts.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
