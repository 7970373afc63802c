// Package redisstate implements the state.Store contract on Redis. It is
// intended for shared-kiosk deployments where several terminals present the
// same device-local flow state.
package redisstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/halcyonlabs/authflow/state"
)

const defaultKeyPrefix = "afs"

// Store defines a public type used by authflow APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	redis  *redis.Client
	prefix string
}

// New describes the new operation and its observable behavior.
//
// New wraps an existing Redis client. The prefix namespaces every key; when
// empty, a package default is used so unrelated keyspaces cannot collide.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(key string) string {
	return s.prefix + ":" + key
}

// Put describes the put operation and its observable behavior.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", state.ErrUnavailable, err)
	}
	return nil
}

// Get describes the get operation and its observable behavior.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, state.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", state.ErrUnavailable, err)
	}
	return data, nil
}

// Delete describes the delete operation and its observable behavior.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", state.ErrUnavailable, err)
	}
	return nil
}

// Close describes the close operation and its observable behavior.
//
// Close does not close the wrapped Redis client; the caller that constructed
// the client owns its lifecycle.
func (s *Store) Close() error {
	return nil
}
