package authflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/halcyonlabs/authflow/state"
)

// memStore is a minimal in-process state.Store for unit tests.
type memStore struct {
	data    map[string][]byte
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, key string, value []byte) error {
	if s.failAll {
		return state.ErrUnavailable
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.failAll {
		return nil, state.ErrUnavailable
	}
	v, ok := s.data[key]
	if !ok {
		return nil, state.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	if s.failAll {
		return state.ErrUnavailable
	}
	delete(s.data, key)
	return nil
}

func (s *memStore) Close() error { return nil }

func TestThrottleCooldownArithmetic(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	base := time.Unix(1_700_000_000, 0)
	now := base
	throttle := newResendThrottle(store, "resend", 30*time.Second)
	throttle.now = func() time.Time { return now }

	if !throttle.CanSend(ctx, "a@b.co") {
		t.Fatal("expected fresh account to be sendable")
	}
	if got := throttle.RemainingSeconds(ctx, "a@b.co"); got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}

	throttle.RecordSent(ctx, "a@b.co")

	if throttle.CanSend(ctx, "a@b.co") {
		t.Fatal("expected cooldown right after send")
	}
	if got := throttle.RemainingSeconds(ctx, "a@b.co"); got != 30 {
		t.Fatalf("expected 30s remaining, got %d", got)
	}

	now = base.Add(10 * time.Second)
	if got := throttle.RemainingSeconds(ctx, "a@b.co"); got != 20 {
		t.Fatalf("expected 20s remaining, got %d", got)
	}

	now = base.Add(29*time.Second + 500*time.Millisecond)
	if got := throttle.RemainingSeconds(ctx, "a@b.co"); got != 1 {
		t.Fatalf("expected rounding up to 1s, got %d", got)
	}

	now = base.Add(30 * time.Second)
	if !throttle.CanSend(ctx, "a@b.co") {
		t.Fatal("expected cooldown to elapse at the window boundary")
	}
}

func TestThrottleSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	base := time.Unix(1_700_000_000, 0)
	first := newResendThrottle(store, "resend", 30*time.Second)
	first.now = func() time.Time { return base }
	first.RecordSent(ctx, "a@b.co")

	// A new throttle over the same store stands in for a process restart.
	second := newResendThrottle(store, "resend", 30*time.Second)
	second.now = func() time.Time { return base.Add(10 * time.Second) }

	if second.CanSend(ctx, "a@b.co") {
		t.Fatal("expected cooldown to survive restart")
	}
	if got := second.RemainingSeconds(ctx, "a@b.co"); got != 20 {
		t.Fatalf("expected resumed countdown at 20s, got %d", got)
	}
}

func TestThrottleFailsOpenOnStoreError(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failAll = true

	throttle := newResendThrottle(store, "resend", 30*time.Second)

	if !throttle.CanSend(ctx, "a@b.co") {
		t.Fatal("expected store failure to permit sending")
	}
	if got := throttle.RemainingSeconds(ctx, "a@b.co"); got != 0 {
		t.Fatalf("expected 0 remaining on store failure, got %d", got)
	}
}

func TestThrottleClear(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	throttle := newResendThrottle(store, "resend", 30*time.Second)
	throttle.RecordSent(ctx, "a@b.co")
	throttle.Clear(ctx, "a@b.co")

	if !throttle.CanSend(ctx, "a@b.co") {
		t.Fatal("expected cleared cooldown to permit sending")
	}
}

func TestThrottleIsPerAccount(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	throttle := newResendThrottle(store, "resend", 30*time.Second)
	throttle.RecordSent(ctx, "a@b.co")

	if !throttle.CanSend(ctx, "other@b.co") {
		t.Fatal("expected unrelated account to be unaffected")
	}
}

func TestMemStoreSanity(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
