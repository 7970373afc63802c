package redisstate

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/halcyonlabs/authflow/state"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return New(rdb, "afs-test"), func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestPutGetDelete(t *testing.T) {
	store, done := newTestStore(t)
	defer done()

	ctx := context.Background()
	if err := store.Put(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("unexpected value: %q", got)
	}

	if err := store.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "k1"); !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetMissingKey(t *testing.T) {
	store, done := newTestStore(t)
	defer done()

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBackendDownMapsToUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(rdb, "")
	mr.Close()

	if err := store.Put(context.Background(), "k", []byte("v")); !errors.Is(err, state.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	_ = rdb.Close()
}
