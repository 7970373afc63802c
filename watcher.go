package authflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/halcyonlabs/authflow/session"
	"github.com/halcyonlabs/authflow/state"
)

// Watcher defines a public type used by authflow APIs.
//
// Watcher owns the adopted session. It persists every change to the state
// store, exposes the current snapshot, and notifies subscribers whenever the
// session appears, changes, or is cleared. All methods are safe for
// concurrent use.
type Watcher struct {
	engine   *Engine
	store    state.Store
	stateKey string

	mu        sync.Mutex
	handle    *SessionHandle
	listeners map[string]func(*Session)
}

func newWatcher(engine *Engine, store state.Store, stateKey string) *Watcher {
	return &Watcher{
		engine:    engine,
		store:     store,
		stateKey:  stateKey,
		listeners: make(map[string]func(*Session)),
	}
}

// restore loads a previously persisted session snapshot. A missing snapshot
// is normal first-run state; a corrupt one is discarded rather than surfaced.
func (w *Watcher) restore(ctx context.Context) error {
	data, err := w.store.Get(ctx, w.stateKey)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("restore session: %w", err)
	}

	handle, err := session.Decode(data)
	if err != nil {
		_ = w.store.Delete(ctx, w.stateKey)
		return nil
	}

	w.mu.Lock()
	w.handle = handle
	w.mu.Unlock()

	return nil
}

// Current describes the current operation and its observable behavior.
//
// Current returns a copy of the signed-in session record, or nil when no
// session is live.
func (w *Watcher) Current() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.handle == nil {
		return nil
	}
	record := w.handle.Record
	return &record
}

// Handle describes the handle operation and its observable behavior.
//
// Handle returns a copy of the live session handle, or nil.
func (w *Watcher) Handle() *SessionHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.handle == nil {
		return nil
	}
	handle := *w.handle
	return &handle
}

// OnChange describes the onchange operation and its observable behavior.
//
// OnChange registers fn to run after every session change. The callback
// receives the new snapshot (nil on clear) and runs outside the watcher
// lock, so it may call back into the watcher. The returned func removes the
// subscription.
func (w *Watcher) OnChange(fn func(*Session)) func() {
	id := uuid.NewString()

	w.mu.Lock()
	w.listeners[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}

func (w *Watcher) notify(current *Session) {
	w.mu.Lock()
	fns := make([]func(*Session), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(current)
	}
}

// Adopt describes the adopt operation and its observable behavior.
//
// Adopt installs a freshly issued handle as the live session, persists it,
// and notifies subscribers. Handles still awaiting a second factor are
// rejected.
func (w *Watcher) Adopt(ctx context.Context, handle *SessionHandle) error {
	if handle == nil || handle.SecondFactorRequired || handle.Token == "" {
		return ErrSessionRequired
	}

	data, err := session.Encode(handle)
	if err != nil {
		return err
	}
	if err := w.store.Put(ctx, w.stateKey, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	w.mu.Lock()
	stored := *handle
	w.handle = &stored
	record := stored.Record
	w.mu.Unlock()

	w.engine.metricInc(MetricSessionAdopted)
	w.engine.emitAudit(ctx, auditEventSessionAdopted, true, record.Email, record.ID, nil, nil)

	w.notify(&record)
	return nil
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh re-reads the session record from the backend. It returns whether
// the record changed. An ErrUnauthorized answer clears the session; a
// transport failure leaves the local session untouched and reports
// ErrBackendUnavailable, so a flaky network never logs the account out.
func (w *Watcher) Refresh(ctx context.Context) (bool, error) {
	handle := w.Handle()
	if handle == nil {
		return false, ErrSessionRequired
	}

	w.engine.metricInc(MetricSessionRefresh)

	record, err := w.engine.backend.RefreshSession(ctx, handle)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			w.engine.emitAudit(ctx, auditEventSessionCleared, true, handle.Record.Email, handle.Record.ID, err, nil)
			w.clear(ctx)
			return true, nil
		}
		w.engine.metricInc(MetricSessionRefreshFailure)
		w.engine.emitAudit(ctx, auditEventSessionRefreshUnavailable, false, handle.Record.Email, handle.Record.ID, err, nil)
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if *record == handle.Record {
		return false, nil
	}

	updated := *handle
	updated.Record = *record
	if err := w.Adopt(ctx, &updated); err != nil {
		return false, err
	}
	return true, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout clears the local session unconditionally. Backend-side token
// revocation is the host application's concern.
func (w *Watcher) Logout(ctx context.Context) {
	handle := w.Handle()
	if handle == nil {
		return
	}
	w.engine.emitAudit(ctx, auditEventSessionCleared, true, handle.Record.Email, handle.Record.ID, nil, nil)
	w.clear(ctx)
}

func (w *Watcher) clear(ctx context.Context) {
	_ = w.store.Delete(ctx, w.stateKey)

	w.mu.Lock()
	w.handle = nil
	w.mu.Unlock()

	w.engine.metricInc(MetricSessionCleared)
	w.notify(nil)
}
