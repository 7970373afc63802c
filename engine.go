package authflow

import (
	"sync"
	"time"

	internalaudit "github.com/halcyonlabs/authflow/internal/audit"
)

// Engine defines a public type used by authflow APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Engine orchestrates the multi-step flows (login, registration, email
// verification, password reset, email change) on top of an injected Backend
// and keeps the adopted session observable through its Watcher.
type Engine struct {
	config  Config
	backend Backend
	watcher *Watcher
	resend  *ResendThrottle
	audit   *internalaudit.Dispatcher
	metrics *Metrics

	// one in-flight action per flow name, guarded by mu
	mu       sync.Mutex
	inflight map[string]bool

	autoSentMu sync.Mutex
	autoSent   map[string]bool
}

// Close describes the close operation and its observable behavior.
//
// Close drains and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Watcher describes the watcher operation and its observable behavior.
//
// Watcher returns the session watcher owned by this engine.
func (e *Engine) Watcher() *Watcher {
	if e == nil {
		return nil
	}
	return e.watcher
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeBackend(start time.Time) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.ObserveLatency(time.Since(start))
}

// begin reserves the named flow action. The returned release func must be
// called when the action finishes. A second call while the first is still
// in flight fails with ErrFlowBusy.
func (e *Engine) begin(action string) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inflight[action] {
		return nil, ErrFlowBusy
	}
	e.inflight[action] = true

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.inflight, action)
	}, nil
}
