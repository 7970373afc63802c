package authflow

import (
	"context"
	"errors"

	internalaudit "github.com/halcyonlabs/authflow/internal/audit"
	"github.com/halcyonlabs/authflow/state"
)

// Builder defines a public type used by authflow APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	backend   Backend
	store     state.Store
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a builder pre-loaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBackend describes the withbackend operation and its observable behavior.
//
// WithBackend does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBackend(backend Backend) *Builder {
	b.backend = backend
	return b
}

// WithStateStore describes the withstatestore operation and its observable behavior.
//
// WithStateStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStateStore(store state.Store) *Builder {
	b.store = store
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration, wires the engine together and restores
// any previously persisted session from the state store. A builder can be
// used once.
func (b *Builder) Build(ctx context.Context) (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.backend == nil {
		return nil, errors.New("backend required")
	}
	if b.store == nil {
		return nil, errors.New("state store required")
	}

	engine := &Engine{
		config:   cfg,
		backend:  b.backend,
		inflight: make(map[string]bool),
		autoSent: make(map[string]bool),
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Enrich:     auditContextEnricher,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	engine.resend = newResendThrottle(b.store, cfg.Session.ResendStateKeyPrefix, cfg.Verification.ResendWindow)
	engine.watcher = newWatcher(engine, b.store, cfg.Session.StateKey)

	if err := engine.watcher.restore(ctx); err != nil {
		return nil, err
	}

	b.built = true

	return engine, nil
}
