package authflow

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by authflow APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the flow engine.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the flow engine.
	MetricLoginFailure
	// MetricChallengeIssued is an exported constant or variable used by the flow engine.
	MetricChallengeIssued
	// MetricChallengeIssueFailed is an exported constant or variable used by the flow engine.
	MetricChallengeIssueFailed
	// MetricChallengeVerifySuccess is an exported constant or variable used by the flow engine.
	MetricChallengeVerifySuccess
	// MetricChallengeVerifyFailure is an exported constant or variable used by the flow engine.
	MetricChallengeVerifyFailure
	// MetricChallengeResend is an exported constant or variable used by the flow engine.
	MetricChallengeResend
	// MetricChallengeAbandoned is an exported constant or variable used by the flow engine.
	MetricChallengeAbandoned
	// MetricRegisterSuccess is an exported constant or variable used by the flow engine.
	MetricRegisterSuccess
	// MetricRegisterFailure is an exported constant or variable used by the flow engine.
	MetricRegisterFailure
	// MetricRegisterDuplicate is an exported constant or variable used by the flow engine.
	MetricRegisterDuplicate
	// MetricVerificationEmailSent is an exported constant or variable used by the flow engine.
	MetricVerificationEmailSent
	// MetricVerificationEmailThrottled is an exported constant or variable used by the flow engine.
	MetricVerificationEmailThrottled
	// MetricVerificationConfirmSuccess is an exported constant or variable used by the flow engine.
	MetricVerificationConfirmSuccess
	// MetricVerificationConfirmFailure is an exported constant or variable used by the flow engine.
	MetricVerificationConfirmFailure
	// MetricPasswordResetRequest is an exported constant or variable used by the flow engine.
	MetricPasswordResetRequest
	// MetricPasswordResetConfirmSuccess is an exported constant or variable used by the flow engine.
	MetricPasswordResetConfirmSuccess
	// MetricPasswordResetConfirmFailure is an exported constant or variable used by the flow engine.
	MetricPasswordResetConfirmFailure
	// MetricEmailChangeRequest is an exported constant or variable used by the flow engine.
	MetricEmailChangeRequest
	// MetricEmailChangeConfirmSuccess is an exported constant or variable used by the flow engine.
	MetricEmailChangeConfirmSuccess
	// MetricEmailChangeConfirmFailure is an exported constant or variable used by the flow engine.
	MetricEmailChangeConfirmFailure
	// MetricSessionAdopted is an exported constant or variable used by the flow engine.
	MetricSessionAdopted
	// MetricSessionCleared is an exported constant or variable used by the flow engine.
	MetricSessionCleared
	// MetricSessionRefresh is an exported constant or variable used by the flow engine.
	MetricSessionRefresh
	// MetricSessionRefreshFailure is an exported constant or variable used by the flow engine.
	MetricSessionRefreshFailure
	metricIDCount
)

// LatencyBucketCount is the number of buckets in the backend latency
// histogram. Bounds are 5/10/25/50/100/250/500 ms and +Inf.
const LatencyBucketCount = 8

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by authflow APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Metrics holds one atomic counter per MetricID plus a single optional
// latency histogram for backend round trips. The engine is a client-side
// flow controller; the only duration worth bucketing is the backend call,
// so the histogram is not generalized per metric.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	latency       [LatencyBucketCount]uint64
}

// MetricsSnapshot defines a public type used by authflow APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Latency is nil when latency histograms are disabled; otherwise it holds
// the raw (non-cumulative) bucket counts for the backend latency histogram.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
	Latency  []uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled describes the enabled operation and its observable behavior.
//
// Enabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled describes the latencyenabled operation and its observable behavior.
//
// LatencyEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// ObserveLatency describes the observelatency operation and its observable behavior.
//
// ObserveLatency records one backend round-trip duration into the latency
// histogram. It is a no-op when latency histograms are disabled.
func (m *Metrics) ObserveLatency(d time.Duration) {
	if m == nil || !m.enableLatency {
		return
	}
	atomic.AddUint64(&m.latency[latencyBucket(d)], 1)
}

// Value describes the value operation and its observable behavior.
//
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		s.Latency = make([]uint64, LatencyBucketCount)
		for i := range s.Latency {
			s.Latency[i] = atomic.LoadUint64(&m.latency[i])
		}
	}

	return s
}

func latencyBucket(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
