package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/halcyonlabs/authflow"
	"github.com/halcyonlabs/authflow/metrics/export/internaldefs"
)

// ErrNilMeter is an exported constant or variable used by the flow engine.
var ErrNilMeter = errors.New("meter is nil")

// ErrNilSource is an exported constant or variable used by the flow engine.
var ErrNilSource = errors.New("metrics source is nil")

type metricsSource interface {
	MetricsSnapshot() authflow.MetricsSnapshot
	AuditDropped() uint64
}

// OTelExporter defines a public type used by authflow APIs.
//
// OTelExporter instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters     map[authflow.MetricID]metric.Int64ObservableCounter
	auditDropped metric.Int64ObservableCounter

	// Latency buckets are exported as gauges because the SDK owns real
	// histogram aggregation; these mirror the engine's raw bucket counts.
	latencyBuckets [authflow.LatencyBucketCount]metric.Int64ObservableGauge
	latencyCount   metric.Int64ObservableGauge
}

// NewOTelExporter describes the newotelexporter operation and its observable behavior.
func NewOTelExporter(meter metric.Meter, engine *authflow.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource describes the newotelexporterfromsource operation and its observable behavior.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if meter == nil {
		return nil, ErrNilMeter
	}

	e := &OTelExporter{
		source:   source,
		counters: make(map[authflow.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+authflow.LatencyBucketCount+2)

	for _, def := range internaldefs.CounterDefs {
		counter, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", def.Name, err)
		}
		e.counters[def.ID] = counter
		observables = append(observables, counter)
	}

	dropped, err := meter.Int64ObservableCounter(
		"authflow_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("register audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	for i, suffix := range internaldefs.LatencyBucketSuffixes {
		name := internaldefs.LatencyMetricName + "_bucket_le_" + suffix
		gauge, err := meter.Int64ObservableGauge(name, metric.WithDescription(internaldefs.LatencyMetricHelp))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
		e.latencyBuckets[i] = gauge
		observables = append(observables, gauge)
	}

	countName := internaldefs.LatencyMetricName + "_count"
	latencyCount, err := meter.Int64ObservableGauge(countName, metric.WithDescription(internaldefs.LatencyMetricHelp))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", countName, err)
	}
	e.latencyCount = latencyCount
	observables = append(observables, latencyCount)

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration

	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for id, counter := range e.counters {
		observer.ObserveInt64(counter, int64(snapshot.Counters[id]))
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	if cumulative, count, ok := internaldefs.CumulativeLatency(snapshot.Latency); ok {
		for i, gauge := range e.latencyBuckets {
			observer.ObserveInt64(gauge, int64(cumulative[i]))
		}
		observer.ObserveInt64(e.latencyCount, int64(count))
	}

	return nil
}

// Close describes the close operation and its observable behavior.
//
// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
