// Package otel provides OpenTelemetry metric exporter bindings for authflow
// counters and the backend latency histogram.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each
// authflow counter and Int64ObservableGauge instruments for the latency
// buckets. A single callback reads [authflow.Engine.MetricsSnapshot] on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate engine state.
package otel
