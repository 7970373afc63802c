// Package prometheus renders authflow metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts an [authflow.Engine] and exposes an
// [http.Handler] that renders all authflow counters and histograms. Counter
// names are prefixed authflow_*_total; the single histogram is
// authflow_backend_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
