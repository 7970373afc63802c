package prometheus

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/halcyonlabs/authflow"
	"github.com/halcyonlabs/authflow/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() authflow.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter defines a public type used by authflow APIs.
//
// PrometheusExporter instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates a Prometheus exporter that reads from the given [authflow.Engine].
func NewPrometheusExporter(engine *authflow.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates a Prometheus exporter from a
// snapshot provider, which keeps the exporter testable without a full engine.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Render describes the render operation and its observable behavior.
//
// Render returns the full exposition payload for the current snapshot. An
// empty snapshot (metrics disabled) renders as an empty payload.
func (e *PrometheusExporter) Render() string {
	snapshot := e.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 {
		return ""
	}

	var b strings.Builder

	for _, def := range internaldefs.CounterDefs {
		fmt.Fprintf(&b, "# HELP %s %s\n", def.Name, def.Help)
		fmt.Fprintf(&b, "# TYPE %s counter\n", def.Name)
		fmt.Fprintf(&b, "%s %d\n", def.Name, snapshot.Counters[def.ID])
	}

	fmt.Fprintf(&b, "# HELP authflow_audit_dropped_total Dropped audit events due to dispatcher backpressure.\n")
	fmt.Fprintf(&b, "# TYPE authflow_audit_dropped_total counter\n")
	fmt.Fprintf(&b, "authflow_audit_dropped_total %d\n", e.source.AuditDropped())

	if cumulative, count, ok := internaldefs.CumulativeLatency(snapshot.Latency); ok {
		name := internaldefs.LatencyMetricName
		fmt.Fprintf(&b, "# HELP %s %s\n", name, internaldefs.LatencyMetricHelp)
		fmt.Fprintf(&b, "# TYPE %s histogram\n", name)
		for i, bound := range internaldefs.LatencyBucketBounds {
			fmt.Fprintf(&b, "%s_bucket{le=%q} %d\n", name, bound, cumulative[i])
		}
		fmt.Fprintf(&b, "%s_count %d\n", name, count)
		// Per-observation sums are not tracked; emit zero so scrapers
		// that require the _sum series still parse the family.
		fmt.Fprintf(&b, "%s_sum 0\n", name)
	}

	return b.String()
}

// Handler describes the handler operation and its observable behavior.
//
// Handler returns an http.Handler serving the exposition payload.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}
