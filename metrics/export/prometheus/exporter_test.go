package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/halcyonlabs/authflow"
)

type fakeSource struct {
	snapshot authflow.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() authflow.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authflow.MetricsSnapshot{
			Counters: map[authflow.MetricID]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndLatency(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authflow.MetricsSnapshot{
			Counters: map[authflow.MetricID]uint64{
				authflow.MetricLoginSuccess: 7,
			},
			Latency: []uint64{1, 2, 3, 4, 5, 6, 7, 8},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "authflow_login_success_total 7") {
		t.Fatalf("expected login_success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "authflow_backend_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first latency bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "authflow_backend_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "authflow_backend_latency_seconds_count 36") {
		t.Fatalf("expected latency count in output, got:\n%s", out)
	}
	if !strings.Contains(out, "authflow_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestRenderOmitsLatencyWhenDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authflow.MetricsSnapshot{
			Counters: map[authflow.MetricID]uint64{
				authflow.MetricLoginSuccess: 1,
			},
		},
	})

	out := exp.Render()
	if strings.Contains(out, "authflow_backend_latency_seconds") {
		t.Fatalf("expected no latency family without latency data, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authflow.MetricsSnapshot{
			Counters: map[authflow.MetricID]uint64{authflow.MetricLoginSuccess: 1},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
