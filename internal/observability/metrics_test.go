package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.ObserveAPI("GET", "/api/learning-plans", 200, 30*time.Millisecond)
	m.ObserveAPI("GET", "/api/learning-plans", 200, 2*time.Second)
	m.ObserveUpstream("elrr", "elrr.create_goal", "2xx", 100*time.Millisecond)
	m.ObserveUpstream("elrr", "elrr.create_goal", "upstream_unavailable", 3*time.Second)

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`edlm_api_requests_total{method="GET",route="/api/learning-plans",status="200"} 2`,
		`edlm_api_request_duration_seconds_bucket{method="GET",route="/api/learning-plans",le="0.05"} 1`,
		`edlm_api_request_duration_seconds_count{method="GET",route="/api/learning-plans"} 2`,
		`edlm_upstream_calls_total{service="elrr",op="elrr.create_goal",outcome="upstream_unavailable"} 1`,
		"# TYPE edlm_upstream_call_duration_seconds histogram",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
	if got := m.UpstreamCalls("elrr", "elrr.create_goal", "2xx"); got != 1 {
		t.Fatalf("2xx calls: want=1 got=%v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", 200, time.Millisecond)
	m.ObserveUpstream("xds", "op", "ok", time.Millisecond)
	m.APIInflight(1)
	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("status: want=503 got=%d", rec.Code)
	}
}

func TestParseHeaders(t *testing.T) {
	got := parseHeaders("a=1, b = two ,bad,=x")
	if len(got) != 2 || got["a"] != "1" || got["b"] != "two" {
		t.Fatalf("headers: got=%v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}
