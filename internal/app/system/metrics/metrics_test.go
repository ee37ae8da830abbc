// internal/app/system/metrics/metrics_test.go

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	t.Fatalf("metric %q not found", name)
	return 0
}

func TestRecordSigninOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSigninSuccess()
	c.RecordSigninSuccess()
	c.RecordSigninFailure("bad_credentials")
	c.RecordSigninFailure("rate_limited")
	c.RecordSigninFailure("bad_credentials")

	if got := counterValue(t, reg, "accord_signin_success_total"); got != 2 {
		t.Errorf("signin_success_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "accord_signin_fail_total"); got != 3 {
		t.Errorf("signin_fail_total = %v, want 3", got)
	}
}

func TestRecordTokenCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignup()
	c.RecordTokenIssued()
	c.RecordTokenIssued()
	c.RecordTokenRevoked()

	if got := counterValue(t, reg, "accord_signup_total"); got != 1 {
		t.Errorf("signup_total = %v, want 1", got)
	}
	if got := counterValue(t, reg, "accord_tokens_issued_total"); got != 2 {
		t.Errorf("tokens_issued_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "accord_tokens_revoked_total"); got != 1 {
		t.Errorf("tokens_revoked_total = %v, want 1", got)
	}
}

func TestMiddlewareRecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/goals", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/goals", nil))

	if got := counterValue(t, reg, "accord_http_requests_total"); got != 2 {
		t.Errorf("http_requests_total = %v, want 2", got)
	}

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != "accord_http_request_seconds" {
			continue
		}
		if got := mf.GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
			t.Errorf("latency sample count = %d, want 2", got)
		}
		return
	}
	t.Error("accord_http_request_seconds metric not found")
}

func TestHandlerServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSigninSuccess()
	c.RecordTokenIssued()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Result().Body)
	for _, name := range []string{"accord_signin_success_total", "accord_tokens_issued_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("scrape output missing %q", name)
		}
	}
}
