package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TestMetricsMiddleware_UsesRoutePattern ensures requests are labeled by the
// chi route pattern instead of the raw URL path.
func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	svc := &mockService{}
	if w := serve(t, svc, http.MethodPost, "/components/vae/release", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	body := mrr.Body.Bytes()
	if !bytes.Contains(body, []byte("offloadd_http_requests_total")) || !bytes.Contains(body, []byte("/components/{id}/release")) {
		t.Fatalf("expected offloadd_http_requests_total labeled with the route pattern")
	}
	if bytes.Contains(body, []byte("/components/vae/release")) {
		t.Fatalf("raw path leaked into metric labels")
	}
}

func TestIncrementBackpressure_DefaultReason(t *testing.T) {
	IncrementBackpressure("")
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !bytes.Contains(mrr.Body.Bytes(), []byte(`offloadd_http_backpressure_total{reason="unspecified"}`)) {
		t.Fatalf("backpressure counter missing")
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	if w := serve(t, &mockService{}, http.MethodGet, "/no/such/path-12345", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := mrr.Body.Bytes()
	if bytes.Contains(body, []byte("path-12345")) {
		t.Fatalf("unmatched path leaked into metric labels")
	}
	if !bytes.Contains(body, []byte(`route="unmatched"`)) {
		t.Fatalf("expected unmatched route label")
	}
}
