package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMiddlewareRecordsRouteAndStatus(t *testing.T) {
	metrics := NewMetrics()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/api/products/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/products/oak-desk", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	body := scrape(t, metrics)
	if !strings.Contains(body, `arbor_http_requests_total{code="404",route="/api/products/{slug}"} 1`) {
		t.Fatalf("request counter missing from scrape:\n%s", body)
	}
}

func TestDenialCounters(t *testing.T) {
	metrics := NewMetrics()

	metrics.RateLimitDenied("strict")
	metrics.RateLimitDenied("strict")
	metrics.AuthDenied("permission")

	body := scrape(t, metrics)
	if !strings.Contains(body, `arbor_ratelimit_denied_total{guard="strict"} 2`) {
		t.Fatalf("rate limit counter missing from scrape:\n%s", body)
	}
	if !strings.Contains(body, `arbor_auth_denied_total{gate="permission"} 1`) {
		t.Fatalf("auth counter missing from scrape:\n%s", body)
	}
}

func TestNilMetricsAreInert(t *testing.T) {
	var metrics *Metrics

	metrics.RateLimitDenied("strict")
	metrics.AuthDenied("role")

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics handler, got %d", rec.Code)
	}
}

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}
