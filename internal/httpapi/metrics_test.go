package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T) []byte {
	t.Helper()
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	return mrr.Body.Bytes()
}

// TestMetricsMiddleware_EmitsRequestCounters verifies that wrapping a handler
// with MetricsMiddleware results in request metrics being exposed via the
// Prometheus /metrics handler.
func TestMetricsMiddleware_EmitsRequestCounters(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rr := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/test", "GET", "200")); got < 1 {
		t.Fatalf("expected counter for /test, got %v", got)
	}
	body := scrape(t)
	for _, name := range []string{"ttsd_http_requests_total", "ttsd_http_response_bytes"} {
		if !bytes.Contains(body, []byte(name)) {
			t.Fatalf("expected %s in metrics", name)
		}
	}
}

func TestMetricsMiddleware_ImplicitOKAndBytes(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 1000))
	})
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/implicit", "POST", "200"))
	MetricsMiddleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/implicit", nil))
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/implicit", "POST", "200")); got != before+1 {
		t.Fatalf("implicit 200 not counted: before=%v after=%v", before, got)
	}
	if n := testutil.CollectAndCount(httpResponseBytes); n < 1 {
		t.Fatalf("response bytes histogram empty")
	}
}

// TestMetricsMiddleware_UsesRoutePattern ensures the path label is the chi
// route pattern and unmatched paths collapse to one label.
func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/weights/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/weights/a.ckpt", nil))
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/weights/{name}", "GET", "200")); got < 1 {
		t.Fatalf("expected pattern label, got %v", got)
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404")); got < 1 {
		t.Fatalf("expected unmatched label, got %v", got)
	}
}

func TestIncrementBackpressure_IncrementsCounter(t *testing.T) {
	baseline := testutil.ToFloat64(backpressureTotal.WithLabelValues("gate_wait"))
	IncrementBackpressure("gate_wait")
	IncrementBackpressure("gate_wait")
	if got := testutil.ToFloat64(backpressureTotal.WithLabelValues("gate_wait")); got < baseline+2 {
		t.Fatalf("expected backpressure counter >= %v, got %v", baseline+2, got)
	}

	before := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified"))
	IncrementBackpressure("")
	if after := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified")); after < before+1 {
		t.Fatalf("expected unspecified reason to increment: before=%v after=%v", before, after)
	}
}
