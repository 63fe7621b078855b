package obs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lista/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("lista", []float64{0.01, 0.1}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lists/123/estimate", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/lists/{listID}/estimate"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	total := testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "/api/v1/lists/{listID}/estimate", "204"))
	require.Equal(t, float64(1), total)
	require.NotZero(t, testutil.CollectAndCount(metrics.Latency))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.ResponseBytes))
	require.Zero(t, testutil.ToFloat64(metrics.InFlight))
}

func TestHTTPMetricsImplicitOK(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("lista", nil, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "unknown", "200")))
}

func TestHTTPMetricsReuseRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("lista", nil, registry)
	second := obs.NewHTTPMetrics("lista", nil, registry)
	require.Same(t, first.Requests, second.Requests)
}

func TestDomainMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := obs.NewDomainMetrics("lista", registry)
	m.EstimateResult("ok")
	m.PriceOrigin("seed_state")
	m.PriceOrigin("seed_state")
	m.Purchase(true)

	require.Equal(t, float64(1), testutil.ToFloat64(m.EstimateRequests.WithLabelValues("ok")))
	require.Equal(t, float64(2), testutil.ToFloat64(m.PriceOrigins.WithLabelValues("seed_state")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Purchases.WithLabelValues("true")))

	var nilMetrics *obs.DomainMetrics
	nilMetrics.EstimateResult("ok")
}

func TestRequestLoggerIncludesAnnotatedUser(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		obs.AnnotateUser(r.Context(), "user-42")
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lists", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(context.Background()))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "http_request", line["message"])
	require.Equal(t, "error", line["level"])
	require.Equal(t, "user-42", line["user_id"])
	require.Equal(t, float64(500), line["status"])
}
