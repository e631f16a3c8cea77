package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func TestHTTPMiddlewareRecordsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetricsCollector("api", "test", zap.NewNop())

	router := gin.New()
	router.Use(m.HTTPMiddleware())
	router.GET("/api/v1/plants/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/plants/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/plants/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestObserveHTTPCountsErrors(t *testing.T) {
	m := NewMetricsCollector("web", "test", zap.NewNop())

	m.ObserveHTTP(http.MethodPost, "/auth/login", http.StatusUnauthorized, 0, 10)
	m.ObserveHTTP(http.MethodPost, "/htmx/consultant", http.StatusBadGateway, 0, 10)
	m.ObserveHTTP(http.MethodGet, "", http.StatusNotFound, 0, -1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("client_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("server_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

func TestHandlerExposesServiceLabel(t *testing.T) {
	m := NewMetricsCollector("api", "1.2.3", zap.NewNop())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `medihort_build_info{service="api",version="1.2.3"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestOpenTelemetryMetersExportThroughRegistry(t *testing.T) {
	m := NewMetricsCollector("api", "test", zap.NewNop())

	provider, err := NewOpenTelemetryProvider(context.Background(), OpenTelemetryConfig{
		ServiceName:    "medihort-api",
		ServiceVersion: "test",
		Environment:    "test",
	}, m.Registry(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	assert.False(t, provider.TracingEnabled())

	counter, err := otel.Meter("monitoring-test").Int64Counter("medihort.test.events")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "medihort_test_events") {
			found = true
		}
	}
	assert.True(t, found, "otel instrument should be exported through the prometheus registry")
}
