package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "MediHort AI", Environment: "test"},
		Server: config.ServerConfig{EnableCORS: true, AllowedOrigins: []string{"http://localhost:8080"}},
		RateLimit: config.RateLimitConfig{
			Enable:         true,
			RequestsPerMin: 60,
			BurstSize:      2,
		},
		Monitoring: config.MonitoringConfig{HealthCheckPath: "/health", MetricsPath: "/metrics"},
	}
}

func newRouter(m *Middleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(m.RequestID(), m.Recovery(), m.ErrorHandler())
	return router
}

func TestRequestID(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	router := newRouter(m)
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	router := newRouter(m)
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeInternal, body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestErrorHandler(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	router := newRouter(m)
	router.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apperrors.NewPlantNotFoundError("p1"))
	})
	router.GET("/plain", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), string(apperrors.CodePlantNotFound))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestCORS(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	router := newRouter(m)
	router.Use(m.CORS())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:8080", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit_PerClient(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	router := newRouter(m)
	router.Use(m.RateLimit(nil))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimit_CustomWriter(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.BurstSize = 1
	m := New(cfg, zap.NewNop())

	router := newRouter(m)
	router.Use(m.RateLimit(func(c *gin.Context, err *apperrors.AppError) {
		c.AbortWithStatusJSON(err.StatusCode(), gin.H{"error": err.Message})
	}))
	router.POST("/fn", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/fn", nil))
		if i == 1 {
			assert.Equal(t, http.StatusTooManyRequests, w.Code)
			assert.JSONEq(t, `{"error":"Rate limit exceeded"}`, w.Body.String())
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
		}
	}
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	l := NewIPRateLimiter(60, 1)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(10 * time.Minute)
	l.Allow("b")

	l.Sweep(5 * time.Minute)
	assert.Equal(t, 1, l.Len())
}

func TestSecurityHeaders(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	router := newRouter(m)
	router.Use(m.Security())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

type recordingObserver struct {
	routes   []string
	statuses []int
}

func (o *recordingObserver) ObserveHTTP(method, route string, status int, duration time.Duration, size int) {
	o.routes = append(o.routes, route)
	o.statuses = append(o.statuses, status)
}

func TestAccessLogReportsRoutePattern(t *testing.T) {
	observer := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(AccessLog(zap.NewNop(), observer))
	r.Get("/htmx/plants/{id}/dialog", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/htmx/plants/123/dialog", nil))

	require.Len(t, observer.routes, 1)
	assert.Equal(t, "/htmx/plants/{id}/dialog", observer.routes[0])
	assert.Equal(t, http.StatusAccepted, observer.statuses[0])
}

func TestSecureHeaders(t *testing.T) {
	r := chi.NewRouter()
	r.Use(SecureHeaders(false))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "https://unpkg.com")
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
}

func TestCompressionPrefersBrotli(t *testing.T) {
	page := strings.Repeat("<p>Medicinal plant</p>", 200)

	r := chi.NewRouter()
	r.Use(Compression(5))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "br", w.Header().Get("Content-Encoding"))

	decoded, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, page, string(decoded))
}

func TestBodyLimit(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	router := newRouter(m)
	router.POST("/", m.BodyLimit(16, nil), func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), string(apperrors.CodePayloadTooLarge))

	req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(strings.Repeat("x", 32))))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
