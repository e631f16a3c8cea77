package testutils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medihort/medihort-ai/internal/application/ai"
	"github.com/medihort/medihort-ai/internal/application/catalog"
	"github.com/medihort/medihort-ai/internal/application/favorites"
	appuser "github.com/medihort/medihort-ai/internal/application/user"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/infrastructure/container"
	"github.com/medihort/medihort-ai/internal/infrastructure/http/apiserver"
	"github.com/medihort/medihort-ai/internal/infrastructure/http/webserver"
	"github.com/medihort/medihort-ai/internal/infrastructure/monitoring"
	gormrepo "github.com/medihort/medihort-ai/internal/infrastructure/persistence/gorm"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/memory"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/postgres"
	"github.com/medihort/medihort-ai/internal/infrastructure/security"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	"github.com/medihort/medihort-ai/pkg/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// APIStack is a platform API served over httptest
type APIStack struct {
	Server *httptest.Server
	Config *config.Config
	Model  *StubLanguageModel
	Auth   *security.AuthService
}

// URL returns the base URL of the API
func (s *APIStack) URL() string {
	return s.Server.URL
}

// TestConfig returns a configuration suitable for in-process servers
func TestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "MediHort AI"
	cfg.App.Environment = "test"
	cfg.App.Version = "test"
	cfg.Auth.JWTSecret = "integration-test-secret-0123456789abcdef"
	cfg.Auth.JWTIssuer = "medihort-ai"
	cfg.Auth.JWTExpiration = time.Hour
	cfg.RateLimit.Enable = false
	cfg.AI.Timeout = 5 * time.Second
	cfg.AI.EnableCache = true
	cfg.AI.CacheTTL = time.Hour
	cfg.Monitoring.EnableMetrics = true
	cfg.Monitoring.MetricsPath = "/metrics"
	cfg.Monitoring.HealthCheckPath = "/health"
	cfg.Monitoring.ReadinessPath = "/health/ready"
	cfg.Web.APITimeout = 5 * time.Second
	cfg.Web.SessionCookie = "medihort_session"
	cfg.Web.SessionMaxAge = time.Hour
	cfg.Web.EnableCompression = true
	cfg.Web.CompressionLevel = 5
	return cfg
}

// NewAPIStack serves the full API on database with a stub language model
func NewAPIStack(t testing.TB, database *container.Database, cfg *config.Config) *APIStack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	cache := memory.NewCacheRepository(0)
	t.Cleanup(func() { _ = cache.Close() })

	auth, err := security.NewAuthService(cfg, cache, log)
	require.NoError(t, err)

	var favoriteRepo outbound.FavoriteRepository
	if database.Postgres != nil {
		favoriteRepo = postgres.NewFavoriteRepository(database.Postgres.Pool(), log)
	} else {
		favoriteRepo = gormrepo.NewFavoriteRepository(database.DB)
	}

	plants := gormrepo.NewPlantRepository(database.DB)
	validator := security.NewValidator()
	model := NewStubLanguageModel("A soothing herb with a long record of traditional use.")
	aiService := ai.NewAIService([]outbound.LanguageModel{model}, cache, ai.Options{
		Timeout:     cfg.AI.Timeout,
		EnableCache: cfg.AI.EnableCache,
		CacheTTL:    cfg.AI.CacheTTL,
	}, ai.NewMetrics(prometheus.NewRegistry()), log)

	health := healthcheck.New(cfg.App.Version, log)
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	health.Register("database", healthcheck.NewSQLChecker(sqlDB))

	server, err := apiserver.NewServer(cfg, apiserver.Dependencies{
		Accounts:   appuser.NewUserService(gormrepo.NewUserRepository(database.DB), auth, validator, log),
		Catalog:    catalog.NewCatalogService(plants, log),
		Favorites:  favorites.NewFavoriteService(favoriteRepo, plants, prometheus.NewRegistry(), log),
		Insights:   aiService,
		Consultant: aiService,
		Auth:       auth,
		Validator:  validator,
		Health:     health,
		Metrics:    monitoring.NewMetricsCollector("api", cfg.App.Version, log),
	}, log)
	require.NoError(t, err)

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return &APIStack{Server: srv, Config: cfg, Model: model, Auth: auth}
}

// NewWebStack serves the HTMX front-end against the API at apiURL
func NewWebStack(t testing.TB, cfg *config.Config, apiURL string) *httptest.Server {
	t.Helper()
	log := zap.NewNop()

	cfg.Web.APIURL = apiURL
	cache := memory.NewCacheRepository(0)
	t.Cleanup(func() { _ = cache.Close() })

	web, err := webserver.NewWebServer(cfg, webserver.Dependencies{
		API:      webserver.NewAPIClient(cfg.Web, log),
		Sessions: webserver.NewSessionStore(cfg.Web, cache, log),
		Metrics:  monitoring.NewMetricsCollector("web", cfg.App.Version, log),
	}, log)
	require.NoError(t, err)

	srv := httptest.NewServer(web.Handler())
	t.Cleanup(srv.Close)
	return srv
}
