package container

import (
	"context"
	"time"

	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/infrastructure/http/webserver"
	"github.com/medihort/medihort-ai/internal/infrastructure/monitoring"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	"github.com/medihort/medihort-ai/pkg/healthcheck"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// WebModule wires the HTMX front-end process
var WebModule = fx.Options(
	fx.Supply(serviceName("web")),
	ConfigModule,
	LoggerModule,
	ObservabilityModule,
	CacheModule,
	fx.Provide(
		NewAPIClient,
		func(cfg *config.Config, cache outbound.CacheRepository, log *zap.Logger) *webserver.SessionStore {
			return webserver.NewSessionStore(cfg.Web, cache, log)
		},
		NewWebServer,
	),
	fx.Invoke(RegisterWebLifecycle),
)

// NewAPIClient creates the platform API client and reports the API in readiness
func NewAPIClient(cfg *config.Config, health *healthcheck.HealthCheck, log *zap.Logger) *webserver.APIClient {
	client := webserver.NewAPIClient(cfg.Web, log)
	health.Register("api", healthcheck.NewExternalServiceChecker(
		"api", client.BaseURL()+"/health/live", 5*time.Second, client.HTTPClient(),
	))
	return client
}

// NewWebServer builds the chi front-end
func NewWebServer(
	cfg *config.Config,
	api *webserver.APIClient,
	sessions *webserver.SessionStore,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
	_ *monitoring.OpenTelemetryProvider,
	log *zap.Logger,
) (*webserver.WebServer, error) {
	return webserver.NewWebServer(cfg, webserver.Dependencies{
		API:      api,
		Sessions: sessions,
		Health:   health,
		Metrics:  metrics,
	}, log)
}

// RegisterWebLifecycle starts and stops the front-end with the application
func RegisterWebLifecycle(lc fx.Lifecycle, cfg *config.Config, server *webserver.WebServer, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting MediHort AI web front-end",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("api_url", cfg.Web.APIURL),
				zap.Bool("watch_templates", cfg.Web.WatchTemplates),
			)
			return server.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown web server", zap.Error(err))
			}
			_ = log.Sync()
			return nil
		},
	})
}
