// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/medihort/medihort-ai/internal/infrastructure/cache"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/infrastructure/monitoring"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/memory"
	redisrepo "github.com/medihort/medihort-ai/internal/infrastructure/persistence/redis"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	"github.com/medihort/medihort-ai/pkg/healthcheck"
	"github.com/medihort/medihort-ai/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ConfigPath is the optional config file, set by the command before fx starts
var ConfigPath string

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load(ConfigPath)
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// serviceName separates the metrics and traces of the two processes
type serviceName string

// ObservabilityModule provides metrics, OpenTelemetry and the health registry
var ObservabilityModule = fx.Provide(
	func(name serviceName, cfg *config.Config, log *zap.Logger) *monitoring.MetricsCollector {
		return monitoring.NewMetricsCollector(string(name), cfg.App.Version, log)
	},
	NewTelemetry,
	func(cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
		return healthcheck.New(cfg.App.Version, log)
	},
)

// NewTelemetry installs the OpenTelemetry providers and flushes them on stop
func NewTelemetry(
	lc fx.Lifecycle,
	name serviceName,
	cfg *config.Config,
	metrics *monitoring.MetricsCollector,
	log *zap.Logger,
) (*monitoring.OpenTelemetryProvider, error) {
	provider, err := monitoring.NewOpenTelemetryProvider(context.Background(), monitoring.OpenTelemetryConfig{
		ServiceName:    fmt.Sprintf("medihort-%s", name),
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		TracingEnabled: cfg.Monitoring.EnableTracing,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		OTLPInsecure:   cfg.Monitoring.OTLPInsecure,
		SamplingRate:   cfg.Monitoring.SamplingRate,
	}, metrics.Registry(), log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{OnStop: provider.Shutdown})
	return provider, nil
}

// CacheModule provides the cache port: Redis when enabled, process memory otherwise
var CacheModule = fx.Provide(NewCache)

// NewCache connects the configured cache backend
func NewCache(
	lc fx.Lifecycle,
	cfg *config.Config,
	health *healthcheck.HealthCheck,
	log *zap.Logger,
) (outbound.CacheRepository, error) {
	if !cfg.Redis.Enabled {
		log.Info("Using in-memory cache")
		repo := memory.NewCacheRepository(cfg.RateLimit.CleanupInterval)
		lc.Append(fx.Hook{OnStop: closeHook(repo)})
		return repo, nil
	}

	client, err := cache.NewRedisClient(context.Background(), &cfg.Redis, log.Named("redis"))
	if err != nil {
		return nil, err
	}
	health.Register("redis", healthcheck.NewRedisChecker(client.Client()))
	lc.Append(fx.Hook{OnStop: closeHook(client)})

	return redisrepo.NewCacheRepository(client, log), nil
}

// registerSQLHealth adds the database checker for a sql handle
func registerSQLHealth(health *healthcheck.HealthCheck, db *sql.DB) {
	health.Register("database", healthcheck.NewSQLChecker(db))
}

func closeHook(c io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return c.Close()
	}
}
