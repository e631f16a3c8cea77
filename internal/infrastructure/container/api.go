package container

import (
	"context"
	"fmt"
	"time"

	appai "github.com/medihort/medihort-ai/internal/application/ai"
	"github.com/medihort/medihort-ai/internal/application/catalog"
	"github.com/medihort/medihort-ai/internal/application/favorites"
	appuser "github.com/medihort/medihort-ai/internal/application/user"
	"github.com/medihort/medihort-ai/internal/infrastructure/ai"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/infrastructure/http/apiserver"
	"github.com/medihort/medihort-ai/internal/infrastructure/monitoring"
	gormrepo "github.com/medihort/medihort-ai/internal/infrastructure/persistence/gorm"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/migrations"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/postgres"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/sqlite"
	"github.com/medihort/medihort-ai/internal/infrastructure/security"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	"github.com/medihort/medihort-ai/pkg/healthcheck"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// APIModule wires the platform API process
var APIModule = fx.Options(
	fx.Supply(serviceName("api")),
	ConfigModule,
	LoggerModule,
	ObservabilityModule,
	CacheModule,
	DatabaseModule,
	RepositoryModule,
	ServiceModule,
	fx.Provide(NewAPIServer),
	fx.Invoke(RegisterAPILifecycle),
)

// Database is the opened store. Postgres is nil on SQLite.
type Database struct {
	DB       *gorm.DB
	Postgres *postgres.ConnectionManager
}

// DatabaseModule provides the database connection
var DatabaseModule = fx.Provide(NewDatabase)

// NewDatabase opens SQLite or Postgres, migrates and seeds as configured
func NewDatabase(
	lc fx.Lifecycle,
	cfg *config.Config,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
	log *zap.Logger,
) (*Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, err := OpenDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	if database.Postgres != nil {
		health.Register("database", healthcheck.NewDatabaseChecker(database.Postgres.Pool()))
		metrics.Registry().MustRegister(postgres.NewPoolCollector(database.Postgres, cfg.Database.Database))
		lc.Append(fx.Hook{OnStop: closeHook(database.Postgres)})
	} else {
		registerSQLHealth(health, sqlDB)
		lc.Append(fx.Hook{OnStop: closeHook(sqlDB)})
	}

	if cfg.Database.Seed {
		result, err := gormrepo.Seed(ctx, database.DB, gormrepo.SeedOptions{
			DemoEmail:    cfg.Auth.DemoEmail,
			DemoPassword: cfg.Auth.DemoPassword,
		})
		if err != nil {
			log.Warn("Failed to seed database", zap.Error(err))
		} else {
			log.Info("Database seeded",
				zap.Int("plants_created", result.PlantsCreated),
				zap.Bool("demo_user", result.DemoUser),
			)
		}
	}

	return database, nil
}

// OpenDatabase connects to the configured driver and applies the schema
func OpenDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Database, error) {
	switch cfg.Database.Driver {
	case "postgres":
		cm, err := postgres.NewConnectionManager(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := migratePostgres(cm, cfg, log); err != nil {
				_ = cm.Close()
				return nil, err
			}
		}
		return &Database{DB: cm.GetDB(), Postgres: cm}, nil

	default:
		level := gormlogger.Silent
		if cfg.App.Debug {
			level = gormlogger.Info
		}
		db, err := sqlite.SetupDatabase(cfg.Database.Path, level)
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		log.Info("Connected to SQLite database",
			zap.String("path", cfg.Database.Path),
			zap.Bool("in_memory", cfg.Database.Path == "" || cfg.Database.Path == ":memory:"),
		)
		return &Database{DB: db}, nil
	}
}

func migratePostgres(cm *postgres.ConnectionManager, cfg *config.Config, log *zap.Logger) error {
	sqlDB, err := cm.GetDB().DB()
	if err != nil {
		return err
	}
	migrator, err := migrations.New(sqlDB, cfg.Database.Database, log.Named("migrations"))
	if err != nil {
		return err
	}
	return migrator.Up()
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	func(d *Database) outbound.PlantRepository {
		return gormrepo.NewPlantRepository(d.DB)
	},
	func(d *Database) outbound.UserRepository {
		return gormrepo.NewUserRepository(d.DB)
	},
	func(d *Database, log *zap.Logger) outbound.FavoriteRepository {
		if d.Postgres != nil {
			return postgres.NewFavoriteRepository(d.Postgres.Pool(), log)
		}
		return gormrepo.NewFavoriteRepository(d.DB)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config, cache outbound.CacheRepository, log *zap.Logger) (*security.AuthService, error) {
		return security.NewAuthService(cfg, cache, log)
	},
	security.NewValidator,
	NewLanguageModels,
	func(
		cfg *config.Config,
		providers []outbound.LanguageModel,
		cache outbound.CacheRepository,
		metrics *monitoring.MetricsCollector,
		log *zap.Logger,
	) *appai.AIService {
		return appai.NewAIService(providers, cache, appai.Options{
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.Timeout,
			EnableCache: cfg.AI.EnableCache,
			CacheTTL:    cfg.AI.CacheTTL,
		}, appai.NewMetrics(metrics.Registry()), log)
	},
	func(repo outbound.PlantRepository, log *zap.Logger) inbound.CatalogService {
		return catalog.NewCatalogService(repo, log)
	},
	func(
		favoriteRepo outbound.FavoriteRepository,
		plantRepo outbound.PlantRepository,
		metrics *monitoring.MetricsCollector,
		log *zap.Logger,
	) inbound.FavoriteService {
		return favorites.NewFavoriteService(favoriteRepo, plantRepo, metrics.Registry(), log)
	},
	appuser.NewUserService,
)

// NewLanguageModels builds the provider chain and reports it in readiness
func NewLanguageModels(
	lc fx.Lifecycle,
	cfg *config.Config,
	health *healthcheck.HealthCheck,
	log *zap.Logger,
) ([]outbound.LanguageModel, error) {
	providers, err := ai.NewProviders(context.Background(), cfg.AI, log.Named("ai"))
	if err != nil {
		return nil, err
	}

	checker := ai.NewHealthChecker(providers, log)
	health.Register("ai", healthcheck.NewCustomChecker("ai", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
		status := checker.CheckHealth(ctx)
		switch status.Overall {
		case "healthy":
			return healthcheck.StatusHealthy, "AI providers reachable", status.Details
		case "degraded":
			return healthcheck.StatusDegraded, "Some AI providers unreachable", status.Details
		default:
			return healthcheck.StatusDegraded, "No AI provider reachable", status.Details
		}
	}))

	for _, p := range providers {
		if closer, ok := p.(interface{ Close() error }); ok {
			lc.Append(fx.Hook{OnStop: closeHook(closer)})
		}
	}
	return providers, nil
}

// NewAPIServer builds the gin server from the services
func NewAPIServer(
	cfg *config.Config,
	accounts inbound.AccountService,
	catalogService inbound.CatalogService,
	favoriteService inbound.FavoriteService,
	aiService *appai.AIService,
	auth *security.AuthService,
	validator *security.Validator,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
	_ *monitoring.OpenTelemetryProvider,
	log *zap.Logger,
) (*apiserver.Server, error) {
	return apiserver.NewServer(cfg, apiserver.Dependencies{
		Accounts:   accounts,
		Catalog:    catalogService,
		Favorites:  favoriteService,
		Insights:   aiService,
		Consultant: aiService,
		Auth:       auth,
		Validator:  validator,
		Health:     health,
		Metrics:    metrics,
	}, log)
}

// RegisterAPILifecycle starts and stops the API server with the application
func RegisterAPILifecycle(lc fx.Lifecycle, cfg *config.Config, server *apiserver.Server, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting MediHort AI platform API",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
				zap.String("ai_provider", cfg.AI.Provider),
			)
			return server.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown API server", zap.Error(err))
			}
			_ = log.Sync()
			return nil
		},
	})
}
