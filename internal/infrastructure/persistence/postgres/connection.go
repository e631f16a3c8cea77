// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// ConnectionManager owns the gorm handle, its read replicas and a pgx pool
type ConnectionManager struct {
	config  *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	writeDB *sql.DB
	pool    *pgxpool.Pool
}

// NewConnectionManager connects to the primary, registers read replicas and opens the pgx pool
func NewConnectionManager(ctx context.Context, cfg *config.Config, log *zap.Logger) (*ConnectionManager, error) {
	cm := &ConnectionManager{
		config: cfg,
		logger: log.Named("postgres"),
	}

	if err := cm.initializePrimaryConnection(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize primary connection: %w", err)
	}

	if err := cm.initializeReadReplicas(); err != nil {
		cm.logger.Warn("Failed to initialize read replicas", zap.Error(err))
	}

	if err := cm.initializePool(ctx); err != nil {
		_ = cm.writeDB.Close()
		return nil, fmt.Errorf("failed to initialize pgx pool: %w", err)
	}

	cm.logger.Info("Database connection manager initialized",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("read_replicas", len(cfg.Database.ReadReplicas)),
	)

	return cm, nil
}

func (cm *ConnectionManager) initializePrimaryConnection(ctx context.Context) error {
	db, err := gorm.Open(postgres.Open(cm.config.GetDSN()), &gorm.Config{
		Logger:                 cm.createGORMLogger(),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	dbCfg := cm.config.Database
	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbCfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	cm.writeDB = sqlDB
	return nil
}

func (cm *ConnectionManager) initializeReadReplicas() error {
	dbCfg := cm.config.Database
	if len(dbCfg.ReadReplicas) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, len(dbCfg.ReadReplicas))
	for i, host := range dbCfg.ReadReplicas {
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			host,
			dbCfg.Port,
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Database,
			dbCfg.SSLMode,
		)
		replicas[i] = postgres.Open(dsn)
	}

	err := cm.db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RoundRobinPolicy(),
	}).
		SetMaxOpenConns(dbCfg.MaxOpenConns).
		SetMaxIdleConns(dbCfg.MaxIdleConns).
		SetConnMaxLifetime(dbCfg.ConnMaxLifetime))
	if err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}

	cm.logger.Info("Read replicas configured", zap.Int("replica_count", len(replicas)))
	return nil
}

func (cm *ConnectionManager) initializePool(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(cm.config.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to parse pool config: %w", err)
	}
	if n := cm.config.Database.MaxOpenConns; n > 0 {
		poolCfg.MaxConns = int32(n)
	}
	poolCfg.MaxConnIdleTime = cm.config.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return err
	}

	cm.pool = pool
	return nil
}

func (cm *ConnectionManager) createGORMLogger() logger.Interface {
	logLevel := logger.Silent
	switch cm.config.Database.LogLevel {
	case "debug":
		logLevel = logger.Info
	case "info", "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	}

	return logger.New(
		&GORMLogWriter{logger: cm.logger},
		logger.Config{
			SlowThreshold:             cm.config.Database.SlowQueryThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GetDB returns the gorm handle
func (cm *ConnectionManager) GetDB() *gorm.DB {
	return cm.db
}

// Pool returns the pgx pool used by raw-SQL repositories and health checks
func (cm *ConnectionManager) Pool() *pgxpool.Pool {
	return cm.pool
}

// Stats returns the primary connection pool statistics
func (cm *ConnectionManager) Stats() sql.DBStats {
	return cm.writeDB.Stats()
}

// HealthCheck pings the primary and the pgx pool
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.writeDB.PingContext(ctx); err != nil {
		return fmt.Errorf("primary database ping failed: %w", err)
	}
	if err := cm.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgx pool ping failed: %w", err)
	}
	return nil
}

// Close closes every connection
func (cm *ConnectionManager) Close() error {
	if cm.pool != nil {
		cm.pool.Close()
	}
	if cm.writeDB != nil {
		if err := cm.writeDB.Close(); err != nil {
			cm.logger.Error("Failed to close primary database", zap.Error(err))
			return err
		}
	}
	return nil
}
