// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/infrastructure/container"
	gormrepo "github.com/medihort/medihort-ai/internal/infrastructure/persistence/gorm"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Demo account seeded into every test database
const (
	DemoEmail    = "demo@medihort.ai"
	DemoPassword = "greenhouse"
)

// TestDatabase provides a migrated database with cleanup
type TestDatabase struct {
	Container testcontainers.Container
	Database  *container.Database
	Config    *config.Config
	t         *testing.T
}

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Username string
	Password string
	Port     string
}

// DefaultDatabaseConfig returns the default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "postgres:15-alpine",
		Database: "medihort_test",
		Username: "test_user",
		Password: "test_password",
		Port:     "5432",
	}
}

// SetupTestDatabase starts postgres in a container and applies the migrations
func SetupTestDatabase(t *testing.T) *TestDatabase {
	return SetupTestDatabaseWithConfig(t, DefaultDatabaseConfig())
}

// SetupTestDatabaseWithConfig creates a test database with custom configuration
func SetupTestDatabaseWithConfig(t *testing.T, dbCfg DatabaseConfig) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	port := nat.Port(dbCfg.Port + "/tcp")
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        dbCfg.Image,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"POSTGRES_DB":       dbCfg.Database,
				"POSTGRES_USER":     dbCfg.Username,
				"POSTGRES_PASSWORD": dbCfg.Password,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
				wait.ForSQL(port, "pgx", func(host string, p nat.Port) string {
					return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
						dbCfg.Username, dbCfg.Password, host, p.Port(), dbCfg.Database)
				}),
			),
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw,noexec,nosuid,size=512m",
			},
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	mapped, err := pg.MappedPort(ctx, port)
	require.NoError(t, err)
	portNum, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Name = "MediHort AI"
	cfg.App.Environment = "test"
	cfg.Database.Driver = "postgres"
	cfg.Database.Host = host
	cfg.Database.Port = portNum
	cfg.Database.Database = dbCfg.Database
	cfg.Database.Username = dbCfg.Username
	cfg.Database.Password = dbCfg.Password
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxOpenConns = 10
	cfg.Database.MaxIdleConns = 2
	cfg.Database.ConnMaxLifetime = time.Hour
	cfg.Database.ConnMaxIdleTime = 30 * time.Minute
	cfg.Database.AutoMigrate = true

	database, err := container.OpenDatabase(ctx, cfg, zap.NewNop())
	require.NoError(t, err, "Failed to open test database")

	td := &TestDatabase{
		Container: pg,
		Database:  database,
		Config:    cfg,
		t:         t,
	}
	t.Cleanup(func() { _ = database.Postgres.Close() })

	return td
}

// Seed loads the starter catalog and the demo account
func (td *TestDatabase) Seed() gormrepo.SeedResult {
	td.t.Helper()
	result, err := gormrepo.Seed(context.Background(), td.Database.DB, gormrepo.SeedOptions{
		DemoEmail:    DemoEmail,
		DemoPassword: DemoPassword,
	})
	require.NoError(td.t, err, "Failed to seed test database")
	return result
}

// TruncateAllTables empties every application table
func (td *TestDatabase) TruncateAllTables() {
	td.t.Helper()
	err := td.Database.DB.Exec(`TRUNCATE TABLE user_favorites, medicinal_plants, users RESTART IDENTITY CASCADE`).Error
	require.NoError(td.t, err, "Failed to truncate tables")
}

// CountRows returns the number of rows in table
func (td *TestDatabase) CountRows(table string) int64 {
	td.t.Helper()
	var n int64
	require.NoError(td.t, td.Database.DB.Table(table).Count(&n).Error)
	return n
}

// SetupSQLiteDatabase opens a seeded in-memory SQLite database
func SetupSQLiteDatabase(t testing.TB) *container.Database {
	t.Helper()

	db, err := sqlite.SetupDatabase(":memory:", logger.Silent)
	require.NoError(t, err, "Failed to open SQLite database")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	_, err = gormrepo.Seed(context.Background(), db, gormrepo.SeedOptions{
		DemoEmail:    DemoEmail,
		DemoPassword: DemoPassword,
	})
	require.NoError(t, err, "Failed to seed SQLite database")
	return &container.Database{DB: db}
}
