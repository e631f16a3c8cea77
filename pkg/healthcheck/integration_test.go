//go:build integration

package healthcheck

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	dsn := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://test_user:test_password@%s:%s/healthcheck_test?sslmode=disable", host, port.Port())
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "healthcheck_test",
				"POSTGRES_USER":     "test_user",
				"POSTGRES_PASSWORD": "test_password",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
				wait.ForSQL("5432/tcp", "pgx", dsn),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	config, err := pgxpool.ParseConfig(dsn(host, port))
	require.NoError(t, err)
	config.MaxConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestIntegration_HealthCheckWithRealDependencies(t *testing.T) {
	pool := startPostgres(t)
	client := startRedis(t)

	hc := New("integration", zap.NewNop())
	hc.Register("database", NewDatabaseChecker(pool))
	hc.Register("redis", NewRedisChecker(client))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	response := hc.Check(ctx)
	assert.Equal(t, StatusHealthy, response.Status)
	require.Len(t, response.Checks, 2)

	for _, check := range response.Checks {
		metadata, ok := check.Metadata.(map[string]interface{})
		require.True(t, ok, check.Name)
		assert.Contains(t, metadata, "total_conns")
	}
}

func TestIntegration_DatabaseFailure(t *testing.T) {
	pool := startPostgres(t)
	checker := NewDatabaseChecker(pool)

	assert.Equal(t, StatusHealthy, checker.Check(context.Background()).Status)

	pool.Close()
	check := checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.NotEmpty(t, check.Message)
}
