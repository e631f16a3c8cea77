//go:build integration

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/medihort/medihort-ai/internal/infrastructure/cache"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestCacheRepository_Redis(t *testing.T) {
	addr := startRedis(t)
	raw := goredis.NewUniversalClient(&goredis.UniversalOptions{Addrs: []string{addr}})
	client := cache.NewRedisClientFrom(raw, "medihort-test:", zap.NewNop())
	t.Cleanup(func() { _ = client.Close() })

	repo := NewCacheRepository(client, zap.NewNop())
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "revoked_token:abc", []byte("1"), time.Minute))

	ok, err := repo.Exists(ctx, "revoked_token:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := raw.Get(ctx, "medihort-test:revoked_token:abc").Result()
	require.NoError(t, err)
	assert.Equal(t, "1", stored)

	require.NoError(t, repo.Delete(ctx, "revoked_token:abc"))
	ok, err = repo.Exists(ctx, "revoked_token:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}
