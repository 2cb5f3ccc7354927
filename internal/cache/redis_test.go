package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis — поднимает временный Redis через testcontainers-go.
// Если GO_TEST_INTEGRATION не установлена — тест пропускается.
func startRedis(t *testing.T) string {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestIntegration_Redis_SetGetDel(t *testing.T) {
	url := startRedis(t)
	ctx := context.Background()

	rc, err := NewRedisCache(ctx, RedisOptions{URL: url, Prefix: "test:"})
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.Ping(ctx))

	_, ok, err := rc.Get(ctx, "rt:1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, rc.Set(ctx, "rt:1", "token", time.Minute))
	v, ok, err := rc.Get(ctx, "rt:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "token", v)

	// Ключ реально лежит под префиксом.
	raw, err := rc.rdb.Get(ctx, "test:rt:1").Result()
	require.NoError(t, err)
	require.Equal(t, "token", raw)

	ttl, err := rc.rdb.TTL(ctx, "test:rt:1").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, 50*time.Second)

	require.NoError(t, rc.Del(ctx, "rt:1"))
	_, ok, err = rc.Get(ctx, "rt:1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIntegration_Redis_TTLExpires(t *testing.T) {
	url := startRedis(t)
	ctx := context.Background()

	rc, err := NewRedisCache(ctx, RedisOptions{URL: url})
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.Set(ctx, "sess:x", `{"userId":"u"}`, time.Second))

	require.Eventually(t, func() bool {
		_, ok, err := rc.Get(ctx, "sess:x")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisCache(context.Background(), RedisOptions{URL: "not-a-url"})
	require.Error(t, err)
}
