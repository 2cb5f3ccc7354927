package cache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-diary-auth/internal/metrics"
)

// Счётчики глобальные, поэтому тест без t.Parallel и сравнивает приращения.
func TestInstrumented_CountsOperations(t *testing.T) {
	ctx := context.Background()
	c := NewInstrumented(NewMemory())

	hits := testutil.ToFloat64(metrics.CacheOperationsTotal.WithLabelValues("get", "hit"))
	misses := testutil.ToFloat64(metrics.CacheOperationsTotal.WithLabelValues("get", "miss"))
	sets := testutil.ToFloat64(metrics.CacheOperationsTotal.WithLabelValues("set", "ok"))
	dels := testutil.ToFloat64(metrics.CacheOperationsTotal.WithLabelValues("del", "ok"))

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)

	require.NoError(t, c.Del(ctx, "k"))
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, hits+1, testutil.ToFloat64(metrics.CacheOperationsTotal.WithLabelValues("get", "hit")))
	require.Equal(t, misses+1, testutil.ToFloat64(metrics.CacheOperationsTotal.WithLabelValues("get", "miss")))
	require.Equal(t, sets+1, testutil.ToFloat64(metrics.CacheOperationsTotal.WithLabelValues("set", "ok")))
	require.Equal(t, dels+1, testutil.ToFloat64(metrics.CacheOperationsTotal.WithLabelValues("del", "ok")))

	require.NoError(t, c.Close())
}

func TestInstrumented_CountsErrors(t *testing.T) {
	c := NewInstrumented(NewMemory())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := testutil.ToFloat64(metrics.CacheOperationsTotal.WithLabelValues("get", "error"))
	_, _, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.CacheOperationsTotal.WithLabelValues("get", "error")))
}
