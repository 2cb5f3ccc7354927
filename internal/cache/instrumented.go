package cache

import (
	"context"
	"time"

	"github.com/pribylovaa/go-diary-auth/internal/metrics"
)

// Instrumented оборачивает TokenCache метриками операций.
type Instrumented struct {
	next TokenCache
}

// NewInstrumented возвращает TokenCache, считающий операции и их длительность.
func NewInstrumented(next TokenCache) *Instrumented {
	return &Instrumented{next: next}
}

func (c *Instrumented) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	v, ok, err := c.next.Get(ctx, key)

	status := "hit"
	switch {
	case err != nil:
		status = "error"
	case !ok:
		status = "miss"
	}
	observe("get", status, start)

	return v, ok, err
}

func (c *Instrumented) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	start := time.Now()
	err := c.next.Set(ctx, key, value, ttl)
	observe("set", statusOf(err), start)

	return err
}

func (c *Instrumented) Del(ctx context.Context, key string) error {
	start := time.Now()
	err := c.next.Del(ctx, key)
	observe("del", statusOf(err), start)

	return err
}

func (c *Instrumented) Close() error { return c.next.Close() }

func observe(op, status string, start time.Time) {
	metrics.CacheOperationsTotal.WithLabelValues(op, status).Inc()
	metrics.CacheOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}

var _ TokenCache = (*Instrumented)(nil)
