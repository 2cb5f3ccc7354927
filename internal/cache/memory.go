package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value     string
	expiresAt time.Time // нулевое значение — без срока
}

// Memory — потокобезопасный in-memory кэш с TTL.
// Просроченные ключи удаляются лениво, при обращении.
type Memory struct {
	mu    sync.Mutex
	items map[string]memEntry
	now   func() time.Time
}

// NewMemory создаёт пустой in-memory кэш.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memEntry),
		now:   time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return "", false, nil
	}

	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.items, key)
		return "", false, nil
	}

	return e.value, true, nil
}

func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()

	return nil
}

func (m *Memory) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()

	return nil
}

// Len возвращает число ключей, включая ещё не вычищенные просроченные.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.items)
}

func (m *Memory) Close() error { return nil }

var _ TokenCache = (*Memory)(nil)
