// cache описывает кэш токенов и сессий: key/value с TTL.
//
// Кэш — источник истины для отзываемого состояния: действующий
// refresh-токен пользователя и данные cookie-сессий. Реализации:
// Redis (прод) и in-memory (тесты, локальный запуск без Redis).
package cache

import (
	"context"
	"time"
)

// TokenCache — минимальный контракт кэша.
type TokenCache interface {
	// Get возвращает значение и признак его наличия.
	// Ошибка означает сбой инфраструктуры, а не отсутствие ключа.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set сохраняет значение с TTL (ttl <= 0 — без срока).
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Del удаляет ключ; отсутствие ключа ошибкой не считается.
	Del(ctx context.Context, key string) error
	// Close освобождает ресурсы клиента.
	Close() error
}
