package models

import (
	"time"

	"github.com/google/uuid"
)

// Session — состояние входа в cookie-сессионном режиме.
// В кэше хранится только {userId, displayName}; ID — ключ записи.
type Session struct {
	ID          string    `json:"-"`
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	// ExpiresAt — момент истечения сессии, в кэш не пишется (там TTL).
	ExpiresAt time.Time `json:"-"`
}
