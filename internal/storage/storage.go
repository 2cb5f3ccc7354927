//go:generate mockgen -destination=../../mocks/storage.go -package=mocks github.com/pribylovaa/go-diary-auth/internal/storage Storage

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (id/email/username).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email (регистронезависимо).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByUsername находит пользователя по username.
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UpdatePassword заменяет хэш пароля.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, now time.Time) error
	// UpdateProfile заменяет username и email.
	UpdateProfile(ctx context.Context, id uuid.UUID, username, email string, now time.Time) error
	// DeleteUser удаляет пользователя.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// VerificationStorage обслуживает регистрацию через подтверждение e-mail.
type VerificationStorage interface {
	// SavePendingUser создаёт незавершённую регистрацию или обновляет токен
	// у уже существующей незавершённой. Для завершённой учётки — ErrAlreadyExists.
	SavePendingUser(ctx context.Context, user *models.User) error
	// UserByVerificationToken находит пользователя по действующему токену.
	UserByVerificationToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	// MarkVerified подтверждает e-mail и стирает токен.
	MarkVerified(ctx context.Context, id uuid.UUID, now time.Time) error
	// CompleteRegistration задаёт username и пароль незавершённой регистрации.
	CompleteRegistration(ctx context.Context, id uuid.UUID, username, hash string, now time.Time) error
	// DeleteExpiredPending удаляет незавершённые регистрации с истёкшим токеном.
	DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	VerificationStorage
	Close()
}
