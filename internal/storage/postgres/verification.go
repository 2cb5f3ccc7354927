package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/storage"
)

// SavePendingUser создаёт незавершённую регистрацию (только e-mail и токен).
// Повторный запрос для того же e-mail перевыпускает токен, пока пароль не задан.
func (s *Storage) SavePendingUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SavePendingUser"

	query := `
		INSERT INTO users(id, email, is_verified, verification_token, verification_token_expires, created_at, updated_at)
		VALUES ($1, $2, FALSE, $3, $4, $5, $5)
		ON CONFLICT (email) DO UPDATE
		SET verification_token = EXCLUDED.verification_token,
		    verification_token_expires = EXCLUDED.verification_token_expires,
		    updated_at = EXCLUDED.updated_at
		WHERE users.password_hash = ''
	`

	tag, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.VerificationToken,
		user.VerificationExpiresAt,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	// Конфликт по e-mail с завершённой учёткой: WHERE отсёк обновление.
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	return nil
}

// UserByVerificationToken находит пользователя по действующему токену подтверждения.
func (s *Storage) UserByVerificationToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	const op = "storage.postgres.UserByVerificationToken"

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE verification_token = $1 AND verification_token_expires >= $2
		LIMIT 1`

	user, err := scanUser(s.db.QueryRow(ctx, query, token, now))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// MarkVerified подтверждает e-mail и стирает токен.
func (s *Storage) MarkVerified(ctx context.Context, id uuid.UUID, now time.Time) error {
	const op = "storage.postgres.MarkVerified"

	query := `
		UPDATE users
		SET is_verified = TRUE, verification_token = NULL,
		    verification_token_expires = NULL, updated_at = $2
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// CompleteRegistration задаёт username и пароль незавершённой регистрации.
func (s *Storage) CompleteRegistration(ctx context.Context, id uuid.UUID, username, hash string, now time.Time) error {
	const op = "storage.postgres.CompleteRegistration"

	query := `
		UPDATE users
		SET username = $2, password_hash = $3, updated_at = $4
		WHERE id = $1 AND password_hash = ''
	`

	tag, err := s.db.Exec(ctx, query, id, username, hash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteExpiredPending удаляет незавершённые регистрации с истёкшим токеном.
func (s *Storage) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredPending"

	query := `
		DELETE FROM users
		WHERE password_hash = '' AND verification_token_expires < $1
	`

	tag, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
