package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/notify"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/redact"
	"github.com/pribylovaa/go-diary-auth/internal/storage"
)

// RequestVerification создаёт незавершённую регистрацию для e-mail
// (или перевыпускает её токен) и отправляет ссылку подтверждения.
// Для завершённой учётной записи — ErrUserTaken.
func (s *Service) RequestVerification(ctx context.Context, email string) error {
	const op = "service.account.RequestVerification"

	lg := log.From(ctx)

	normEmail, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := randomToken(32)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	pending := &models.User{
		ID:                    uuid.New(),
		Email:                 normEmail,
		VerificationToken:     token,
		VerificationExpiresAt: now.Add(s.cfg.VerificationTTL),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.storage.SavePendingUser(ctx, pending); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return fmt.Errorf("%s: %w", op, ErrUserTaken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.Notify(ctx, notify.Verification(normEmail, s.verifyURL+token)); err != nil {
		lg.Error("verification_notify_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(normEmail)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("verification_requested", slog.String("email", redact.Email(normEmail)))

	return nil
}

// VerifyEmail подтверждает e-mail по токену из ссылки.
// Неизвестный или истёкший токен — ErrVerificationNotFound.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	const op = "service.account.VerifyEmail"

	if token == "" {
		return fmt.Errorf("%s: %w", op, ErrVerificationNotFound)
	}

	now := s.now()

	user, err := s.storage.UserByVerificationToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrVerificationNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.MarkVerified(ctx, user.ID, now); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrVerificationNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("email_verified", slog.String("user_id", user.ID.String()))

	return nil
}

// CompleteRegistration завершает регистрацию по подтверждённому e-mail:
// задаёт username и пароль.
//
// Ошибки: ErrUserNotFound (нет незавершённой регистрации),
// ErrEmailNotVerified, ErrUserTaken (учётка уже завершена или username занят).
func (s *Service) CompleteRegistration(ctx context.Context, email, username, password string) (*models.User, error) {
	const op = "service.account.CompleteRegistration"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normUsername, err := validateUsername(username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.Pending() {
		return nil, fmt.Errorf("%s: %w", op, ErrUserTaken)
	}

	if !user.IsVerified {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailNotVerified)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if err := s.storage.CompleteRegistration(ctx, user.ID, normUsername, hash, now); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			return nil, fmt.Errorf("%s: %w", op, ErrUserTaken)
		case errors.Is(err, storage.ErrNotFound):
			// Параллельный запрос успел завершить регистрацию.
			return nil, fmt.Errorf("%s: %w", op, ErrUserTaken)
		default:
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	user.Username = normUsername
	user.PasswordHash = hash
	user.UpdatedAt = now

	log.From(ctx).Info("registration_completed", slog.String("user_id", user.ID.String()))

	return user, nil
}

// ForgotPassword заменяет пароль пользователя временным и отправляет его на e-mail.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	const op = "service.account.ForgotPassword"

	lg := log.From(ctx)

	normEmail, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if user.Pending() {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	temp, err := GenerateTempPassword()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := HashPassword(temp)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePassword(ctx, user.ID, hash, s.now()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.Notify(ctx, notify.TempPassword(normEmail, temp)); err != nil {
		lg.Error("temp_password_notify_failed",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)

		// Письмо не ушло: возвращаем прежний хэш.
		if rerr := s.storage.UpdatePassword(ctx, user.ID, user.PasswordHash, s.now()); rerr != nil {
			lg.Error("password_restore_failed",
				slog.String("op", op),
				slog.String("user_id", user.ID.String()),
				slog.String("err", rerr.Error()),
			)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("password_reset_issued", slog.String("user_id", user.ID.String()))

	return nil
}

// ResetPassword задаёт новый пароль аутентифицированному пользователю.
func (s *Service) ResetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	const op = "service.account.ResetPassword"

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePassword(ctx, userID, hash, s.now()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("password_changed", slog.String("user_id", userID.String()))

	return nil
}

// UserByID возвращает пользователя по id.
func (s *Service) UserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const op = "service.account.UserByID"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateProfile меняет username и/или email. Менять можно только свой
// профиль: actor != target — ErrForbidden. Пустое поле остаётся прежним.
func (s *Service) UpdateProfile(ctx context.Context, actor, target uuid.UUID, username, email string) (*models.User, error) {
	const op = "service.account.UpdateProfile"

	if actor != target {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if strings.TrimSpace(username) == "" && strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	user, err := s.UserByID(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if strings.TrimSpace(username) != "" {
		if user.Username, err = validateUsername(username); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if strings.TrimSpace(email) != "" {
		if user.Email, err = validateEmail(email); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	now := s.now()
	if err := s.storage.UpdateProfile(ctx, user.ID, user.Username, user.Email, now); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			return nil, fmt.Errorf("%s: %w", op, ErrUserTaken)
		case errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.UpdatedAt = now

	log.From(ctx).Info("profile_updated", slog.String("user_id", user.ID.String()))

	return user, nil
}

// DeleteUser удаляет учётную запись. Удалить можно только свою:
// actor != target — ErrForbidden. Refresh-токен и все cookie-сессии
// пользователя уничтожаются до удаления записи.
func (s *Service) DeleteUser(ctx context.Context, actor, target uuid.UUID) error {
	const op = "service.account.DeleteUser"

	if actor != target {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.RevokeRefreshToken(ctx, target); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.DestroyUserSessions(ctx, target); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeleteUser(ctx, target); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_deleted", slog.String("user_id", target.String()))

	return nil
}

// PurgeExpiredSignups удаляет незавершённые регистрации с истёкшей ссылкой.
func (s *Service) PurgeExpiredSignups(ctx context.Context) (int64, error) {
	const op = "service.account.PurgeExpiredSignups"

	n, err := s.storage.DeleteExpiredPending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
