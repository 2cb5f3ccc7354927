package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/redact"
	"github.com/pribylovaa/go-diary-auth/internal/storage"
)

// RegisterUser регистрирует пользователя с username, e-mail и паролем.
func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (*models.User, error) {
	const op = "service.auth.RegisterUser"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normUsername, err := validateUsername(username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		Username:     normUsername,
		Email:        normEmail,
		PasswordHash: hash,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_registered",
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(normEmail)),
	)

	return user, nil
}

// VerifyCredentials находит пользователя по e-mail или username и
// сверяет пароль. Идентификатор с '@' считается e-mail.
//
// Ошибки: ErrInvalidInput (пустые поля), ErrUserNotFound, ErrPasswordMismatch.
// Хранилище и кэш не изменяются.
func (s *Service) VerifyCredentials(ctx context.Context, identifier, password string) (*models.User, error) {
	const op = "service.auth.VerifyCredentials"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.storage.UserByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.storage.UserByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Info("login_user_not_found",
				slog.String("login", redact.Login(identifier)),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		log.From(ctx).Info("login_password_mismatch",
			slog.String("user_id", user.ID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	return user, nil
}

// validateEmail проверяет базовый формат email, обрезает пробелы
// и приводит к нижнему регистру.
func validateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(email), nil
}

// validateUsername: 3–32 символа, буквы, цифры, '.', '_' и '-'.
func validateUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)

	n := utf8.RuneCountInString(name)
	if n < 3 || n > 32 {
		return "", ErrInvalidUsername
	}

	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			continue
		}
		return "", ErrInvalidUsername
	}

	return name, nil
}
