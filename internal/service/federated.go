package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/redact"
	"github.com/pribylovaa/go-diary-auth/internal/storage"
)

// LoginFederated выполняет вход по e-mail, подтверждённому внешним
// провайдером (Google). Учётная запись должна уже существовать:
// автоматической регистрации нет.
func (s *Service) LoginFederated(ctx context.Context, email string) (*models.User, *models.TokenPair, error) {
	const op = "service.federated.LoginFederated"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Info("federated_user_not_found",
				slog.String("email", redact.Email(normEmail)),
			)
			return nil, nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.Pending() {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	pair, err := s.IssueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}
