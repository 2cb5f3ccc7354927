package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/service"
)

// maxLoginBody — предел тела запроса входа.
const maxLoginBody = 1 << 16

// CredentialVerifier — проверка логина/пароля.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, identifier, password string) (*models.User, error)
}

// Local — стратегия входа по логину (e-mail или username) и паролю из
// JSON-тела {"login"|"email", "password"}.
//
// Пустые поля — Failed(service.ErrInvalidInput), до обращения к хранилищу.
// Стратегия ничего не выпускает: токены или сессию создаёт хендлер.
type Local struct {
	users CredentialVerifier
}

func NewLocal(users CredentialVerifier) *Local {
	return &Local{users: users}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Authenticate(r *http.Request) Result {
	const op = "auth.local.Authenticate"

	var req models.LoginRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxLoginBody))
	if err := dec.Decode(&req); err != nil {
		return Fail(fmt.Errorf("%s: %w", op, service.ErrInvalidInput))
	}

	identifier := strings.TrimSpace(req.Identifier())
	if identifier == "" || req.Password == "" {
		return Fail(fmt.Errorf("%s: %w", op, service.ErrInvalidInput))
	}

	user, err := l.users.VerifyCredentials(r.Context(), identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return Deny(ReasonUserNotFound)
		case errors.Is(err, service.ErrPasswordMismatch):
			return Deny(ReasonInvalidPassword)
		default:
			return Fail(fmt.Errorf("%s: %w", op, err))
		}
	}

	return Allow(Identity{
		UserID:      user.ID,
		DisplayName: user.DisplayName(),
		User:        user,
	})
}
