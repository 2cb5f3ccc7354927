package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/service"
)

// AccessVerifier — проверка access-токена и записи refresh-токена.
type AccessVerifier interface {
	ParseAccessToken(token string) (uuid.UUID, error)
	VerifyRefreshToken(ctx context.Context, candidate string, userID uuid.UUID) (uuid.UUID, bool, error)
}

// JWT — стратегия по access-токену из Authorization: Bearer
// или из cookie accessToken.
//
// Истёкший токен с корректной подписью даёт одну из двух причин:
// access_token_expired, если cookie newRefreshToken совпадает с записью
// в кэше, иначе reauthentication_required.
type JWT struct {
	tokens AccessVerifier
}

func NewJWT(tokens AccessVerifier) *JWT {
	return &JWT{tokens: tokens}
}

func (j *JWT) Name() string { return "jwt" }

func (j *JWT) Authenticate(r *http.Request) Result {
	const op = "auth.jwt.Authenticate"

	token := bearer(r)
	if token == "" {
		if c, err := r.Cookie(AccessCookie); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return Deny(ReasonMissingToken)
	}

	uid, err := j.tokens.ParseAccessToken(token)
	if err == nil {
		return Allow(Identity{UserID: uid})
	}

	if !errors.Is(err, service.ErrTokenExpired) {
		return Fail(fmt.Errorf("%s: %w", op, err))
	}

	c, cerr := r.Cookie(RefreshCookie)
	if cerr != nil || c.Value == "" {
		return Deny(ReasonReauthRequired)
	}

	_, ok, verr := j.tokens.VerifyRefreshToken(r.Context(), c.Value, uid)
	if verr != nil {
		return Fail(fmt.Errorf("%s: %w", op, verr))
	}
	if !ok {
		return Deny(ReasonReauthRequired)
	}

	return Deny(ReasonAccessExpired)
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}

	return ""
}
