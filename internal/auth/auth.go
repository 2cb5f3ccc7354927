// auth — стратегии аутентификации HTTP-запроса.
//
// Каждая стратегия реализует Authenticator и возвращает Result:
//   - Authorized — личность установлена (Identity);
//   - Unauthorized — отказ с причиной (Reason задаёт статус и код ответа);
//   - Failed — ошибка, которую разбирает граница ошибок (internal/errors).
//
// Стратегия не пишет ответ сама. Это делает middleware.Authenticate или
// хендлер входа.
package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/models"
)

// Имена cookie режима без состояния.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "newRefreshToken"
)

// Outcome — итог стратегии.
type Outcome int

const (
	Authorized Outcome = iota + 1
	Unauthorized
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Reason — машиночитаемая причина отказа, уходит клиенту как error.code.
type Reason string

const (
	ReasonUserNotFound    Reason = "user_not_found"
	ReasonInvalidPassword Reason = "invalid_password"
	ReasonMissingToken    Reason = "missing_token"
	ReasonAccessExpired   Reason = "access_token_expired"
	ReasonReauthRequired  Reason = "reauthentication_required"
	ReasonSessionRequired Reason = "session_required"
	ReasonSessionNotFound Reason = "session_not_found"
	ReasonSessionMismatch Reason = "session_mismatch"
)

// Status возвращает HTTP-статус отказа. Неизвестный пользователь — 404,
// остальные причины — 401.
func (r Reason) Status() int {
	if r == ReasonUserNotFound {
		return http.StatusNotFound
	}

	return http.StatusUnauthorized
}

// Message — человекочитаемое описание причины.
func (r Reason) Message() string {
	switch r {
	case ReasonUserNotFound:
		return "user not found"
	case ReasonInvalidPassword:
		return "invalid password"
	case ReasonMissingToken:
		return "access token is missing"
	case ReasonAccessExpired:
		return "access token expired, refresh is possible"
	case ReasonReauthRequired:
		return "access token expired, please log in again"
	case ReasonSessionRequired:
		return "session is required"
	case ReasonSessionNotFound:
		return "session not found"
	case ReasonSessionMismatch:
		return "session does not match user"
	default:
		return "unauthorized"
	}
}

// Identity — установленная личность запроса.
type Identity struct {
	UserID      uuid.UUID
	DisplayName string
	// SessionID задан только для cookie-сессии.
	SessionID string
	// User задан, если стратегия загрузила учётную запись (вход по паролю).
	User *models.User
}

// Result — итог Authenticate.
type Result struct {
	Outcome  Outcome
	Reason   Reason
	Identity Identity
	Err      error
}

func Allow(id Identity) Result  { return Result{Outcome: Authorized, Identity: id} }
func Deny(reason Reason) Result { return Result{Outcome: Unauthorized, Reason: reason} }
func Fail(err error) Result     { return Result{Outcome: Failed, Err: err} }

// Authenticator — стратегия аутентификации.
type Authenticator interface {
	// Name — имя стратегии для логов и метрик.
	Name() string
	Authenticate(r *http.Request) Result
}

type identityKey struct{}

// WithIdentity кладёт личность в контекст запроса.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom достаёт личность из контекста.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
