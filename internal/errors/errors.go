// errors — единая граница ошибок HTTP-слоя.
// На вход принимает ошибку сервиса (сентинелы service.Err*, ошибки
// контекста, отказ стратегии аутентификации), на выход даёт:
//   - HTTP-статус;
//   - короткий стабильный code и безопасное message без утечки деталей.
//
// Внутренние ошибки (500) логируются request-scoped логгером, клиенту
// уходит только "internal error".
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
	"github.com/pribylovaa/go-diary-auth/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Rejection — отказ с заранее известным статусом и кодом.
// Его возвращают стратегии аутентификации (401 с причиной).
type Rejection struct {
	Status  int
	Code    string
	Message string
}

func (r *Rejection) Error() string { return r.Code }

// ErrInvalidJSON — тело запроса не разобрано.
var ErrInvalidJSON = errors.New("invalid json")

// ToHTTP конвертирует ошибку в HTTP-статус и ответ для фронта.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal, чтобы не
//     послать "200 OK" с телом ошибки;
//   - *Rejection — его статус и код;
//   - сентинелы service — по таблице ниже (errors.Is);
//   - context.Canceled — 499, context.DeadlineExceeded — 504;
//   - прочее — 500/internal.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Status, ErrorResponse{Error: APIError{Code: rej.Code, Message: rej.Message}}
	}

	status, code, msg := fromDomain(err)
	return status, ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет статус и тело, добавляет request_id из заголовка, если он есть.
// Для 500 пишет исходную ошибку в лог.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	if status == http.StatusInternalServerError && err != nil {
		log.From(r.Context()).Error("request_failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("err", err.Error()),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{
			Code:    "internal",
			Message: "internal error",
		},
	}
}

// fromDomain — маппинг ошибок сервиса в HTTP/FE-код/сообщение:
//   - валидация входа -> 400 invalid_argument
//   - пользователь/ссылка не найдены -> 404
//   - неверный пароль, битый токен -> 401
//   - отклонённый refresh, неподтверждённый e-mail, чужая учётка -> 403
//   - занятые e-mail/username -> 409
func fromDomain(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrInvalidJSON):
		return http.StatusBadRequest, "invalid_argument", "invalid json"
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_argument", "missing required fields"
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_argument", "invalid email"
	case errors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, "invalid_argument", "password is empty"
	case errors.Is(err, service.ErrPasswordTooLong):
		return http.StatusBadRequest, "invalid_argument", "password is too long"
	case errors.Is(err, service.ErrInvalidUsername):
		return http.StatusBadRequest, "invalid_argument", "invalid username"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found", "user not found"
	case errors.Is(err, service.ErrVerificationNotFound):
		return http.StatusNotFound, "invalid_verification_token", "verification link is invalid or expired"
	case errors.Is(err, service.ErrPasswordMismatch):
		return http.StatusUnauthorized, "invalid_password", "invalid password"
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "invalid_token", "invalid token"
	case errors.Is(err, service.ErrRefreshRejected):
		return http.StatusForbidden, "refresh_token_invalid", "refresh token is invalid"
	case errors.Is(err, service.ErrEmailNotVerified):
		return http.StatusForbidden, "email_not_verified", "email is not verified"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "permission_denied", "permission denied"
	case errors.Is(err, service.ErrUserTaken):
		return http.StatusConflict, "already_exists", "user already exists"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
