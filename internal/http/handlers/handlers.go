package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-diary-auth/internal/auth"
	"github.com/pribylovaa/go-diary-auth/internal/config"
	apierrors "github.com/pribylovaa/go-diary-auth/internal/errors"
	"github.com/pribylovaa/go-diary-auth/internal/oauth"
	"github.com/pribylovaa/go-diary-auth/internal/service"
)

// maxBody — предел тела JSON-запроса.
const maxBody = 1 << 16

// Options — зависимости хендлеров помимо сервиса.
type Options struct {
	// BasePath — префикс API, нужен для редиректов и Path у cookie OAuth.
	BasePath string
	Cookies  config.CookieConfig
	// SessionCookie — имя cookie сессии.
	SessionCookie string
	// Google == nil — вход через Google выключен.
	Google         oauth.Provider
	GoogleRedirect config.GoogleConfig
}

// Handlers агрегирует зависимости (сервис и стратегию входа по паролю).
type Handlers struct {
	svc   *service.Service
	local *auth.Local
	opts  Options
}

func New(svc *service.Service, opts Options) *Handlers {
	return &Handlers{
		svc:   svc,
		local: auth.NewLocal(svc),
		opts:  opts,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return errors.Join(apierrors.ErrInvalidJSON, err)
	}

	return nil
}

// identity — личность, установленная middleware.Authenticate.
// Без неё хендлер за guard'ом не вызывается; отсутствие — ошибка сборки роутов.
func identity(r *http.Request) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return auth.Identity{}, errors.New("handlers: identity missing in context")
	}

	return id, nil
}
