package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/redact"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
)

// GoogleLogin кладёт случайный state в короткоживущую cookie и уводит
// пользователя на страницу согласия Google.
func (h *Handlers) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, h.stateCookie(state, int(stateTTL.Seconds())))

	http.Redirect(w, r, h.opts.Google.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback завершает вход: при любой ошибке — редирект на
// страницу неудачи, при успехе — пара токенов в cookie и редирект
// на страницу успеха.
func (h *Handlers) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	lg := log.From(r.Context())

	c, err := r.Cookie(stateCookieName)
	http.SetCookie(w, h.stateCookie("", -1))

	state := r.URL.Query().Get("state")
	if err != nil || c.Value == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) != 1 {
		lg.Warn("oauth_state_mismatch")
		h.googleFail(w, r)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		lg.Warn("oauth_code_missing", slog.String("error", r.URL.Query().Get("error")))
		h.googleFail(w, r)
		return
	}

	info, err := h.opts.Google.Exchange(r.Context(), code)
	if err != nil {
		lg.Warn("oauth_exchange_failed", slog.String("err", err.Error()))
		h.googleFail(w, r)
		return
	}

	user, pair, err := h.svc.LoginFederated(r.Context(), info.Email)
	if err != nil {
		lg.Info("oauth_login_rejected",
			slog.String("email", redact.Email(info.Email)),
			slog.String("err", err.Error()),
		)
		h.googleFail(w, r)
		return
	}

	lg.Info("oauth_login", slog.String("user_id", user.ID.String()))

	h.setTokenCookies(w, pair)
	http.Redirect(w, r, h.opts.GoogleRedirect.SuccessRedirect, http.StatusFound)
}

// stateCookie — cookie с OAuth state. Lax, а не Strict: браузер
// возвращается на callback переходом с accounts.google.com.
func (h *Handlers) stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     stateCookieName,
		Value:    value,
		Path:     h.googlePath(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.opts.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handlers) googleFail(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.opts.GoogleRedirect.FailureRedirect, http.StatusFound)
}

func (h *Handlers) googlePath() string {
	return h.opts.BasePath + "/users/google"
}
