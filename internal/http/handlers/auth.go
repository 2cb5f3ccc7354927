package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-diary-auth/internal/auth"
	apierrors "github.com/pribylovaa/go-diary-auth/internal/errors"
	"github.com/pribylovaa/go-diary-auth/internal/http/middleware"
	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
)

// Login — вход без состояния: пара токенов в cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	res := h.local.Authenticate(r)
	middleware.Observe(h.local, res)
	if res.Outcome != auth.Authorized {
		middleware.WriteResult(w, r, h.local, res)
		return
	}

	pair, err := h.svc.IssueTokenPair(r.Context(), res.Identity.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Message:         "logged in",
		User:            models.UserFromDomain(res.Identity.User),
		AccessExpiresAt: pair.Access.ExpiresAt.Unix(),
	})
}

// SessionLogin — вход с состоянием: данные сессии в кэше, в cookie
// только подписанный идентификатор.
func (h *Handlers) SessionLogin(w http.ResponseWriter, r *http.Request) {
	res := h.local.Authenticate(r)
	middleware.Observe(h.local, res)
	if res.Outcome != auth.Authorized {
		middleware.WriteResult(w, r, h.local, res)
		return
	}

	sess, cookie, err := h.svc.CreateSession(r.Context(), res.Identity.User)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setCookie(w, h.opts.SessionCookie, cookie, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Message: "logged in",
		User:    models.UserFromDomain(res.Identity.User),
	})
}

// RefreshToken меняет refresh-токен из cookie на новую пару.
// Нет cookie — 204 без cookie в ответе.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(auth.RefreshCookie)
	if err != nil || c.Value == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	pair, uid, err := h.svc.RotateRefreshToken(r.Context(), c.Value)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	log.From(r.Context()).Info("token_refreshed", slog.String("user_id", uid.String()))

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "tokens refreshed"})
}

// Logout завершает cookie-сессию.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DestroySession(r.Context(), id.SessionID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearCookie(w, h.opts.SessionCookie)
	w.WriteHeader(http.StatusNoContent)
}

// LogoutTokens отзывает refresh-токен и стирает cookie токенов.
func (h *Handlers) LogoutTokens(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.RevokeRefreshToken(r.Context(), id.UserID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearTokenCookies(w)
	w.WriteHeader(http.StatusNoContent)
}
