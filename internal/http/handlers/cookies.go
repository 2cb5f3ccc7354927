package handlers

import (
	"net/http"
	"time"

	"github.com/pribylovaa/go-diary-auth/internal/auth"
	"github.com/pribylovaa/go-diary-auth/internal/models"
)

// setCookie выставляет httpOnly-cookie на весь сайт. Secure, SameSite
// и Domain берутся из конфигурации.
func (h *Handlers) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.opts.Cookies.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.opts.Cookies.Secure,
		SameSite: h.opts.Cookies.SameSiteMode(),
	})
}

func (h *Handlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.opts.Cookies.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.Cookies.Secure,
		SameSite: h.opts.Cookies.SameSiteMode(),
	})
}

// setTokenCookies — accessToken и newRefreshToken, expires совпадает
// со сроком жизни токена.
func (h *Handlers) setTokenCookies(w http.ResponseWriter, pair *models.TokenPair) {
	h.setCookie(w, auth.AccessCookie, pair.Access.Token, pair.Access.ExpiresAt)
	h.setCookie(w, auth.RefreshCookie, pair.Refresh.Token, pair.Refresh.ExpiresAt)
}

func (h *Handlers) clearTokenCookies(w http.ResponseWriter) {
	h.clearCookie(w, auth.AccessCookie)
	h.clearCookie(w, auth.RefreshCookie)
}
