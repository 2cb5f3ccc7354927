package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/go-diary-auth/internal/errors"
	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/service"
)

const verifiedText = "Email verified. You can now finish registration."

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.RegisterUser(r.Context(), in.Username, in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.UserFromDomain(user))
}

// RequestVerification отправляет ссылку подтверждения e-mail.
func (h *Handlers) RequestVerification(w http.ResponseWriter, r *http.Request) {
	var in models.EmailRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.RequestVerification(r.Context(), in.Email); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "verification email sent"})
}

// VerifyEmail — переход по ссылке из письма, 303 на страницу подтверждения.
func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := h.svc.VerifyEmail(r.Context(), token); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	http.Redirect(w, r, h.opts.BasePath+"/users/verified", http.StatusSeeOther)
}

func (h *Handlers) Verified(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(verifiedText))
}

// CompleteRegistration задаёт username и пароль подтверждённой регистрации.
func (h *Handlers) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.CompleteRegistration(r.Context(), in.Email, in.Username, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.UserFromDomain(user))
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in models.EmailRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), in.Email); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "temporary password sent"})
}

// ResetPassword меняет пароль текущего пользователя.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in models.ResetPasswordRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), id.UserID, in.Password); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "password updated"})
}

func (h *Handlers) Current(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.UserByID(r.Context(), id.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.UserFromDomain(user))
}

// SessionCurrent отдаёт данные сессии без обращения к БД.
func (h *Handlers) SessionCurrent(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SessionResponse{
		UserID:      id.UserID.String(),
		DisplayName: id.DisplayName,
	})
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	target, err := userIDParam(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.UserByID(r.Context(), target)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.UserFromDomain(user))
}

// UpdateUser меняет username/email собственной учётной записи.
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	target, err := userIDParam(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in models.UpdateProfileRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), id.UserID, target, in.Username, in.Email)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.UserFromDomain(user))
}

// DeleteUser удаляет собственную учётную запись и стирает cookie токенов.
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	target, err := userIDParam(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteUser(r.Context(), id.UserID, target); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearTokenCookies(w)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "user deleted"})
}

func userIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "userId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("handlers: user id %q: %w", raw, service.ErrInvalidInput)
	}

	return id, nil
}
