// Входные/выходные модели REST API.
package models

import "time"

type LoginRequest struct {
	// Login — e-mail или username. Поле email оставлено для старых клиентов.
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identifier возвращает идентифицирующее поле запроса входа.
func (r LoginRequest) Identifier() string {
	if r.Login != "" {
		return r.Login
	}

	return r.Email
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

// UpdateProfileRequest — пустое поле не меняется.
type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserFromDomain конвертирует доменную модель в ответ API (без хэша пароля).
func UserFromDomain(u *User) UserResponse {
	return UserResponse{
		ID:         u.ID.String(),
		Username:   u.Username,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

type LoginResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	// AccessExpiresAt — Unix UTC, для клиентов без доступа к cookie.
	AccessExpiresAt int64 `json:"access_expires_at,omitempty"`
}

type SessionResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}
