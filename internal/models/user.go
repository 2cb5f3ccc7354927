package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись пользователя дневника.
//
// Запись с пустым PasswordHash — незавершённая регистрация через
// подтверждение e-mail: войти по паролю в неё нельзя.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsVerified   bool

	// VerificationToken и VerificationExpiresAt заданы только пока
	// e-mail ожидает подтверждения.
	VerificationToken     string
	VerificationExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName — имя для отображения: username, а при его отсутствии e-mail.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}

	return u.Email
}

// Pending сообщает, что регистрация не завершена (пароль ещё не задан).
func (u *User) Pending() bool {
	return u.PasswordHash == ""
}
