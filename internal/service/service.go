// service содержит бизнес-логику аутентификации дневника:
// учётные записи, пароли, выпуск и проверку токенов, cookie-сессии.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования, если хранилище и кэш потокобезопасны.
//   - Отзываемое состояние (refresh-токены, сессии) живёт в cache.TokenCache,
//     учётные записи в storage.Storage.
//   - Ошибки возвращаются сентинелами ниже и маппятся на HTTP-коды
//     в internal/errors.
package service

import (
	"errors"
	"strings"
	"time"

	"github.com/pribylovaa/go-diary-auth/internal/cache"
	"github.com/pribylovaa/go-diary-auth/internal/config"
	"github.com/pribylovaa/go-diary-auth/internal/notify"
	"github.com/pribylovaa/go-diary-auth/internal/storage"
)

var (
	// ErrInvalidInput — обязательное поле запроса пустое. HTTP 400.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidEmail — e-mail некорректного формата. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrPasswordTooLong — пароль длиннее 72 байт (предел bcrypt). HTTP 400.
	ErrPasswordTooLong = errors.New("password is too long")

	// ErrInvalidUsername — username не проходит проверку формата. HTTP 400.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrUserNotFound — пользователь с таким идентификатором не найден. HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrPasswordMismatch — пароль не совпал. HTTP 401.
	ErrPasswordMismatch = errors.New("password mismatch")

	// ErrInvalidToken — токен некорректен по формату, подписи или типу. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия access-токена истёк.
	// Вызывающая сторона решает, возможен ли refresh.
	ErrTokenExpired = errors.New("token expired")

	// ErrRefreshRejected — refresh-токен не совпал с записью в кэше. HTTP 403.
	ErrRefreshRejected = errors.New("refresh token rejected")

	// ErrEmailNotVerified — e-mail незавершённой регистрации не подтверждён. HTTP 403.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrVerificationNotFound — ссылка подтверждения неизвестна или истекла. HTTP 404.
	ErrVerificationNotFound = errors.New("verification token not found")

	// ErrForbidden — операция над чужой учётной записью. HTTP 403.
	ErrForbidden = errors.New("permission denied")

	// ErrUserTaken — e-mail или username уже заняты. HTTP 409.
	ErrUserTaken = errors.New("user already exists")
)

// Service описывает бизнес-логику аутентификации.
type Service struct {
	storage  storage.Storage
	tokens   cache.TokenCache
	notifier notify.Notifier
	cfg      config.AuthConfig
	sess     config.SessionConfig

	// verifyURL — префикс ссылки подтверждения, к нему дописывается токен.
	verifyURL string
	now       func() time.Time
}

// New создаёт новый экземпляр Service.
// По умолчанию письма пишутся в лог (notify.Log).
func New(storage storage.Storage, tokens cache.TokenCache, cfg config.AuthConfig, sess config.SessionConfig) *Service {
	return &Service{
		storage:   storage,
		tokens:    tokens,
		notifier:  notify.NewLog(),
		cfg:       cfg,
		sess:      sess,
		verifyURL: "http://localhost:5001/api/users/verifyEmail/",
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier устанавливает приёмник писем.
func (s *Service) SetNotifier(n notify.Notifier) {
	if n != nil {
		s.notifier = n
	}
}

// SetVerifyURL задаёт префикс ссылки подтверждения e-mail,
// например "https://diary.example.com/api/users/verifyEmail/".
func (s *Service) SetVerifyURL(prefix string) {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	s.verifyURL = prefix
}
