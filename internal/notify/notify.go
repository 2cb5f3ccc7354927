// notify доставляет письма пользователю вне HTTP-ответа: ссылки
// подтверждения e-mail и временные пароли.
//
// Сервис сам письма не отправляет. Сообщение уходит в приёмник:
// лог (локальная разработка) или топик Kafka, который читает почтовый сервис.
package notify

//go:generate mockgen -destination=../../mocks/notifier.go -package=mocks github.com/pribylovaa/go-diary-auth/internal/notify Notifier

import (
	"context"
	"fmt"
	"strings"
)

// Kind — тип письма.
type Kind string

const (
	KindVerification Kind = "verification"
	KindTempPassword Kind = "temp_password"
)

// Message — задание на отправку письма.
type Message struct {
	Kind    Kind   `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	// Link — ссылка подтверждения (для KindVerification).
	Link string `json:"link,omitempty"`
	// TempPassword — временный пароль (для KindTempPassword).
	TempPassword string `json:"temp_password,omitempty"`
}

// Notifier — приёмник писем.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Close() error
}

// Verification собирает письмо со ссылкой подтверждения.
func Verification(to, link string) Message {
	return Message{
		Kind:    KindVerification,
		To:      to,
		Subject: "Confirm your e-mail",
		Link:    link,
	}
}

// TempPassword собирает письмо с временным паролем.
func TempPassword(to, password string) Message {
	return Message{
		Kind:         KindTempPassword,
		To:           to,
		Subject:      "Your temporary password",
		TempPassword: password,
	}
}

// Options — параметры выбора приёмника.
type Options struct {
	Driver  string
	Brokers []string
	Topic   string
}

// New создаёт приёмник по имени драйвера: "log" или "kafka".
func New(opts Options) (Notifier, error) {
	const op = "notify.New"

	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "log":
		return NewLog(), nil
	case "kafka":
		if len(opts.Brokers) == 0 || opts.Topic == "" {
			return nil, fmt.Errorf("%s: kafka brokers and topic are required", op)
		}
		return NewKafka(opts.Brokers, opts.Topic), nil
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, opts.Driver)
	}
}
