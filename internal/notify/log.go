package notify

import (
	"context"
	"log/slog"

	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/redact"
)

// Log — приёмник, который только пишет письмо в лог.
// Содержимое (ссылка, пароль) выводится на уровне debug.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (l *Log) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lg := log.From(ctx)
	lg.Info("email_queued",
		slog.String("kind", string(msg.Kind)),
		slog.String("to", redact.Email(msg.To)),
	)
	lg.Debug("email_body",
		slog.String("kind", string(msg.Kind)),
		slog.String("link", msg.Link),
		slog.String("temp_password", msg.TempPassword),
	)

	return nil
}

func (l *Log) Close() error { return nil }

var _ Notifier = (*Log)(nil)
