package middleware

import (
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-diary-auth/internal/auth"
	apierrors "github.com/pribylovaa/go-diary-auth/internal/errors"
	"github.com/pribylovaa/go-diary-auth/internal/metrics"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
)

// Authenticate пропускает запрос дальше только при auth.Authorized,
// положив личность в контекст (auth.IdentityFrom). Отказ и ошибка
// стратегии уходят в единую границу ошибок.
func Authenticate(a auth.Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := a.Authenticate(r)
			Observe(a, res)

			if res.Outcome != auth.Authorized {
				WriteResult(w, r, a, res)
				return
			}

			ctx := auth.WithIdentity(r.Context(), res.Identity)
			ctx = log.With(ctx, slog.String("user_id", res.Identity.UserID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Observe учитывает результат стратегии в метриках.
func Observe(a auth.Authenticator, res auth.Result) {
	metrics.AuthResultsTotal.WithLabelValues(a.Name(), res.Outcome.String(), string(res.Reason)).Inc()
}

// WriteResult пишет ответ для неуспешного результата стратегии:
// Unauthorized — статус и код причины, Failed — через errors.WriteError.
func WriteResult(w http.ResponseWriter, r *http.Request, a auth.Authenticator, res auth.Result) {
	switch res.Outcome {
	case auth.Unauthorized:
		log.From(r.Context()).Info("auth_rejected",
			slog.String("strategy", a.Name()),
			slog.String("reason", string(res.Reason)),
		)
		apierrors.WriteError(w, r, &apierrors.Rejection{
			Status:  res.Reason.Status(),
			Code:    string(res.Reason),
			Message: res.Reason.Message(),
		})
	default:
		apierrors.WriteError(w, r, res.Err)
	}
}
