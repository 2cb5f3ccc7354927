package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pribylovaa/go-diary-auth/internal/auth"
	"github.com/pribylovaa/go-diary-auth/internal/config"
	"github.com/pribylovaa/go-diary-auth/internal/http/handlers"
	"github.com/pribylovaa/go-diary-auth/internal/http/middleware"
	"github.com/pribylovaa/go-diary-auth/internal/oauth"
	"github.com/pribylovaa/go-diary-auth/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.

	Cookies       config.CookieConfig
	SessionCookie string
	// Google == nil — маршруты входа через Google не регистрируются.
	Google         oauth.Provider
	GoogleRedirect config.GoogleConfig
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc, handlers.Options{
		BasePath:       opts.BasePath,
		Cookies:        opts.Cookies,
		SessionCookie:  opts.SessionCookie,
		Google:         opts.Google,
		GoogleRedirect: opts.GoogleRedirect,
	})

	guards := routeGuards{
		jwt:     middleware.Authenticate(auth.NewJWT(svc)),
		session: middleware.Authenticate(auth.NewSession(svc, opts.SessionCookie)),
	}

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, guards, opts.Google != nil)
		root.Mount(opts.BasePath, sub)
	} else {
		registerRoutes(root, h, guards, opts.Google != nil)
	}

	// Входящий traceparent продолжает трейс; спан на каждый запрос.
	return otelhttp.NewHandler(root, "diary-auth")
}

type routeGuards struct {
	jwt     middleware.Middleware
	session middleware.Middleware
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, g routeGuards, google bool) {
	// auth
	r.Post("/auth/login", h.Login)
	r.Post("/auth/sessionLogin", h.SessionLogin)
	r.With(g.jwt).Post("/auth/logout", h.LogoutTokens)

	// users: публичные
	r.Post("/users/register", h.Register)
	r.Post("/users/email", h.RequestVerification)
	r.Get("/users/verifyEmail/{token}", h.VerifyEmail)
	r.Get("/users/verified", h.Verified)
	r.Post("/users/testregister", h.CompleteRegistration)
	r.Post("/users/forgot-password", h.ForgotPassword)
	r.Post("/users/refresh-token", h.RefreshToken)

	if google {
		r.Get("/users/google", h.GoogleLogin)
		r.Get("/users/google/callback", h.GoogleCallback)
	}

	// users: cookie-сессия
	r.With(g.session).Get("/users/sessionCurrent", h.SessionCurrent)
	r.With(g.session).Post("/users/logout", h.Logout)

	// users: JWT
	r.With(g.jwt).Post("/users/reset-password", h.ResetPassword)
	r.With(g.jwt).Get("/users/current", h.Current)
	r.With(g.jwt).Get("/users/{userId}", h.GetUser)
	r.With(g.jwt).Put("/users/{userId}", h.UpdateUser)
	r.With(g.jwt).Delete("/users/{userId}", h.DeleteUser)
}
