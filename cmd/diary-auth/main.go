package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-diary-auth/internal/cache"
	"github.com/pribylovaa/go-diary-auth/internal/config"
	authhttp "github.com/pribylovaa/go-diary-auth/internal/http"
	"github.com/pribylovaa/go-diary-auth/internal/metrics"
	"github.com/pribylovaa/go-diary-auth/internal/notify"
	"github.com/pribylovaa/go-diary-auth/internal/oauth"
	"github.com/pribylovaa/go-diary-auth/internal/obs"
	"github.com/pribylovaa/go-diary-auth/internal/service"
	"github.com/pribylovaa/go-diary-auth/internal/storage/postgres"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// signupJanitorPeriod — период очистки незавершённых регистраций.
const signupJanitorPeriod = 30 * time.Minute

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting diary-auth", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	tel, err := obs.SetupOTel(rootCtx, cfg.Tracing)
	if err != nil {
		log.Error("otel_setup_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer str.Close()
	log.Info("postgres_connected")

	if !cfg.DB.SkipMigrate {
		if err := str.Migrate(rootCtx); err != nil {
			log.Error("postgres_migrate_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		log.Info("postgres_migrated")
	}

	redisCtx, redisCancel := context.WithTimeout(rootCtx, 5*time.Second)
	rc, err := cache.NewRedisCache(redisCtx, cache.RedisOptions{
		URL:          cfg.Redis.RedisURL,
		Prefix:       cfg.Redis.Prefix,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	redisCancel()
	if err != nil {
		log.Error("redis_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	tokens := cache.NewInstrumented(rc)
	defer func() {
		if cerr := tokens.Close(); cerr != nil {
			log.Warn("redis_close_failed", slog.String("err", cerr.Error()))
		}
	}()
	log.Info("redis_connected")

	notifier, err := notify.New(notify.Options{
		Driver:  cfg.Notify.Driver,
		Brokers: cfg.Notify.Brokers,
		Topic:   cfg.Notify.Topic,
	})
	if err != nil {
		log.Error("notifier_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := notifier.Close(); cerr != nil {
			log.Warn("notifier_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	// Сервис.
	srvc := service.New(str, tokens, cfg.Auth, cfg.Session)
	srvc.SetNotifier(notifier)
	srvc.SetVerifyURL(strings.TrimRight(cfg.HTTP.PublicBaseURL, "/") + cfg.HTTP.BasePath + "/users/verifyEmail")
	log.Info("service_initialized", slog.String("notify_driver", cfg.Notify.Driver))

	opts := authhttp.Options{
		Logger:         log,
		Timeout:        cfg.Timeouts.Service,
		BasePath:       cfg.HTTP.BasePath,
		Cookies:        cfg.Cookies,
		SessionCookie:  cfg.Session.CookieName,
		GoogleRedirect: cfg.Google,
	}
	if cfg.Google.Enabled() {
		opts.Google = oauth.NewGoogle(oauth.GoogleOptions{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
		log.Info("google_login_enabled")
	}

	apiHandler := authhttp.NewRouter(srvc, opts)

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&ready) != 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		if err := str.Ping(ctx); err != nil {
			http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := rc.Ping(ctx); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	// Фоновая очистка незавершённых регистраций с истёкшей ссылкой.
	startSignupJanitor(rootCtx, srvc, log, signupJanitorPeriod)

	atomic.StoreInt32(&ready, 1)
	log.Info("service_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Warn("otel_shutdown_failed", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// startSignupJanitor периодически удаляет незавершённые регистрации,
// у которых истекла ссылка подтверждения.
func startSignupJanitor(ctx context.Context, srvc *service.Service, log *slog.Logger, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := srvc.PurgeExpiredSignups(ctx)
				if err != nil {
					log.Error("signup_janitor_failed", slog.String("err", err.Error()))
					continue
				}
				if n > 0 {
					metrics.PendingSignupsPurgedTotal.Add(float64(n))
					log.Info("pending_signups_purged", slog.Int64("count", n))
				}
			}
		}
	}()
}
