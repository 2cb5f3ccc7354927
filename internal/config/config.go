// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Auth     AuthConfig    `yaml:"auth"`
	Session  SessionConfig `yaml:"session"`
	Cookies  CookieConfig  `yaml:"cookies"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	Google   GoogleConfig  `yaml:"google"`
	Notify   NotifyConfig  `yaml:"notify"`
	Tracing  TracingConfig `yaml:"tracing"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	// Service — дедлайн одного HTTP-запроса.
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
	// Shutdown — время на graceful-остановку.
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"5001"`
	// BasePath — префикс всех API-маршрутов.
	BasePath string `yaml:"base_path" env:"HTTP_BASE_PATH" env-default:"/api"`
	// PublicBaseURL — внешний адрес сервиса, используется в ссылках из писем.
	PublicBaseURL string `yaml:"public_base_url" env:"PUBLIC_BASE_URL" env-default:"http://localhost:5001"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`
	Issuer          string        `yaml:"issuer" env:"ISSUER" env-default:"diary-auth"`
	Audience        []string      `yaml:"audience" env:"AUDIENCE" env-default:"diary-web"`
	// VerificationTTL — срок жизни ссылки подтверждения e-mail.
	VerificationTTL time.Duration `yaml:"verification_ttl" env:"VERIFICATION_TTL" env-default:"1h"`
}

// SessionConfig — параметры cookie-сессий.
type SessionConfig struct {
	TTL        time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"sessionID"`
}

// CookieConfig — общие атрибуты выставляемых cookie.
type CookieConfig struct {
	Domain   string `yaml:"domain" env:"COOKIE_DOMAIN"`
	Secure   bool   `yaml:"secure" env:"COOKIE_SECURE" env-default:"false"`
	SameSite string `yaml:"same_site" env:"COOKIE_SAMESITE" env-default:"lax"`
}

// SameSiteMode переводит строковое значение в http.SameSite.
// Неизвестные значения трактуются как lax.
func (c CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(strings.TrimSpace(c.SameSite)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
	// SkipMigrate отключает применение миграций при старте.
	SkipMigrate bool `yaml:"skip_migrate" env:"DB_SKIP_MIGRATE"`
}

// RedisConfig — настройки кэша токенов и сессий.
type RedisConfig struct {
	RedisURL     string        `yaml:"redis_url" env:"REDIS_URL" env-required:"true"`
	Prefix       string        `yaml:"prefix" env:"REDIS_PREFIX" env-default:"diary:auth:"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"2s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"REDIS_READ_TIMEOUT" env-default:"1s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"REDIS_WRITE_TIMEOUT" env-default:"1s"`
}

// GoogleConfig — OAuth2-клиент Google. Пустой ClientID отключает вход через Google.
type GoogleConfig struct {
	ClientID        string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret    string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL     string `yaml:"redirect_url" env:"GOOGLE_REDIRECT_URL" env-default:"http://localhost:5001/api/users/google/callback"`
	SuccessRedirect string `yaml:"success_redirect" env:"GOOGLE_SUCCESS_REDIRECT" env-default:"/"`
	FailureRedirect string `yaml:"failure_redirect" env:"GOOGLE_FAILURE_REDIRECT" env-default:"/"`
}

// Enabled сообщает, сконфигурирован ли вход через Google.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// NotifyConfig — куда отправлять письма (ссылки подтверждения, временные пароли).
//
// Driver:
//   - "log"   — только запись в лог (локальная разработка);
//   - "kafka" — публикация задания в топик, письмо отправляет отдельный сервис.
type NotifyConfig struct {
	Driver  string   `yaml:"driver" env:"NOTIFY_DRIVER" env-default:"log"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	Topic   string   `yaml:"topic" env:"KAFKA_EMAIL_TOPIC" env-default:"diary.auth.emails"`
}

// TracingConfig — экспорт трейсов через OTLP/gRPC.
type TracingConfig struct {
	Enable      bool   `yaml:"enable" env:"OTEL_ENABLE" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_ENDPOINT" env-default:"localhost:4317"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"diary-auth"`
	// SampleRatio — строка: у float64 cleanenv заменил бы 0 дефолтом.
	SampleRatio string `yaml:"sample_ratio" env:"OTEL_SAMPLE_RATIO" env-default:"1"`
}

// Ratio разбирает SampleRatio; допустимы значения из [0, 1].
func (t TracingConfig) Ratio() (float64, error) {
	r, err := strconv.ParseFloat(strings.TrimSpace(t.SampleRatio), 64)
	if err != nil {
		return 0, fmt.Errorf("tracing.sample_ratio: %w", err)
	}
	if r < 0 || r > 1 {
		return 0, fmt.Errorf("tracing.sample_ratio: %v out of [0, 1]", r)
	}

	return r, nil
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		if _, err := cfg.Tracing.Ratio(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if _, err := cfg.Tracing.Ratio(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
