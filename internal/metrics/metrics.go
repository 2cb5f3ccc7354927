// metrics — метрики Prometheus сервиса. Регистрируются в реестре по
// умолчанию при импорте пакета и отдаются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal — число HTTP-запросов по маршруту и статусу.
	// route — шаблон chi ("/api/users/{userId}"), а не сырой путь.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_auth_http_requests_total",
		Help: "The total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration — время обработки HTTP-запроса.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "diary_auth_http_request_duration_seconds",
		Help:    "The HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthResultsTotal — результаты стратегий аутентификации.
	AuthResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_auth_results_total",
		Help: "The total number of authentication results by strategy and outcome",
	}, []string{"strategy", "outcome", "reason"})

	// TokensIssuedTotal — выпущенные токены и сессии.
	TokensIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_auth_tokens_issued_total",
		Help: "The total number of issued tokens",
	}, []string{"kind"})

	// CacheOperationsTotal — операции с кэшем токенов.
	CacheOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_auth_cache_operations_total",
		Help: "The total number of token cache operations",
	}, []string{"operation", "status"})

	// CacheOperationDuration — время операции с кэшем токенов.
	CacheOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "diary_auth_cache_operation_duration_seconds",
		Help:    "The token cache operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// PendingSignupsPurgedTotal — удалённые janitor'ом незавершённые регистрации.
	PendingSignupsPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diary_auth_pending_signups_purged_total",
		Help: "The total number of expired pending signups removed",
	})
)
