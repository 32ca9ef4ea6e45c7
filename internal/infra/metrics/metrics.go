package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	PostsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "posterr_posts_created_total",
		Help: "Созданные посты по видам",
	}, []string{"type"})

	PostsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "posterr_posts_rejected_total",
		Help: "Отклонённые попытки создать пост по причинам",
	}, []string{"type", "reason"})

	QuotaBookkeepingFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posterr_quota_bookkeeping_failures_total",
		Help: "Неудачные инкременты дневной квоты после успешной вставки поста",
	})

	StatsBookkeepingFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posterr_stats_bookkeeping_failures_total",
		Help: "Неудачные инкременты статистики после успешной вставки поста",
	})

	StatsReconciled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posterr_stats_reconciled_total",
		Help: "Сколько раз агрегат статистики был пересчитан из постов",
	})

	QuotaBreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "posterr_quota_breaker_state",
		Help: "Состояние circuit breaker квоты: 0 closed, 1 half-open, 2 open",
	})

	AuthorCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "posterr_author_cache_lookups_total",
		Help: "Обращения к кэшу имён авторов",
	}, []string{"result"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность запросов к хранилищам",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество запросов к хранилищам",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PostsCreated,
		PostsRejected,
		QuotaBookkeepingFailures,
		StatsBookkeepingFailures,
		StatsReconciled,
		QuotaBreakerState,
		AuthorCacheLookups,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус запроса к хранилищу.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncPostCreated увеличивает счётчик созданных постов.
func IncPostCreated(kind string) {
	PostsCreated.WithLabelValues(kind).Inc()
}

// IncPostRejected увеличивает счётчик отклонённых постов.
func IncPostRejected(kind, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	PostsRejected.WithLabelValues(kind, reason).Inc()
}
