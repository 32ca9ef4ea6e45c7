package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"posterr/internal/adapters/httpapi"
	"posterr/internal/app"
	"posterr/internal/infra/config"
	httpinfra "posterr/internal/infra/http"
	logpkg "posterr/internal/infra/log"
	"posterr/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось собрать приложение")
	}
	defer application.Close()

	if _, err := application.StartReconciler(ctx, cfg.Stats.ReconcileSpec); err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось запустить сверку статистики")
	}

	server := httpinfra.NewServer(logpkg.Component(logger, "http"), ":"+strconv.Itoa(cfg.Port))
	httpapi.NewHandler(logger, application.PostsUC, application.FeedUC, application.Validator, application.Users).Routes(server.Router)

	if cfg.MetricsAddr != "" {
		metrics.StartServer(ctx, logpkg.Component(logger, "metrics"), cfg.MetricsAddr)
	}
	go func() {
		logger.Info().Msg("api: старт")
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: ошибка остановки")
	}
}
