package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"posterr/internal/app"
	"posterr/internal/infra/config"
	logpkg "posterr/internal/infra/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logpkg.NewConsole(cfg.AppEnv)
	open := func(ctx context.Context) (*app.App, error) {
		return app.New(ctx, cfg, logger)
	}
	if err := newRootCmd(ctx, open).Execute(); err != nil {
		os.Exit(1)
	}
}
