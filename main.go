package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Zhima-Mochi/minishop-tracing/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-tracing/internal/config"
	"github.com/Zhima-Mochi/minishop-tracing/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env, logging.Options{
		LogFile: cfg.LogFile,
		Level:   cfg.LogLevel,
		Role:    string(cfg.Role),
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.System(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: baseLogger})
	if err != nil {
		systemLogger.Error("bootstrap_failed", zap.Error(err))
		os.Exit(1)
	}

	systemLogger.Info("minishop_start",
		zap.String("role", string(cfg.Role)),
		zap.String("store", string(cfg.StoreDriver)),
		zap.Bool("chaos", cfg.ChaosEnabled),
	)
	if err := app.Run(ctx); err != nil {
		systemLogger.Error("minishop_stopped_with_error", zap.Error(err))
		os.Exit(1)
	}
}
