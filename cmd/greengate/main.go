package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"greengate-back/internal/app"
	"greengate-back/internal/config"
	"greengate-back/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoadConfig()
	config.MustPrintConfig(cfg)

	log := logger.MustSetupLogger(&logger.Config{
		Level:      cfg.Logger.Level,
		FormatJSON: cfg.Logger.FormatJSON,
		Rotation: logger.Rotation{
			File:       cfg.Logger.Rotation.File,
			MaxSize:    cfg.Logger.Rotation.MaxSize,
			MaxBackups: cfg.Logger.Rotation.MaxBackups,
			MaxAge:     cfg.Logger.Rotation.MaxAge,
		},
	})

	log.Info("Starting application",
		zap.String("service", cfg.App.ServiceName),
		zap.String("version", cfg.App.Version),
	)

	application := app.MustNew(cfg, log)

	defer func() {
		if err := application.Shutdown(); err != nil {
			log.Error("Failed to shutdown application", zap.Error(err))
		}

		log.Info("Application has shutdown")

		_ = log.Sync()
	}()

	if err := application.Run(ctx); err != nil {
		log.Error("Server error, shutting down...", zap.Error(err))
		return
	}

	log.Info("Received stop signal, shutting down...")
}
