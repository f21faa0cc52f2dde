package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetmint/internal/shared/config"
	"budgetmint/internal/shared/logging"
	"budgetmint/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(ctx); err != nil {
				logger.WithError(err).Warn("Error shutting down telemetry")
			}
		}()
	}

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	deps.StartBackground()
	if !cfg.Scheduler.Enabled {
		logger.Info("Scheduler is disabled; webhook syncs only")
	}

	handler := SetupRoutes(deps, cfg, logger)
	srv, redirectSrv, errc := StartServers(NewServerConfigFromConfig(handler, cfg), logger)

	select {
	case <-ctx.Done():
	case err = <-errc:
		logger.WithError(err).Error("Server failed")
	}

	GracefulShutdown(srv, redirectSrv, deps, shutdownTimeout, logger)
	return err
}
