// Package main runs the store manager: the product and sale REST API and the inventory gRPC API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/storemanager/internal/app"
	"github.com/abgdnv/storemanager/internal/config"
	"github.com/abgdnv/storemanager/pkg/bootstrap"
	"github.com/abgdnv/storemanager/pkg/config/configloader"
	"github.com/abgdnv/storemanager/pkg/server"
	"github.com/abgdnv/storemanager/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "store"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, opens storage and the event publisher, and starts the HTTP, gRPC and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	var shutdownFns []func(context.Context) error
	defer func() {
		shutdownCtx, cancel := cfg.Shutdown.Context()
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, shutdownFns...); err != nil {
			logger.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, "storemanager", cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		shutdownFns = append(shutdownFns, tp.Shutdown)
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		mp, handler, err := telemetry.NewMeterProvider("storemanager")
		if err != nil {
			return fmt.Errorf("failed to create meter provider: %w", err)
		}
		shutdownFns = append(shutdownFns, mp.Shutdown)
		metricsHandler = handler
	}

	st, closeStore, err := app.NewStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublisher, err := app.NewPublisher(ctx, cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer closePublisher()

	deps := app.SetupDependencies(st, publisher, logger)
	deps.Metrics = metricsHandler
	deps.MetricsPath = cfg.Metrics.Path

	httpServer := app.SetupHttpServer(deps, cfg)
	grpcServer := app.SetupGrpcServer(deps, cfg.GRPC.ReflectionEnabled)

	g, gCtx := errgroup.WithContext(ctx)
	server.ServeHTTP(gCtx, g, "HTTP", httpServer, cfg.Shutdown, logger)
	server.ServeGRPC(gCtx, g, cfg.GRPC.Addr(), grpcServer, cfg.Shutdown, logger)
	if cfg.PProf.Enabled {
		server.ServeHTTP(gCtx, g, "pprof", server.NewPProfServer(cfg.PProf), cfg.Shutdown, logger)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
