// Package main runs the sales audit consumer: it reads sale events from JetStream and logs them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/storemanager/internal/audit"
	"github.com/abgdnv/storemanager/pkg/bootstrap"
	"github.com/abgdnv/storemanager/pkg/config/configloader"
	"github.com/abgdnv/storemanager/pkg/messaging"
	"github.com/abgdnv/storemanager/pkg/nats"
	"github.com/abgdnv/storemanager/pkg/server"
	"github.com/abgdnv/storemanager/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "audit"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run connects to NATS, starts the audit consumer and optionally the pprof server.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*audit.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, "salesaudit", cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := cfg.Shutdown.Context()
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("Tracer provider shutdown failed", "error", err)
			}
		}()
	}

	natsConn, err := nats.NewClient(cfg.Events.Nats.Url, cfg.Events.Nats.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create NATS connection: %w", err)
	}
	defer natsConn.Close()
	js, err := nats.NewJetStreamContext(natsConn)
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}
	if _, err := nats.EnsureStream(ctx, js, cfg.Subscriber.Stream, messaging.SalesSubjects); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Audit consumer started")
		err := audit.Start(gCtx, js, cfg.Subscriber, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Audit consumer failed", "error", err)
			return err
		}
		logger.Info("Audit consumer stopped gracefully.")
		return nil
	})

	if cfg.PProf.Enabled {
		server.ServeHTTP(gCtx, g, "pprof", server.NewPProfServer(cfg.PProf), cfg.Shutdown, logger)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
