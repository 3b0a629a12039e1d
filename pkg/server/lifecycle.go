package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/abgdnv/storemanager/pkg/config"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// ServeHTTP runs srv in g and shuts it down once ctx is done.
func ServeHTTP(ctx context.Context, g *errgroup.Group, name string, srv *http.Server, shutdown config.ShutdownConfig, logger *slog.Logger) {
	g.Go(func() error {
		logger.Info(name+" server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server failed: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down " + name + " server")
		shutdownCtx, cancel := shutdown.Context()
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// ServeGRPC listens on addr and serves srv in g. Once ctx is done it stops gracefully,
// forcing the stop when the shutdown timeout passes first.
func ServeGRPC(ctx context.Context, g *errgroup.Group, addr string, srv *grpc.Server, shutdown config.ShutdownConfig, logger *slog.Logger) {
	g.Go(func() error {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC address %s: %w", addr, err)
		}
		logger.Info("gRPC server listening", "addr", addr)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down gRPC server")
		return stopGRPC(srv, shutdown.Timeout, logger)
	})
}

func stopGRPC(srv *grpc.Server, timeout time.Duration, logger *slog.Logger) error {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-time.After(timeout):
		logger.Warn("gRPC graceful stop timed out, forcing stop")
		srv.Stop()
		return errors.New("grpc server graceful stop timed out")
	}
}

// NewPProfServer serves the net/http/pprof handlers registered on the default mux.
func NewPProfServer(cfg config.PProfConfig) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
