package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/abgdnv/storemanager/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestServeHTTP_StopsOnCancel(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	g, gCtx := errgroup.WithContext(ctx)
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}

	// when
	ServeHTTP(gCtx, g, "test", srv, config.ShutdownConfig{Timeout: time.Second}, logger)
	cancel()

	// then
	require.NoError(t, g.Wait())
}

func TestServeGRPC_StopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	g, gCtx := errgroup.WithContext(ctx)

	ServeGRPC(gCtx, g, "127.0.0.1:0", NewGRPCServer(logger, false), config.ShutdownConfig{Timeout: time.Second}, logger)
	cancel()

	require.NoError(t, g.Wait())
}

func TestServeGRPC_ListenError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g, gCtx := errgroup.WithContext(context.Background())

	ServeGRPC(gCtx, g, "invalid-address", NewGRPCServer(logger, false), config.ShutdownConfig{Timeout: time.Second}, logger)

	err := g.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid-address")
}

func TestNewPProfServer(t *testing.T) {
	srv := NewPProfServer(config.PProfConfig{Enabled: true, Addr: "localhost:6060"})

	assert.Equal(t, "localhost:6060", srv.Addr)
	assert.Equal(t, http.DefaultServeMux, srv.Handler)
}
