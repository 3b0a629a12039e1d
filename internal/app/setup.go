// Package app wires the store manager: storage, event publisher, services and servers.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storemanager/internal/config"
	"github.com/abgdnv/storemanager/internal/service"
	"github.com/abgdnv/storemanager/internal/store"
	grpcImpl "github.com/abgdnv/storemanager/internal/transport/grpc"
	"github.com/abgdnv/storemanager/internal/transport/rest"
	"github.com/abgdnv/storemanager/migrations"
	pb "github.com/abgdnv/storemanager/pkg/api/inventory/v1"
	"github.com/abgdnv/storemanager/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/storemanager/pkg/config"
	"github.com/abgdnv/storemanager/pkg/kafka"
	"github.com/abgdnv/storemanager/pkg/messaging"
	"github.com/abgdnv/storemanager/pkg/nats"
	"github.com/abgdnv/storemanager/pkg/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
)

type Dependencies struct {
	ProductService service.ProductService
	SaleService    service.SaleService
	Logger         *slog.Logger
	// Metrics serves the Prometheus registry; nil disables the endpoint.
	Metrics     http.Handler
	MetricsPath string
}

func SetupDependencies(st store.Store, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		ProductService: service.NewProducts(st),
		SaleService:    service.NewSales(st, publisher, logger.With("component", "sales")),
		Logger:         logger,
	}
}

// NewStore opens the configured storage. The returned func releases it.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.Storage.Driver == pkgconfig.StorageDriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return store.NewInMemoryStore(), func() {}, nil
	}

	if cfg.Database.Migrate {
		if err := bootstrap.RunMigrations(migrations.FS, cfg.Database.URL, logger); err != nil {
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	logger.Info("Successfully connected to the database!")
	return store.NewPgStore(dbPool), dbPool.Close, nil
}

// NewPublisher connects the configured broker. Broker publishers are wrapped in a
// circuit breaker so a dead broker is not called on every sale.
func NewPublisher(ctx context.Context, cfg pkgconfig.EventsConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	switch cfg.Broker {
	case pkgconfig.BrokerNATS:
		nc, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
		if err != nil {
			return nil, nil, err
		}
		js, err := nats.NewJetStreamContext(nc)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		if _, err := nats.EnsureStream(ctx, js, cfg.Stream, messaging.SalesSubjects); err != nil {
			nc.Close()
			return nil, nil, err
		}
		logger.Info("Publishing events to NATS", "stream", cfg.Stream)
		closeFn := func() {
			if err := nc.Drain(); err != nil {
				logger.Warn("Failed to drain NATS connection", "error", err)
			}
		}
		return messaging.NewBreakerPublisher(nats.NewNatsPublisher(js), "nats-publisher", cfg.CircuitBreaker, logger), closeFn, nil

	case pkgconfig.BrokerKafka:
		p := kafka.NewKafkaPublisher(kafka.NewWriter(cfg.Kafka))
		logger.Info("Publishing events to Kafka", "topic", cfg.Kafka.Topic)
		closeFn := func() {
			if err := p.Close(); err != nil {
				logger.Warn("Failed to close Kafka writer", "error", err)
			}
		}
		return messaging.NewBreakerPublisher(p, "kafka-publisher", cfg.CircuitBreaker, logger), closeFn, nil

	default:
		logger.Info("Event publishing disabled")
		return messaging.NoopPublisher{}, func() {}, nil
	}
}

// SetupHttpHandler builds the router with all routes and tracing.
// Used by tests to get the full HTTP stack without a listener.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	rest.RegisterRoutes(mux,
		rest.NewProductHandler(deps.ProductService, deps.Logger),
		rest.NewSaleHandler(deps.SaleService, deps.Logger),
	)
	if deps.Metrics != nil {
		mux.Handle(deps.MetricsPath, deps.Metrics)
	}
	return otelhttp.NewHandler(mux, "storemanager")
}

// SetupHttpServer creates and configures the HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}

// SetupGrpcServer initializes the gRPC server with the inventory read API.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	inventoryRegisterFunc := func(s *grpc.Server) {
		pb.RegisterInventoryServiceServer(s, grpcImpl.NewServer(deps.ProductService, deps.SaleService, deps.Logger))
	}
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, inventoryRegisterFunc)
}
