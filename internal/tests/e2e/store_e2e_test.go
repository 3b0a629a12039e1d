// Package e2e runs the store manager HTTP API end to end against PostgreSQL and NATS JetStream
// started with testcontainers-go. Each test starts from empty tables.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/storemanager/internal/app"
	"github.com/abgdnv/storemanager/internal/config"
	"github.com/abgdnv/storemanager/internal/service"
	pkgconfig "github.com/abgdnv/storemanager/pkg/config"
	pnats "github.com/abgdnv/storemanager/pkg/nats"
	"github.com/jackc/pgx/v5/pgxpool"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "STORE_SKIP_E2E_TESTS"

const (
	productsURL = "/api/v1/products"
	salesURL    = "/api/v1/sales"
	streamName  = "SALES"
)

// StoreE2ESuite serves the full HTTP stack over a Postgres store and a JetStream publisher.
type StoreE2ESuite struct {
	suite.Suite
	pgContainer   *postgres.PostgresContainer
	natsContainer *tcnats.NATSContainer
	dbPool        *pgxpool.Pool
	nc            *natsgo.Conn
	js            jetstream.JetStream
	server        *httptest.Server
	httpClient    *http.Client
	cleanup       []func()
	logger        *slog.Logger
	ctx           context.Context
}

func (s *StoreE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("store_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.natsContainer, err = tcnats.Run(s.ctx, "nats:2.11.6-alpine")
	require.NoError(s.T(), err, "Failed to run NATS container")
	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)

	var cfg config.Config
	cfg.Storage.Driver = pkgconfig.StorageDriverPostgres
	cfg.Database = pkgconfig.DatabaseConfig{URL: connStr, Timeout: 10 * time.Second, Migrate: true}
	cfg.Events = pkgconfig.EventsConfig{
		Broker:         pkgconfig.BrokerNATS,
		Stream:         streamName,
		Nats:           pkgconfig.NATSConfig{Url: natsURL, Timeout: 5 * time.Second},
		CircuitBreaker: pkgconfig.CircuitBreakerConfig{ConsecutiveFailures: 5, OpenTimeout: time.Second},
	}

	st, closeStore, err := app.NewStore(s.ctx, &cfg, s.logger)
	require.NoError(s.T(), err, "Failed to open store")
	publisher, closePublisher, err := app.NewPublisher(s.ctx, cfg.Events, s.logger)
	require.NoError(s.T(), err, "Failed to connect publisher")
	s.cleanup = append(s.cleanup, closePublisher, closeStore)

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err)
	s.nc, err = pnats.NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err)
	s.js, err = pnats.NewJetStreamContext(s.nc)
	require.NoError(s.T(), err)

	s.server = httptest.NewServer(app.SetupHttpHandler(app.SetupDependencies(st, publisher, s.logger)))
	s.httpClient = s.server.Client()
	s.logger.Info("E2E test server started", "url", s.server.URL)
}

func (s *StoreE2ESuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	for _, fn := range s.cleanup {
		fn()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.nc != nil {
		s.nc.Close()
	}
	for _, c := range []testcontainers.Container{s.pgContainer, s.natsContainer} {
		if err := testcontainers.TerminateContainer(c); err != nil {
			s.logger.Warn("Failed to terminate container", "error", err)
		}
	}
}

// SetupTest empties the tables and the event stream.
func (s *StoreE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE sale_items, sales, products RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
	stream, err := s.js.Stream(s.ctx, streamName)
	require.NoError(s.T(), err)
	require.NoError(s.T(), stream.Purge(s.ctx))
}

func TestStoreE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(StoreE2ESuite))
}

func (s *StoreE2ESuite) TestSaleLifecycle() {
	// given
	rice := s.createProduct("Basmati rice", 10)
	oil := s.createProduct("Olive oil", 3)

	// when
	var created service.SaleCreatedDto
	status := s.do(http.MethodPost, salesURL, []map[string]any{
		{"productId": oil.ID, "quantity": 1},
		{"productId": rice.ID, "quantity": 4},
	}, &created)

	// then
	s.Require().Equal(http.StatusCreated, status)
	s.Equal(int32(6), s.product(rice.ID).Quantity)
	s.Equal(int32(2), s.product(oil.ID).Quantity)

	var sale service.SaleDto
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("%s/%d", salesURL, created.ID), nil, &sale))
	s.Equal([]service.SaleItemDto{{ProductID: oil.ID, Quantity: 1}, {ProductID: rice.ID, Quantity: 4}}, sale.Items)

	// raise rice to 6, stock follows the difference
	status = s.do(http.MethodPut, fmt.Sprintf("%s/%d", salesURL, created.ID), []map[string]any{{"productId": rice.ID, "quantity": 6}}, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(int32(4), s.product(rice.ID).Quantity)

	// delete restores everything
	s.Require().Equal(http.StatusNoContent, s.do(http.MethodDelete, fmt.Sprintf("%s/%d", salesURL, created.ID), nil, nil))
	s.Equal(int32(10), s.product(rice.ID).Quantity)
	s.Equal(int32(3), s.product(oil.ID).Quantity)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, fmt.Sprintf("%s/%d", salesURL, created.ID), nil, nil))

	s.Eventually(func() bool { return s.streamMessages() == 3 }, 5*time.Second, 100*time.Millisecond,
		"expected created, updated and deleted events")
}

func (s *StoreE2ESuite) TestInsufficientStockRollsBack() {
	// given
	rice := s.createProduct("Basmati rice", 10)
	oil := s.createProduct("Olive oil", 3)

	// when
	var body map[string]any
	status := s.do(http.MethodPost, salesURL, []map[string]any{
		{"productId": rice.ID, "quantity": 2},
		{"productId": oil.ID, "quantity": 5},
	}, &body)

	// then
	s.Equal(http.StatusUnprocessableEntity, status)
	s.Equal(float64(oil.ID), body["productId"])
	s.Equal(int32(10), s.product(rice.ID).Quantity)
	s.Equal(int32(3), s.product(oil.ID).Quantity)

	var sales []service.SaleDto
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, salesURL, nil, &sales))
	s.Empty(sales)
	s.Equal(uint64(0), s.streamMessages())
}

func (s *StoreE2ESuite) TestDuplicateProductName() {
	s.createProduct("Basmati rice", 10)
	status := s.do(http.MethodPost, productsURL, map[string]any{"name": "Basmati rice", "quantity": 1}, nil)
	s.Equal(http.StatusConflict, status)
}

func (s *StoreE2ESuite) createProduct(name string, quantity int32) service.ProductDto {
	s.T().Helper()
	var p service.ProductDto
	status := s.do(http.MethodPost, productsURL, map[string]any{"name": name, "quantity": quantity}, &p)
	s.Require().Equal(http.StatusCreated, status)
	return p
}

func (s *StoreE2ESuite) product(id int64) service.ProductDto {
	s.T().Helper()
	var p service.ProductDto
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("%s/%d", productsURL, id), nil, &p))
	return p
}

func (s *StoreE2ESuite) streamMessages() uint64 {
	stream, err := s.js.Stream(s.ctx, streamName)
	if err != nil {
		return 0
	}
	info, err := stream.Info(s.ctx)
	if err != nil {
		return 0
	}
	return info.State.Msgs
}

// do sends payload as JSON and decodes a 2xx or 4xx body into out when out is not nil.
func (s *StoreE2ESuite) do(method, path string, payload any, out any) int {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, body)
	require.NoError(s.T(), err, "Failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err, "HTTP request failed")
	defer func() {
		assert.NoError(s.T(), resp.Body.Close())
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err, "Failed to read response body")
	if out != nil && len(bodyBytes) > 0 {
		require.NoError(s.T(), json.Unmarshal(bodyBytes, out), "Failed to decode %s", string(bodyBytes))
	}
	return resp.StatusCode
}
