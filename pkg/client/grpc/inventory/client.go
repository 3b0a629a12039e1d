// Package inventory is a typed client for the inventory gRPC API.
package inventory

import (
	"context"
	"fmt"
	"time"

	pb "github.com/abgdnv/storemanager/pkg/api/inventory/v1"
	"github.com/abgdnv/storemanager/pkg/client/grpc/interceptors"
	"github.com/abgdnv/storemanager/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Product struct {
	ID       int64
	Name     string
	Quantity int32
}

type SaleItem struct {
	ProductID int64
	Quantity  int32
}

type Sale struct {
	ID    int64
	Date  time.Time
	Items []SaleItem
}

type Client struct {
	conn *grpc.ClientConn
	api  pb.InventoryServiceClient
}

// NewClient dials addr with tracing, a per-call timeout, retries and a circuit breaker.
// Extra dial options are appended, e.g. a custom dialer in tests.
func NewClient(cfg config.GrpcClientConfig, res config.ResilienceConfig, extra ...grpc.DialOption) (*Client, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		interceptors.Chain("inventory-client", cfg, res),
	}
	conn, err := grpc.NewClient(cfg.Addr, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory client: %w", err)
	}
	return &Client{conn: conn, api: pb.NewInventoryServiceClient(conn)}, nil
}

// GetProduct returns the product with the given ID. A missing product is a codes.NotFound status.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	resp, err := c.api.GetProduct(ctx, wrapperspb.Int64(id))
	if err != nil {
		return nil, err
	}
	fields := resp.GetFields()
	return &Product{
		ID:       int64(fields["id"].GetNumberValue()),
		Name:     fields["name"].GetStringValue(),
		Quantity: int32(fields["quantity"].GetNumberValue()),
	}, nil
}

// GetSale returns the sale with the given ID and its items.
func (c *Client) GetSale(ctx context.Context, id int64) (*Sale, error) {
	resp, err := c.api.GetSale(ctx, wrapperspb.Int64(id))
	if err != nil {
		return nil, err
	}
	fields := resp.GetFields()
	sale := &Sale{ID: int64(fields["id"].GetNumberValue())}
	if date := fields["date"].GetStringValue(); date != "" {
		sale.Date, err = time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return nil, fmt.Errorf("invalid sale date %q: %w", date, err)
		}
	}
	for _, v := range fields["items"].GetListValue().GetValues() {
		item := v.GetStructValue().GetFields()
		sale.Items = append(sale.Items, SaleItem{
			ProductID: int64(item["productId"].GetNumberValue()),
			Quantity:  int32(item["quantity"].GetNumberValue()),
		})
	}
	return sale, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

