// Package grpc exposes the read side of the inventory over gRPC.
package grpc

import (
	"context"
	"log/slog"

	serrors "github.com/abgdnv/storemanager/internal/errors"
	"github.com/abgdnv/storemanager/internal/service"
	pb "github.com/abgdnv/storemanager/pkg/api/inventory/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ProductFinder is the part of the product service the server needs.
type ProductFinder interface {
	FindByID(ctx context.Context, id int64) (*service.ProductDto, error)
}

// SaleFinder is the part of the sale service the server needs.
type SaleFinder interface {
	FindByID(ctx context.Context, id int64) (*service.SaleDto, error)
}

type Server struct {
	// Embed the unimplemented server for forward compatibility
	pb.UnimplementedInventoryServiceServer
	products ProductFinder
	sales    SaleFinder
	logger   *slog.Logger
}

func NewServer(products ProductFinder, sales SaleFinder, logger *slog.Logger) *Server {
	return &Server{products: products, sales: sales, logger: logger.With("component", "grpc")}
}

func (s *Server) GetProduct(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	if id <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid product ID: %d", id)
	}
	found, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, err, "products.FindByID failed", id)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"id":       found.ID,
		"name":     found.Name,
		"quantity": found.Quantity,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "internal server error")
	}
	return resp, nil
}

func (s *Server) GetSale(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	if id <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid sale ID: %d", id)
	}
	found, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, err, "sales.FindByID failed", id)
	}
	items := make([]any, 0, len(found.Items))
	for _, it := range found.Items {
		items = append(items, map[string]any{"productId": it.ProductID, "quantity": it.Quantity})
	}
	resp, err := structpb.NewStruct(map[string]any{
		"id":    found.ID,
		"date":  found.Date,
		"items": items,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "internal server error")
	}
	return resp, nil
}

func (s *Server) toStatus(ctx context.Context, err error, msg string, id int64) error {
	if de, ok := serrors.As(err); ok && de.Kind == serrors.KindNotFound {
		return status.Error(codes.NotFound, de.Message)
	}
	s.logger.ErrorContext(ctx, msg, "id", id, "error", err)
	return status.Errorf(codes.Internal, "internal server error")
}
