// Package service implements the inventory and sale business logic on top of the stores.
package service

import (
	"context"
	"errors"
	"fmt"

	serrors "github.com/abgdnv/storemanager/internal/errors"
	"github.com/abgdnv/storemanager/internal/store"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns a NotFound error if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// FindAll returns all products ordered by ID.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// Create adds a new product. Returns a Conflict error if the name is taken.
	Create(ctx context.Context, name string, quantity int32) (*ProductDto, error)

	// Update overwrites name and quantity of an existing product.
	// Returns NotFound if the product is absent, Conflict if the name belongs to another product.
	Update(ctx context.Context, id int64, name string, quantity int32) (*ProductDto, error)

	// AdjustQuantity adds delta to the stock of a product.
	// Returns InsufficientStock if the stock would become negative, nothing is written then.
	AdjustQuantity(ctx context.Context, id int64, delta int32) (*ProductDto, error)

	// DeleteByID removes a product. Sales referencing it are left untouched.
	DeleteByID(ctx context.Context, id int64) error
}

// Products implements ProductService.
type Products struct {
	store store.Store
}

// NewProducts creates a new instance of ProductService backed by st.
func NewProducts(st store.Store) *Products {
	return &Products{store: st}
}

func (s *Products) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	p, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, productError(err, id, "find product")
	}
	return toProductDto(p), nil
}

func (s *Products) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.store.Products().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toProductDto(&products[i])
	}
	return dtos, nil
}

// Create checks the name first; the unique index catches the race between two creators.
func (s *Products) Create(ctx context.Context, name string, quantity int32) (*ProductDto, error) {
	_, err := s.store.Products().FindByName(ctx, name)
	switch {
	case err == nil:
		return nil, serrors.Conflict(serrors.MsgProductExists, serrors.ErrDuplicateName)
	case !errors.Is(err, serrors.ErrProductNotFound):
		return nil, fmt.Errorf("find product by name: %w", err)
	}

	p, err := s.store.Products().Create(ctx, name, quantity)
	if err != nil {
		return nil, productError(err, 0, "create product")
	}
	return toProductDto(p), nil
}

func (s *Products) Update(ctx context.Context, id int64, name string, quantity int32) (*ProductDto, error) {
	p, err := s.store.Products().Update(ctx, id, name, quantity)
	if err != nil {
		return nil, productError(err, id, "update product")
	}
	return toProductDto(p), nil
}

func (s *Products) AdjustQuantity(ctx context.Context, id int64, delta int32) (*ProductDto, error) {
	var product *store.Product
	err := s.store.WithinTx(ctx, func(r store.Repos) error {
		if _, err := adjustQuantity(ctx, r.Products(), id, delta); err != nil {
			return err
		}
		p, err := r.Products().FindByID(ctx, id)
		if err != nil {
			return productError(err, id, "find product")
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProductDto(product), nil
}

func (s *Products) DeleteByID(ctx context.Context, id int64) error {
	if err := s.store.Products().DeleteByID(ctx, id); err != nil {
		return productError(err, id, "delete product")
	}
	return nil
}

// adjustQuantity is the single place where stock moves. It relies on the store's
// conditional update, so concurrent callers cannot push the quantity below zero.
func adjustQuantity(ctx context.Context, products store.ProductStore, id int64, delta int32) (int32, error) {
	q, err := products.AdjustQuantity(ctx, id, delta)
	if err != nil {
		return 0, productError(err, id, "adjust quantity")
	}
	return q, nil
}

// productError translates store sentinels into domain errors.
// Anything else is wrapped with op and left for the caller as an unknown failure.
func productError(err error, id int64, op string) error {
	switch {
	case errors.Is(err, serrors.ErrProductNotFound):
		e := serrors.NotFound(serrors.MsgProductNotFound, err)
		e.ProductID = id
		return e
	case errors.Is(err, serrors.ErrInsufficientStock):
		return serrors.InsufficientStock(id)
	case errors.Is(err, serrors.ErrStockOverflow):
		e := serrors.Invalid(serrors.MsgStockOverflow, err)
		e.ProductID = id
		return e
	case errors.Is(err, serrors.ErrDuplicateName):
		return serrors.Conflict(serrors.MsgProductExists, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
