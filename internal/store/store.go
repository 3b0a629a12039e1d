// Package store provides interfaces and implementations for product and sale storage.
package store

import (
	"context"
	"time"
)

// Product is a stock-keeping unit with its remaining quantity.
type Product struct {
	ID       int64
	Name     string
	Quantity int32
}

// LineItem is one product entry of a sale.
type LineItem struct {
	ProductID int64
	Quantity  int32
}

// Sale is a sale record with its line items in insertion order.
type Sale struct {
	ID    int64
	Date  time.Time
	Items []LineItem
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindByName retrieves a single product by its exact name.
	// Returns ErrProductNotFound if no product has that name.
	FindByName(ctx context.Context, name string) (*Product, error)

	// FindAll returns all products ordered by ID.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// Create adds a new product to the system.
	// Returns ErrDuplicateName if the name is already taken.
	Create(ctx context.Context, name string, quantity int32) (*Product, error)

	// Update overwrites the name and quantity of an existing product.
	// Returns ErrProductNotFound or ErrDuplicateName.
	Update(ctx context.Context, id int64, name string, quantity int32) (*Product, error)

	// SetQuantity overwrites the quantity without any bounds check.
	// Returns ErrProductNotFound if no product exists with the given ID.
	SetQuantity(ctx context.Context, id int64, quantity int32) error

	// AdjustQuantity adds delta to the quantity in one conditional step and returns the new value.
	// Returns ErrInsufficientStock if the result would be negative, ErrProductNotFound if absent.
	AdjustQuantity(ctx context.Context, id int64, delta int32) (int32, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error
}

// SaleStore is an interface for sale storage operations.
type SaleStore interface {
	// FindByID retrieves a sale with its items.
	// Returns ErrSaleNotFound if the sale does not exist or has no items.
	FindByID(ctx context.Context, id int64) (*Sale, error)

	// FindAll returns all sales ordered by ID, items in insertion order.
	FindAll(ctx context.Context) ([]Sale, error)

	// Create stores a new sale with all its items and assigns its ID and date.
	Create(ctx context.Context, items []LineItem) (*Sale, error)

	// UpdateLineItem overwrites the quantity of one item and returns the previous quantity.
	// Returns ErrSaleItemNotFound if the sale has no item for productID.
	UpdateLineItem(ctx context.Context, saleID, productID int64, quantity int32) (int32, error)

	// DeleteByID removes the sale and all its items.
	// Returns ErrSaleNotFound if the sale does not exist.
	DeleteByID(ctx context.Context, id int64) error
}

// Repos gives access to stores bound to the same unit of work.
type Repos interface {
	Products() ProductStore
	Sales() SaleStore
}

// Store is the storage entry point. Stores returned directly run each call on its own;
// WithinTx runs fn in a transaction that commits when fn returns nil and rolls back otherwise.
type Store interface {
	Repos
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
