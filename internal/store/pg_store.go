package store

import (
	"context"
	"errors"
	"fmt"

	serrors "github.com/abgdnv/storemanager/internal/errors"
	"github.com/abgdnv/storemanager/internal/store/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation   = "23505"
	pgNumericOutOfRange = "22003"
)

// PgStore implements Store using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
	q  *db.Queries
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
		q:  db.New(dbp),
	}
}

// Products returns a product store running each call on the pool.
func (p *PgStore) Products() ProductStore {
	return &pgProducts{q: p.q}
}

// Sales returns a sale store; multi-statement calls open their own transaction.
func (p *PgStore) Sales() SaleStore {
	return &pgSales{q: p.q, tx: p.withTransaction}
}

// WithinTx runs fn with stores bound to a single pgx transaction.
func (p *PgStore) WithinTx(ctx context.Context, fn func(r Repos) error) error {
	return p.withTransaction(ctx, func(qtx *db.Queries) error {
		return fn(pgRepos{q: qtx})
	})
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(qtx *db.Queries) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", serrors.ErrTransactionBegin, err)
	}
	qtx := p.q.WithTx(tx)

	err = fn(qtx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w: %w", serrors.ErrTransactionRollback, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", serrors.ErrTransactionCommit, err)
	}

	return nil
}

// pgRepos exposes stores bound to an open transaction.
type pgRepos struct {
	q *db.Queries
}

func (r pgRepos) Products() ProductStore {
	return &pgProducts{q: r.q}
}

// Sales returns a sale store that locks the sale rows it reads, so concurrent
// updates and deletes of the same sale run one after the other.
func (r pgRepos) Sales() SaleStore {
	return &pgSales{q: r.q, lock: true, tx: func(_ context.Context, fn func(qtx *db.Queries) error) error {
		return fn(r.q)
	}}
}

type pgProducts struct {
	q *db.Queries
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *pgProducts) FindByID(ctx context.Context, id int64) (*Product, error) {
	product, err := s.q.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return toProduct(product), nil
}

// FindByName retrieves a product by its name.
// Returns ErrProductNotFound if no product has the given name.
func (s *pgProducts) FindByName(ctx context.Context, name string) (*Product, error) {
	product, err := s.q.FindProductByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}
	return toProduct(product), nil
}

// FindAll retrieves all products ordered by ID.
func (s *pgProducts) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := s.q.FindAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, *toProduct(row))
	}
	return products, nil
}

// Create adds a new product to the system.
// Returns ErrDuplicateName if the name violates the unique index.
func (s *pgProducts) Create(ctx context.Context, name string, quantity int32) (*Product, error) {
	product, err := s.q.CreateProduct(ctx, db.CreateProductParams{
		Name:     name,
		Quantity: quantity,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, serrors.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toProduct(product), nil
}

// Update overwrites the name and quantity of a product.
func (s *pgProducts) Update(ctx context.Context, id int64, name string, quantity int32) (*Product, error) {
	product, err := s.q.UpdateProduct(ctx, db.UpdateProductParams{
		ID:       id,
		Name:     name,
		Quantity: quantity,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.ErrProductNotFound
		}
		if isUniqueViolation(err) {
			return nil, serrors.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return toProduct(product), nil
}

// SetQuantity overwrites the quantity of a product.
func (s *pgProducts) SetQuantity(ctx context.Context, id int64, quantity int32) error {
	count, err := s.q.SetProductQuantity(ctx, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to set product quantity: %w", err)
	}
	if count == 0 {
		return serrors.ErrProductNotFound
	}
	return nil
}

// AdjustQuantity applies delta with a single conditional update.
// When no row matches it tells a missing product apart from a shortage.
func (s *pgProducts) AdjustQuantity(ctx context.Context, id int64, delta int32) (int32, error) {
	quantity, err := s.q.AdjustProductQuantity(ctx, id, delta)
	if err == nil {
		return quantity, nil
	}
	if isOutOfRange(err) {
		return 0, serrors.ErrStockOverflow
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to adjust product quantity: %w", err)
	}
	exists, err := s.q.ProductExists(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return 0, serrors.ErrProductNotFound
	}
	return 0, serrors.ErrInsufficientStock
}

// DeleteByID removes a product by its unique identifier.
func (s *pgProducts) DeleteByID(ctx context.Context, id int64) error {
	count, err := s.q.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if count == 0 {
		return serrors.ErrProductNotFound
	}
	return nil
}

type pgSales struct {
	q    *db.Queries
	lock bool
	tx   func(ctx context.Context, fn func(qtx *db.Queries) error) error
}

// FindByID retrieves a sale and its items.
func (s *pgSales) FindByID(ctx context.Context, id int64) (*Sale, error) {
	var sale *Sale

	txErr := s.tx(ctx, func(qtx *db.Queries) error {
		find := qtx.FindSaleByID
		if s.lock {
			find = qtx.FindSaleByIDForUpdate
		}
		row, err := find(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return serrors.ErrSaleNotFound
			}
			return fmt.Errorf("failed to find sale by ID: %w", err)
		}
		items, err := qtx.FindSaleItemsBySaleID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to find sale items: %w", err)
		}
		if len(items) == 0 {
			return serrors.ErrSaleNotFound
		}
		sale = toSale(row, items)
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return sale, nil
}

// FindAll retrieves all sales with their items.
func (s *pgSales) FindAll(ctx context.Context) ([]Sale, error) {
	var sales []Sale

	txErr := s.tx(ctx, func(qtx *db.Queries) error {
		rows, err := qtx.FindAllSales(ctx)
		if err != nil {
			return fmt.Errorf("failed to find all sales: %w", err)
		}
		items, err := qtx.FindAllSaleItems(ctx)
		if err != nil {
			return fmt.Errorf("failed to find all sale items: %w", err)
		}
		bySale := make(map[int64][]db.SaleItem, len(rows))
		for _, item := range items {
			bySale[item.SaleID] = append(bySale[item.SaleID], item)
		}
		sales = make([]Sale, 0, len(rows))
		for _, row := range rows {
			if len(bySale[row.ID]) == 0 {
				continue
			}
			sales = append(sales, *toSale(row, bySale[row.ID]))
		}
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return sales, nil
}

// Create inserts the sale row and then every item in order.
func (s *pgSales) Create(ctx context.Context, items []LineItem) (*Sale, error) {
	var sale *Sale

	txErr := s.tx(ctx, func(qtx *db.Queries) error {
		row, err := qtx.CreateSale(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", serrors.ErrCreateSale, err)
		}
		created := make([]db.SaleItem, 0, len(items))
		for i, item := range items {
			saleItem, err := qtx.CreateSaleItem(ctx, db.CreateSaleItemParams{
				SaleID:    row.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Position:  int32(i),
			})
			if err != nil {
				return fmt.Errorf("%w: %w", serrors.ErrCreateSaleItem, err)
			}
			created = append(created, saleItem)
		}
		sale = toSale(row, created)
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return sale, nil
}

// UpdateLineItem overwrites one item's quantity and returns the old one.
func (s *pgSales) UpdateLineItem(ctx context.Context, saleID, productID int64, quantity int32) (int32, error) {
	old, err := s.q.UpdateSaleItemQuantity(ctx, db.UpdateSaleItemQuantityParams{
		SaleID:    saleID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, serrors.ErrSaleItemNotFound
		}
		return 0, fmt.Errorf("failed to update sale item: %w", err)
	}
	return old, nil
}

// DeleteByID removes the items and then the sale row.
func (s *pgSales) DeleteByID(ctx context.Context, id int64) error {
	return s.tx(ctx, func(qtx *db.Queries) error {
		if _, err := qtx.DeleteSaleItems(ctx, id); err != nil {
			return fmt.Errorf("failed to delete sale items: %w", err)
		}
		count, err := qtx.DeleteSale(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}
		if count == 0 {
			return serrors.ErrSaleNotFound
		}
		return nil
	})
}

func toProduct(p db.Product) *Product {
	return &Product{ID: p.ID, Name: p.Name, Quantity: p.Quantity}
}

func toSale(s db.Sale, items []db.SaleItem) *Sale {
	sale := &Sale{ID: s.ID, Date: s.Date, Items: make([]LineItem, 0, len(items))}
	for _, item := range items {
		sale.Items = append(sale.Items, LineItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return sale
}

func isUniqueViolation(err error) bool {
	return hasCode(err, pgUniqueViolation)
}

// isOutOfRange reports an int4 overflow of quantity + delta.
func isOutOfRange(err error) bool {
	return hasCode(err, pgNumericOutOfRange)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
