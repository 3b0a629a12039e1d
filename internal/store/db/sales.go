package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const createSale = `INSERT INTO sales DEFAULT VALUES RETURNING id, date`

func (q *Queries) CreateSale(ctx context.Context) (Sale, error) {
	var s Sale
	err := q.db.QueryRow(ctx, createSale).Scan(&s.ID, &s.Date)
	return s, err
}

const createSaleItem = `INSERT INTO sale_items (sale_id, product_id, quantity, position)
VALUES ($1, $2, $3, $4)
RETURNING sale_id, product_id, quantity, position`

type CreateSaleItemParams struct {
	SaleID    int64
	ProductID int64
	Quantity  int32
	Position  int32
}

func (q *Queries) CreateSaleItem(ctx context.Context, arg CreateSaleItemParams) (SaleItem, error) {
	var i SaleItem
	err := q.db.QueryRow(ctx, createSaleItem, arg.SaleID, arg.ProductID, arg.Quantity, arg.Position).
		Scan(&i.SaleID, &i.ProductID, &i.Quantity, &i.Position)
	return i, err
}

const findSaleByID = `SELECT id, date FROM sales WHERE id = $1`

func (q *Queries) FindSaleByID(ctx context.Context, id int64) (Sale, error) {
	var s Sale
	err := q.db.QueryRow(ctx, findSaleByID, id).Scan(&s.ID, &s.Date)
	return s, err
}

const findSaleByIDForUpdate = `SELECT id, date FROM sales WHERE id = $1 FOR UPDATE`

// FindSaleByIDForUpdate locks the sale row until the surrounding transaction ends.
func (q *Queries) FindSaleByIDForUpdate(ctx context.Context, id int64) (Sale, error) {
	var s Sale
	err := q.db.QueryRow(ctx, findSaleByIDForUpdate, id).Scan(&s.ID, &s.Date)
	return s, err
}

const findSaleItemsBySaleID = `SELECT sale_id, product_id, quantity, position
FROM sale_items WHERE sale_id = $1 ORDER BY position`

func (q *Queries) FindSaleItemsBySaleID(ctx context.Context, saleID int64) ([]SaleItem, error) {
	rows, err := q.db.Query(ctx, findSaleItemsBySaleID, saleID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[SaleItem])
}

const findAllSales = `SELECT id, date FROM sales ORDER BY id`

func (q *Queries) FindAllSales(ctx context.Context) ([]Sale, error) {
	rows, err := q.db.Query(ctx, findAllSales)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Sale])
}

const findAllSaleItems = `SELECT sale_id, product_id, quantity, position
FROM sale_items ORDER BY sale_id, position`

func (q *Queries) FindAllSaleItems(ctx context.Context) ([]SaleItem, error) {
	rows, err := q.db.Query(ctx, findAllSaleItems)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[SaleItem])
}

// updateSaleItemQuantity returns the quantity the item had before the update.
const updateSaleItemQuantity = `WITH old AS (
    SELECT quantity FROM sale_items WHERE sale_id = $1 AND product_id = $2 FOR UPDATE
)
UPDATE sale_items SET quantity = $3
WHERE sale_id = $1 AND product_id = $2
RETURNING (SELECT quantity FROM old)`

type UpdateSaleItemQuantityParams struct {
	SaleID    int64
	ProductID int64
	Quantity  int32
}

func (q *Queries) UpdateSaleItemQuantity(ctx context.Context, arg UpdateSaleItemQuantityParams) (int32, error) {
	var old int32
	err := q.db.QueryRow(ctx, updateSaleItemQuantity, arg.SaleID, arg.ProductID, arg.Quantity).Scan(&old)
	return old, err
}

const deleteSaleItems = `DELETE FROM sale_items WHERE sale_id = $1`

func (q *Queries) DeleteSaleItems(ctx context.Context, saleID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteSaleItems, saleID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteSale = `DELETE FROM sales WHERE id = $1`

func (q *Queries) DeleteSale(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteSale, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
