package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const findProductByID = `SELECT id, name, quantity FROM products WHERE id = $1`

func (q *Queries) FindProductByID(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := q.db.QueryRow(ctx, findProductByID, id).Scan(&p.ID, &p.Name, &p.Quantity)
	return p, err
}

const findProductByName = `SELECT id, name, quantity FROM products WHERE name = $1`

func (q *Queries) FindProductByName(ctx context.Context, name string) (Product, error) {
	var p Product
	err := q.db.QueryRow(ctx, findProductByName, name).Scan(&p.ID, &p.Name, &p.Quantity)
	return p, err
}

const findAllProducts = `SELECT id, name, quantity FROM products ORDER BY id`

func (q *Queries) FindAllProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, findAllProducts)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Product])
}

const createProduct = `INSERT INTO products (name, quantity) VALUES ($1, $2) RETURNING id, name, quantity`

type CreateProductParams struct {
	Name     string
	Quantity int32
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	var p Product
	err := q.db.QueryRow(ctx, createProduct, arg.Name, arg.Quantity).Scan(&p.ID, &p.Name, &p.Quantity)
	return p, err
}

const updateProduct = `UPDATE products SET name = $2, quantity = $3 WHERE id = $1 RETURNING id, name, quantity`

type UpdateProductParams struct {
	ID       int64
	Name     string
	Quantity int32
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	var p Product
	err := q.db.QueryRow(ctx, updateProduct, arg.ID, arg.Name, arg.Quantity).Scan(&p.ID, &p.Name, &p.Quantity)
	return p, err
}

const setProductQuantity = `UPDATE products SET quantity = $2 WHERE id = $1`

// SetProductQuantity overwrites the quantity and returns the number of affected rows.
func (q *Queries) SetProductQuantity(ctx context.Context, id int64, quantity int32) (int64, error) {
	tag, err := q.db.Exec(ctx, setProductQuantity, id, quantity)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// adjustProductQuantity only matches when the result stays non-negative,
// so the check and the write happen under the same row lock.
const adjustProductQuantity = `UPDATE products SET quantity = quantity + $2
WHERE id = $1 AND quantity + $2 >= 0
RETURNING quantity`

func (q *Queries) AdjustProductQuantity(ctx context.Context, id int64, delta int32) (int32, error) {
	var quantity int32
	err := q.db.QueryRow(ctx, adjustProductQuantity, id, delta).Scan(&quantity)
	return quantity, err
}

const productExists = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

func (q *Queries) ProductExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, productExists, id).Scan(&exists)
	return exists, err
}

const deleteProduct = `DELETE FROM products WHERE id = $1`

func (q *Queries) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteProduct, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
