package db

import (
	"time"
)

type Product struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Quantity int32  `db:"quantity"`
}

type Sale struct {
	ID   int64     `db:"id"`
	Date time.Time `db:"date"`
}

type SaleItem struct {
	SaleID    int64 `db:"sale_id"`
	ProductID int64 `db:"product_id"`
	Quantity  int32 `db:"quantity"`
	Position  int32 `db:"position"`
}
