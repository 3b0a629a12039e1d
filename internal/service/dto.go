package service

import (
	"time"

	"github.com/abgdnv/storemanager/internal/store"
	"github.com/abgdnv/storemanager/pkg/messaging/events"
)

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
}

// SaleItemDto is one product entry of a sale request or response.
type SaleItemDto struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

// SaleDto represents a stored sale with its items.
type SaleDto struct {
	ID    int64         `json:"saleId"`
	Date  string        `json:"date"`
	Items []SaleItemDto `json:"items"`
}

// SaleCreatedDto is returned by CreateSale.
type SaleCreatedDto struct {
	ID        int64         `json:"id"`
	ItemsSold []SaleItemDto `json:"itemsSold"`
}

// SaleUpdatedDto is returned by UpdateSale.
type SaleUpdatedDto struct {
	SaleID      int64         `json:"saleId"`
	ItemUpdated []SaleItemDto `json:"itemUpdated"`
}

func toProductDto(p *store.Product) *ProductDto {
	if p == nil {
		return nil
	}
	return &ProductDto{ID: p.ID, Name: p.Name, Quantity: p.Quantity}
}

func toSaleDto(s *store.Sale) *SaleDto {
	if s == nil {
		return nil
	}
	items := make([]SaleItemDto, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, SaleItemDto(it))
	}
	return &SaleDto{
		ID:    s.ID,
		Date:  s.Date.UTC().Format(time.RFC3339),
		Items: items,
	}
}

func toLineItems(items []SaleItemDto) []store.LineItem {
	out := make([]store.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, store.LineItem(it))
	}
	return out
}

func toEventItems(items []store.LineItem) []events.SaleItem {
	out := make([]events.SaleItem, 0, len(items))
	for _, it := range items {
		out = append(out, events.SaleItem(it))
	}
	return out
}
