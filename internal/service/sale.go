package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	serrors "github.com/abgdnv/storemanager/internal/errors"
	"github.com/abgdnv/storemanager/internal/store"
	"github.com/abgdnv/storemanager/pkg/messaging"
	"github.com/abgdnv/storemanager/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// SaleService defines the sale operations. Every mutating call runs in one transaction:
// either all stock movements and the sale record change together or nothing does.
type SaleService interface {
	// FindByID retrieves a sale with its items.
	// Returns a NotFound error if the sale does not exist.
	FindByID(ctx context.Context, id int64) (*SaleDto, error)

	// FindAll returns all sales ordered by ID.
	FindAll(ctx context.Context) ([]SaleDto, error)

	// CreateSale takes every item out of stock and records the sale.
	// Returns InsufficientStock naming the first short product, NotFound for an unknown product.
	CreateSale(ctx context.Context, items []SaleItemDto) (*SaleCreatedDto, error)

	// UpdateSale overwrites the quantities of existing items and moves the difference
	// between stock and sale.
	UpdateSale(ctx context.Context, saleID int64, items []SaleItemDto) (*SaleUpdatedDto, error)

	// DeleteSale gives every item back to stock and removes the sale.
	DeleteSale(ctx context.Context, saleID int64) error
}

// Sales implements SaleService.
type Sales struct {
	store     store.Store
	publisher messaging.Publisher
	logger    *slog.Logger
	now       func() time.Time

	salesCreated    metric.Int64Counter
	salesUpdated    metric.Int64Counter
	salesDeleted    metric.Int64Counter
	stockRejections metric.Int64Counter
}

// NewSales creates a new instance of SaleService. Events go to publisher after each commit.
func NewSales(st store.Store, publisher messaging.Publisher, logger *slog.Logger) *Sales {
	meter := otel.Meter("storemanager")
	return &Sales{
		store:           st,
		publisher:       publisher,
		logger:          logger,
		now:             time.Now,
		salesCreated:    mustCounter(meter, "sales_created", "Total number of created sales"),
		salesUpdated:    mustCounter(meter, "sales_updated", "Total number of updated sales"),
		salesDeleted:    mustCounter(meter, "sales_deleted", "Total number of deleted sales"),
		stockRejections: mustCounter(meter, "stock_rejections", "Total number of operations rejected for insufficient stock"),
	}
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return c
}

func (s *Sales) FindByID(ctx context.Context, id int64) (*SaleDto, error) {
	sale, err := s.store.Sales().FindByID(ctx, id)
	if err != nil {
		return nil, saleError(err, "find sale")
	}
	return toSaleDto(sale), nil
}

func (s *Sales) FindAll(ctx context.Context) ([]SaleDto, error) {
	sales, err := s.store.Sales().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find sales: %w", err)
	}
	dtos := make([]SaleDto, len(sales))
	for i := range sales {
		dtos[i] = *toSaleDto(&sales[i])
	}
	return dtos, nil
}

func (s *Sales) CreateSale(ctx context.Context, items []SaleItemDto) (*SaleCreatedDto, error) {
	if len(items) == 0 {
		return nil, serrors.Invalid(serrors.MsgEmptySale, serrors.ErrEmptySale)
	}
	lineItems := toLineItems(items)

	var sale *store.Sale
	err := s.store.WithinTx(ctx, func(r store.Repos) error {
		for _, it := range byProduct(lineItems) {
			if _, err := adjustQuantity(ctx, r.Products(), it.ProductID, -it.Quantity); err != nil {
				return err
			}
		}
		created, err := r.Sales().Create(ctx, lineItems)
		if err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		sale = created
		return nil
	})
	if err != nil {
		s.countRejection(ctx, err)
		return nil, err
	}

	s.salesCreated.Add(ctx, 1)
	s.publish(ctx, events.SaleCreatedEvent{
		SaleID:    sale.ID,
		Items:     toEventItems(lineItems),
		CreatedAt: sale.Date,
		Trace:     events.TraceCarrier(ctx),
	})

	return &SaleCreatedDto{ID: sale.ID, ItemsSold: items}, nil
}

// UpdateSale applies old-new of every item to the stock, so raising a quantity takes more
// stock and lowering it gives stock back.
func (s *Sales) UpdateSale(ctx context.Context, saleID int64, items []SaleItemDto) (*SaleUpdatedDto, error) {
	if len(items) == 0 {
		return nil, serrors.Invalid(serrors.MsgEmptySale, serrors.ErrEmptySale)
	}
	lineItems := toLineItems(items)

	err := s.store.WithinTx(ctx, func(r store.Repos) error {
		if _, err := r.Sales().FindByID(ctx, saleID); err != nil {
			return saleError(err, "find sale")
		}
		for _, it := range byProduct(lineItems) {
			old, err := r.Sales().UpdateLineItem(ctx, saleID, it.ProductID, it.Quantity)
			if err != nil {
				if errors.Is(err, serrors.ErrSaleItemNotFound) {
					e := serrors.NotFound(serrors.MsgSaleItemNotFound, err)
					e.ProductID = it.ProductID
					return e
				}
				return fmt.Errorf("update sale item: %w", err)
			}
			delta := old - it.Quantity
			if delta == 0 {
				continue
			}
			_, err = adjustQuantity(ctx, r.Products(), it.ProductID, delta)
			if delta > 0 && serrors.KindOf(err) == serrors.KindNotFound {
				s.logger.WarnContext(ctx, "Product no longer exists, stock not restored",
					"sale_id", saleID, "product_id", it.ProductID, "quantity", delta)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.countRejection(ctx, err)
		return nil, err
	}

	s.salesUpdated.Add(ctx, 1)
	s.publish(ctx, events.SaleUpdatedEvent{
		SaleID:    saleID,
		Items:     toEventItems(lineItems),
		UpdatedAt: s.now().UTC(),
		Trace:     events.TraceCarrier(ctx),
	})

	return &SaleUpdatedDto{SaleID: saleID, ItemUpdated: items}, nil
}

// DeleteSale skips items whose product has been deleted since the sale.
func (s *Sales) DeleteSale(ctx context.Context, saleID int64) error {
	var restored []store.LineItem
	err := s.store.WithinTx(ctx, func(r store.Repos) error {
		restored = nil
		sale, err := r.Sales().FindByID(ctx, saleID)
		if err != nil {
			return saleError(err, "find sale")
		}
		for _, it := range byProduct(sale.Items) {
			_, err := adjustQuantity(ctx, r.Products(), it.ProductID, it.Quantity)
			if serrors.KindOf(err) == serrors.KindNotFound {
				s.logger.WarnContext(ctx, "Product no longer exists, stock not restored",
					"sale_id", saleID, "product_id", it.ProductID, "quantity", it.Quantity)
				continue
			}
			if err != nil {
				return err
			}
			restored = append(restored, it)
		}
		if err := r.Sales().DeleteByID(ctx, saleID); err != nil {
			return saleError(err, "delete sale")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.salesDeleted.Add(ctx, 1)
	s.publish(ctx, events.SaleDeletedEvent{
		SaleID:    saleID,
		Restored:  toEventItems(restored),
		DeletedAt: s.now().UTC(),
		Trace:     events.TraceCarrier(ctx),
	})
	return nil
}

// publish never fails the operation: the transaction is already committed.
// The caller's cancellation is dropped so a client that hangs up after the commit
// still gets its event out; trace values are kept.
func (s *Sales) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}

func (s *Sales) countRejection(ctx context.Context, err error) {
	if serrors.KindOf(err) == serrors.KindInsufficientStock {
		s.stockRejections.Add(ctx, 1)
	}
}

// byProduct returns items sorted by product ID. Locks on product rows are then always
// taken in the same order by concurrent transactions.
func byProduct(items []store.LineItem) []store.LineItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b store.LineItem) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return sorted
}

func saleError(err error, op string) error {
	if errors.Is(err, serrors.ErrSaleNotFound) {
		return serrors.NotFound(serrors.MsgSaleNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
