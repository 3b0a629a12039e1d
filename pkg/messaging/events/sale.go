// Package events holds the payloads of the domain events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abgdnv/storemanager/pkg/messaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type SaleItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type SaleCreatedEvent struct {
	SaleID    int64             `json:"sale_id"`
	Items     []SaleItem        `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	Trace     map[string]string `json:"trace,omitempty"`
}

func (e SaleCreatedEvent) Subject() string {
	return messaging.SalesCreatedSubject
}

func (e SaleCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

func (e SaleCreatedEvent) Key() int64 { return e.SaleID }

type SaleUpdatedEvent struct {
	SaleID    int64             `json:"sale_id"`
	Items     []SaleItem        `json:"items"`
	UpdatedAt time.Time         `json:"updated_at"`
	Trace     map[string]string `json:"trace,omitempty"`
}

func (e SaleUpdatedEvent) Subject() string {
	return messaging.SalesUpdatedSubject
}

func (e SaleUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

func (e SaleUpdatedEvent) Key() int64 { return e.SaleID }

// SaleDeletedEvent lists the quantities given back to stock.
type SaleDeletedEvent struct {
	SaleID    int64             `json:"sale_id"`
	Restored  []SaleItem        `json:"restored"`
	DeletedAt time.Time         `json:"deleted_at"`
	Trace     map[string]string `json:"trace,omitempty"`
}

func (e SaleDeletedEvent) Subject() string {
	return messaging.SalesDeletedSubject
}

func (e SaleDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

func (e SaleDeletedEvent) Key() int64 { return e.SaleID }

// TraceCarrier captures the trace context of ctx so a consumer can continue the trace.
func TraceCarrier(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) == 0 {
		return nil
	}
	return carrier
}

// ContextWithTrace returns ctx carrying the trace context stored in carrier.
func ContextWithTrace(ctx context.Context, carrier map[string]string) context.Context {
	if len(carrier) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(carrier))
}
