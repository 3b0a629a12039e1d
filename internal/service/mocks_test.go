package service

import (
	"context"
	"sync"

	"github.com/abgdnv/storemanager/internal/store"
	"github.com/abgdnv/storemanager/pkg/messaging"
)

// mockProductStore is a mock implementation of the ProductStore interface
type mockProductStore struct {
	products  []store.Product
	product   store.Product
	quantity  int32
	nameError error // returned by FindByName only
	error     error
}

func (m *mockProductStore) FindByID(_ context.Context, _ int64) (*store.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.product, nil
}

func (m *mockProductStore) FindByName(_ context.Context, _ string) (*store.Product, error) {
	if m.nameError != nil {
		return nil, m.nameError
	}
	return &m.product, nil
}

func (m *mockProductStore) FindAll(_ context.Context) ([]store.Product, error) {
	return m.products, m.error
}

func (m *mockProductStore) Create(_ context.Context, _ string, _ int32) (*store.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.product, nil
}

func (m *mockProductStore) Update(_ context.Context, _ int64, _ string, _ int32) (*store.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.product, nil
}

func (m *mockProductStore) SetQuantity(_ context.Context, _ int64, _ int32) error {
	return m.error
}

func (m *mockProductStore) AdjustQuantity(_ context.Context, _ int64, _ int32) (int32, error) {
	return m.quantity, m.error
}

func (m *mockProductStore) DeleteByID(_ context.Context, _ int64) error {
	return m.error
}

// mockSaleStore is a mock implementation of the SaleStore interface
type mockSaleStore struct {
	sales []store.Sale
	sale  store.Sale
	old   int32
	error error
}

func (m *mockSaleStore) FindByID(_ context.Context, _ int64) (*store.Sale, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.sale, nil
}

func (m *mockSaleStore) FindAll(_ context.Context) ([]store.Sale, error) {
	return m.sales, m.error
}

func (m *mockSaleStore) Create(_ context.Context, _ []store.LineItem) (*store.Sale, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.sale, nil
}

func (m *mockSaleStore) UpdateLineItem(_ context.Context, _, _ int64, _ int32) (int32, error) {
	return m.old, m.error
}

func (m *mockSaleStore) DeleteByID(_ context.Context, _ int64) error {
	return m.error
}

// mockStore runs WithinTx directly on its repos unless txError is set.
type mockStore struct {
	products *mockProductStore
	sales    *mockSaleStore
	txError  error
}

func (m *mockStore) Products() store.ProductStore { return m.products }

func (m *mockStore) Sales() store.SaleStore { return m.sales }

func (m *mockStore) WithinTx(_ context.Context, fn func(r store.Repos) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(m)
}

// recordingPublisher keeps every published event and the state of the context it
// was given, and fails with error when set.
type recordingPublisher struct {
	mu      sync.Mutex
	events  []messaging.Event
	ctxErrs []error
	error   error
}

func (p *recordingPublisher) Publish(ctx context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	if p.error != nil {
		return p.error
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Subject())
	}
	return out
}
