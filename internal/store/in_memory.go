package store

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"
	"time"

	serrors "github.com/abgdnv/storemanager/internal/errors"
)

// memState is the whole data set of the in-memory store.
type memState struct {
	products   map[int64]Product
	sales      map[int64]Sale
	nextProdID int64
	nextSaleID int64
}

func (m *memState) clone() *memState {
	c := &memState{
		products:   make(map[int64]Product, len(m.products)),
		sales:      make(map[int64]Sale, len(m.sales)),
		nextProdID: m.nextProdID,
		nextSaleID: m.nextSaleID,
	}
	for id, p := range m.products {
		c.products[id] = p
	}
	for id, s := range m.sales {
		s.Items = slices.Clone(s.Items)
		c.sales[id] = s
	}
	return c
}

// InMemoryStore implements Store using maps guarded by a mutex.
// Transactions work on a copy of the state that replaces the original on commit.
type InMemoryStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

// NewInMemoryStore creates a new empty instance of Store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		state: &memState{
			products:   make(map[int64]Product),
			sales:      make(map[int64]Sale),
			nextProdID: 1,
			nextSaleID: 1,
		},
		now: time.Now,
	}
}

func (s *InMemoryStore) Products() ProductStore {
	return &memProducts{memRepos{store: s}}
}

func (s *InMemoryStore) Sales() SaleStore {
	return &memSales{memRepos{store: s}}
}

// WithinTx serializes transactions: the lock is held while fn runs.
func (s *InMemoryStore) WithinTx(ctx context.Context, fn func(r Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.state.clone()
	if err := fn(memRepos{store: s, tx: tx}); err != nil {
		return err
	}
	s.state = tx
	return nil
}

// memRepos runs against tx when set, otherwise locks and uses the committed state.
type memRepos struct {
	store *InMemoryStore
	tx    *memState
}

func (r memRepos) Products() ProductStore { return &memProducts{r} }
func (r memRepos) Sales() SaleStore       { return &memSales{r} }

func (r memRepos) do(ctx context.Context, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

type memProducts struct {
	memRepos
}

// FindByID retrieves a product by its ID.
func (m *memProducts) FindByID(ctx context.Context, id int64) (*Product, error) {
	var product Product
	err := m.do(ctx, func(st *memState) error {
		p, ok := st.products[id]
		if !ok {
			return serrors.ErrProductNotFound
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByName retrieves a product by its name.
func (m *memProducts) FindByName(ctx context.Context, name string) (*Product, error) {
	var product *Product
	err := m.do(ctx, func(st *memState) error {
		for _, p := range st.products {
			if p.Name == name {
				product = &p
				return nil
			}
		}
		return serrors.ErrProductNotFound
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// FindAll retrieves all products ordered by ID.
func (m *memProducts) FindAll(ctx context.Context) ([]Product, error) {
	var list []Product
	err := m.do(ctx, func(st *memState) error {
		list = make([]Product, 0, len(st.products))
		for _, p := range st.products {
			list = append(list, p)
		}
		slices.SortFunc(list, func(a, b Product) int { return cmp.Compare(a.ID, b.ID) })
		return nil
	})
	return list, err
}

// Create creates a new product and returns it.
func (m *memProducts) Create(ctx context.Context, name string, quantity int32) (*Product, error) {
	var product Product
	err := m.do(ctx, func(st *memState) error {
		if nameTaken(st, name, 0) {
			return serrors.ErrDuplicateName
		}
		product = Product{ID: st.nextProdID, Name: name, Quantity: quantity}
		st.nextProdID++
		st.products[product.ID] = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update overwrites the name and quantity of a product.
func (m *memProducts) Update(ctx context.Context, id int64, name string, quantity int32) (*Product, error) {
	var product Product
	err := m.do(ctx, func(st *memState) error {
		if _, ok := st.products[id]; !ok {
			return serrors.ErrProductNotFound
		}
		if nameTaken(st, name, id) {
			return serrors.ErrDuplicateName
		}
		product = Product{ID: id, Name: name, Quantity: quantity}
		st.products[id] = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SetQuantity overwrites the quantity of a product.
func (m *memProducts) SetQuantity(ctx context.Context, id int64, quantity int32) error {
	return m.do(ctx, func(st *memState) error {
		p, ok := st.products[id]
		if !ok {
			return serrors.ErrProductNotFound
		}
		p.Quantity = quantity
		st.products[id] = p
		return nil
	})
}

// AdjustQuantity adds delta under the lock, refusing to go below zero or past math.MaxInt32.
func (m *memProducts) AdjustQuantity(ctx context.Context, id int64, delta int32) (int32, error) {
	var quantity int32
	err := m.do(ctx, func(st *memState) error {
		p, ok := st.products[id]
		if !ok {
			return serrors.ErrProductNotFound
		}
		next := int64(p.Quantity) + int64(delta)
		if next < 0 {
			return serrors.ErrInsufficientStock
		}
		if next > math.MaxInt32 {
			return serrors.ErrStockOverflow
		}
		p.Quantity += delta
		st.products[id] = p
		quantity = p.Quantity
		return nil
	})
	return quantity, err
}

// DeleteByID deletes a product by its ID.
func (m *memProducts) DeleteByID(ctx context.Context, id int64) error {
	return m.do(ctx, func(st *memState) error {
		if _, exists := st.products[id]; !exists {
			return serrors.ErrProductNotFound
		}
		delete(st.products, id)
		return nil
	})
}

func nameTaken(st *memState, name string, except int64) bool {
	for _, p := range st.products {
		if p.Name == name && p.ID != except {
			return true
		}
	}
	return false
}

type memSales struct {
	memRepos
}

// FindByID retrieves a sale by its ID.
func (m *memSales) FindByID(ctx context.Context, id int64) (*Sale, error) {
	var sale Sale
	err := m.do(ctx, func(st *memState) error {
		s, ok := st.sales[id]
		if !ok || len(s.Items) == 0 {
			return serrors.ErrSaleNotFound
		}
		sale = s
		sale.Items = slices.Clone(s.Items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindAll retrieves all sales ordered by ID.
func (m *memSales) FindAll(ctx context.Context) ([]Sale, error) {
	var list []Sale
	err := m.do(ctx, func(st *memState) error {
		list = make([]Sale, 0, len(st.sales))
		for _, s := range st.sales {
			s.Items = slices.Clone(s.Items)
			list = append(list, s)
		}
		slices.SortFunc(list, func(a, b Sale) int { return cmp.Compare(a.ID, b.ID) })
		return nil
	})
	return list, err
}

// Create stores a new sale with its items.
func (m *memSales) Create(ctx context.Context, items []LineItem) (*Sale, error) {
	var sale Sale
	err := m.do(ctx, func(st *memState) error {
		sale = Sale{ID: st.nextSaleID, Date: m.store.now().UTC(), Items: slices.Clone(items)}
		st.nextSaleID++
		st.sales[sale.ID] = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	sale.Items = slices.Clone(sale.Items)
	return &sale, nil
}

// UpdateLineItem overwrites one item's quantity and returns the old one.
func (m *memSales) UpdateLineItem(ctx context.Context, saleID, productID int64, quantity int32) (int32, error) {
	var old int32
	err := m.do(ctx, func(st *memState) error {
		s, ok := st.sales[saleID]
		if !ok {
			return serrors.ErrSaleItemNotFound
		}
		idx := slices.IndexFunc(s.Items, func(i LineItem) bool { return i.ProductID == productID })
		if idx < 0 {
			return serrors.ErrSaleItemNotFound
		}
		old = s.Items[idx].Quantity
		s.Items = slices.Clone(s.Items)
		s.Items[idx].Quantity = quantity
		st.sales[saleID] = s
		return nil
	})
	return old, err
}

// DeleteByID deletes a sale and its items.
func (m *memSales) DeleteByID(ctx context.Context, id int64) error {
	return m.do(ctx, func(st *memState) error {
		if _, exists := st.sales[id]; !exists {
			return serrors.ErrSaleNotFound
		}
		delete(st.sales, id)
		return nil
	})
}
