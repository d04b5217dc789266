package memory

import (
	"context"
	"sync"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
	domain "github.com/alinasirlou2020/mobile-shop/internal/domain/product"
)

// ProductRegistry holds the listing records and the id sequence. The
// sequence increments once per successful create and is never reused, so
// ids are strictly increasing from 1 and id 0 stays unassignable.
type ProductRegistry struct {
	mu       sync.RWMutex
	sequence uint64
	records  map[uint64]*domain.Product
}

func NewProductRegistry() *ProductRegistry {
	return &ProductRegistry{
		records: make(map[uint64]*domain.Product),
	}
}

func (r *ProductRegistry) Create(ctx context.Context, name string, price int64, creator identity.ID) (*domain.Product, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate before allocating so a rejected listing never consumes an id.
	next := r.sequence + 1
	p, err := domain.New(next, name, price, creator)
	if err != nil {
		return nil, err
	}

	r.sequence = next
	r.records[p.ID] = cloneProduct(p)
	return p, nil
}

func (r *ProductRegistry) Get(ctx context.Context, id uint64) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return cloneProduct(p), nil
}

func (r *ProductRegistry) Sequence(ctx context.Context) uint64 {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sequence
}

// Update overwrites the stored record in a single critical section, so
// concurrent readers observe either the pre- or post-write record, never a
// partial one. Only the purchase engine holds this method through the
// Mutator port.
func (r *ProductRegistry) Update(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == 0 {
		return domain.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[p.ID]; !exists {
		return domain.ErrNotFound
	}

	r.records[p.ID] = cloneProduct(p)
	return nil
}

func cloneProduct(p *domain.Product) *domain.Product {
	if p == nil {
		return nil
	}
	return p.Clone()
}
