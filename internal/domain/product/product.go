package product

import (
	"errors"
	"time"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
)

var (
	ErrNotFound  = errors.New("product: not found")
	ErrEmptyName = errors.New("product: name is required")
	ErrZeroPrice = errors.New("product: price must be greater than zero")
)

// Product is a marketplace listing. ID and Price are immutable after
// creation; Sold goes false to true exactly once, and once the sale is
// recorded the owner never changes again (no resale).
type Product struct {
	ID        uint64
	Name      string
	Price     int64
	Owner     identity.ID
	Sold      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id uint64, name string, price int64, owner identity.ID) (*Product, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if price <= 0 {
		return nil, ErrZeroPrice
	}

	now := time.Now().UTC()
	return &Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Owner:     owner,
		Sold:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkSold records the ownership transfer that completes a sale.
func (p *Product) MarkSold(buyer identity.ID) {
	p.Owner = buyer
	p.Sold = true
	p.touch()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
