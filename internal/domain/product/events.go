package product

import (
	"time"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
)

// ProductCreatedEvent is emitted when a new listing is stored.
// It is intended for external observers and indexers.
type ProductCreatedEvent struct {
	ProductID  uint64
	Name       string
	Price      int64
	Owner      identity.ID
	Sold       bool
	OccurredAt time.Time
}

func (ProductCreatedEvent) EventName() string { return "product.created" }

func NewProductCreatedEvent(p *Product) ProductCreatedEvent {
	return ProductCreatedEvent{
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Owner:      p.Owner,
		Sold:       p.Sold,
		OccurredAt: time.Now().UTC(),
	}
}

// ProductSoldEvent is emitted after a purchase fully commits, in the same
// order the underlying mutations were committed.
type ProductSoldEvent struct {
	ProductID  uint64
	Name       string
	Price      int64
	NewOwner   identity.ID
	Sold       bool
	OccurredAt time.Time
}

func (ProductSoldEvent) EventName() string { return "product.sold" }

func NewProductSoldEvent(p *Product) ProductSoldEvent {
	return ProductSoldEvent{
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		NewOwner:   p.Owner,
		Sold:       p.Sold,
		OccurredAt: time.Now().UTC(),
	}
}
