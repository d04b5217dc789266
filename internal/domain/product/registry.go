package product

import (
	"context"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
)

// Registry owns the listing records and the id sequence. Ids are assigned
// sequentially starting at 1; id 0 is the "no product" sentinel and is
// never assignable.
type Registry interface {
	Create(ctx context.Context, name string, price int64, creator identity.ID) (*Product, error)
	Get(ctx context.Context, id uint64) (*Product, error)
	Sequence(ctx context.Context) uint64
}

// Mutator extends Registry with the ownership write used by the purchase
// engine. It is not part of the public read surface: the engine uses it to
// commit a sale and to restore the prior record when a transfer fails.
type Mutator interface {
	Registry
	Update(ctx context.Context, p *Product) error
}
