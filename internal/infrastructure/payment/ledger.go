package payment

import (
	"context"
	"sync"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
	domain "github.com/alinasirlou2020/mobile-shop/internal/domain/payment"
)

// LedgerGateway settles transfers against an in-memory balance ledger.
// Transfers to a participant marked with Break fail with StatusFailed,
// which lets tests drive every rollback path of the purchase engine
// without external transfer infrastructure.
type LedgerGateway struct {
	mu        sync.Mutex
	balances  map[identity.ID]int64
	rejecting map[identity.ID]bool
}

func NewLedgerGateway() *LedgerGateway {
	return &LedgerGateway{
		balances:  make(map[identity.ID]int64),
		rejecting: make(map[identity.ID]bool),
	}
}

func (g *LedgerGateway) Transfer(ctx context.Context, to identity.ID, amount int64) (domain.Status, error) {
	select {
	case <-ctx.Done():
		return domain.StatusFailed, ctx.Err()
	default:
	}

	if to.IsZero() || amount <= 0 {
		return domain.StatusFailed, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.rejecting[to] {
		return domain.StatusFailed, nil
	}

	g.balances[to] += amount
	return domain.StatusSuccess, nil
}

// Break makes every transfer to the given participant fail until Repair.
func (g *LedgerGateway) Break(to identity.ID) {
	g.mu.Lock()
	g.rejecting[to] = true
	g.mu.Unlock()
}

func (g *LedgerGateway) Repair(to identity.ID) {
	g.mu.Lock()
	delete(g.rejecting, to)
	g.mu.Unlock()
}

func (g *LedgerGateway) Balance(of identity.ID) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balances[of]
}
