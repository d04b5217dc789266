package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
	domain "github.com/alinasirlou2020/mobile-shop/internal/domain/payment"
)

func TestTransferCreditsRecipient(t *testing.T) {
	g := NewLedgerGateway()
	to := identity.New()

	status, err := g.Transfer(context.Background(), to, 1000)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)
	assert.Equal(t, int64(1000), g.Balance(to))

	status, err = g.Transfer(context.Background(), to, 200)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)
	assert.Equal(t, int64(1200), g.Balance(to))
}

func TestTransferRejectsBadInput(t *testing.T) {
	g := NewLedgerGateway()

	status, err := g.Transfer(context.Background(), "", 100)
	require.NoError(t, err, "ordinary failure must not be an error")
	assert.Equal(t, domain.StatusFailed, status)

	status, err = g.Transfer(context.Background(), identity.New(), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, status)
}

func TestBreakForcesFailureUntilRepair(t *testing.T) {
	g := NewLedgerGateway()
	to := identity.New()
	g.Break(to)

	status, err := g.Transfer(context.Background(), to, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, status)
	assert.Equal(t, int64(0), g.Balance(to))

	g.Repair(to)
	status, err = g.Transfer(context.Background(), to, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)
	assert.Equal(t, int64(100), g.Balance(to))
}

func TestTransferHonorsCanceledContext(t *testing.T) {
	g := NewLedgerGateway()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := g.Transfer(ctx, identity.New(), 100)
	require.Error(t, err)
	assert.Equal(t, domain.StatusFailed, status)
}
