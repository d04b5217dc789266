package listing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
	domoutbox "github.com/alinasirlou2020/mobile-shop/internal/domain/outbox"
	domain "github.com/alinasirlou2020/mobile-shop/internal/domain/product"
	"github.com/alinasirlou2020/mobile-shop/internal/infrastructure/memory"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *capturePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Events() []domoutbox.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domoutbox.Event(nil), p.events...)
}

func TestAddProductAssignsSequentialIDs(t *testing.T) {
	registry := memory.NewProductRegistry()
	publisher := &capturePublisher{}
	uc := NewAddProductUseCase(registry, publisher, nil)
	owner := identity.New()

	first, err := uc.Execute(context.Background(), AddProductInput{Name: "Phone A", Price: 1000, Owner: owner})
	require.NoError(t, err)
	second, err := uc.Execute(context.Background(), AddProductInput{Name: "Phone B", Price: 500, Owner: owner})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, uint64(2), second.ID)
	assert.Equal(t, owner, first.Owner)
	assert.False(t, first.Sold)

	events := publisher.Events()
	require.Len(t, events, 2)
	created, ok := events[0].(domain.ProductCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(1), created.ProductID)
	assert.Equal(t, "Phone A", created.Name)
	assert.Equal(t, int64(1000), created.Price)
	assert.False(t, created.Sold)
}

func TestAddProductValidation(t *testing.T) {
	registry := memory.NewProductRegistry()
	publisher := &capturePublisher{}
	uc := NewAddProductUseCase(registry, publisher, nil)
	owner := identity.New()

	tests := []struct {
		name    string
		input   AddProductInput
		wantErr error
	}{
		{"empty name", AddProductInput{Name: "", Price: 100, Owner: owner}, domain.ErrEmptyName},
		{"zero price", AddProductInput{Name: "Phone A", Price: 0, Owner: owner}, domain.ErrZeroPrice},
		{"negative price", AddProductInput{Name: "Phone A", Price: -5, Owner: owner}, domain.ErrZeroPrice},
		{"missing owner", AddProductInput{Name: "Phone A", Price: 100}, ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	// Rejected listings create no record and consume no id.
	assert.Equal(t, uint64(0), registry.Sequence(context.Background()))
	assert.Empty(t, publisher.Events())
}

func TestAddProductSurvivesPublishFailure(t *testing.T) {
	registry := memory.NewProductRegistry()
	uc := NewAddProductUseCase(registry, failingPublisher{}, nil)

	p, err := uc.Execute(context.Background(), AddProductInput{Name: "Phone A", Price: 100, Owner: identity.New()})
	require.NoError(t, err, "publish failure must not fail the listing")
	assert.Equal(t, uint64(1), p.ID)
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, _ domoutbox.Event) error {
	return context.DeadlineExceeded
}
