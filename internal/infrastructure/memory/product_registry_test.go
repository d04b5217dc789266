package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
	domain "github.com/alinasirlou2020/mobile-shop/internal/domain/product"
)

func TestCreateAssignsStrictlyIncreasingIDs(t *testing.T) {
	r := NewProductRegistry()
	owner := identity.New()

	for want := uint64(1); want <= 5; want++ {
		p, err := r.Create(context.Background(), "Phone", 100, owner)
		require.NoError(t, err)
		assert.Equal(t, want, p.ID)
	}
	assert.Equal(t, uint64(5), r.Sequence(context.Background()))
}

func TestCreateValidationConsumesNoID(t *testing.T) {
	r := NewProductRegistry()
	owner := identity.New()

	_, err := r.Create(context.Background(), "", 100, owner)
	require.ErrorIs(t, err, domain.ErrEmptyName)
	_, err = r.Create(context.Background(), "Phone", 0, owner)
	require.ErrorIs(t, err, domain.ErrZeroPrice)

	assert.Equal(t, uint64(0), r.Sequence(context.Background()))

	p, err := r.Create(context.Background(), "Phone", 100, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.ID)
}

func TestGetUnknownIDs(t *testing.T) {
	r := NewProductRegistry()
	_, err := r.Create(context.Background(), "Phone", 100, identity.New())
	require.NoError(t, err)

	for _, id := range []uint64{0, 2, 99} {
		_, err := r.Get(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "id %d", id)
	}
}

func TestGetReturnsClone(t *testing.T) {
	r := NewProductRegistry()
	created, err := r.Create(context.Background(), "Phone", 100, identity.New())
	require.NoError(t, err)

	got, err := r.Get(context.Background(), created.ID)
	require.NoError(t, err)
	got.Name = "tampered"
	got.Sold = true

	again, err := r.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phone", again.Name)
	assert.False(t, again.Sold)
}

func TestUpdateOverwritesRecord(t *testing.T) {
	r := NewProductRegistry()
	created, err := r.Create(context.Background(), "Phone", 100, identity.New())
	require.NoError(t, err)

	buyer := identity.New()
	modified := created.Clone()
	modified.MarkSold(buyer)
	require.NoError(t, r.Update(context.Background(), modified))

	stored, err := r.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, buyer, stored.Owner)
	assert.True(t, stored.Sold)

	// Writing the prior snapshot restores the record.
	require.NoError(t, r.Update(context.Background(), created))
	restored, err := r.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Owner, restored.Owner)
	assert.False(t, restored.Sold)
}

func TestUpdateUnknownRecord(t *testing.T) {
	r := NewProductRegistry()
	ghost := &domain.Product{ID: 7, Name: "Phone", Price: 100}
	assert.ErrorIs(t, r.Update(context.Background(), ghost), domain.ErrNotFound)
	assert.ErrorIs(t, r.Update(context.Background(), nil), domain.ErrNotFound)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	r := NewProductRegistry()
	created, err := r.Create(context.Background(), "Phone", 100, identity.New())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p, err := r.Get(context.Background(), created.ID)
				assert.NoError(t, err)
				// Readers see either the pre- or post-write record.
				if p.Sold {
					assert.NotEqual(t, created.Owner, p.Owner)
				} else {
					assert.Equal(t, created.Owner, p.Owner)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				modified := created.Clone()
				modified.MarkSold(identity.New())
				assert.NoError(t, r.Update(context.Background(), modified))
				assert.NoError(t, r.Update(context.Background(), created))
			}
		}()
	}
	wg.Wait()
}
