package cache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"grocermart/internal/cache"
	"grocermart/internal/model"
)

type stubOrderRepo struct {
	orders []model.Order
	err    error
}

func (s *stubOrderRepo) GetActive(context.Context) ([]model.Order, error) {
	return s.orders, s.err
}

func TestOrderCache_SetGet(t *testing.T) {
	c := cache.NewOrderCache(&stubOrderRepo{}, zap.NewNop())

	original := &model.Order{ID: 1, CustomerID: 2, Status: model.StatusPending, Notes: "original"}
	c.Set(original)

	// Mutating the caller's copy must not leak into the cache.
	original.Notes = "mutated"

	got, found := c.Get(1)
	require.True(t, found)
	assert.Equal(t, "original", got.Notes)

	// And mutating a read result must not affect later reads.
	got.Notes = "scribbled"
	again, found := c.Get(1)
	require.True(t, found)
	assert.Equal(t, "original", again.Notes)
}

func TestOrderCache_GetMiss(t *testing.T) {
	c := cache.NewOrderCache(&stubOrderRepo{}, zap.NewNop())

	got, found := c.Get(99)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestOrderCache_PaidOrdersAreEvicted(t *testing.T) {
	c := cache.NewOrderCache(&stubOrderRepo{}, zap.NewNop())

	c.Set(&model.Order{ID: 1, Status: model.StatusCompleted})
	c.Set(&model.Order{ID: 1, Status: model.StatusPaid})

	_, found := c.Get(1)
	assert.False(t, found)
}

func TestOrderCache_Delete(t *testing.T) {
	c := cache.NewOrderCache(&stubOrderRepo{}, zap.NewNop())

	c.Set(&model.Order{ID: 1, Status: model.StatusPending})
	c.Delete(1)

	_, found := c.Get(1)
	assert.False(t, found)
}

func TestOrderCache_LoadInitialData(t *testing.T) {
	t.Run("warms the cache with active orders", func(t *testing.T) {
		repo := &stubOrderRepo{orders: []model.Order{
			{ID: 1, Status: model.StatusPending},
			{ID: 2, Status: model.StatusShopping},
		}}
		c := cache.NewOrderCache(repo, zap.NewNop())

		require.NoError(t, c.LoadInitialData(context.Background()))

		got, found := c.Get(1)
		require.True(t, found)
		assert.Equal(t, model.StatusPending, got.Status)

		got, found = c.Get(2)
		require.True(t, found)
		assert.Equal(t, model.StatusShopping, got.Status)
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		repo := &stubOrderRepo{err: errors.New("connection refused")}
		c := cache.NewOrderCache(repo, zap.NewNop())

		assert.Error(t, c.LoadInitialData(context.Background()))
	})
}
