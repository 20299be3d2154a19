package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"grocermart/internal/metrics"
	"grocermart/internal/model"
)

type OrderRepository interface {
	GetActive(ctx context.Context) ([]model.Order, error)
}

// OrderCache keeps every non-terminal order in memory so single-order
// reads skip the database. Entries are copied on the way in and out;
// callers never share a pointer with the cache.
type OrderCache struct {
	mu     sync.RWMutex
	cache  map[int64]*model.Order
	repo   OrderRepository
	logger *zap.Logger
}

func NewOrderCache(repo OrderRepository, logger *zap.Logger) *OrderCache {
	return &OrderCache{
		cache:  make(map[int64]*model.Order),
		repo:   repo,
		logger: logger,
	}
}

// LoadInitialData warms the cache with all active orders at startup.
func (c *OrderCache) LoadInitialData(ctx context.Context) error {
	orders, err := c.repo.GetActive(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range orders {
		order := orders[i]
		c.cache[order.ID] = &order
	}
	metrics.OrderCacheItems.Set(float64(len(c.cache)))
	c.logger.Info("order cache warmed", zap.Int("orders", len(c.cache)))
	return nil
}

func (c *OrderCache) Get(id int64) (*model.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	order, found := c.cache[id]
	if !found {
		return nil, false
	}
	copied := *order
	return &copied, true
}

func (c *OrderCache) Set(order *model.Order) {
	if order.Status == model.StatusPaid {
		c.Delete(order.ID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *order
	c.cache[order.ID] = &copied
	metrics.OrderCacheItems.Set(float64(len(c.cache)))
}

func (c *OrderCache) Delete(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, id)
	metrics.OrderCacheItems.Set(float64(len(c.cache)))
}
