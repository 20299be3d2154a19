package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"grocermart/internal/db"
	"grocermart/internal/metrics"
	"grocermart/internal/model"
	"grocermart/internal/repository"
)

const (
	// ServiceFee is a flat charge applied once at order creation.
	ServiceFee = 2.99

	// deliveryEstimateOffset is a fixed-offset heuristic, not an ETA model.
	deliveryEstimateOffset = 45 * time.Minute
)

type OrderService struct {
	db       db.DB
	orders   OrderRepository
	users    UserRepository
	outbox   OutboxRepository
	cache    OrderCache
	notifier Notifier
	topic    string
	logger   *zap.Logger
}

func NewOrderService(database db.DB, orders OrderRepository, users UserRepository, outbox OutboxRepository, cache OrderCache, notifier Notifier, topic string, logger *zap.Logger) *OrderService {
	return &OrderService{
		db:       database,
		orders:   orders,
		users:    users,
		outbox:   outbox,
		cache:    cache,
		notifier: notifier,
		topic:    topic,
		logger:   logger,
	}
}

func validateItems(items []model.OrderItem) error {
	for i, it := range items {
		if it.Name == "" {
			return fmt.Errorf("%w: item %d has no name", ErrValidation, i)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %q quantity must be at least 1", ErrValidation, it.Name)
		}
		if it.Price < 0 {
			return fmt.Errorf("%w: item %q price must not be negative", ErrValidation, it.Name)
		}
	}
	return nil
}

// Create opens a new order in the pending state on behalf of a customer.
func (s *OrderService) Create(ctx context.Context, actor model.Actor, items []model.OrderItem, notes string) (*model.Order, error) {
	if actor.Role != model.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers create orders", ErrForbidden)
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.OrderItem{}
	}

	order := &model.Order{
		CustomerID: actor.UserID,
		Status:     model.StatusPending,
		Items:      items,
		Notes:      notes,
		Total:      model.ItemsTotal(items),
		ServiceFee: ServiceFee,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_order").Inc()
		return nil, err
	}

	s.cache.Set(order)
	metrics.OrdersCreatedTotal.Inc()
	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", order.CustomerID),
		zap.Float64("total", order.Total))
	return order, nil
}

// Get returns a single order subject to the visibility rules: owners and
// assigned shoppers always see it, other shoppers only while it is pending.
func (s *OrderService) Get(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
	order, ok := s.cache.Get(id)
	if !ok {
		var err error
		order, err = s.orders.GetByID(ctx, id)
		if err != nil {
			return nil, mapNotFound(err)
		}
		s.cache.Set(order)
	}

	if !visibleTo(order, actor) {
		return nil, ErrForbidden
	}
	return order, nil
}

func visibleTo(order *model.Order, actor model.Actor) bool {
	if order.CustomerID == actor.UserID {
		return true
	}
	if order.ShopperID != nil && *order.ShopperID == actor.UserID {
		return true
	}
	return actor.Role == model.RoleShopper && order.Status == model.StatusPending
}

func (s *OrderService) ListByCustomer(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	if actor.Role != model.RoleCustomer {
		return nil, ErrForbidden
	}
	orders, err := s.orders.GetByCustomer(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	model.AssignDisplayNumbers(orders)
	return orders, nil
}

func (s *OrderService) ListByShopper(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	if actor.Role != model.RoleShopper {
		return nil, ErrForbidden
	}
	orders, err := s.orders.GetByShopper(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	model.AssignDisplayNumbers(orders)
	return orders, nil
}

// ListPending is the shopper marketplace feed, gated on availability.
func (s *OrderService) ListPending(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	if actor.Role != model.RoleShopper {
		return nil, ErrForbidden
	}
	shopper, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !shopper.IsAvailable {
		return nil, fmt.Errorf("%w: shopper is not available", ErrForbidden)
	}
	return s.orders.GetPending(ctx)
}

// Accept assigns the calling shopper to a pending order, records the
// shopper's location and derives the delivery estimate.
func (s *OrderService) Accept(ctx context.Context, actor model.Actor, orderID int64, lat, lon *float64) (*model.Order, error) {
	if actor.Role != model.RoleShopper {
		return nil, fmt.Errorf("%w: only shoppers accept orders", ErrForbidden)
	}
	if lat == nil || lon == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", ErrValidation)
	}

	order, err := s.mutate(ctx, orderID, true, func(order *model.Order) error {
		if order.Status != model.StatusPending || order.ShopperID != nil {
			return fmt.Errorf("%w: order %d already has a shopper", ErrConflict, order.ID)
		}

		now := time.Now().UTC()
		eta := now.Add(deliveryEstimateOffset)
		shopperID := actor.UserID
		order.ShopperID = &shopperID
		order.Status = model.StatusAccepted
		order.ShopperLocation = &model.Location{Latitude: *lat, Longitude: *lon, Timestamp: now}
		order.EstimatedDeliveryAt = &eta
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(model.StatusAccepted)).Inc()
	s.logger.Info("order accepted",
		zap.Int64("order_id", order.ID),
		zap.Int64("shopper_id", actor.UserID))
	return order, nil
}

// AdvanceStatus applies a single forward shopper-driven transition. The
// target must be the unique legal successor of the current status.
func (s *OrderService) AdvanceStatus(ctx context.Context, actor model.Actor, orderID int64, target model.Status) (*model.Order, error) {
	if actor.Role != model.RoleShopper {
		return nil, fmt.Errorf("%w: only shoppers advance orders", ErrForbidden)
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}

	order, err := s.mutate(ctx, orderID, true, func(order *model.Order) error {
		if order.ShopperID == nil || *order.ShopperID != actor.UserID {
			return fmt.Errorf("%w: order %d is not assigned to this shopper", ErrForbidden, order.ID)
		}

		// Shoppers drive accepted->shopping->delivering->completed only;
		// accept and pay own the two ends of the path.
		next, ok := order.Status.Next()
		if !ok || order.Status == model.StatusPending || order.Status == model.StatusCompleted {
			return fmt.Errorf("%w: no shopper transition from %q", ErrInvalidTransition, order.Status)
		}
		if target != next {
			return fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidTransition, order.Status, target)
		}

		order.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(target)).Inc()
	s.logger.Info("order status advanced",
		zap.Int64("order_id", order.ID),
		zap.String("status", string(target)))
	return order, nil
}

// UpdateItems replaces the item list wholesale and recomputes the total.
// Allowed to the assigned shopper until the order completes.
func (s *OrderService) UpdateItems(ctx context.Context, actor model.Actor, orderID int64, items []model.OrderItem) (*model.Order, error) {
	if actor.Role != model.RoleShopper {
		return nil, fmt.Errorf("%w: only shoppers update items", ErrForbidden)
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.OrderItem{}
	}

	order, err := s.mutate(ctx, orderID, true, func(order *model.Order) error {
		if order.ShopperID == nil || *order.ShopperID != actor.UserID {
			return fmt.Errorf("%w: order %d is not assigned to this shopper", ErrForbidden, order.ID)
		}
		if order.Status.AtLeast(model.StatusCompleted) {
			return fmt.Errorf("%w: items are locked once the order is completed", ErrInvalidState)
		}

		order.Items = items
		order.Total = model.ItemsTotal(items)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order items updated",
		zap.Int64("order_id", order.ID),
		zap.Float64("total", order.Total))
	return order, nil
}

// Edit lets the owning customer change items and notes, but only while
// the order is still pending.
func (s *OrderService) Edit(ctx context.Context, actor model.Actor, orderID int64, items []model.OrderItem, notes string) (*model.Order, error) {
	if actor.Role != model.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers edit orders", ErrForbidden)
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.OrderItem{}
	}

	order, err := s.mutate(ctx, orderID, false, func(order *model.Order) error {
		if order.CustomerID != actor.UserID {
			return fmt.Errorf("%w: order %d does not belong to this customer", ErrForbidden, order.ID)
		}
		if order.Status != model.StatusPending {
			return fmt.Errorf("%w: orders can only be edited while pending", ErrInvalidState)
		}

		order.Items = items
		order.Notes = notes
		order.Total = model.ItemsTotal(items)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order edited", zap.Int64("order_id", order.ID))
	return order, nil
}

// Pay moves a completed order to the terminal paid state.
func (s *OrderService) Pay(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	if actor.Role != model.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers pay for orders", ErrForbidden)
	}

	order, err := s.mutate(ctx, orderID, false, func(order *model.Order) error {
		if order.CustomerID != actor.UserID {
			return fmt.Errorf("%w: order %d does not belong to this customer", ErrForbidden, order.ID)
		}
		if order.Status != model.StatusCompleted {
			return fmt.Errorf("%w: only completed orders can be paid", ErrInvalidState)
		}

		order.IsPaid = true
		order.Status = model.StatusPaid
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(model.StatusPaid)).Inc()
	s.logger.Info("order paid", zap.Int64("order_id", order.ID))
	return order, nil
}

// mutate runs apply against the row-locked order inside a transaction.
// When notify is true an outbox task is written in the same transaction
// and the customer's live connection is pinged after commit.
func (s *OrderService) mutate(ctx context.Context, orderID int64, notify bool, apply func(*model.Order) error) (*model.Order, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	order, err := s.orders.GetByIDTx(ctx, tx, orderID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if err := apply(order); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateTx(ctx, tx, order); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("update_order").Inc()
		return nil, err
	}

	if notify {
		if err := s.enqueueEventTx(ctx, tx, order); err != nil {
			metrics.OperationErrorsTotal.WithLabelValues("enqueue_event").Inc()
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if order.Status == model.StatusPaid {
		s.cache.Delete(order.ID)
	} else {
		s.cache.Set(order)
	}

	if notify {
		// A missed notification must never fail the committed mutation.
		s.notifier.Notify(order.CustomerID, model.OrderUpdated(order))
	}
	return order, nil
}

func (s *OrderService) enqueueEventTx(ctx context.Context, tx db.Tx, order *model.Order) error {
	payload, err := json.Marshal(model.OrderUpdated(order))
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	task := &repository.OutboxTask{
		Topic:   s.topic,
		Key:     strconv.FormatInt(order.ID, 10),
		Payload: payload,
	}
	return s.outbox.CreateTx(ctx, tx, task)
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrObjectNotFound) {
		return ErrNotFound
	}
	return err
}
