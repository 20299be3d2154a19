package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"grocermart/internal/db"
	"grocermart/internal/model"
)

type ReviewService struct {
	db      db.DB
	reviews ReviewRepository
	orders  OrderRepository
	users   UserRepository
	logger  *zap.Logger
}

func NewReviewService(database db.DB, reviews ReviewRepository, orders OrderRepository, users UserRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		db:      database,
		reviews: reviews,
		orders:  orders,
		users:   users,
		logger:  logger,
	}
}

// Create records a review from one order party about the other and
// recomputes the reviewee's rating as the mean over the full history.
func (s *ReviewService) Create(ctx context.Context, actor model.Actor, orderID, toID int64, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !order.Status.AtLeast(model.StatusCompleted) {
		return nil, fmt.Errorf("%w: reviews require a completed order", ErrInvalidState)
	}

	counterpart, err := reviewCounterpart(order, actor.UserID)
	if err != nil {
		return nil, err
	}
	if toID != counterpart {
		return nil, fmt.Errorf("%w: review must target the order counterparty", ErrValidation)
	}

	review := &model.Review{
		OrderID:   orderID,
		FromID:    actor.UserID,
		ToID:      toID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	if err := s.reviews.CreateTx(ctx, tx, review); err != nil {
		return nil, err
	}

	ratings, err := s.reviews.RatingsForUserTx(ctx, tx, toID)
	if err != nil {
		return nil, err
	}
	var sum int
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))

	if err := s.users.UpdateRatingTx(ctx, tx, toID, mean); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("review created",
		zap.Int64("order_id", orderID),
		zap.Int64("to_id", toID),
		zap.Float64("new_rating", mean))
	return review, nil
}

func reviewCounterpart(order *model.Order, userID int64) (int64, error) {
	switch {
	case order.CustomerID == userID:
		if order.ShopperID == nil {
			return 0, fmt.Errorf("%w: order has no shopper to review", ErrInvalidState)
		}
		return *order.ShopperID, nil
	case order.ShopperID != nil && *order.ShopperID == userID:
		return order.CustomerID, nil
	default:
		return 0, fmt.Errorf("%w: reviewer is not a party to the order", ErrForbidden)
	}
}

func (s *ReviewService) ListForUser(ctx context.Context, userID int64) ([]model.Review, error) {
	return s.reviews.GetByUser(ctx, userID)
}
