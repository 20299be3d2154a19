//go:generate mockgen -source ./service.go -destination=./mocks/service.go -package=mock_service
package service

import (
	"context"

	"grocermart/internal/db"
	"grocermart/internal/model"
	"grocermart/internal/repository"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByIDTx(ctx context.Context, tx db.Tx, id int64) (*model.Order, error)
	UpdateTx(ctx context.Context, tx db.Tx, order *model.Order) error
	GetByCustomer(ctx context.Context, customerID int64) ([]model.Order, error)
	GetByShopper(ctx context.Context, shopperID int64) ([]model.Order, error)
	GetPending(ctx context.Context) ([]model.Order, error)
	GetActive(ctx context.Context) ([]model.Order, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateAvailability(ctx context.Context, id int64, isAvailable bool) (*model.User, error)
	UpdateRatingTx(ctx context.Context, tx db.Tx, id int64, rating float64) error
}

type ReviewRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, review *model.Review) error
	RatingsForUserTx(ctx context.Context, tx db.Tx, userID int64) ([]int, error)
	GetByUser(ctx context.Context, userID int64) ([]model.Review, error)
}

type OutboxRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
}

// Notifier pushes an event to the user's live connection if one is open.
// Delivery is fire-and-forget: no queueing, no retry, no error to handle.
type Notifier interface {
	Notify(userID int64, event model.Event)
}

type OrderCache interface {
	Get(id int64) (*model.Order, bool)
	Set(order *model.Order)
	Delete(id int64)
}
