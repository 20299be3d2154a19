package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"grocermart/internal/model"
)

type UserService struct {
	users  UserRepository
	logger *zap.Logger
}

func NewUserService(users UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// SetAvailability toggles whether a shopper sees the pending-order feed.
func (s *UserService) SetAvailability(ctx context.Context, actor model.Actor, isAvailable bool) (*model.User, error) {
	if actor.Role != model.RoleShopper {
		return nil, fmt.Errorf("%w: only shoppers have availability", ErrForbidden)
	}

	user, err := s.users.UpdateAvailability(ctx, actor.UserID, isAvailable)
	if err != nil {
		return nil, mapNotFound(err)
	}

	s.logger.Info("shopper availability changed",
		zap.Int64("shopper_id", actor.UserID),
		zap.Bool("is_available", isAvailable))
	return user, nil
}
