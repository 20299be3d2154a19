package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"grocermart/internal/model"
	"grocermart/internal/repository"
	"grocermart/internal/service"
	mock_service "grocermart/internal/service/mocks"
)

func newUserService(t *testing.T) (*service.UserService, *mock_service.MockUserRepository) {
	ctrl := gomock.NewController(t)
	users := mock_service.NewMockUserRepository(ctrl)
	return service.NewUserService(users, zap.NewNop()), users
}

func TestUserService_SetAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("toggles a shopper's availability", func(t *testing.T) {
		svc, users := newUserService(t)

		users.EXPECT().UpdateAvailability(gomock.Any(), shopper.UserID, true).
			Return(&model.User{ID: shopper.UserID, Role: model.RoleShopper, IsAvailable: true}, nil)

		user, err := svc.SetAvailability(ctx, shopper, true)
		require.NoError(t, err)
		assert.True(t, user.IsAvailable)
	})

	t.Run("customers have no availability", func(t *testing.T) {
		svc, _ := newUserService(t)

		_, err := svc.SetAvailability(ctx, customer, true)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestUserService_Get(t *testing.T) {
	svc, users := newUserService(t)

	users.EXPECT().GetByID(gomock.Any(), int64(99)).Return(nil, repository.ErrObjectNotFound)

	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
