package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"grocermart/internal/model"
	"grocermart/internal/repository"
	"grocermart/internal/service"
	mock_service "grocermart/internal/service/mocks"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T) (*service.AuthService, *mock_service.MockUserRepository) {
	ctrl := gomock.NewController(t)
	users := mock_service.NewMockUserRepository(ctrl)
	return service.NewAuthService(users, testSecret), users
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the user and issues a parsable token", func(t *testing.T) {
		svc, users := newAuthService(t)

		users.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, user *model.User) error {
				assert.Equal(t, "alice", user.Username)
				assert.Equal(t, model.RoleCustomer, user.Role)
				assert.Equal(t, 5.0, user.Rating)
				assert.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("hunter2")))
				user.ID = 7
				return nil
			})

		user, token, err := svc.Register(ctx, "alice", "hunter2", model.RoleCustomer, "Alice", "555-0101")
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)

		actor, err := service.ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Equal(t, model.Actor{UserID: 7, Role: model.RoleCustomer}, actor)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		svc, users := newAuthService(t)

		users.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(errors.New(`ERROR: duplicate key value violates unique constraint "users_username_key"`))

		_, _, err := svc.Register(ctx, "alice", "hunter2", model.RoleCustomer, "", "")
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("rejects empty credentials and unknown roles", func(t *testing.T) {
		svc, _ := newAuthService(t)

		_, _, err := svc.Register(ctx, "", "hunter2", model.RoleCustomer, "", "")
		assert.ErrorIs(t, err, service.ErrValidation)

		_, _, err = svc.Register(ctx, "alice", "", model.RoleCustomer, "", "")
		assert.ErrorIs(t, err, service.ErrValidation)

		_, _, err = svc.Register(ctx, "alice", "hunter2", model.Role("admin"), "", "")
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &model.User{ID: 7, Username: "alice", PasswordHash: hash, Role: model.RoleShopper}

	t.Run("valid credentials yield a token", func(t *testing.T) {
		svc, users := newAuthService(t)

		users.EXPECT().GetByUsername(gomock.Any(), "alice").Return(stored, nil)

		user, token, err := svc.Login(ctx, "alice", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)

		actor, err := service.ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Equal(t, model.Actor{UserID: 7, Role: model.RoleShopper}, actor)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, users := newAuthService(t)

		users.EXPECT().GetByUsername(gomock.Any(), "alice").Return(stored, nil)

		_, _, err := svc.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown user looks identical to wrong password", func(t *testing.T) {
		svc, users := newAuthService(t)

		users.EXPECT().GetByUsername(gomock.Any(), "bob").Return(nil, repository.ErrObjectNotFound)

		_, _, err := svc.Login(ctx, "bob", "hunter2")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestParseToken(t *testing.T) {
	t.Run("garbage tokens are rejected", func(t *testing.T) {
		_, err := service.ParseToken(testSecret, "not-a-token")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("a token signed with another secret is rejected", func(t *testing.T) {
		svc, users := newAuthService(t)
		users.EXPECT().GetByUsername(gomock.Any(), "alice").
			Return(&model.User{ID: 7, Username: "alice", PasswordHash: mustHash(t, "hunter2"), Role: model.RoleCustomer}, nil)

		_, token, err := svc.Login(context.Background(), "alice", "hunter2")
		require.NoError(t, err)

		_, err = service.ParseToken("other-secret", token)
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func mustHash(t *testing.T, password string) []byte {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return hash
}
