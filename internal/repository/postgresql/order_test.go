package postgresql

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "grocermart/internal/db/mocks"
	"grocermart/internal/model"
	"grocermart/internal/repository"
)

func TestOrderRowToModel(t *testing.T) {
	now := time.Now().UTC()
	shopperID := int64(2)
	notes := "no substitutions"
	lat, lon := 40.7, -74.0

	items, err := encodeItems([]model.OrderItem{
		{Name: "Milk", Quantity: 2, Price: 3.5, Purchased: true},
	})
	require.NoError(t, err)

	row := orderRow{
		ID:         1,
		CustomerID: 7,
		ShopperID:  &shopperID,
		Status:     "shopping",
		Items:      items,
		Notes:      &notes,
		Total:      7,
		ServiceFee: 2.99,
		Latitude:   &lat,
		Longitude:  &lon,
		LocationAt: &now,
		CreatedAt:  now,
	}

	order, err := row.toModel()
	require.NoError(t, err)

	assert.Equal(t, model.StatusShopping, order.Status)
	assert.Equal(t, "no substitutions", order.Notes)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Purchased)
	require.NotNil(t, order.ShopperLocation)
	assert.Equal(t, 40.7, order.ShopperLocation.Latitude)
}

func TestOrderRowToModel_NullColumns(t *testing.T) {
	row := orderRow{ID: 1, CustomerID: 7, Status: "pending"}

	order, err := row.toModel()
	require.NoError(t, err)

	assert.Nil(t, order.ShopperID)
	assert.Nil(t, order.ShopperLocation)
	assert.Nil(t, order.EstimatedDeliveryAt)
	assert.Empty(t, order.Notes)
	assert.Empty(t, order.Items)
}

func TestOrderRowToModel_BadItems(t *testing.T) {
	row := orderRow{ID: 1, Items: []byte("{not json")}

	_, err := row.toModel()
	assert.Error(t, err)
}

func TestEncodeItems_NilBecomesEmptyArray(t *testing.T) {
	payload, err := encodeItems(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
}

func TestOrderRepo_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("maps missing rows to the sentinel", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		dbMock := mock_database.NewMockDB(ctrl)
		repo := NewOrderRepo(dbMock)

		dbMock.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), int64(99)).Return(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})

	t.Run("hydrates the scanned row", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		dbMock := mock_database.NewMockDB(ctrl)
		repo := NewOrderRepo(dbMock)

		dbMock.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), int64(1)).
			DoAndReturn(func(_ context.Context, dest interface{}, _ string, _ ...interface{}) error {
				row := dest.(*orderRow)
				row.ID = 1
				row.CustomerID = 7
				row.Status = "pending"
				row.Items = []byte(`[{"name":"Bread","quantity":1,"price":2}]`)
				return nil
			})

		order, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, order.Status)
		require.Len(t, order.Items, 1)
		assert.Equal(t, "Bread", order.Items[0].Name)
	})
}

func TestOrderRepo_GetByIDTx_LocksTheRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	dbMock := mock_database.NewMockDB(ctrl)
	txMock := mock_database.NewMockTx(ctrl)
	repo := NewOrderRepo(dbMock)

	txMock.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), int64(1)).
		DoAndReturn(func(_ context.Context, dest interface{}, query string, _ ...interface{}) error {
			assert.Contains(t, query, "FOR UPDATE")
			row := dest.(*orderRow)
			row.ID = 1
			row.Status = "accepted"
			return nil
		})

	order, err := repo.GetByIDTx(context.Background(), txMock, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, order.Status)
}

func TestOrderRepo_UpdateTx(t *testing.T) {
	ctrl := gomock.NewController(t)
	dbMock := mock_database.NewMockDB(ctrl)
	txMock := mock_database.NewMockTx(ctrl)
	repo := NewOrderRepo(dbMock)

	now := time.Now().UTC()
	shopperID := int64(2)
	order := &model.Order{
		ID:         1,
		CustomerID: 7,
		ShopperID:  &shopperID,
		Status:     model.StatusAccepted,
		Items:      []model.OrderItem{{Name: "Milk", Quantity: 2, Price: 3.5}},
		Total:      7,
		ShopperLocation: &model.Location{
			Latitude: 40.7, Longitude: -74.0, Timestamp: now,
		},
	}

	txMock.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, args ...interface{}) (pgconn.CommandTag, error) {
			require.Len(t, args, 11)
			assert.Equal(t, &shopperID, args[0])
			assert.Equal(t, model.StatusAccepted, args[1])
			assert.Equal(t, int64(1), args[10])
			return pgconn.CommandTag("UPDATE 1"), nil
		})

	require.NoError(t, repo.UpdateTx(context.Background(), txMock, order))
}

func TestOrderRepo_SelectOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	dbMock := mock_database.NewMockDB(ctrl)
	repo := NewOrderRepo(dbMock)

	dbMock.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), int64(7)).
		DoAndReturn(func(_ context.Context, dest interface{}, query string, _ ...interface{}) error {
			assert.Contains(t, query, "ORDER BY created_at DESC")
			rows := dest.(*[]*orderRow)
			*rows = []*orderRow{
				{ID: 2, CustomerID: 7, Status: "pending"},
				{ID: 1, CustomerID: 7, Status: "paid"},
			}
			return nil
		})

	orders, err := repo.GetByCustomer(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(2), orders[0].ID)
}
