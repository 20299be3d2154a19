package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"grocermart/internal/db"
	"grocermart/internal/model"
	"grocermart/internal/repository"
)

type orderRow struct {
	ID                  int64      `db:"id"`
	CustomerID          int64      `db:"customer_id"`
	ShopperID           *int64     `db:"shopper_id"`
	Status              string     `db:"status"`
	Items               []byte     `db:"items"`
	Notes               *string    `db:"notes"`
	Total               float64    `db:"total"`
	ServiceFee          float64    `db:"service_fee"`
	IsPaid              bool       `db:"is_paid"`
	Latitude            *float64   `db:"latitude"`
	Longitude           *float64   `db:"longitude"`
	LocationAt          *time.Time `db:"location_at"`
	EstimatedDeliveryAt *time.Time `db:"estimated_delivery_at"`
	CreatedAt           time.Time  `db:"created_at"`
}

func (r *orderRow) toModel() (*model.Order, error) {
	var items []model.OrderItem
	if len(r.Items) > 0 {
		if err := json.Unmarshal(r.Items, &items); err != nil {
			return nil, fmt.Errorf("decode order %d items: %w", r.ID, err)
		}
	}

	order := &model.Order{
		ID:                  r.ID,
		CustomerID:          r.CustomerID,
		ShopperID:           r.ShopperID,
		Status:              model.Status(r.Status),
		Items:               items,
		Total:               r.Total,
		ServiceFee:          r.ServiceFee,
		IsPaid:              r.IsPaid,
		EstimatedDeliveryAt: r.EstimatedDeliveryAt,
		CreatedAt:           r.CreatedAt,
	}
	if r.Notes != nil {
		order.Notes = *r.Notes
	}
	if r.Latitude != nil && r.Longitude != nil && r.LocationAt != nil {
		order.ShopperLocation = &model.Location{
			Latitude:  *r.Latitude,
			Longitude: *r.Longitude,
			Timestamp: *r.LocationAt,
		}
	}
	return order, nil
}

func encodeItems(items []model.OrderItem) ([]byte, error) {
	if items == nil {
		items = []model.OrderItem{}
	}
	return json.Marshal(items)
}

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) Create(ctx context.Context, order *model.Order) error {
	items, err := encodeItems(order.Items)
	if err != nil {
		return err
	}
	err = r.db.ExecQueryRow(ctx, `
        INSERT INTO orders (customer_id, status, items, notes, total, service_fee, created_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
        RETURNING id
    `, order.CustomerID, order.Status, items, order.Notes, order.Total, order.ServiceFee, order.CreatedAt).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

const selectOrder = `
    SELECT id, customer_id, shopper_id, status, items, notes, total, service_fee,
           is_paid, latitude, longitude, location_at, estimated_delivery_at, created_at
    FROM orders
`

func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var row orderRow
	err := r.db.Get(ctx, &row, selectOrder+" WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return row.toModel()
}

// GetByIDTx locks the order row for the duration of the transaction so
// concurrent lifecycle mutations serialize per order.
func (r *OrderRepo) GetByIDTx(ctx context.Context, tx db.Tx, id int64) (*model.Order, error) {
	var row orderRow
	err := tx.Get(ctx, &row, selectOrder+" WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return row.toModel()
}

func (r *OrderRepo) UpdateTx(ctx context.Context, tx db.Tx, order *model.Order) error {
	items, err := encodeItems(order.Items)
	if err != nil {
		return err
	}

	var lat, lon *float64
	var locAt *time.Time
	if loc := order.ShopperLocation; loc != nil {
		lat, lon, locAt = &loc.Latitude, &loc.Longitude, &loc.Timestamp
	}

	_, err = tx.Exec(ctx, `
        UPDATE orders
        SET
            shopper_id = $1,
            status = $2,
            items = $3,
            notes = NULLIF($4, ''),
            total = $5,
            is_paid = $6,
            latitude = $7,
            longitude = $8,
            location_at = $9,
            estimated_delivery_at = $10
        WHERE id = $11
    `, order.ShopperID, order.Status, items, order.Notes, order.Total, order.IsPaid,
		lat, lon, locAt, order.EstimatedDeliveryAt, order.ID)
	if err != nil {
		return fmt.Errorf("update order %d: %w", order.ID, err)
	}
	return nil
}

func (r *OrderRepo) GetByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	return r.selectOrders(ctx, selectOrder+" WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
}

func (r *OrderRepo) GetByShopper(ctx context.Context, shopperID int64) ([]model.Order, error) {
	return r.selectOrders(ctx, selectOrder+" WHERE shopper_id = $1 ORDER BY created_at DESC", shopperID)
}

func (r *OrderRepo) GetPending(ctx context.Context) ([]model.Order, error) {
	return r.selectOrders(ctx, selectOrder+" WHERE status = 'pending' ORDER BY created_at ASC")
}

// GetActive returns every order that has not reached the terminal state,
// used to warm the in-memory cache at startup.
func (r *OrderRepo) GetActive(ctx context.Context) ([]model.Order, error) {
	return r.selectOrders(ctx, selectOrder+" WHERE status <> 'paid' ORDER BY created_at ASC")
}

func (r *OrderRepo) selectOrders(ctx context.Context, query string, args ...interface{}) ([]model.Order, error) {
	var rows []*orderRow
	if err := r.db.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.toModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}
