package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"grocermart/internal/db"
	"grocermart/internal/model"
	"grocermart/internal/repository"
)

type userRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash []byte    `db:"password_hash"`
	Role         string    `db:"role"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	IsAvailable  bool      `db:"is_available"`
	Rating       float64   `db:"rating"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r *userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         model.Role(r.Role),
		Name:         r.Name,
		Phone:        r.Phone,
		IsAvailable:  r.IsAvailable,
		Rating:       r.Rating,
		CreatedAt:    r.CreatedAt,
	}
}

type UserRepo struct {
	db db.DB
}

func NewUserRepo(db db.DB) *UserRepo {
	return &UserRepo{db: db}
}

const selectUser = `
    SELECT id, username, password_hash, role, name, phone, is_available, rating, created_at
    FROM users
`

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.ExecQueryRow(ctx, `
        INSERT INTO users (username, password_hash, role, name, phone, rating, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `, user.Username, user.PasswordHash, user.Role, user.Name, user.Phone, user.Rating, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var row userRow
	err := r.db.Get(ctx, &row, selectUser+" WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var row userRow
	err := r.db.Get(ctx, &row, selectUser+" WHERE username = $1", username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (r *UserRepo) UpdateAvailability(ctx context.Context, id int64, isAvailable bool) (*model.User, error) {
	tag, err := r.db.Exec(ctx, "UPDATE users SET is_available = $1 WHERE id = $2", isAvailable, id)
	if err != nil {
		return nil, fmt.Errorf("update availability for user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrObjectNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) UpdateRatingTx(ctx context.Context, tx db.Tx, id int64, rating float64) error {
	_, err := tx.Exec(ctx, "UPDATE users SET rating = $1 WHERE id = $2", rating, id)
	if err != nil {
		return fmt.Errorf("update rating for user %d: %w", id, err)
	}
	return nil
}
