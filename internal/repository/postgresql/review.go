package postgresql

import (
	"context"
	"fmt"
	"time"

	"grocermart/internal/db"
	"grocermart/internal/model"
)

type reviewRow struct {
	ID        int64     `db:"id"`
	OrderID   int64     `db:"order_id"`
	FromID    int64     `db:"from_id"`
	ToID      int64     `db:"to_id"`
	Rating    int       `db:"rating"`
	Comment   *string   `db:"comment"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *reviewRow) toModel() model.Review {
	review := model.Review{
		ID:        r.ID,
		OrderID:   r.OrderID,
		FromID:    r.FromID,
		ToID:      r.ToID,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
	if r.Comment != nil {
		review.Comment = *r.Comment
	}
	return review
}

type ReviewRepo struct {
	db db.DB
}

func NewReviewRepo(db db.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

func (r *ReviewRepo) CreateTx(ctx context.Context, tx db.Tx, review *model.Review) error {
	err := tx.ExecQueryRow(ctx, `
        INSERT INTO reviews (order_id, from_id, to_id, rating, comment, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
        RETURNING id
    `, review.OrderID, review.FromID, review.ToID, review.Rating, review.Comment, review.CreatedAt).Scan(&review.ID)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// RatingsForUserTx reads the full rating history inside the review
// transaction; the aggregate is always recomputed from scratch.
func (r *ReviewRepo) RatingsForUserTx(ctx context.Context, tx db.Tx, userID int64) ([]int, error) {
	var ratings []int
	err := tx.Select(ctx, &ratings, "SELECT rating FROM reviews WHERE to_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("select ratings for user %d: %w", userID, err)
	}
	return ratings, nil
}

func (r *ReviewRepo) GetByUser(ctx context.Context, userID int64) ([]model.Review, error) {
	var rows []*reviewRow
	err := r.db.Select(ctx, &rows, `
        SELECT id, order_id, from_id, to_id, rating, comment, created_at
        FROM reviews
        WHERE to_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("select reviews for user %d: %w", userID, err)
	}

	reviews := make([]model.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.toModel())
	}
	return reviews, nil
}
