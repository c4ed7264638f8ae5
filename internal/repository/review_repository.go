package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/culturekart/marketplace-backend/internal/models"
)

var ErrReviewExists = errors.New("review already submitted for this order")

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	var out models.Review
	err := r.db.GetContext(ctx, &out, `
		INSERT INTO reviews (product_id, order_id, buyer_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, review.ProductID, review.OrderID, review.BuyerID, review.Rating, review.Comment)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrReviewExists
		}
		return nil, err
	}
	return &out, nil
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT * FROM reviews WHERE product_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, productID, limit, offset)
	return reviews, err
}
