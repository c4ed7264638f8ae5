package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/culturekart/marketplace-backend/internal/models"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrDuplicateCheckout  = errors.New("order already created for this payment transaction")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order with its items and decrements product stock, all
// in one transaction. A unique index on payment_transaction_id makes the
// call idempotent across checkout retries.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var out models.Order
	err = tx.GetContext(ctx, &out, `
		INSERT INTO orders (buyer_id, artisan_id, subtotal, shipping_fee, tax, total, currency,
			status, shipping_address, payment_info, payment_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING *
	`, order.BuyerID, order.ArtisanID, order.Subtotal, order.ShippingFee, order.Tax,
		order.Total, order.Currency, order.Status, order.ShippingAddress,
		order.PaymentInfo, order.PaymentTransactionID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCheckout
		}
		return nil, fmt.Errorf("order repository: create: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		err = tx.GetContext(ctx, item, `
			INSERT INTO order_items (order_id, product_id, title, quantity, price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		`, out.ID, item.ProductID, item.Title, item.Quantity, item.Price, item.Subtotal)
		if err != nil {
			return nil, fmt.Errorf("order repository: create item: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = NOW()
			WHERE id = $1 AND stock >= $2
		`, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, ErrInsufficientStock
		}
	}

	out.Items = order.Items
	return &out, tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByTransactionID resolves the idempotent-replay case at checkout.
func (r *OrderRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE payment_transaction_id = $1`, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, buyerID, limit, offset)
	return orders, err
}

func (r *OrderRepository) ListByArtisan(ctx context.Context, artisanID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders WHERE artisan_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, artisanID, limit, offset)
	return orders, err
}

// UpdateStatus moves the order forward under a row lock, rejecting any
// transition the lifecycle table forbids.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := r.lockAndTransition(ctx, tx, id, to)
	if err != nil {
		return nil, err
	}
	return order, tx.Commit()
}

// MarkShipped records carrier details together with the status change.
func (r *OrderRepository) MarkShipped(ctx context.Context, id uuid.UUID, carrier, trackingNumber string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := r.lockAndTransition(ctx, tx, id, models.OrderStatusShipped)
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, order, `
		UPDATE orders SET carrier = $2, tracking_number = $3, shipped_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, carrier, trackingNumber)
	if err != nil {
		return nil, err
	}
	return order, tx.Commit()
}

func (r *OrderRepository) lockAndTransition(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, to string) (*models.Order, error) {
	var order models.Order
	err := tx.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if !models.CanTransitionOrder(order.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
	}

	err = tx.GetContext(ctx, &order, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING *
	`, id, to)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, order *models.Order) error {
	return r.db.SelectContext(ctx, &order.Items, `
		SELECT * FROM order_items WHERE order_id = $1 ORDER BY id
	`, order.ID)
}
