package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/culturekart/marketplace-backend/internal/models"
)

var (
	ErrEscrowNotFound        = errors.New("escrow entry not found")
	ErrEscrowAlreadyReleased = errors.New("escrow already released")
	ErrInsufficientFunds     = errors.New("insufficient funds")
)

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetBalance returns the artisan balance, creating the row on first read.
func (r *PaymentRepository) GetBalance(ctx context.Context, userID uuid.UUID) (*models.ArtisanBalance, error) {
	var balance models.ArtisanBalance
	query := `
		INSERT INTO artisan_balances (user_id, available)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING user_id, available, updated_at
	`
	if err := r.db.GetContext(ctx, &balance, query, userID); err != nil {
		return nil, fmt.Errorf("payment repository: get balance: %w", err)
	}
	return &balance, nil
}

// ReleaseEscrow moves a pending entry to released and credits the artisan's
// available balance. A released entry can never be released again.
func (r *PaymentRepository) ReleaseEscrow(ctx context.Context, orderID, adminID uuid.UUID, notes *string) (*models.EscrowEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var entry models.EscrowEntry
	err = tx.GetContext(ctx, &entry, `SELECT * FROM escrow_entries WHERE order_id = $1 FOR UPDATE`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	if entry.Status != models.EscrowStatusPending {
		return nil, ErrEscrowAlreadyReleased
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO artisan_balances (user_id, available)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET available = artisan_balances.available + $2, updated_at = NOW()
	`, entry.ArtisanID, entry.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = tx.GetContext(ctx, &entry, `
		UPDATE escrow_entries
		SET status = 'released', released_by = $2, release_notes = $3, released_at = $4
		WHERE id = $1
		RETURNING *
	`, entry.ID, adminID, notes, now)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, order_id, type, amount, status, description, completed_at)
		VALUES ($1, $2, 'escrow_release', $3, 'completed', 'Escrow released to available balance', NOW())
	`, entry.ArtisanID, orderID, entry.Amount)
	if err != nil {
		return nil, err
	}

	return &entry, tx.Commit()
}

// RefundEscrow voids a pending entry when its order is refunded, so the
// hold can never be released to the artisan afterwards. Orders refunded
// before delivery have no entry; that is a no-op, not an error. A released
// entry cannot be voided: the money already left the platform.
func (r *PaymentRepository) RefundEscrow(ctx context.Context, orderID uuid.UUID) (*models.EscrowEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var entry models.EscrowEntry
	err = tx.GetContext(ctx, &entry, `SELECT * FROM escrow_entries WHERE order_id = $1 FOR UPDATE`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	switch entry.Status {
	case models.EscrowStatusRefunded:
		return &entry, nil
	case models.EscrowStatusReleased:
		return nil, ErrEscrowAlreadyReleased
	}

	err = tx.GetContext(ctx, &entry, `
		UPDATE escrow_entries SET status = 'refunded' WHERE id = $1 RETURNING *
	`, entry.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, order_id, type, amount, status, description, completed_at)
		VALUES ($1, $2, 'escrow_refund', $3, 'completed', 'Escrow hold voided, order refunded to buyer', NOW())
	`, entry.ArtisanID, orderID, entry.Amount)
	if err != nil {
		return nil, err
	}

	return &entry, tx.Commit()
}

func (r *PaymentRepository) GetEscrowByOrderID(ctx context.Context, orderID uuid.UUID) (*models.EscrowEntry, error) {
	var entry models.EscrowEntry
	err := r.db.GetContext(ctx, &entry, `SELECT * FROM escrow_entries WHERE order_id = $1`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEscrowNotFound
	}
	return &entry, err
}

// ListEscrowByStatus returns escrow entries page by page together with the
// total row count for the pagination envelope. An empty status lists all.
func (r *PaymentRepository) ListEscrowByStatus(ctx context.Context, status string, limit, offset int) ([]models.EscrowEntry, int, error) {
	var entries []models.EscrowEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM escrow_entries WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM escrow_entries WHERE ($1 = '' OR status = $1)`, status); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *PaymentRepository) EscrowStats(ctx context.Context) (*models.EscrowStats, error) {
	var stats models.EscrowStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)  AS pending_amount,
			COUNT(*) FILTER (WHERE status = 'pending')                  AS pending_count,
			COALESCE(SUM(amount) FILTER (WHERE status = 'released'), 0) AS released_amount,
			COUNT(*) FILTER (WHERE status = 'released')                 AS released_count
		FROM escrow_entries
	`)
	if err != nil {
		return nil, fmt.Errorf("payment repository: escrow stats: %w", err)
	}
	return &stats, nil
}

func (r *PaymentRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return transactions, err
}
