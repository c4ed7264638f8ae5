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
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrWithdrawalDecided  = errors.New("withdrawal already decided")
)

type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create debits the artisan balance under a row lock and inserts the
// request in one transaction, so a concurrent second request cannot
// overdraw.
func (r *WithdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) (*models.Withdrawal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var available float64
	err = tx.GetContext(ctx, &available, `SELECT available FROM artisan_balances WHERE user_id = $1 FOR UPDATE`, w.ArtisanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}
	if available < w.Amount {
		return nil, ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE artisan_balances SET available = available - $2, updated_at = NOW() WHERE user_id = $1
	`, w.ArtisanID, w.Amount)
	if err != nil {
		return nil, err
	}

	var out models.Withdrawal
	err = tx.GetContext(ctx, &out, `
		INSERT INTO withdrawals (artisan_id, amount, processing_fee, net_amount,
			bank_account_title, bank_account_number, bank_name, bank_branch_code, artisan_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *
	`, w.ArtisanID, w.Amount, w.ProcessingFee, w.NetAmount,
		w.BankAccountTitle, w.BankAccountNumber, w.BankName, w.BankBranchCode, w.ArtisanNotes)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: create: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, withdrawal_id, type, amount, status, description)
		VALUES ($1, $2, 'withdrawal', $3, 'pending', 'Withdrawal requested')
	`, w.ArtisanID, out.ID, w.Amount)
	if err != nil {
		return nil, err
	}

	return &out, tx.Commit()
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.GetContext(ctx, &w, `SELECT * FROM withdrawals WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWithdrawalNotFound
	}
	return &w, err
}

func (r *WithdrawalRepository) ListByArtisan(ctx context.Context, artisanID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawals WHERE artisan_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, artisanID, limit, offset)
	return withdrawals, err
}

// ListByStatus lists all requests, optionally filtered by status, for the
// admin panel.
func (r *WithdrawalRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawals
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, status, limit, offset)
	return withdrawals, err
}

// Decide moves a pending request to approved or rejected. A rejection
// refunds the debited amount in the same transaction.
func (r *WithdrawalRepository) Decide(ctx context.Context, id, adminID uuid.UUID, approve bool, adminNotes, rejectionReason *string) (*models.Withdrawal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var w models.Withdrawal
	err = tx.GetContext(ctx, &w, `SELECT * FROM withdrawals WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, err
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, ErrWithdrawalDecided
	}

	status := models.WithdrawalStatusApproved
	if !approve {
		status = models.WithdrawalStatusRejected
	}

	err = tx.GetContext(ctx, &w, `
		UPDATE withdrawals
		SET status = $2, admin_notes = $3, rejection_reason = $4, decided_by = $5, decided_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, status, adminNotes, rejectionReason, adminID)
	if err != nil {
		return nil, err
	}

	if !approve {
		_, err = tx.ExecContext(ctx, `
			UPDATE artisan_balances SET available = available + $2, updated_at = NOW() WHERE user_id = $1
		`, w.ArtisanID, w.Amount)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE transactions SET status = 'failed', completed_at = NOW()
			WHERE withdrawal_id = $1 AND type = 'withdrawal' AND status = 'pending'
		`, w.ID)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, withdrawal_id, type, amount, status, description, completed_at)
			VALUES ($1, $2, 'withdrawal_refund', $3, 'completed', 'Withdrawal rejected, amount refunded', NOW())
		`, w.ArtisanID, w.ID, w.Amount)
		if err != nil {
			return nil, err
		}
	}

	return &w, tx.Commit()
}

// ClaimApproved atomically picks approved requests and marks them
// processing, so two payout workers never grab the same request.
func (r *WithdrawalRepository) ClaimApproved(ctx context.Context, limit int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		UPDATE withdrawals SET status = 'processing'
		WHERE id IN (
			SELECT id FROM withdrawals WHERE status = 'approved'
			ORDER BY decided_at LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *
	`, limit)
	return withdrawals, err
}

// Complete finishes a processing request, on failure refunding the amount.
func (r *WithdrawalRepository) Complete(ctx context.Context, id uuid.UUID, succeeded bool) (*models.Withdrawal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var w models.Withdrawal
	err = tx.GetContext(ctx, &w, `SELECT * FROM withdrawals WHERE id = $1 AND status = 'processing' FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, err
	}

	status := models.WithdrawalStatusCompleted
	txStatus := models.TransactionStatusCompleted
	if !succeeded {
		status = models.WithdrawalStatusFailed
		txStatus = models.TransactionStatusFailed
	}

	err = tx.GetContext(ctx, &w, `
		UPDATE withdrawals SET status = $2, processed_at = NOW() WHERE id = $1 RETURNING *
	`, id, status)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE transactions SET status = $2, completed_at = NOW()
		WHERE withdrawal_id = $1 AND type = 'withdrawal' AND status = 'pending'
	`, w.ID, txStatus)
	if err != nil {
		return nil, err
	}

	if !succeeded {
		_, err = tx.ExecContext(ctx, `
			UPDATE artisan_balances SET available = available + $2, updated_at = NOW() WHERE user_id = $1
		`, w.ArtisanID, w.Amount)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, withdrawal_id, type, amount, status, description, completed_at)
			VALUES ($1, $2, 'withdrawal_refund', $3, 'completed', 'Payout failed, amount refunded', NOW())
		`, w.ArtisanID, w.ID, w.Amount)
		if err != nil {
			return nil, err
		}
	}

	return &w, tx.Commit()
}
