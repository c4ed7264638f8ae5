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
	ErrCodeNotFound        = errors.New("verification code not found")
	ErrCodeAlreadyUsed     = errors.New("verification code already used")
	ErrOrderNotDeliverable = errors.New("order is not in a deliverable state")
)

type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// CreateBatch mints the codes for one shipment in a single transaction.
func (r *VerificationRepository) CreateBatch(ctx context.Context, codes []models.VerificationCode) ([]models.VerificationCode, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := make([]models.VerificationCode, 0, len(codes))
	for _, c := range codes {
		var stored models.VerificationCode
		err = tx.GetContext(ctx, &stored, `
			INSERT INTO verification_codes (code, order_id, product_id, artisan_id, status, anchor_hash, anchor_network, anchored_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			RETURNING *
		`, c.Code, c.OrderID, c.ProductID, c.ArtisanID, models.CodeStatusUnused, c.AnchorHash, c.AnchorNetwork)
		if err != nil {
			return nil, fmt.Errorf("verification repository: create code: %w", err)
		}
		out = append(out, stored)
	}

	return out, tx.Commit()
}

func (r *VerificationRepository) GetByCode(ctx context.Context, code string) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	err := r.db.GetContext(ctx, &vc, `SELECT * FROM verification_codes WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCodeNotFound
	}
	return &vc, err
}

func (r *VerificationRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VerificationCode, error) {
	var codes []models.VerificationCode
	err := r.db.SelectContext(ctx, &codes, `
		SELECT * FROM verification_codes WHERE order_id = $1 ORDER BY created_at
	`, orderID)
	return codes, err
}

// ConfirmDelivery performs the whole delivery confirmation atomically: the
// code row is locked and flipped to delivered exactly once, the order is
// moved to delivered if this is its first confirmed unit, and the escrow
// entry (order total minus commission) is created together with its ledger
// transaction. A second confirmation of the same code surfaces
// ErrCodeAlreadyUsed with the original code record.
func (r *VerificationRepository) ConfirmDelivery(ctx context.Context, code, deviceFingerprint string, commissionRate float64) (*models.VerificationCode, *models.Order, *models.EscrowEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	defer tx.Rollback()

	var vc models.VerificationCode
	err = tx.GetContext(ctx, &vc, `SELECT * FROM verification_codes WHERE code = $1 FOR UPDATE`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, nil, nil, err
	}
	if vc.Status != models.CodeStatusUnused {
		return &vc, nil, nil, ErrCodeAlreadyUsed
	}

	err = tx.GetContext(ctx, &vc, `
		UPDATE verification_codes
		SET status = 'delivered', delivered_at = NOW(), delivered_fingerprint = $2
		WHERE id = $1
		RETURNING *
	`, vc.ID, deviceFingerprint)
	if err != nil {
		return nil, nil, nil, err
	}

	var order models.Order
	err = tx.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1 FOR UPDATE`, vc.OrderID)
	if err != nil {
		return nil, nil, nil, err
	}

	var entry models.EscrowEntry
	switch order.Status {
	case models.OrderStatusShipped:
		err = tx.GetContext(ctx, &order, `
			UPDATE orders SET status = 'delivered', delivered_at = NOW(), updated_at = NOW()
			WHERE id = $1 RETURNING *
		`, order.ID)
		if err != nil {
			return nil, nil, nil, err
		}

		payout := models.ArtisanPayoutAmount(order.Total, commissionRate)
		commission := models.Round2(order.Total - payout)

		err = tx.GetContext(ctx, &entry, `
			INSERT INTO escrow_entries (order_id, artisan_id, amount, commission, status)
			VALUES ($1, $2, $3, $4, 'pending')
			RETURNING *
		`, order.ID, order.ArtisanID, payout, commission)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("verification repository: create escrow: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, order_id, type, amount, status, description, completed_at)
			VALUES ($1, $2, 'escrow_hold', $3, 'completed', 'Payout held in escrow pending release', NOW())
		`, order.ArtisanID, order.ID, payout)
		if err != nil {
			return nil, nil, nil, err
		}

	case models.OrderStatusDelivered:
		// Another unit of the same order confirmed first; escrow exists.
		err = tx.GetContext(ctx, &entry, `SELECT * FROM escrow_entries WHERE order_id = $1`, order.ID)
		if err != nil {
			return nil, nil, nil, err
		}

	default:
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrOrderNotDeliverable, order.Status)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, nil, err
	}
	return &vc, &order, &entry, nil
}

// MarkFlagged puts a code into the fraud-detected terminal state.
func (r *VerificationRepository) MarkFlagged(ctx context.Context, codeID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE verification_codes SET status = 'flagged', is_suspicious = TRUE WHERE id = $1
	`, codeID)
	return err
}

// RecordScan appends to the scan history; every lookup outcome is recorded.
func (r *VerificationRepository) RecordScan(ctx context.Context, codeID uuid.UUID, outcome string, deviceFingerprint, ip *string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_events (code_id, outcome, device_fingerprint, ip_address)
		VALUES ($1, $2, $3, $4)
	`, codeID, outcome, deviceFingerprint, ip)
	return err
}

func (r *VerificationRepository) ScanHistory(ctx context.Context, codeID uuid.UUID, limit int) ([]models.ScanEvent, error) {
	var events []models.ScanEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM scan_events WHERE code_id = $1 ORDER BY scanned_at DESC LIMIT $2
	`, codeID, limit)
	return events, err
}

// ScanSummary returns total scans, the count of distinct device
// fingerprints and the earliest scan for a code.
func (r *VerificationRepository) ScanSummary(ctx context.Context, codeID uuid.UUID) (total int, distinctDevices int, first *models.ScanEvent, err error) {
	row := struct {
		Total   int `db:"total"`
		Devices int `db:"devices"`
	}{}
	err = r.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total, COUNT(DISTINCT device_fingerprint) AS devices
		FROM scan_events WHERE code_id = $1
	`, codeID)
	if err != nil {
		return 0, 0, nil, err
	}

	if row.Total > 0 {
		var earliest models.ScanEvent
		err = r.db.GetContext(ctx, &earliest, `
			SELECT * FROM scan_events WHERE code_id = $1 ORDER BY scanned_at ASC LIMIT 1
		`, codeID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, 0, nil, err
		}
		if err == nil {
			first = &earliest
		}
		err = nil
	}
	return row.Total, row.Devices, first, nil
}

func (r *VerificationRepository) MarkSuspicious(ctx context.Context, codeID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE verification_codes SET is_suspicious = TRUE WHERE id = $1`, codeID)
	return err
}
