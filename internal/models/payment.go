package models

import (
	"time"

	"github.com/google/uuid"
)

// ArtisanBalance tracks released (available) funds per artisan.
type ArtisanBalance struct {
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Available float64   `db:"available" json:"available"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Transaction is one entry of the money-movement ledger.
type Transaction struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"userId"`
	OrderID      *uuid.UUID `db:"order_id" json:"orderId,omitempty"`
	WithdrawalID *uuid.UUID `db:"withdrawal_id" json:"withdrawalId,omitempty"`
	Type         string     `db:"type" json:"type"`
	Amount       float64    `db:"amount" json:"amount"`
	Status       string     `db:"status" json:"status"`
	Description  *string    `db:"description" json:"description,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	CompletedAt  *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// EscrowEntry holds the artisan share of a delivered order until an admin
// releases it. Amount is the order total minus platform commission.
type EscrowEntry struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	OrderID      uuid.UUID  `db:"order_id" json:"orderId"`
	ArtisanID    uuid.UUID  `db:"artisan_id" json:"artisanId"`
	Amount       float64    `db:"amount" json:"amount"`
	Commission   float64    `db:"commission" json:"commission"`
	Status       string     `db:"status" json:"status"`
	ReleaseNotes *string    `db:"release_notes" json:"releaseNotes,omitempty"`
	ReleasedBy   *uuid.UUID `db:"released_by" json:"releasedBy,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	ReleasedAt   *time.Time `db:"released_at" json:"releasedAt,omitempty"`
}

// EscrowStats aggregates the admin escrow dashboard numbers.
type EscrowStats struct {
	PendingAmount  float64 `db:"pending_amount" json:"pendingAmount"`
	PendingCount   int     `db:"pending_count" json:"pendingCount"`
	ReleasedAmount float64 `db:"released_amount" json:"releasedAmount"`
	ReleasedCount  int     `db:"released_count" json:"releasedCount"`
}

// BulkReleaseResult reports per-order outcomes of a bulk escrow release.
// Orders are processed independently; one failure never aborts the rest.
type BulkReleaseResult struct {
	Successful []uuid.UUID         `json:"successful"`
	Failed     []BulkReleaseFailure `json:"failed"`
}

// BulkReleaseFailure names one order that could not be released and why.
type BulkReleaseFailure struct {
	OrderID uuid.UUID `json:"orderId"`
	Reason  string    `json:"reason"`
}
