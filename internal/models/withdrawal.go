package models

import (
	"time"

	"github.com/google/uuid"
)

// BankDetails is the payout destination, stored as JSONB.
type BankDetails struct {
	AccountTitle  string `json:"accountTitle"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	BranchCode    string `json:"branchCode,omitempty"`
}

// Withdrawal is an artisan cashout request. The gross amount is debited
// from the balance when the request is created; a rejection or a failed
// payout refunds it. NetAmount = Amount - ProcessingFee, exactly.
type Withdrawal struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ArtisanID       uuid.UUID  `db:"artisan_id" json:"artisanId"`
	Amount          float64    `db:"amount" json:"amount"`
	ProcessingFee   float64    `db:"processing_fee" json:"processingFee"`
	NetAmount       float64    `db:"net_amount" json:"netAmount"`
	BankAccountTitle  string   `db:"bank_account_title" json:"-"`
	BankAccountNumber string   `db:"bank_account_number" json:"-"`
	BankName          string   `db:"bank_name" json:"-"`
	BankBranchCode    *string  `db:"bank_branch_code" json:"-"`
	Status          string     `db:"status" json:"status"`
	ArtisanNotes    *string    `db:"artisan_notes" json:"artisanNotes,omitempty"`
	AdminNotes      *string    `db:"admin_notes" json:"adminNotes,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejectionReason,omitempty"`
	DecidedBy       *uuid.UUID `db:"decided_by" json:"decidedBy,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	DecidedAt       *time.Time `db:"decided_at" json:"decidedAt,omitempty"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processedAt,omitempty"`

	// Projected for responses; account number is masked.
	BankDetails *BankDetails `json:"bankDetails,omitempty"`
}

// BuildBankDetails fills the response projection with a masked account number.
func (w *Withdrawal) BuildBankDetails() {
	masked := w.BankAccountNumber
	if len(masked) > 4 {
		masked = "****" + masked[len(masked)-4:]
	}
	var branch string
	if w.BankBranchCode != nil {
		branch = *w.BankBranchCode
	}
	w.BankDetails = &BankDetails{
		AccountTitle:  w.BankAccountTitle,
		AccountNumber: masked,
		BankName:      w.BankName,
		BranchCode:    branch,
	}
}
