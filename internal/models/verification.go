package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationCode is a single-use delivery-confirmation code bound to one
// order item unit, printed on the packaging. Minted when the order ships.
type VerificationCode struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	OrderID   uuid.UUID `db:"order_id" json:"orderId"`
	ProductID uuid.UUID `db:"product_id" json:"productId"`
	ArtisanID uuid.UUID `db:"artisan_id" json:"artisanId"`
	Status    string    `db:"status" json:"status"`

	// Authenticity anchor recorded at mint time.
	AnchorHash    string    `db:"anchor_hash" json:"anchorHash"`
	AnchorNetwork string    `db:"anchor_network" json:"anchorNetwork"`
	AnchoredAt    time.Time `db:"anchored_at" json:"anchoredAt"`

	DeliveredAt          *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`
	DeliveredFingerprint *string    `db:"delivered_fingerprint" json:"-"`
	IsSuspicious         bool       `db:"is_suspicious" json:"isSuspicious"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
}

// ScanEvent records one lookup of a verification code, whatever the outcome.
type ScanEvent struct {
	ID                uuid.UUID `db:"id" json:"id"`
	CodeID            uuid.UUID `db:"code_id" json:"-"`
	Outcome           string    `db:"outcome" json:"outcome"`
	DeviceFingerprint *string   `db:"device_fingerprint" json:"deviceFingerprint,omitempty"`
	IPAddress         *string   `db:"ip_address" json:"-"`
	ScannedAt         time.Time `db:"scanned_at" json:"scannedAt"`
}

// ProductInfo is the public product block of a verification response.
type ProductInfo struct {
	ProductID   uuid.UUID `json:"productId"`
	Title       string    `json:"title"`
	Craft       *string   `json:"craft,omitempty"`
	Region      *string   `json:"region,omitempty"`
	ArtisanName string    `json:"artisanName"`
}

// VerificationInfo summarizes the code's delivery state for the client.
type VerificationInfo struct {
	IsDelivered        bool       `json:"isDelivered"`
	TotalVerifications int        `json:"totalVerifications"`
	FirstVerified      *time.Time `json:"firstVerified,omitempty"`
	IsSuspicious       bool       `json:"isSuspicious"`
}

// BlockchainInfo exposes the authenticity anchor.
type BlockchainInfo struct {
	Network    string    `json:"network"`
	AnchorHash string    `json:"anchorHash"`
	AnchoredAt time.Time `json:"anchoredAt"`
}

// DeliveryRecord describes the original confirmation, returned when a code
// is presented again after being used.
type DeliveryRecord struct {
	DeliveredAt       time.Time `json:"deliveredAt"`
	DeviceFingerprint string    `json:"deviceFingerprint"`
}
