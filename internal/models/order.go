package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShippingAddress is stored as JSONB on the order row.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB storage.
func (a *ShippingAddress) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("shipping address: unexpected column type %T", src)
	}
	return json.Unmarshal(b, a)
}

// PaymentInfo captures the client-side payment confirmation attached at
// checkout. TransactionID is the idempotency key for order creation.
type PaymentInfo struct {
	Method        string     `json:"method"`
	TransactionID string     `json:"transactionId"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

func (p PaymentInfo) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PaymentInfo) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("payment info: unexpected column type %T", src)
	}
	return json.Unmarshal(b, p)
}

// Order is a buyer's purchase from one artisan. It is never deleted, only
// status-transitioned.
type Order struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	BuyerID         uuid.UUID       `db:"buyer_id" json:"buyerId"`
	ArtisanID       uuid.UUID       `db:"artisan_id" json:"artisanId"`
	Subtotal        float64         `db:"subtotal" json:"subtotal"`
	ShippingFee     float64         `db:"shipping_fee" json:"shippingFee"`
	Tax             float64         `db:"tax" json:"tax"`
	Total           float64         `db:"total" json:"total"`
	Currency        string          `db:"currency" json:"currency"`
	Status          string          `db:"status" json:"status"`
	ShippingAddress ShippingAddress `db:"shipping_address" json:"shippingAddress"`
	PaymentInfo     PaymentInfo     `db:"payment_info" json:"paymentInfo"`

	// Duplicated from PaymentInfo for the uniqueness constraint.
	PaymentTransactionID string `db:"payment_transaction_id" json:"-"`

	Carrier        *string    `db:"carrier" json:"-"`
	TrackingNumber *string    `db:"tracking_number" json:"-"`
	ShippedAt      *time.Time `db:"shipped_at" json:"-"`
	DeliveredAt    *time.Time `db:"delivered_at" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Loaded separately.
	Items               []OrderItem          `json:"items,omitempty"`
	ShippingDetails     *ShippingDetails     `json:"shippingDetails,omitempty"`
	PaymentDistribution *PaymentDistribution `json:"paymentDistribution,omitempty"`
}

// BuildShippingDetails projects the flat shipment columns into the API shape.
func (o *Order) BuildShippingDetails() {
	if o.Carrier == nil && o.TrackingNumber == nil && o.ShippedAt == nil && o.DeliveredAt == nil {
		return
	}
	o.ShippingDetails = &ShippingDetails{
		Carrier:        o.Carrier,
		TrackingNumber: o.TrackingNumber,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
	}
}

// ShippingDetails is the shipment block of an order response.
type ShippingDetails struct {
	Carrier        *string    `json:"carrier,omitempty"`
	TrackingNumber *string    `json:"trackingNumber,omitempty"`
	ShippedAt      *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
}

// OrderItem is a priced line of an order; title and price are snapshots
// taken at checkout.
type OrderItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"orderId"`
	ProductID uuid.UUID `db:"product_id" json:"productId"`
	Title     string    `db:"title" json:"title"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Price     float64   `db:"price" json:"price"`
	Subtotal  float64   `db:"subtotal" json:"subtotal"`
}

// PaymentDistribution describes where the buyer's money went.
type PaymentDistribution struct {
	ArtisanPayout ArtisanPayout `json:"artisanPayout"`
}

// ArtisanPayout is the escrowed seller share of an order.
type ArtisanPayout struct {
	Amount             float64    `json:"amount"`
	EscrowReleasedAt   *time.Time `json:"escrowReleasedAt,omitempty"`
	EscrowReleasedBy   *uuid.UUID `json:"escrowReleasedBy,omitempty"`
	EscrowReleaseNotes *string    `json:"escrowReleaseNotes,omitempty"`
}

// Pagination is the shared list-response envelope.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}
