package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/payments"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
)

// floats coming from JSON carry binary noise; amounts are compared at
// minor-unit precision.
const amountEpsilon = 0.005

// OrderStore is the order persistence the service depends on.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Order, error)
	ListByArtisan(ctx context.Context, artisanID uuid.UUID, limit, offset int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to string) (*models.Order, error)
	MarkShipped(ctx context.Context, id uuid.UUID, carrier, trackingNumber string) (*models.Order, error)
}

// ProductStore resolves products for checkout pricing.
type ProductStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// EscrowStore resolves the escrow entry backing paymentDistribution and
// voids the hold when an order is refunded.
type EscrowStore interface {
	GetEscrowByOrderID(ctx context.Context, orderID uuid.UUID) (*models.EscrowEntry, error)
	RefundEscrow(ctx context.Context, orderID uuid.UUID) (*models.EscrowEntry, error)
}

// CodeMinter mints verification codes when an order ships.
type CodeMinter interface {
	MintForOrder(ctx context.Context, order *models.Order) ([]models.VerificationCode, error)
}

// CheckoutClaims guards against concurrent duplicate checkout calls before
// the database unique index gets a say. Nil-safe optional dependency.
type CheckoutClaims interface {
	ClaimCheckout(ctx context.Context, transactionID string) (bool, error)
}

// Events publishes lifecycle events. Optional dependency.
type Events interface {
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
}

// PaymentVerifier re-checks a client-reported transaction with the card
// processor. The checkout payload says the payment succeeded, but only the
// processor's word counts.
type PaymentVerifier interface {
	GetIntent(ctx context.Context, id string) (*payments.Intent, error)
}

// OrderItemInput is one checkout line.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderInput is the checkout payload, sent after the payment
// provider confirmed the card client-side.
type CreateOrderInput struct {
	Items           []OrderItemInput       `json:"items" binding:"required,min=1"`
	ShippingFee     float64                `json:"shippingFee" binding:"gte=0"`
	Tax             float64                `json:"tax" binding:"gte=0"`
	Total           float64                `json:"total" binding:"required,gt=0"`
	Currency        string                 `json:"currency"`
	PaymentInfo     models.PaymentInfo     `json:"paymentInfo" binding:"required"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
}

type OrderService struct {
	orders    OrderStore
	products  ProductStore
	escrow    EscrowStore
	codes     CodeMinter
	claims    CheckoutClaims
	events    Events
	processor PaymentVerifier
}

func NewOrderService(orders OrderStore, products ProductStore, escrow EscrowStore, codes CodeMinter, claims CheckoutClaims, events Events, processor PaymentVerifier) *OrderService {
	return &OrderService{orders: orders, products: products, escrow: escrow, codes: codes, claims: claims, events: events, processor: processor}
}

// Create builds and persists an order from a confirmed payment. The call is
// idempotent on paymentInfo.transactionId: a retry after a lost response
// returns the already-created order instead of double-charging the flow.
func (s *OrderService) Create(ctx context.Context, buyerID uuid.UUID, in *CreateOrderInput) (*models.Order, bool, error) {
	if in.PaymentInfo.TransactionID == "" {
		return nil, false, apperror.New(apperror.ErrCodeValidation, "paymentInfo.transactionId is required")
	}
	if err := validateShippingAddress(&in.ShippingAddress); err != nil {
		return nil, false, err
	}

	if s.claims != nil {
		fresh, err := s.claims.ClaimCheckout(ctx, in.PaymentInfo.TransactionID)
		if err == nil && !fresh {
			if existing, err := s.orders.GetByTransactionID(ctx, in.PaymentInfo.TransactionID); err == nil {
				return existing, false, nil
			}
			// Claim exists but no order yet: the first attempt died between
			// claim and insert. Fall through and let the unique index decide.
		}
	}

	order, err := s.buildOrder(ctx, buyerID, in)
	if err != nil {
		return nil, false, err
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateCheckout) {
			existing, lookupErr := s.orders.GetByTransactionID(ctx, in.PaymentInfo.TransactionID)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			return existing, false, nil
		}
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, false, apperror.New(apperror.ErrCodeConflict, "insufficient stock for one of the items")
		}
		return nil, false, err
	}

	if s.events != nil {
		_ = s.events.Publish(ctx, "order.created", created.ID.String(), created)
	}
	return created, true, nil
}

// Get returns an order with items, shipping details and, once delivered,
// the payment distribution. Only the buyer, the artisan and admins may see
// an order.
func (s *OrderService) Get(ctx context.Context, requesterID uuid.UUID, role string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && order.BuyerID != requesterID && order.ArtisanID != requesterID {
		return nil, apperror.ErrForbidden
	}

	order.BuildShippingDetails()
	s.attachDistribution(ctx, order)
	return order, nil
}

func (s *OrderService) ListForBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID, limit, offset)
}

func (s *OrderService) ListForArtisan(ctx context.Context, artisanID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return s.orders.ListByArtisan(ctx, artisanID, limit, offset)
}

// UpdateStatus lets the artisan move the order forward (confirmed,
// processing) or the buyer cancel before shipment.
func (s *OrderService) UpdateStatus(ctx context.Context, requesterID uuid.UUID, role string, orderID uuid.UUID, to string) (*models.Order, error) {
	if _, ok := models.ValidOrderStatuses[to]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown order status")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case role == models.RoleAdmin:
	case order.ArtisanID == requesterID && to != models.OrderStatusCancelled:
	case order.BuyerID == requesterID && to == models.OrderStatusCancelled:
	default:
		return nil, apperror.ErrForbidden
	}

	// Refunding an order voids its pending escrow hold first. If the hold
	// was already released the artisan has been paid and the order cannot
	// be refunded through this path.
	if to == models.OrderStatusRefunded {
		if _, err := s.escrow.RefundEscrow(ctx, orderID); err != nil {
			if errors.Is(err, repository.ErrEscrowAlreadyReleased) {
				return nil, apperror.New(apperror.ErrCodeConflict, "escrow for this order was already released to the artisan")
			}
			return nil, err
		}
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, to)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, apperror.Wrap(err, apperror.ErrCodeConflict, err.Error())
		}
		return nil, err
	}
	return updated, nil
}

// Ship marks the order shipped and mints one verification code per item
// unit for the packaging.
func (s *OrderService) Ship(ctx context.Context, requesterID uuid.UUID, role string, orderID uuid.UUID, carrier, trackingNumber string) (*models.Order, []models.VerificationCode, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if role != models.RoleAdmin && order.ArtisanID != requesterID {
		return nil, nil, apperror.ErrForbidden
	}
	if carrier == "" || trackingNumber == "" {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, "carrier and trackingNumber are required")
	}

	shipped, err := s.orders.MarkShipped(ctx, orderID, carrier, trackingNumber)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, nil, apperror.Wrap(err, apperror.ErrCodeConflict, err.Error())
		}
		return nil, nil, err
	}
	shipped.Items = order.Items

	codes, err := s.codes.MintForOrder(ctx, shipped)
	if err != nil {
		return nil, nil, fmt.Errorf("order service: mint codes: %w", err)
	}

	if s.events != nil {
		_ = s.events.Publish(ctx, "order.shipped", shipped.ID.String(), shipped)
	}
	return shipped, codes, nil
}

func (s *OrderService) attachDistribution(ctx context.Context, order *models.Order) {
	entry, err := s.escrow.GetEscrowByOrderID(ctx, order.ID)
	if err != nil {
		return
	}
	order.PaymentDistribution = &models.PaymentDistribution{
		ArtisanPayout: models.ArtisanPayout{
			Amount:             entry.Amount,
			EscrowReleasedAt:   entry.ReleasedAt,
			EscrowReleasedBy:   entry.ReleasedBy,
			EscrowReleaseNotes: entry.ReleaseNotes,
		},
	}
}

// buildOrder prices the items from the catalog and checks the client's
// total against the authoritative sum.
func (s *OrderService) buildOrder(ctx context.Context, buyerID uuid.UUID, in *CreateOrderInput) (*models.Order, error) {
	var artisanID uuid.UUID
	subtotal := 0.0
	items := make([]models.OrderItem, 0, len(in.Items))

	for _, line := range in.Items {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, apperror.New(apperror.ErrCodeValidation, "unknown product in cart")
			}
			return nil, err
		}
		if !product.IsActive {
			return nil, apperror.New(apperror.ErrCodeValidation, "product is no longer available: "+product.Title)
		}

		if artisanID == uuid.Nil {
			artisanID = product.ArtisanID
		} else if artisanID != product.ArtisanID {
			return nil, apperror.New(apperror.ErrCodeValidation, "all items in an order must come from one artisan")
		}

		lineSubtotal := models.Round2(product.Price * float64(line.Quantity))
		subtotal += lineSubtotal
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Title:     product.Title,
			Quantity:  line.Quantity,
			Price:     product.Price,
			Subtotal:  lineSubtotal,
		})
	}

	subtotal = models.Round2(subtotal)
	expectedTotal := models.Round2(subtotal + in.ShippingFee + in.Tax)
	if math.Abs(expectedTotal-in.Total) > amountEpsilon {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("total %.2f does not match items + shipping + tax = %.2f", in.Total, expectedTotal))
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	// The client reports the payment as succeeded, but the processor is
	// the authority on that.
	status := models.OrderStatusPending
	if in.PaymentInfo.Status == "succeeded" {
		if s.processor != nil {
			intent, err := s.processor.GetIntent(ctx, in.PaymentInfo.TransactionID)
			if err != nil {
				return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "payment could not be verified with the processor")
			}
			if intent.Status != "succeeded" {
				return nil, apperror.New(apperror.ErrCodeValidation, "payment is not captured")
			}
		}
		status = models.OrderStatusConfirmed
	}

	return &models.Order{
		BuyerID:              buyerID,
		ArtisanID:            artisanID,
		Subtotal:             subtotal,
		ShippingFee:          models.Round2(in.ShippingFee),
		Tax:                  models.Round2(in.Tax),
		Total:                expectedTotal,
		Currency:             currency,
		Status:               status,
		ShippingAddress:      in.ShippingAddress,
		PaymentInfo:          in.PaymentInfo,
		PaymentTransactionID: in.PaymentInfo.TransactionID,
		Items:                items,
	}, nil
}

func validateShippingAddress(a *models.ShippingAddress) error {
	if a.FullName == "" || a.Street == "" || a.City == "" || a.Country == "" {
		return apperror.New(apperror.ErrCodeValidation, "shipping address requires fullName, street, city and country")
	}
	return nil
}
