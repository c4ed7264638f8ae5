package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/payments"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
)

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) GetByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, buyerID, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderStore) ListByArtisan(ctx context.Context, artisanID uuid.UUID, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, artisanID, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderStore) UpdateStatus(ctx context.Context, id uuid.UUID, to string) (*models.Order, error) {
	args := m.Called(ctx, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) MarkShipped(ctx context.Context, id uuid.UUID, carrier, trackingNumber string) (*models.Order, error) {
	args := m.Called(ctx, id, carrier, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type mockProductStore struct {
	mock.Mock
}

func (m *mockProductStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

type mockEscrowLookup struct {
	mock.Mock
}

func (m *mockEscrowLookup) GetEscrowByOrderID(ctx context.Context, orderID uuid.UUID) (*models.EscrowEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EscrowEntry), args.Error(1)
}

func (m *mockEscrowLookup) RefundEscrow(ctx context.Context, orderID uuid.UUID) (*models.EscrowEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EscrowEntry), args.Error(1)
}

type mockCodeMinter struct {
	mock.Mock
}

func (m *mockCodeMinter) MintForOrder(ctx context.Context, order *models.Order) ([]models.VerificationCode, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VerificationCode), args.Error(1)
}

func checkoutInput(productID uuid.UUID, total float64) *CreateOrderInput {
	return &CreateOrderInput{
		Items:       []OrderItemInput{{ProductID: productID, Quantity: 2}},
		ShippingFee: 10,
		Tax:         5,
		Total:       total,
		PaymentInfo: models.PaymentInfo{TransactionID: "pi_test_123", Status: "succeeded", Method: "card"},
		ShippingAddress: models.ShippingAddress{
			FullName: "Ayesha Khan",
			Street:   "14 Zamzama Lane",
			City:     "Karachi",
			Country:  "PK",
		},
	}
}

func activeProduct(artisanID uuid.UUID, price float64) *models.Product {
	return &models.Product{
		ID:        uuid.New(),
		ArtisanID: artisanID,
		Title:     "Blue Pottery Vase",
		Price:     price,
		Currency:  "USD",
		Stock:     10,
		IsActive:  true,
	}
}

func TestOrderService_Create(t *testing.T) {
	orders := new(mockOrderStore)
	products := new(mockProductStore)
	svc := NewOrderService(orders, products, new(mockEscrowLookup), new(mockCodeMinter), nil, nil, nil)
	ctx := context.Background()
	buyerID := uuid.New()

	product := activeProduct(uuid.New(), 50)
	products.On("GetProduct", ctx, product.ID).Return(product, nil)

	orders.On("Create", ctx, mock.MatchedBy(func(o *models.Order) bool {
		return o.Subtotal == 100 && o.Total == 115 && o.Status == models.OrderStatusConfirmed &&
			o.PaymentTransactionID == "pi_test_123" && len(o.Items) == 1
	})).Return(&models.Order{ID: uuid.New(), Total: 115, Status: models.OrderStatusConfirmed}, nil)

	order, created, err := svc.Create(ctx, buyerID, checkoutInput(product.ID, 115))
	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 115.0, order.Total)
	orders.AssertExpectations(t)
}

func TestOrderService_Create_TotalMismatch(t *testing.T) {
	products := new(mockProductStore)
	svc := NewOrderService(new(mockOrderStore), products, new(mockEscrowLookup), new(mockCodeMinter), nil, nil, nil)
	ctx := context.Background()

	product := activeProduct(uuid.New(), 50)
	products.On("GetProduct", ctx, product.ID).Return(product, nil)

	_, _, err := svc.Create(ctx, uuid.New(), checkoutInput(product.ID, 120))
	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
}

func TestOrderService_Create_ReplaysDuplicateCheckout(t *testing.T) {
	orders := new(mockOrderStore)
	products := new(mockProductStore)
	svc := NewOrderService(orders, products, new(mockEscrowLookup), new(mockCodeMinter), nil, nil, nil)
	ctx := context.Background()

	product := activeProduct(uuid.New(), 50)
	products.On("GetProduct", ctx, product.ID).Return(product, nil)

	existing := &models.Order{ID: uuid.New(), PaymentTransactionID: "pi_test_123"}
	orders.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicateCheckout)
	orders.On("GetByTransactionID", ctx, "pi_test_123").Return(existing, nil)

	order, created, err := svc.Create(ctx, uuid.New(), checkoutInput(product.ID, 115))
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, order.ID)
}

func TestOrderService_Create_RejectsMixedArtisans(t *testing.T) {
	products := new(mockProductStore)
	svc := NewOrderService(new(mockOrderStore), products, new(mockEscrowLookup), new(mockCodeMinter), nil, nil, nil)
	ctx := context.Background()

	first := activeProduct(uuid.New(), 50)
	second := activeProduct(uuid.New(), 30)
	products.On("GetProduct", ctx, first.ID).Return(first, nil)
	products.On("GetProduct", ctx, second.ID).Return(second, nil)

	in := checkoutInput(first.ID, 145)
	in.Items = append(in.Items, OrderItemInput{ProductID: second.ID, Quantity: 1})

	_, _, err := svc.Create(ctx, uuid.New(), in)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "one artisan")
}

func TestOrderService_Create_MissingTransactionID(t *testing.T) {
	svc := NewOrderService(new(mockOrderStore), new(mockProductStore), new(mockEscrowLookup), new(mockCodeMinter), nil, nil, nil)

	in := checkoutInput(uuid.New(), 115)
	in.PaymentInfo.TransactionID = ""
	_, _, err := svc.Create(context.Background(), uuid.New(), in)
	assert.Error(t, err)
}

func TestOrderService_Create_InactiveProduct(t *testing.T) {
	products := new(mockProductStore)
	svc := NewOrderService(new(mockOrderStore), products, new(mockEscrowLookup), new(mockCodeMinter), nil, nil, nil)
	ctx := context.Background()

	product := activeProduct(uuid.New(), 50)
	product.IsActive = false
	products.On("GetProduct", ctx, product.ID).Return(product, nil)

	_, _, err := svc.Create(ctx, uuid.New(), checkoutInput(product.ID, 115))
	assert.Error(t, err)
}

func TestOrderService_Get_ForbiddenForStranger(t *testing.T) {
	orders := new(mockOrderStore)
	svc := NewOrderService(orders, new(mockProductStore), new(mockEscrowLookup), new(mockCodeMinter), nil, nil, nil)
	ctx := context.Background()
	orderID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(&models.Order{ID: orderID, BuyerID: uuid.New(), ArtisanID: uuid.New()}, nil)

	_, err := svc.Get(ctx, uuid.New(), models.RoleBuyer, orderID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestOrderService_UpdateStatus_BuyerCanOnlyCancel(t *testing.T) {
	orders := new(mockOrderStore)
	svc := NewOrderService(orders, new(mockProductStore), new(mockEscrowLookup), new(mockCodeMinter), nil, nil, nil)
	ctx := context.Background()
	buyerID := uuid.New()
	orderID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(&models.Order{ID: orderID, BuyerID: buyerID, ArtisanID: uuid.New(), Status: models.OrderStatusConfirmed}, nil)

	_, err := svc.UpdateStatus(ctx, buyerID, models.RoleBuyer, orderID, models.OrderStatusProcessing)
	assert.True(t, apperror.IsForbidden(err))
}

func TestOrderService_Ship_MintsCodes(t *testing.T) {
	orders := new(mockOrderStore)
	minter := new(mockCodeMinter)
	svc := NewOrderService(orders, new(mockProductStore), new(mockEscrowLookup), minter, nil, nil, nil)
	ctx := context.Background()
	artisanID := uuid.New()
	orderID := uuid.New()

	stored := &models.Order{
		ID:        orderID,
		ArtisanID: artisanID,
		Status:    models.OrderStatusProcessing,
		Items:     []models.OrderItem{{ProductID: uuid.New(), Quantity: 2}},
	}
	orders.On("GetByID", ctx, orderID).Return(stored, nil)
	orders.On("MarkShipped", ctx, orderID, "TCS", "TRK-100").
		Return(&models.Order{ID: orderID, ArtisanID: artisanID, Status: models.OrderStatusShipped}, nil)
	minter.On("MintForOrder", ctx, mock.Anything).
		Return([]models.VerificationCode{{Code: "a"}, {Code: "b"}}, nil)

	order, codes, err := svc.Ship(ctx, artisanID, models.RoleArtisan, orderID, "TCS", "TRK-100")
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, order.Status)
	assert.Len(t, codes, 2)
}

func TestOrderService_Ship_RequiresTracking(t *testing.T) {
	orders := new(mockOrderStore)
	svc := NewOrderService(orders, new(mockProductStore), new(mockEscrowLookup), new(mockCodeMinter), nil, nil, nil)
	ctx := context.Background()
	artisanID := uuid.New()
	orderID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(&models.Order{ID: orderID, ArtisanID: artisanID}, nil)

	_, _, err := svc.Ship(ctx, artisanID, models.RoleArtisan, orderID, "TCS", "")
	assert.Error(t, err)
}

type mockPaymentVerifier struct {
	mock.Mock
}

func (m *mockPaymentVerifier) GetIntent(ctx context.Context, id string) (*payments.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func TestOrderService_Create_VerifiesPaymentWithProcessor(t *testing.T) {
	orders := new(mockOrderStore)
	products := new(mockProductStore)
	processor := new(mockPaymentVerifier)
	svc := NewOrderService(orders, products, new(mockEscrowLookup), new(mockCodeMinter), nil, nil, processor)
	ctx := context.Background()

	product := activeProduct(uuid.New(), 50)
	products.On("GetProduct", ctx, product.ID).Return(product, nil)
	processor.On("GetIntent", ctx, "pi_test_123").Return(&payments.Intent{ID: "pi_test_123", Status: "succeeded"}, nil)
	orders.On("Create", ctx, mock.MatchedBy(func(o *models.Order) bool {
		return o.Status == models.OrderStatusConfirmed
	})).Return(&models.Order{ID: uuid.New(), Status: models.OrderStatusConfirmed}, nil)

	_, created, err := svc.Create(ctx, uuid.New(), checkoutInput(product.ID, 115))
	assert.NoError(t, err)
	assert.True(t, created)
	processor.AssertExpectations(t)
}

func TestOrderService_Create_RejectsUncapturedPayment(t *testing.T) {
	orders := new(mockOrderStore)
	products := new(mockProductStore)
	processor := new(mockPaymentVerifier)
	svc := NewOrderService(orders, products, new(mockEscrowLookup), new(mockCodeMinter), nil, nil, processor)
	ctx := context.Background()

	product := activeProduct(uuid.New(), 50)
	products.On("GetProduct", ctx, product.ID).Return(product, nil)
	// The client claims success but the processor still shows the intent open.
	processor.On("GetIntent", ctx, "pi_test_123").Return(&payments.Intent{ID: "pi_test_123", Status: "requires_payment_method"}, nil)

	_, _, err := svc.Create(ctx, uuid.New(), checkoutInput(product.ID, 115))
	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_UpdateStatus_RefundVoidsPendingEscrow(t *testing.T) {
	orders := new(mockOrderStore)
	escrow := new(mockEscrowLookup)
	svc := NewOrderService(orders, new(mockProductStore), escrow, new(mockCodeMinter), nil, nil, nil)
	ctx := context.Background()
	orderID := uuid.New()
	adminID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(&models.Order{ID: orderID, Status: models.OrderStatusDelivered}, nil)
	escrow.On("RefundEscrow", ctx, orderID).Return(&models.EscrowEntry{OrderID: orderID, Status: models.EscrowStatusRefunded}, nil)
	orders.On("UpdateStatus", ctx, orderID, models.OrderStatusRefunded).Return(&models.Order{ID: orderID, Status: models.OrderStatusRefunded}, nil)

	updated, err := svc.UpdateStatus(ctx, adminID, models.RoleAdmin, orderID, models.OrderStatusRefunded)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefunded, updated.Status)
	escrow.AssertExpectations(t)
}

func TestOrderService_UpdateStatus_RefundBlockedByReleasedEscrow(t *testing.T) {
	orders := new(mockOrderStore)
	escrow := new(mockEscrowLookup)
	svc := NewOrderService(orders, new(mockProductStore), escrow, new(mockCodeMinter), nil, nil, nil)
	ctx := context.Background()
	orderID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(&models.Order{ID: orderID, Status: models.OrderStatusDelivered}, nil)
	escrow.On("RefundEscrow", ctx, orderID).Return(nil, repository.ErrEscrowAlreadyReleased)

	_, err := svc.UpdateStatus(ctx, uuid.New(), models.RoleAdmin, orderID, models.OrderStatusRefunded)
	assert.True(t, apperror.IsConflict(err))
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
