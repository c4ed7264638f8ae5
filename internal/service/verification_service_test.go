package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
	"github.com/culturekart/marketplace-backend/internal/vericode"
)

type mockCodeStore struct {
	mock.Mock
}

func (m *mockCodeStore) CreateBatch(ctx context.Context, codes []models.VerificationCode) ([]models.VerificationCode, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VerificationCode), args.Error(1)
}

func (m *mockCodeStore) GetByCode(ctx context.Context, code string) (*models.VerificationCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationCode), args.Error(1)
}

func (m *mockCodeStore) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VerificationCode, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.VerificationCode), args.Error(1)
}

func (m *mockCodeStore) ConfirmDelivery(ctx context.Context, code, deviceFingerprint string, commissionRate float64) (*models.VerificationCode, *models.Order, *models.EscrowEntry, error) {
	args := m.Called(ctx, code, deviceFingerprint, commissionRate)
	var (
		vc     *models.VerificationCode
		order  *models.Order
		escrow *models.EscrowEntry
	)
	if args.Get(0) != nil {
		vc = args.Get(0).(*models.VerificationCode)
	}
	if args.Get(1) != nil {
		order = args.Get(1).(*models.Order)
	}
	if args.Get(2) != nil {
		escrow = args.Get(2).(*models.EscrowEntry)
	}
	return vc, order, escrow, args.Error(3)
}

func (m *mockCodeStore) MarkFlagged(ctx context.Context, codeID uuid.UUID) error {
	return m.Called(ctx, codeID).Error(0)
}

func (m *mockCodeStore) RecordScan(ctx context.Context, codeID uuid.UUID, outcome string, deviceFingerprint, ip *string) error {
	return m.Called(ctx, codeID, outcome, deviceFingerprint, ip).Error(0)
}

func (m *mockCodeStore) ScanHistory(ctx context.Context, codeID uuid.UUID, limit int) ([]models.ScanEvent, error) {
	args := m.Called(ctx, codeID, limit)
	return args.Get(0).([]models.ScanEvent), args.Error(1)
}

func (m *mockCodeStore) ScanSummary(ctx context.Context, codeID uuid.UUID) (int, int, *models.ScanEvent, error) {
	args := m.Called(ctx, codeID)
	var first *models.ScanEvent
	if args.Get(2) != nil {
		first = args.Get(2).(*models.ScanEvent)
	}
	return args.Int(0), args.Int(1), first, args.Error(3)
}

func (m *mockCodeStore) MarkSuspicious(ctx context.Context, codeID uuid.UUID) error {
	return m.Called(ctx, codeID).Error(0)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newVerificationService(codes *mockCodeStore, products *mockProductStore, users *mockUserStore) *VerificationService {
	return NewVerificationService(codes, products, users, nil, nil, 0.10, "polygon")
}

func mintedCode(t *testing.T) string {
	t.Helper()
	code, err := vericode.Mint()
	assert.NoError(t, err)
	return code
}

func TestVerificationService_MintForOrder_OneCodePerUnit(t *testing.T) {
	codes := new(mockCodeStore)
	svc := newVerificationService(codes, new(mockProductStore), new(mockUserStore))
	ctx := context.Background()

	order := &models.Order{
		ID:        uuid.New(),
		ArtisanID: uuid.New(),
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Quantity: 2},
			{ProductID: uuid.New(), Quantity: 1},
		},
	}

	codes.On("CreateBatch", ctx, mock.MatchedBy(func(batch []models.VerificationCode) bool {
		if len(batch) != 3 {
			return false
		}
		for _, vc := range batch {
			if vc.OrderID != order.ID || vc.AnchorHash == "" || vc.AnchorNetwork != "polygon" {
				return false
			}
			if vericode.Check(vc.Code) != nil {
				return false
			}
		}
		return true
	})).Return([]models.VerificationCode{{}, {}, {}}, nil)

	minted, err := svc.MintForOrder(ctx, order)
	assert.NoError(t, err)
	assert.Len(t, minted, 3)
	codes.AssertExpectations(t)
}

func TestVerificationService_MintForOrder_EmptyOrder(t *testing.T) {
	svc := newVerificationService(new(mockCodeStore), new(mockProductStore), new(mockUserStore))

	_, err := svc.MintForOrder(context.Background(), &models.Order{ID: uuid.New()})
	assert.Error(t, err)
}

func TestVerificationService_Verify_Malformed(t *testing.T) {
	svc := newVerificationService(new(mockCodeStore), new(mockProductStore), new(mockUserStore))

	result, err := svc.Verify(context.Background(), "not base58 0OIl", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeNotFound, result.Status)
}

func TestVerificationService_Verify_Tampered(t *testing.T) {
	svc := newVerificationService(new(mockCodeStore), new(mockProductStore), new(mockUserStore))

	code := mintedCode(t)
	flipped := code[:len(code)-1]
	if code[len(code)-1] == '2' {
		flipped += "3"
	} else {
		flipped += "2"
	}

	result, err := svc.Verify(context.Background(), flipped, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeTampered, result.Status)
}

func TestVerificationService_Verify_UnknownCode(t *testing.T) {
	codes := new(mockCodeStore)
	svc := newVerificationService(codes, new(mockProductStore), new(mockUserStore))
	ctx := context.Background()
	code := mintedCode(t)

	codes.On("GetByCode", ctx, code).Return(nil, repository.ErrCodeNotFound)

	result, err := svc.Verify(ctx, code, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeNotFound, result.Status)
}

func TestVerificationService_Verify_Authentic(t *testing.T) {
	codes := new(mockCodeStore)
	products := new(mockProductStore)
	users := new(mockUserStore)
	svc := newVerificationService(codes, products, users)
	ctx := context.Background()
	code := mintedCode(t)

	craft := "blue pottery"
	region := "Multan"
	vc := &models.VerificationCode{
		ID:            uuid.New(),
		Code:          code,
		ProductID:     uuid.New(),
		ArtisanID:     uuid.New(),
		Status:        models.CodeStatusUnused,
		AnchorHash:    "abc123",
		AnchorNetwork: "polygon",
		AnchoredAt:    time.Now().UTC(),
	}

	codes.On("GetByCode", ctx, code).Return(vc, nil)
	codes.On("RecordScan", ctx, vc.ID, models.ScanOutcomeSuccess, (*string)(nil), (*string)(nil)).Return(nil)
	codes.On("ScanSummary", ctx, vc.ID).Return(1, 1, nil, nil)
	products.On("GetProduct", ctx, vc.ProductID).Return(&models.Product{
		ID: vc.ProductID, Title: "Blue Pottery Vase", Craft: &craft, Region: &region,
	}, nil)
	users.On("GetByID", ctx, vc.ArtisanID).Return(&models.User{ID: vc.ArtisanID, Username: "fatima"}, nil)

	result, err := svc.Verify(ctx, code, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeSuccess, result.Status)
	assert.Equal(t, "fatima", result.Product.ArtisanName)
	assert.Equal(t, "abc123", result.Blockchain.AnchorHash)
	assert.False(t, result.Verification.IsDelivered)
	assert.Nil(t, result.DeliveryRecord)
}

func TestVerificationService_Verify_AlreadyDelivered(t *testing.T) {
	codes := new(mockCodeStore)
	products := new(mockProductStore)
	svc := newVerificationService(codes, products, new(mockUserStore))
	ctx := context.Background()
	code := mintedCode(t)

	deliveredAt := time.Now().UTC().Add(-time.Hour)
	fingerprint := "device-1"
	vc := &models.VerificationCode{
		ID:                   uuid.New(),
		Code:                 code,
		ProductID:            uuid.New(),
		ArtisanID:            uuid.New(),
		Status:               models.CodeStatusDelivered,
		DeliveredAt:          &deliveredAt,
		DeliveredFingerprint: &fingerprint,
	}

	codes.On("GetByCode", ctx, code).Return(vc, nil)
	codes.On("RecordScan", ctx, vc.ID, models.ScanOutcomeAlreadyDelivered, (*string)(nil), (*string)(nil)).Return(nil)
	codes.On("ScanSummary", ctx, vc.ID).Return(4, 2, nil, nil)
	products.On("GetProduct", ctx, vc.ProductID).Return(nil, repository.ErrProductNotFound)

	result, err := svc.Verify(ctx, code, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeAlreadyDelivered, result.Status)
	assert.NotNil(t, result.DeliveryRecord)
	assert.Equal(t, "device-1", result.DeliveryRecord.DeviceFingerprint)
}

func TestVerificationService_Verify_MarksSuspiciousAfterThreshold(t *testing.T) {
	codes := new(mockCodeStore)
	products := new(mockProductStore)
	svc := newVerificationService(codes, products, new(mockUserStore))
	ctx := context.Background()
	code := mintedCode(t)
	device := "device-3"

	vc := &models.VerificationCode{ID: uuid.New(), Code: code, ProductID: uuid.New(), Status: models.CodeStatusUnused}

	codes.On("GetByCode", ctx, code).Return(vc, nil)
	codes.On("RecordScan", ctx, vc.ID, models.ScanOutcomeSuccess, &device, (*string)(nil)).Return(nil)
	codes.On("ScanSummary", ctx, vc.ID).Return(5, 3, nil, nil)
	codes.On("MarkSuspicious", ctx, vc.ID).Return(nil)
	products.On("GetProduct", ctx, vc.ProductID).Return(nil, repository.ErrProductNotFound)

	result, err := svc.Verify(ctx, code, &device, nil)
	assert.NoError(t, err)
	assert.True(t, result.Verification.IsSuspicious)
	codes.AssertExpectations(t)
}

func TestVerificationService_ConfirmDelivery(t *testing.T) {
	codes := new(mockCodeStore)
	svc := newVerificationService(codes, new(mockProductStore), new(mockUserStore))
	ctx := context.Background()
	code := mintedCode(t)
	device := "device-1"

	vc := &models.VerificationCode{ID: uuid.New(), Code: code, Status: models.CodeStatusDelivered}
	order := &models.Order{ID: uuid.New(), BuyerID: uuid.New(), ArtisanID: uuid.New(), Status: models.OrderStatusDelivered}
	escrow := &models.EscrowEntry{OrderID: order.ID, Amount: 90, Commission: 10, Status: models.EscrowStatusPending}

	codes.On("ConfirmDelivery", ctx, code, device, 0.10).Return(vc, order, escrow, nil)
	codes.On("RecordScan", ctx, vc.ID, models.ScanOutcomeDelivered, &device, (*string)(nil)).Return(nil)

	confirmation, err := svc.ConfirmDelivery(ctx, code, device)
	assert.NoError(t, err)
	assert.Equal(t, order.ID, confirmation.Order.ID)
	assert.Equal(t, 90.0, confirmation.Escrow.Amount)
}

func TestVerificationService_ConfirmDelivery_RequiresFingerprint(t *testing.T) {
	svc := newVerificationService(new(mockCodeStore), new(mockProductStore), new(mockUserStore))

	_, err := svc.ConfirmDelivery(context.Background(), mintedCode(t), "")
	assert.Error(t, err)
}

func TestVerificationService_ConfirmDelivery_ReuseFromSameDevice(t *testing.T) {
	codes := new(mockCodeStore)
	svc := newVerificationService(codes, new(mockProductStore), new(mockUserStore))
	ctx := context.Background()
	code := mintedCode(t)
	device := "device-1"

	vc := &models.VerificationCode{ID: uuid.New(), Code: code, Status: models.CodeStatusDelivered, DeliveredFingerprint: &device}

	codes.On("ConfirmDelivery", ctx, code, device, 0.10).Return(vc, nil, nil, repository.ErrCodeAlreadyUsed)
	codes.On("RecordScan", ctx, vc.ID, models.ScanOutcomeAlreadyDelivered, &device, (*string)(nil)).Return(nil)

	_, err := svc.ConfirmDelivery(ctx, code, device)
	assert.True(t, apperror.IsConflict(err))
	codes.AssertNotCalled(t, "MarkFlagged", mock.Anything, mock.Anything)
}

func TestVerificationService_ConfirmDelivery_ReuseFromOtherDeviceFlagsCode(t *testing.T) {
	codes := new(mockCodeStore)
	svc := newVerificationService(codes, new(mockProductStore), new(mockUserStore))
	ctx := context.Background()
	code := mintedCode(t)
	original := "device-1"
	other := "device-2"

	vc := &models.VerificationCode{ID: uuid.New(), Code: code, Status: models.CodeStatusDelivered, DeliveredFingerprint: &original}

	codes.On("ConfirmDelivery", ctx, code, other, 0.10).Return(vc, nil, nil, repository.ErrCodeAlreadyUsed)
	codes.On("RecordScan", ctx, vc.ID, models.ScanOutcomeAlreadyDelivered, &other, (*string)(nil)).Return(nil)
	codes.On("MarkFlagged", ctx, vc.ID).Return(nil)

	_, err := svc.ConfirmDelivery(ctx, code, other)
	assert.True(t, apperror.IsConflict(err))
	codes.AssertExpectations(t)
}

func TestVerificationService_ConfirmDelivery_OrderNotDeliverable(t *testing.T) {
	codes := new(mockCodeStore)
	svc := newVerificationService(codes, new(mockProductStore), new(mockUserStore))
	ctx := context.Background()
	code := mintedCode(t)

	codes.On("ConfirmDelivery", ctx, code, "device-1", 0.10).Return(nil, nil, nil, repository.ErrOrderNotDeliverable)

	_, err := svc.ConfirmDelivery(ctx, code, "device-1")
	assert.True(t, apperror.IsConflict(err))
}

func TestVerificationService_ListForOrder_ArtisanOnly(t *testing.T) {
	svc := newVerificationService(new(mockCodeStore), new(mockProductStore), new(mockUserStore))

	order := &models.Order{ID: uuid.New(), ArtisanID: uuid.New()}
	_, err := svc.ListForOrder(context.Background(), uuid.New(), models.RoleArtisan, order)
	assert.True(t, apperror.IsForbidden(err))
}

func TestVerificationService_ScanHistory_UnknownCode(t *testing.T) {
	codes := new(mockCodeStore)
	svc := newVerificationService(codes, new(mockProductStore), new(mockUserStore))
	ctx := context.Background()
	code := mintedCode(t)

	codes.On("GetByCode", ctx, code).Return(nil, repository.ErrCodeNotFound)

	_, err := svc.ScanHistory(ctx, code, 50)
	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeNotFound, appErr.Code)
}

// memoryCodeStore keeps minted codes in memory with the same status
// transitions the SQL store performs, so a full mint, verify, confirm,
// re-verify walk can run against real state instead of expectations.
type memoryCodeStore struct {
	order *models.Order
	codes map[string]*models.VerificationCode
	scans map[uuid.UUID][]models.ScanEvent
}

func newMemoryCodeStore(order *models.Order) *memoryCodeStore {
	return &memoryCodeStore{
		order: order,
		codes: make(map[string]*models.VerificationCode),
		scans: make(map[uuid.UUID][]models.ScanEvent),
	}
}

func (s *memoryCodeStore) CreateBatch(_ context.Context, codes []models.VerificationCode) ([]models.VerificationCode, error) {
	out := make([]models.VerificationCode, 0, len(codes))
	for _, c := range codes {
		stored := c
		stored.ID = uuid.New()
		s.codes[c.Code] = &stored
		out = append(out, stored)
	}
	return out, nil
}

func (s *memoryCodeStore) GetByCode(_ context.Context, code string) (*models.VerificationCode, error) {
	vc, ok := s.codes[code]
	if !ok {
		return nil, repository.ErrCodeNotFound
	}
	copied := *vc
	return &copied, nil
}

func (s *memoryCodeStore) ListByOrder(_ context.Context, orderID uuid.UUID) ([]models.VerificationCode, error) {
	var out []models.VerificationCode
	for _, vc := range s.codes {
		if vc.OrderID == orderID {
			out = append(out, *vc)
		}
	}
	return out, nil
}

func (s *memoryCodeStore) ConfirmDelivery(_ context.Context, code, deviceFingerprint string, commissionRate float64) (*models.VerificationCode, *models.Order, *models.EscrowEntry, error) {
	vc, ok := s.codes[code]
	if !ok {
		return nil, nil, nil, repository.ErrCodeNotFound
	}
	if vc.Status != models.CodeStatusUnused {
		copied := *vc
		return &copied, nil, nil, repository.ErrCodeAlreadyUsed
	}
	if !models.CanTransitionOrder(s.order.Status, models.OrderStatusDelivered) {
		return nil, nil, nil, repository.ErrOrderNotDeliverable
	}

	now := time.Now().UTC()
	vc.Status = models.CodeStatusDelivered
	vc.DeliveredAt = &now
	vc.DeliveredFingerprint = &deviceFingerprint
	s.order.Status = models.OrderStatusDelivered

	payout := models.ArtisanPayoutAmount(s.order.Total, commissionRate)
	escrow := &models.EscrowEntry{
		ID:         uuid.New(),
		OrderID:    s.order.ID,
		ArtisanID:  s.order.ArtisanID,
		Amount:     payout,
		Commission: models.Round2(s.order.Total - payout),
		Status:     models.EscrowStatusPending,
		CreatedAt:  now,
	}
	copied := *vc
	return &copied, s.order, escrow, nil
}

func (s *memoryCodeStore) MarkFlagged(_ context.Context, codeID uuid.UUID) error {
	for _, vc := range s.codes {
		if vc.ID == codeID {
			vc.Status = models.CodeStatusFlagged
		}
	}
	return nil
}

func (s *memoryCodeStore) RecordScan(_ context.Context, codeID uuid.UUID, outcome string, deviceFingerprint, ip *string) error {
	s.scans[codeID] = append(s.scans[codeID], models.ScanEvent{
		ID:                uuid.New(),
		CodeID:            codeID,
		Outcome:           outcome,
		DeviceFingerprint: deviceFingerprint,
		IPAddress:         ip,
		ScannedAt:         time.Now().UTC(),
	})
	return nil
}

func (s *memoryCodeStore) ScanHistory(_ context.Context, codeID uuid.UUID, limit int) ([]models.ScanEvent, error) {
	events := s.scans[codeID]
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (s *memoryCodeStore) ScanSummary(_ context.Context, codeID uuid.UUID) (int, int, *models.ScanEvent, error) {
	events := s.scans[codeID]
	devices := make(map[string]struct{})
	for _, e := range events {
		if e.DeviceFingerprint != nil {
			devices[*e.DeviceFingerprint] = struct{}{}
		}
	}
	var first *models.ScanEvent
	if len(events) > 0 {
		first = &events[0]
	}
	return len(events), len(devices), first, nil
}

func (s *memoryCodeStore) MarkSuspicious(_ context.Context, codeID uuid.UUID) error {
	for _, vc := range s.codes {
		if vc.ID == codeID {
			vc.IsSuspicious = true
		}
	}
	return nil
}

// A freshly minted code must scan as authentic and confirm delivery exactly
// once; only after that do scans report the delivery record.
func TestVerificationService_MintVerifyConfirmLifecycle(t *testing.T) {
	order := &models.Order{
		ID:        uuid.New(),
		BuyerID:   uuid.New(),
		ArtisanID: uuid.New(),
		Status:    models.OrderStatusShipped,
		Total:     100,
		Items:     []models.OrderItem{{ProductID: uuid.New(), Quantity: 1}},
	}
	store := newMemoryCodeStore(order)
	products := new(mockProductStore)
	users := new(mockUserStore)
	products.On("GetProduct", mock.Anything, order.Items[0].ProductID).
		Return(&models.Product{ID: order.Items[0].ProductID, Title: "Ajrak shawl"}, nil)
	users.On("GetByID", mock.Anything, order.ArtisanID).
		Return(&models.User{ID: order.ArtisanID, Username: "fatima"}, nil)

	svc := NewVerificationService(store, products, users, nil, nil, 0.10, "polygon")
	ctx := context.Background()
	device := "device-1"

	minted, err := svc.MintForOrder(ctx, order)
	assert.NoError(t, err)
	assert.Len(t, minted, 1)
	assert.Equal(t, models.CodeStatusUnused, minted[0].Status)

	pre, err := svc.Verify(ctx, minted[0].Code, &device, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeSuccess, pre.Status)
	assert.Nil(t, pre.DeliveryRecord)

	confirmed, err := svc.ConfirmDelivery(ctx, minted[0].Code, device)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, confirmed.Order.Status)
	assert.Equal(t, 90.0, confirmed.Escrow.Amount)

	post, err := svc.Verify(ctx, minted[0].Code, &device, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeAlreadyDelivered, post.Status)
	assert.NotNil(t, post.DeliveryRecord)
	assert.Equal(t, device, post.DeliveryRecord.DeviceFingerprint)

	_, err = svc.ConfirmDelivery(ctx, minted[0].Code, device)
	assert.True(t, apperror.IsConflict(err))
}

func TestVerificationService_NoteScan_CountsTowardSuspicion(t *testing.T) {
	codes := new(mockCodeStore)
	svc := newVerificationService(codes, new(mockProductStore), new(mockUserStore))
	ctx := context.Background()
	code := mintedCode(t)
	device := "device-3"

	vc := &models.VerificationCode{ID: uuid.New(), Status: models.CodeStatusUnused}
	codes.On("GetByCode", ctx, code).Return(vc, nil)
	codes.On("RecordScan", ctx, vc.ID, models.ScanOutcomeSuccess, &device, (*string)(nil)).Return(nil)
	codes.On("ScanSummary", ctx, vc.ID).Return(3, 3, nil, nil)
	codes.On("MarkSuspicious", ctx, vc.ID).Return(nil)

	svc.NoteScan(ctx, code, &device, nil)

	codes.AssertExpectations(t)
}

func TestVerificationService_NoteScan_DeliveredCodeRecordsReuse(t *testing.T) {
	codes := new(mockCodeStore)
	svc := newVerificationService(codes, new(mockProductStore), new(mockUserStore))
	ctx := context.Background()
	code := mintedCode(t)
	device := "device-1"

	vc := &models.VerificationCode{ID: uuid.New(), Status: models.CodeStatusDelivered}
	codes.On("GetByCode", ctx, code).Return(vc, nil)
	codes.On("RecordScan", ctx, vc.ID, models.ScanOutcomeAlreadyDelivered, &device, (*string)(nil)).Return(nil)

	svc.NoteScan(ctx, code, &device, nil)

	codes.AssertExpectations(t)
	codes.AssertNotCalled(t, "ScanSummary", mock.Anything, mock.Anything)
}

func TestVerificationService_NoteScan_MalformedCodeIsIgnored(t *testing.T) {
	codes := new(mockCodeStore)
	svc := newVerificationService(codes, new(mockProductStore), new(mockUserStore))

	svc.NoteScan(context.Background(), "0OIl", nil, nil)

	codes.AssertNotCalled(t, "GetByCode", mock.Anything, mock.Anything)
}
