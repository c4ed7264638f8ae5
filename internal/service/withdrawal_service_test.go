package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
)

type mockWithdrawalStore struct {
	mock.Mock
}

func (m *mockWithdrawalStore) Create(ctx context.Context, w *models.Withdrawal) (*models.Withdrawal, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalStore) ListByArtisan(ctx context.Context, artisanID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	args := m.Called(ctx, artisanID, limit, offset)
	return args.Get(0).([]models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Withdrawal, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalStore) Decide(ctx context.Context, id, adminID uuid.UUID, approve bool, adminNotes, rejectionReason *string) (*models.Withdrawal, error) {
	args := m.Called(ctx, id, adminID, approve, adminNotes, rejectionReason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func validBankDetails() models.BankDetails {
	return models.BankDetails{
		AccountTitle:  "Fatima Bibi",
		AccountNumber: "PK36SCBL0000001123456702",
		BankName:      "Standard Chartered",
	}
}

func TestWithdrawalService_Request_ComputesFee(t *testing.T) {
	store := new(mockWithdrawalStore)
	svc := NewWithdrawalService(store, nil, 0.02, 10)
	ctx := context.Background()
	artisanID := uuid.New()

	store.On("Create", ctx, mock.MatchedBy(func(w *models.Withdrawal) bool {
		return w.Amount == 100 && w.ProcessingFee == 2 && w.NetAmount == 98 &&
			w.Status == models.WithdrawalStatusPending
	})).Return(&models.Withdrawal{ArtisanID: artisanID, Amount: 100, ProcessingFee: 2, NetAmount: 98}, nil)

	w, err := svc.Request(ctx, artisanID, &WithdrawalInput{Amount: 100, BankDetails: validBankDetails()})
	assert.NoError(t, err)
	assert.Equal(t, 98.0, w.NetAmount)
	store.AssertExpectations(t)
}

func TestWithdrawalService_Request_BelowMinimum(t *testing.T) {
	svc := NewWithdrawalService(new(mockWithdrawalStore), nil, 0.02, 10)

	_, err := svc.Request(context.Background(), uuid.New(), &WithdrawalInput{Amount: 5, BankDetails: validBankDetails()})
	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
}

func TestWithdrawalService_Request_MissingBankName(t *testing.T) {
	svc := NewWithdrawalService(new(mockWithdrawalStore), nil, 0.02, 10)

	details := validBankDetails()
	details.BankName = "  "
	_, err := svc.Request(context.Background(), uuid.New(), &WithdrawalInput{Amount: 50, BankDetails: details})
	assert.Error(t, err)
}

func TestWithdrawalService_Request_InsufficientFunds(t *testing.T) {
	store := new(mockWithdrawalStore)
	svc := NewWithdrawalService(store, nil, 0.02, 10)
	ctx := context.Background()

	store.On("Create", ctx, mock.Anything).Return(nil, repository.ErrInsufficientFunds)

	_, err := svc.Request(ctx, uuid.New(), &WithdrawalInput{Amount: 5000, BankDetails: validBankDetails()})
	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestWithdrawalService_Get_ForbiddenForOtherArtisan(t *testing.T) {
	store := new(mockWithdrawalStore)
	svc := NewWithdrawalService(store, nil, 0.02, 10)
	ctx := context.Background()
	id := uuid.New()

	store.On("GetByID", ctx, id).Return(&models.Withdrawal{ID: id, ArtisanID: uuid.New()}, nil)

	_, err := svc.Get(ctx, uuid.New(), models.RoleArtisan, id)
	assert.True(t, apperror.IsForbidden(err))
}

func TestWithdrawalService_Get_AdminSeesAny(t *testing.T) {
	store := new(mockWithdrawalStore)
	svc := NewWithdrawalService(store, nil, 0.02, 10)
	ctx := context.Background()
	id := uuid.New()

	store.On("GetByID", ctx, id).Return(&models.Withdrawal{ID: id, ArtisanID: uuid.New()}, nil)

	w, err := svc.Get(ctx, uuid.New(), models.RoleAdmin, id)
	assert.NoError(t, err)
	assert.Equal(t, id, w.ID)
}

func TestWithdrawalService_Approve(t *testing.T) {
	store := new(mockWithdrawalStore)
	svc := NewWithdrawalService(store, nil, 0.02, 10)
	ctx := context.Background()
	id := uuid.New()
	adminID := uuid.New()
	notes := "verified bank details"

	store.On("Decide", ctx, id, adminID, true, &notes, (*string)(nil)).
		Return(&models.Withdrawal{ID: id, Status: models.WithdrawalStatusApproved}, nil)

	w, err := svc.Approve(ctx, id, adminID, &notes)
	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusApproved, w.Status)
}

func TestWithdrawalService_Approve_AlreadyDecided(t *testing.T) {
	store := new(mockWithdrawalStore)
	svc := NewWithdrawalService(store, nil, 0.02, 10)
	ctx := context.Background()

	store.On("Decide", ctx, mock.Anything, mock.Anything, true, (*string)(nil), (*string)(nil)).
		Return(nil, repository.ErrWithdrawalDecided)

	_, err := svc.Approve(ctx, uuid.New(), uuid.New(), nil)
	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestWithdrawalService_Reject_RequiresReason(t *testing.T) {
	svc := NewWithdrawalService(new(mockWithdrawalStore), nil, 0.02, 10)

	_, err := svc.Reject(context.Background(), uuid.New(), uuid.New(), nil)
	assert.Error(t, err)

	empty := "   "
	_, err = svc.Reject(context.Background(), uuid.New(), uuid.New(), &empty)
	assert.Error(t, err)
}

func TestWithdrawalService_Reject(t *testing.T) {
	store := new(mockWithdrawalStore)
	svc := NewWithdrawalService(store, nil, 0.02, 10)
	ctx := context.Background()
	id := uuid.New()
	adminID := uuid.New()
	reason := "bank account name does not match profile"

	store.On("Decide", ctx, id, adminID, false, (*string)(nil), &reason).
		Return(&models.Withdrawal{ID: id, Status: models.WithdrawalStatusRejected, RejectionReason: &reason}, nil)

	w, err := svc.Reject(ctx, id, adminID, &reason)
	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusRejected, w.Status)
}

func TestWithdrawalService_ListAll_UnknownStatus(t *testing.T) {
	svc := NewWithdrawalService(new(mockWithdrawalStore), nil, 0.02, 10)

	_, err := svc.ListAll(context.Background(), "bogus", 20, 0)
	assert.Error(t, err)
}
