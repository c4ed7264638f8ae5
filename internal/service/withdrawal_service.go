package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
	"github.com/culturekart/marketplace-backend/internal/validation"
)

// WithdrawalStore is the withdrawal persistence the service depends on.
type WithdrawalStore interface {
	Create(ctx context.Context, w *models.Withdrawal) (*models.Withdrawal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByArtisan(ctx context.Context, artisanID uuid.UUID, limit, offset int) ([]models.Withdrawal, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Withdrawal, error)
	Decide(ctx context.Context, id, adminID uuid.UUID, approve bool, adminNotes, rejectionReason *string) (*models.Withdrawal, error)
}

// WithdrawalInput is the artisan's cashout request payload.
type WithdrawalInput struct {
	Amount      float64            `json:"amount" binding:"required,gt=0"`
	BankDetails models.BankDetails `json:"bankDetails" binding:"required"`
	Notes       *string            `json:"notes"`
}

type WithdrawalService struct {
	store    WithdrawalStore
	notifier Notifier

	feeRate       float64
	minWithdrawal float64
}

func NewWithdrawalService(store WithdrawalStore, notifier Notifier, feeRate, minWithdrawal float64) *WithdrawalService {
	return &WithdrawalService{store: store, notifier: notifier, feeRate: feeRate, minWithdrawal: minWithdrawal}
}

// Request creates a pending withdrawal and debits the gross amount from
// the artisan's available balance up front, so two concurrent requests
// cannot both spend the same funds.
func (s *WithdrawalService) Request(ctx context.Context, artisanID uuid.UUID, in *WithdrawalInput) (*models.Withdrawal, error) {
	if err := validation.ValidateAmount(in.Amount); err != nil {
		return nil, err
	}
	if in.Amount < s.minWithdrawal {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("minimum withdrawal amount is %.2f", s.minWithdrawal))
	}
	if err := validation.ValidateBankAccount(in.BankDetails.AccountNumber); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.BankDetails.AccountTitle) == "" || strings.TrimSpace(in.BankDetails.BankName) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "bankDetails requires accountTitle and bankName")
	}

	amount := models.Round2(in.Amount)
	fee := models.WithdrawalFee(amount, s.feeRate)

	w := &models.Withdrawal{
		ArtisanID:         artisanID,
		Amount:            amount,
		ProcessingFee:     fee,
		NetAmount:         models.Round2(amount - fee),
		BankAccountTitle:  strings.TrimSpace(in.BankDetails.AccountTitle),
		BankAccountNumber: in.BankDetails.AccountNumber,
		BankName:          strings.TrimSpace(in.BankDetails.BankName),
		Status:            models.WithdrawalStatusPending,
		ArtisanNotes:      in.Notes,
	}
	if in.BankDetails.BranchCode != "" {
		w.BankBranchCode = &in.BankDetails.BranchCode
	}

	created, err := s.store.Create(ctx, w)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, apperror.New(apperror.ErrCodeConflict, "available balance is lower than the requested amount")
		}
		return nil, err
	}

	created.BuildBankDetails()
	return created, nil
}

func (s *WithdrawalService) Get(ctx context.Context, requesterID uuid.UUID, role string, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrWithdrawalNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "withdrawal not found")
		}
		return nil, err
	}
	if role != models.RoleAdmin && w.ArtisanID != requesterID {
		return nil, apperror.ErrForbidden
	}
	w.BuildBankDetails()
	return w, nil
}

func (s *WithdrawalService) ListForArtisan(ctx context.Context, artisanID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	list, err := s.store.ListByArtisan(ctx, artisanID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].BuildBankDetails()
	}
	return list, nil
}

// ListAll is the admin review queue; empty status means every status.
func (s *WithdrawalService) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Withdrawal, error) {
	if status != "" {
		if _, ok := models.ValidWithdrawalStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "unknown withdrawal status")
		}
	}
	list, err := s.store.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].BuildBankDetails()
	}
	return list, nil
}

// Approve moves a pending withdrawal into the payout queue.
func (s *WithdrawalService) Approve(ctx context.Context, id, adminID uuid.UUID, adminNotes *string) (*models.Withdrawal, error) {
	w, err := s.store.Decide(ctx, id, adminID, true, adminNotes, nil)
	if err != nil {
		return nil, s.mapDecideError(err)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, w.ArtisanID, "withdrawal.approved", w)
	}
	w.BuildBankDetails()
	return w, nil
}

// Reject refuses a pending withdrawal and refunds the held amount. A
// rejection without a reason is not actionable for the artisan, so the
// reason is mandatory.
func (s *WithdrawalService) Reject(ctx context.Context, id, adminID uuid.UUID, reason *string) (*models.Withdrawal, error) {
	if reason == nil || strings.TrimSpace(*reason) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "rejectionReason is required")
	}
	w, err := s.store.Decide(ctx, id, adminID, false, nil, reason)
	if err != nil {
		return nil, s.mapDecideError(err)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, w.ArtisanID, "withdrawal.rejected", w)
	}
	w.BuildBankDetails()
	return w, nil
}

func (s *WithdrawalService) mapDecideError(err error) error {
	switch {
	case errors.Is(err, repository.ErrWithdrawalNotFound):
		return apperror.New(apperror.ErrCodeNotFound, "withdrawal not found")
	case errors.Is(err, repository.ErrWithdrawalDecided):
		return apperror.New(apperror.ErrCodeConflict, "withdrawal was already decided")
	default:
		return err
	}
}
