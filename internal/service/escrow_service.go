package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
)

// EscrowAdminStore is the payment persistence the escrow admin flows need.
type EscrowAdminStore interface {
	ReleaseEscrow(ctx context.Context, orderID, adminID uuid.UUID, notes *string) (*models.EscrowEntry, error)
	GetEscrowByOrderID(ctx context.Context, orderID uuid.UUID) (*models.EscrowEntry, error)
	ListEscrowByStatus(ctx context.Context, status string, limit, offset int) ([]models.EscrowEntry, int, error)
	EscrowStats(ctx context.Context) (*models.EscrowStats, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (*models.ArtisanBalance, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// Notifier delivers in-app notifications. Optional dependency.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, payload interface{})
}

type EscrowService struct {
	store    EscrowAdminStore
	notifier Notifier
	events   Events
}

func NewEscrowService(store EscrowAdminStore, notifier Notifier, events Events) *EscrowService {
	return &EscrowService{store: store, notifier: notifier, events: events}
}

// Release moves a pending escrow entry into the artisan's available
// balance. Releasing twice is a conflict, not a no-op: the second admin
// should know the money already moved.
func (s *EscrowService) Release(ctx context.Context, orderID, adminID uuid.UUID, notes *string) (*models.EscrowEntry, error) {
	entry, err := s.store.ReleaseEscrow(ctx, orderID, adminID, notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEscrowNotFound):
			return nil, apperror.New(apperror.ErrCodeNotFound, "no escrow entry for this order")
		case errors.Is(err, repository.ErrEscrowAlreadyReleased):
			return nil, apperror.New(apperror.ErrCodeConflict, "escrow for this order was already released")
		default:
			return nil, err
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, entry.ArtisanID, "escrow.released", entry)
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, "escrow.released", entry.OrderID.String(), entry)
	}
	return entry, nil
}

// BulkRelease releases each order independently: one bad order id does not
// roll back the rest. The result names every failure with its reason.
func (s *EscrowService) BulkRelease(ctx context.Context, orderIDs []uuid.UUID, adminID uuid.UUID, notes *string) (*models.BulkReleaseResult, error) {
	if len(orderIDs) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "orderIds must not be empty")
	}

	result := &models.BulkReleaseResult{
		Successful: make([]uuid.UUID, 0, len(orderIDs)),
		Failed:     make([]models.BulkReleaseFailure, 0),
	}

	seen := make(map[uuid.UUID]struct{}, len(orderIDs))
	for _, orderID := range orderIDs {
		if _, dup := seen[orderID]; dup {
			continue
		}
		seen[orderID] = struct{}{}

		if _, err := s.Release(ctx, orderID, adminID, notes); err != nil {
			reason := "release failed"
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				reason = appErr.Message
			}
			result.Failed = append(result.Failed, models.BulkReleaseFailure{OrderID: orderID, Reason: reason})
			continue
		}
		result.Successful = append(result.Successful, orderID)
	}
	return result, nil
}

func (s *EscrowService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.EscrowEntry, error) {
	entry, err := s.store.GetEscrowByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrEscrowNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "no escrow entry for this order")
		}
		return nil, err
	}
	return entry, nil
}

func (s *EscrowService) List(ctx context.Context, status string, limit, offset int) ([]models.EscrowEntry, int, error) {
	if status != "" {
		if status != models.EscrowStatusPending && status != models.EscrowStatusReleased && status != models.EscrowStatusRefunded {
			return nil, 0, apperror.New(apperror.ErrCodeValidation, "unknown escrow status")
		}
	}
	return s.store.ListEscrowByStatus(ctx, status, limit, offset)
}

func (s *EscrowService) Stats(ctx context.Context) (*models.EscrowStats, error) {
	return s.store.EscrowStats(ctx)
}

// Balance returns the artisan's balance row, creating a zero row on first
// read.
func (s *EscrowService) Balance(ctx context.Context, artisanID uuid.UUID) (*models.ArtisanBalance, error) {
	return s.store.GetBalance(ctx, artisanID)
}

func (s *EscrowService) Transactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, limit, offset)
}
