package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
	"github.com/culturekart/marketplace-backend/internal/vericode"
)

// A code scanned from three or more distinct devices before anyone confirms
// delivery looks like a photographed or mass-printed label.
const suspiciousDeviceThreshold = 3

// CodeStore is the verification persistence the service depends on.
type CodeStore interface {
	CreateBatch(ctx context.Context, codes []models.VerificationCode) ([]models.VerificationCode, error)
	GetByCode(ctx context.Context, code string) (*models.VerificationCode, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VerificationCode, error)
	ConfirmDelivery(ctx context.Context, code, deviceFingerprint string, commissionRate float64) (*models.VerificationCode, *models.Order, *models.EscrowEntry, error)
	MarkFlagged(ctx context.Context, codeID uuid.UUID) error
	RecordScan(ctx context.Context, codeID uuid.UUID, outcome string, deviceFingerprint, ip *string) error
	ScanHistory(ctx context.Context, codeID uuid.UUID, limit int) ([]models.ScanEvent, error)
	ScanSummary(ctx context.Context, codeID uuid.UUID) (total int, distinctDevices int, first *models.ScanEvent, err error)
	MarkSuspicious(ctx context.Context, codeID uuid.UUID) error
}

// CodeUserStore resolves the artisan name shown on the public page.
type CodeUserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// VerificationResult is the public answer to a code scan. Exactly one of
// four statuses comes back: authentic, delivered, tampered or not_found.
type VerificationResult struct {
	Status         string                   `json:"status"`
	Product        *models.ProductInfo      `json:"product,omitempty"`
	Verification   *models.VerificationInfo `json:"verification,omitempty"`
	Blockchain     *models.BlockchainInfo   `json:"blockchain,omitempty"`
	DeliveryRecord *models.DeliveryRecord   `json:"deliveryRecord,omitempty"`
}

// DeliveryConfirmation is the answer to a successful delivery confirmation.
type DeliveryConfirmation struct {
	Code   *models.VerificationCode `json:"code"`
	Order  *models.Order            `json:"order"`
	Escrow *models.EscrowEntry      `json:"escrow"`
}

type VerificationService struct {
	codes    CodeStore
	products ProductStore
	users    CodeUserStore
	notifier Notifier
	events   Events

	commissionRate float64
	anchorNetwork  string
}

func NewVerificationService(codes CodeStore, products ProductStore, users CodeUserStore, notifier Notifier, events Events, commissionRate float64, anchorNetwork string) *VerificationService {
	return &VerificationService{
		codes:          codes,
		products:       products,
		users:          users,
		notifier:       notifier,
		events:         events,
		commissionRate: commissionRate,
		anchorNetwork:  anchorNetwork,
	}
}

// MintForOrder mints one code per item unit of a shipped order. Codes are
// anchored at mint time so the authenticity digest predates any scan.
func (s *VerificationService) MintForOrder(ctx context.Context, order *models.Order) ([]models.VerificationCode, error) {
	var batch []models.VerificationCode
	now := time.Now().UTC()

	for _, item := range order.Items {
		for i := 0; i < item.Quantity; i++ {
			code, err := vericode.Mint()
			if err != nil {
				return nil, err
			}
			batch = append(batch, models.VerificationCode{
				Code:          code,
				OrderID:       order.ID,
				ProductID:     item.ProductID,
				ArtisanID:     order.ArtisanID,
				Status:        models.CodeStatusUnused,
				AnchorHash:    vericode.AnchorHash(code, order.ID, item.ProductID),
				AnchorNetwork: s.anchorNetwork,
				AnchoredAt:    now,
			})
		}
	}
	if len(batch) == 0 {
		return nil, apperror.New(apperror.ErrCodeConflict, "order has no items to mint codes for")
	}
	return s.codes.CreateBatch(ctx, batch)
}

// Verify answers a public scan without changing the code's state. Every
// scan of a known code is recorded, and repeated pre-delivery scans from
// distinct devices mark the code suspicious.
func (s *VerificationService) Verify(ctx context.Context, code string, deviceFingerprint, ip *string) (*VerificationResult, error) {
	switch err := vericode.Check(code); {
	case errors.Is(err, vericode.ErrMalformed):
		return &VerificationResult{Status: models.ScanOutcomeNotFound}, nil
	case errors.Is(err, vericode.ErrChecksum):
		return &VerificationResult{Status: models.ScanOutcomeTampered}, nil
	}

	vc, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			// Well-formed but never issued. Indistinguishable from counterfeit.
			return &VerificationResult{Status: models.ScanOutcomeNotFound}, nil
		}
		return nil, err
	}

	outcome := models.ScanOutcomeSuccess
	if vc.Status != models.CodeStatusUnused {
		outcome = models.ScanOutcomeAlreadyDelivered
	}
	if err := s.codes.RecordScan(ctx, vc.ID, outcome, deviceFingerprint, ip); err != nil {
		logrus.WithError(err).WithField("code_id", vc.ID).Warn("verification: record scan failed")
	}

	result := &VerificationResult{Status: outcome}
	s.attachPublicInfo(ctx, vc, result)

	if vc.Status == models.CodeStatusUnused {
		s.checkSuspicion(ctx, vc, result)
	} else if vc.DeliveredAt != nil {
		record := &models.DeliveryRecord{DeliveredAt: *vc.DeliveredAt}
		if vc.DeliveredFingerprint != nil {
			record.DeviceFingerprint = *vc.DeliveredFingerprint
		}
		result.DeliveryRecord = record
	}
	return result, nil
}

// NoteScan appends a scan event for a code whose public answer was served
// from cache. Scan history and the suspicion counter stay exact even when
// the response body does not hit storage.
func (s *VerificationService) NoteScan(ctx context.Context, code string, deviceFingerprint, ip *string) {
	if vericode.Check(code) != nil {
		return
	}
	vc, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		return
	}

	outcome := models.ScanOutcomeSuccess
	if vc.Status != models.CodeStatusUnused {
		outcome = models.ScanOutcomeAlreadyDelivered
	}
	if err := s.codes.RecordScan(ctx, vc.ID, outcome, deviceFingerprint, ip); err != nil {
		logrus.WithError(err).WithField("code_id", vc.ID).Warn("verification: record scan failed")
		return
	}
	if vc.Status == models.CodeStatusUnused {
		s.checkSuspicion(ctx, vc, &VerificationResult{})
	}
}

// ConfirmDelivery burns the code: the order becomes delivered, the escrow
// entry is created and the scan is recorded, all in one transaction. A
// second confirmation fails with the original delivery record; coming from
// a different device it also flags the code.
func (s *VerificationService) ConfirmDelivery(ctx context.Context, code, deviceFingerprint string) (*DeliveryConfirmation, error) {
	if deviceFingerprint == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "deviceFingerprint is required")
	}
	switch err := vericode.Check(code); {
	case errors.Is(err, vericode.ErrMalformed):
		return nil, apperror.New(apperror.ErrCodeNotFound, "verification code not found")
	case errors.Is(err, vericode.ErrChecksum):
		return nil, apperror.New(apperror.ErrCodeValidation, "verification code failed its integrity check")
	}

	vc, order, escrow, err := s.codes.ConfirmDelivery(ctx, code, deviceFingerprint, s.commissionRate)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeNotFound):
			return nil, apperror.New(apperror.ErrCodeNotFound, "verification code not found")
		case errors.Is(err, repository.ErrCodeAlreadyUsed):
			s.handleReuse(ctx, vc, deviceFingerprint)
			return nil, apperror.New(apperror.ErrCodeConflict, "delivery was already confirmed for this code")
		case errors.Is(err, repository.ErrOrderNotDeliverable):
			return nil, apperror.New(apperror.ErrCodeConflict, "order is not awaiting delivery")
		default:
			return nil, err
		}
	}

	if err := s.codes.RecordScan(ctx, vc.ID, models.ScanOutcomeDelivered, &deviceFingerprint, nil); err != nil {
		logrus.WithError(err).WithField("code_id", vc.ID).Warn("verification: record scan failed")
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, order.ArtisanID, "order.delivered", order)
		s.notifier.Notify(ctx, order.BuyerID, "order.delivered", order)
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, "order.delivered", order.ID.String(), order)
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"code_id":  vc.ID,
		"amount":   escrow.Amount,
	}).Info("delivery confirmed, escrow created")

	return &DeliveryConfirmation{Code: vc, Order: order, Escrow: escrow}, nil
}

// ListForOrder returns the codes minted for an order. Only the artisan who
// shipped it and admins may see the plain codes.
func (s *VerificationService) ListForOrder(ctx context.Context, requesterID uuid.UUID, role string, order *models.Order) ([]models.VerificationCode, error) {
	if role != models.RoleAdmin && order.ArtisanID != requesterID {
		return nil, apperror.ErrForbidden
	}
	return s.codes.ListByOrder(ctx, order.ID)
}

// ScanHistory returns recent scan events for a code; admin only surface.
func (s *VerificationService) ScanHistory(ctx context.Context, code string, limit int) ([]models.ScanEvent, error) {
	vc, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "verification code not found")
		}
		return nil, err
	}
	return s.codes.ScanHistory(ctx, vc.ID, limit)
}

func (s *VerificationService) handleReuse(ctx context.Context, vc *models.VerificationCode, deviceFingerprint string) {
	if vc == nil {
		return
	}
	if err := s.codes.RecordScan(ctx, vc.ID, models.ScanOutcomeAlreadyDelivered, &deviceFingerprint, nil); err != nil {
		logrus.WithError(err).WithField("code_id", vc.ID).Warn("verification: record scan failed")
	}
	// Same device retrying after a lost response is benign. A confirmation
	// attempt from another device means the code leaked.
	if vc.DeliveredFingerprint != nil && *vc.DeliveredFingerprint != deviceFingerprint {
		if err := s.codes.MarkFlagged(ctx, vc.ID); err != nil {
			logrus.WithError(err).WithField("code_id", vc.ID).Warn("verification: flag code failed")
		}
	}
}

func (s *VerificationService) attachPublicInfo(ctx context.Context, vc *models.VerificationCode, result *VerificationResult) {
	total, _, first, err := s.codes.ScanSummary(ctx, vc.ID)
	if err != nil {
		logrus.WithError(err).WithField("code_id", vc.ID).Warn("verification: scan summary failed")
	}
	info := &models.VerificationInfo{
		IsDelivered:        vc.Status != models.CodeStatusUnused,
		TotalVerifications: total,
		IsSuspicious:       vc.IsSuspicious,
	}
	if first != nil {
		info.FirstVerified = &first.ScannedAt
	}
	result.Verification = info

	result.Blockchain = &models.BlockchainInfo{
		Network:    vc.AnchorNetwork,
		AnchorHash: vc.AnchorHash,
		AnchoredAt: vc.AnchoredAt,
	}

	product, err := s.products.GetProduct(ctx, vc.ProductID)
	if err != nil {
		return
	}
	pi := &models.ProductInfo{
		ProductID: product.ID,
		Title:     product.Title,
		Craft:     product.Craft,
		Region:    product.Region,
	}
	if artisan, err := s.users.GetByID(ctx, vc.ArtisanID); err == nil {
		pi.ArtisanName = artisan.Username
	}
	result.Product = pi
}

func (s *VerificationService) checkSuspicion(ctx context.Context, vc *models.VerificationCode, result *VerificationResult) {
	if vc.IsSuspicious {
		return
	}
	_, distinct, _, err := s.codes.ScanSummary(ctx, vc.ID)
	if err != nil {
		return
	}
	if distinct >= suspiciousDeviceThreshold {
		if err := s.codes.MarkSuspicious(ctx, vc.ID); err != nil {
			logrus.WithError(err).WithField("code_id", vc.ID).Warn("verification: mark suspicious failed")
			return
		}
		if result.Verification != nil {
			result.Verification.IsSuspicious = true
		}
		logrus.WithFields(logrus.Fields{
			"code_id":          vc.ID,
			"distinct_devices": fmt.Sprint(distinct),
		}).Warn("verification code scanned from many devices before delivery")
	}
}
