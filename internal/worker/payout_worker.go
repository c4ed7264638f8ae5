// Package worker runs the background payout loop that turns approved
// withdrawals into completed bank transfers.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/culturekart/marketplace-backend/internal/metrics"
	"github.com/culturekart/marketplace-backend/internal/models"
)

const claimBatchSize = 20

// PayoutQueue claims and settles withdrawals. ClaimApproved moves a batch
// of approved withdrawals to processing; concurrent workers never claim
// the same row.
type PayoutQueue interface {
	ClaimApproved(ctx context.Context, limit int) ([]models.Withdrawal, error)
	Complete(ctx context.Context, id uuid.UUID, succeeded bool) (*models.Withdrawal, error)
}

// BankRail executes one transfer. The stub rail used outside production
// always succeeds.
type BankRail interface {
	Transfer(ctx context.Context, w *models.Withdrawal) error
}

// PayoutNotifier mirrors the service-layer notifier without importing it.
type PayoutNotifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, payload interface{})
}

// PayoutEvents mirrors the service-layer event publisher.
type PayoutEvents interface {
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
}

type PayoutWorker struct {
	queue    PayoutQueue
	rail     BankRail
	notifier PayoutNotifier
	events   PayoutEvents
	interval time.Duration
}

func NewPayoutWorker(queue PayoutQueue, rail BankRail, notifier PayoutNotifier, events PayoutEvents, interval time.Duration) *PayoutWorker {
	return &PayoutWorker{queue: queue, rail: rail, notifier: notifier, events: events, interval: interval}
}

// Run processes approved withdrawals until the context ends.
func (w *PayoutWorker) Run(ctx context.Context) {
	logrus.WithField("interval", w.interval).Info("payout worker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("payout worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain keeps claiming until the queue is empty, so a backlog clears in
// one tick instead of one batch per tick.
func (w *PayoutWorker) drain(ctx context.Context) {
	for {
		batch, err := w.queue.ClaimApproved(ctx, claimBatchSize)
		if err != nil {
			logrus.WithError(err).Error("payout worker: claim failed")
			return
		}
		if len(batch) == 0 {
			return
		}
		for i := range batch {
			w.process(ctx, &batch[i])
		}
	}
}

func (w *PayoutWorker) process(ctx context.Context, withdrawal *models.Withdrawal) {
	log := logrus.WithFields(logrus.Fields{
		"withdrawal_id": withdrawal.ID,
		"artisan_id":    withdrawal.ArtisanID,
		"net_amount":    withdrawal.NetAmount,
	})

	transferErr := w.rail.Transfer(ctx, withdrawal)
	succeeded := transferErr == nil
	if transferErr != nil {
		log.WithError(transferErr).Error("payout worker: transfer failed")
	}

	settled, err := w.queue.Complete(ctx, withdrawal.ID, succeeded)
	if err != nil {
		// The row stays in processing; the next deploy or a manual fix
		// picks it up. Never retried automatically to avoid double payout.
		log.WithError(err).Error("payout worker: settle failed")
		return
	}

	if succeeded {
		metrics.WithdrawalsProcessed.WithLabelValues("completed").Inc()
		log.Info("payout completed")
	} else {
		metrics.WithdrawalsProcessed.WithLabelValues("failed").Inc()
		log.Warn("payout failed, amount refunded")
	}

	if w.notifier != nil {
		kind := "withdrawal.completed"
		if !succeeded {
			kind = "withdrawal.failed"
		}
		w.notifier.Notify(ctx, settled.ArtisanID, kind, settled)
	}
	if w.events != nil && succeeded {
		_ = w.events.Publish(ctx, "withdrawal.completed", settled.ID.String(), settled)
	}
}

// StubRail is the development rail: every transfer succeeds after a short
// pause.
type StubRail struct{}

func (StubRail) Transfer(ctx context.Context, w *models.Withdrawal) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}
