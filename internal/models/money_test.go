package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.57, Round2(10.567))
	assert.Equal(t, 10.56, Round2(10.564))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 100.0, Round2(99.999))
	assert.Equal(t, 0.1, Round2(0.1+0.2-0.2))
}

func TestArtisanPayoutAmount(t *testing.T) {
	assert.Equal(t, 90.0, ArtisanPayoutAmount(100, 0.10))
	assert.Equal(t, 103.5, ArtisanPayoutAmount(115, 0.10))
	assert.Equal(t, 0.9, ArtisanPayoutAmount(1, 0.10))
	assert.Equal(t, 100.0, ArtisanPayoutAmount(100, 0))
}

func TestWithdrawalFee(t *testing.T) {
	assert.Equal(t, 2.0, WithdrawalFee(100, 0.02))
	assert.Equal(t, 0.2, WithdrawalFee(10, 0.02))
	assert.Equal(t, 0.67, WithdrawalFee(33.33, 0.02))
}

func TestPayoutAndCommissionSumToTotal(t *testing.T) {
	totals := []float64{1, 9.99, 100, 115.55, 2499.49}
	for _, total := range totals {
		payout := ArtisanPayoutAmount(total, 0.10)
		commission := Round2(total - payout)
		assert.Equal(t, Round2(total), Round2(payout+commission))
	}
}

func TestCanTransitionOrder(t *testing.T) {
	// Forward progression moves one step at a time.
	assert.True(t, CanTransitionOrder(OrderStatusPending, OrderStatusConfirmed))
	assert.True(t, CanTransitionOrder(OrderStatusConfirmed, OrderStatusProcessing))
	assert.True(t, CanTransitionOrder(OrderStatusProcessing, OrderStatusShipped))
	assert.True(t, CanTransitionOrder(OrderStatusShipped, OrderStatusDelivered))

	// No skipping or going backwards.
	assert.False(t, CanTransitionOrder(OrderStatusPending, OrderStatusShipped))
	assert.False(t, CanTransitionOrder(OrderStatusShipped, OrderStatusConfirmed))
	assert.False(t, CanTransitionOrder(OrderStatusConfirmed, OrderStatusConfirmed))

	// Cancel only before shipment.
	assert.True(t, CanTransitionOrder(OrderStatusPending, OrderStatusCancelled))
	assert.True(t, CanTransitionOrder(OrderStatusProcessing, OrderStatusCancelled))
	assert.False(t, CanTransitionOrder(OrderStatusShipped, OrderStatusCancelled))
	assert.False(t, CanTransitionOrder(OrderStatusDelivered, OrderStatusCancelled))

	// Refund only out of cancelled or delivered.
	assert.True(t, CanTransitionOrder(OrderStatusCancelled, OrderStatusRefunded))
	assert.True(t, CanTransitionOrder(OrderStatusDelivered, OrderStatusRefunded))
	assert.False(t, CanTransitionOrder(OrderStatusShipped, OrderStatusRefunded))

	// Terminal states are frozen.
	assert.False(t, CanTransitionOrder(OrderStatusRefunded, OrderStatusPending))
	assert.False(t, CanTransitionOrder(OrderStatusCancelled, OrderStatusConfirmed))

	// Unknown statuses never transition.
	assert.False(t, CanTransitionOrder(OrderStatusPending, "archived"))
}
