package models

import "math"

// Round2 rounds an amount to currency minor-unit precision. Every computed
// amount (commission, payout, fee, net) passes through here so that ledger
// identities hold exactly at two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ArtisanPayoutAmount is the order total minus the platform commission.
func ArtisanPayoutAmount(total, commissionRate float64) float64 {
	return Round2(total * (1 - commissionRate))
}

// WithdrawalFee computes the processing fee for a cashout amount.
func WithdrawalFee(amount, feeRate float64) float64 {
	return Round2(amount * feeRate)
}
