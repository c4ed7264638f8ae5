package models

// User roles.
const (
	RoleBuyer   = "buyer"
	RoleArtisan = "artisan"
	RoleAdmin   = "admin"
)

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// ValidOrderStatuses is the set of statuses an order may carry.
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusPending:    {},
	OrderStatusConfirmed:  {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// orderStatusRank orders the forward progression of the lifecycle.
// cancelled and refunded are terminal side exits, not ranked.
var orderStatusRank = map[string]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

// CanTransitionOrder reports whether an order may move from one status to
// another. Progression is monotonic; cancel is allowed before shipment,
// refund only from cancelled or delivered; terminal states never change.
func CanTransitionOrder(from, to string) bool {
	if from == to {
		return false
	}
	switch from {
	case OrderStatusRefunded:
		return false
	case OrderStatusCancelled, OrderStatusDelivered:
		return to == OrderStatusRefunded
	}
	if to == OrderStatusCancelled {
		return orderStatusRank[from] < orderStatusRank[OrderStatusShipped]
	}
	if to == OrderStatusRefunded {
		return from == OrderStatusCancelled
	}
	toRank, ok := orderStatusRank[to]
	if !ok {
		return false
	}
	return toRank == orderStatusRank[from]+1
}

// Escrow statuses.
const (
	EscrowStatusPending  = "pending"
	EscrowStatusReleased = "released"
	EscrowStatusRefunded = "refunded"
)

// Ledger transaction types.
const (
	TransactionTypeEscrowHold       = "escrow_hold"
	TransactionTypeEscrowRelease    = "escrow_release"
	TransactionTypeEscrowRefund     = "escrow_refund"
	TransactionTypeWithdrawal       = "withdrawal"
	TransactionTypeWithdrawalRefund = "withdrawal_refund"
)

// Ledger transaction statuses.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Withdrawal statuses.
const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusApproved   = "approved"
	WithdrawalStatusRejected   = "rejected"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusFailed     = "failed"
)

// ValidWithdrawalStatuses is the set of statuses a withdrawal may carry.
var ValidWithdrawalStatuses = map[string]struct{}{
	WithdrawalStatusPending:    {},
	WithdrawalStatusApproved:   {},
	WithdrawalStatusRejected:   {},
	WithdrawalStatusProcessing: {},
	WithdrawalStatusCompleted:  {},
	WithdrawalStatusFailed:     {},
}

// Verification code statuses.
const (
	CodeStatusUnused    = "unused"
	CodeStatusDelivered = "delivered"
	CodeStatusFlagged   = "flagged"
)

// Verification scan outcomes.
const (
	ScanOutcomeSuccess          = "success"
	ScanOutcomeDelivered        = "delivered"
	ScanOutcomeAlreadyDelivered = "already_delivered"
	ScanOutcomeTampered         = "tampered"
	ScanOutcomeNotFound         = "not_found"
)
