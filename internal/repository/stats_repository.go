package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ArtisanStats feeds the seller dashboard.
type ArtisanStats struct {
	TotalOrders     int     `db:"total_orders" json:"totalOrders"`
	DeliveredOrders int     `db:"delivered_orders" json:"deliveredOrders"`
	TotalRevenue    float64 `db:"total_revenue" json:"totalRevenue"`
	PendingEscrow   float64 `db:"pending_escrow" json:"pendingEscrow"`
	AvailableBalance float64 `db:"available_balance" json:"availableBalance"`
	AverageRating   float64 `db:"average_rating" json:"averageRating"`
	ActiveProducts  int     `db:"active_products" json:"activeProducts"`
}

// PlatformStats feeds the admin dashboard.
type PlatformStats struct {
	TotalUsers        int     `db:"total_users" json:"totalUsers"`
	TotalOrders       int     `db:"total_orders" json:"totalOrders"`
	DeliveredOrders   int     `db:"delivered_orders" json:"deliveredOrders"`
	GrossVolume       float64 `db:"gross_volume" json:"grossVolume"`
	CommissionEarned  float64 `db:"commission_earned" json:"commissionEarned"`
	PendingWithdrawals int    `db:"pending_withdrawals" json:"pendingWithdrawals"`
}

type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) ArtisanStats(ctx context.Context, artisanID uuid.UUID) (*ArtisanStats, error) {
	var stats ArtisanStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM orders WHERE artisan_id = $1)                                            AS total_orders,
			(SELECT COUNT(*) FROM orders WHERE artisan_id = $1 AND status = 'delivered')                   AS delivered_orders,
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE artisan_id = $1 AND status = 'delivered')    AS total_revenue,
			(SELECT COALESCE(SUM(amount), 0) FROM escrow_entries WHERE artisan_id = $1 AND status = 'pending') AS pending_escrow,
			(SELECT COALESCE(available, 0) FROM artisan_balances WHERE user_id = $1)                       AS available_balance,
			(SELECT COALESCE(AVG(r.rating), 0) FROM reviews r JOIN products p ON p.id = r.product_id WHERE p.artisan_id = $1) AS average_rating,
			(SELECT COUNT(*) FROM products WHERE artisan_id = $1 AND is_active = TRUE)                     AS active_products
	`, artisanID)
	if err != nil {
		return nil, fmt.Errorf("stats repository: artisan stats: %w", err)
	}
	return &stats, nil
}

func (r *StatsRepository) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	var stats PlatformStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM users)                                                       AS total_users,
			(SELECT COUNT(*) FROM orders)                                                      AS total_orders,
			(SELECT COUNT(*) FROM orders WHERE status = 'delivered')                           AS delivered_orders,
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status NOT IN ('cancelled', 'refunded')) AS gross_volume,
			(SELECT COALESCE(SUM(commission), 0) FROM escrow_entries)                          AS commission_earned,
			(SELECT COUNT(*) FROM withdrawals WHERE status = 'pending')                        AS pending_withdrawals
	`)
	if err != nil {
		return nil, fmt.Errorf("stats repository: platform stats: %w", err)
	}
	return &stats, nil
}
