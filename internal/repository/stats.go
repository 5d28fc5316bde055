package repository

import (
	"context"
	"fmt"

	"github.com/footballcurrency/portal/internal/domain"
)

type statsRepo struct{}

// NewStatsRepository returns a pgx-backed StatsRepository.
func NewStatsRepository() StatsRepository {
	return &statsRepo{}
}

func (r *statsRepo) PanelStats(ctx context.Context, db DBTX) (domain.PanelStats, error) {
	var s domain.PanelStats
	err := db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM accounts WHERE is_banned),
			(SELECT COUNT(*) FROM items),
			(SELECT COUNT(*) FROM shop_requests WHERE status = 'Pending'),
			(SELECT COUNT(*) FROM support_tickets WHERE status <> 'Closed')`,
	).Scan(&s.Accounts, &s.BannedAccounts, &s.Items, &s.PendingRequests, &s.OpenTickets)
	if err != nil {
		return s, fmt.Errorf("panel stats: %w", err)
	}
	return s, nil
}
