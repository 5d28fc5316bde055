package service

import (
	"context"
	"log/slog"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/infra"
	"github.com/footballcurrency/portal/internal/repository"
	"github.com/footballcurrency/portal/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Admin actions on an account.
const (
	ActionBan          = "ban"
	ActionUnban        = "unban"
	ActionResetBalance = "reset_balance"
	ActionPromote      = "promote"
	ActionDelete       = "delete"
)

// AdminService implements the admin player management actions.
type AdminService struct {
	db       DB
	accounts repository.AccountRepository
	stats    repository.StatsRepository
	outbox   repository.OutboxRepository
	sessions session.Store
	logger   *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(
	db DB,
	accounts repository.AccountRepository,
	stats repository.StatsRepository,
	outbox repository.OutboxRepository,
	sessions session.Store,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		db:       db,
		accounts: accounts,
		stats:    stats,
		outbox:   outbox,
		sessions: sessions,
		logger:   logger,
	}
}

// Stats returns the admin panel counters.
func (s *AdminService) Stats(ctx context.Context) (domain.PanelStats, error) {
	st, err := s.stats.PanelStats(ctx, s.db)
	if err != nil {
		return st, domain.ErrInternal("panel stats", err)
	}
	return st, nil
}

// Accounts lists every account in registration order.
func (s *AdminService) Accounts(ctx context.Context) ([]domain.Account, error) {
	accs, err := s.accounts.List(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list accounts", err)
	}
	return accs, nil
}

// Apply runs one admin action against target. Ban, promote and delete
// revoke the target's sessions once the change is committed.
func (s *AdminService) Apply(ctx context.Context, admin *domain.Identity, action string, target uuid.UUID) error {
	var evt domain.EventType
	switch action {
	case ActionBan:
		evt = domain.EventAccountBanned
	case ActionUnban:
		evt = domain.EventAccountUnbanned
	case ActionResetBalance:
		evt = domain.EventBalanceReset
	case ActionPromote:
		evt = domain.EventAccountPromoted
	case ActionDelete:
		evt = domain.EventAccountDeleted
	default:
		return domain.ErrValidation("unknown action: " + action)
	}

	if target == admin.AccountID && (action == ActionBan || action == ActionDelete) {
		return domain.ErrValidation("You cannot " + action + " your own account.")
	}

	err := infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		acc, err := s.accounts.FindByID(ctx, tx, target)
		if err != nil {
			return err
		}
		if acc == nil {
			return domain.ErrNotFound("account", target.String())
		}

		switch action {
		case ActionBan:
			err = s.accounts.SetBanned(ctx, tx, target, true, &admin.AccountID)
		case ActionUnban:
			err = s.accounts.SetBanned(ctx, tx, target, false, nil)
		case ActionResetBalance:
			err = s.accounts.SetBalances(ctx, tx, target, domain.ResetBalances(acc.Balances))
		case ActionPromote:
			err = s.accounts.SetRole(ctx, tx, target, domain.RoleAdmin)
		case ActionDelete:
			err = s.accounts.Delete(ctx, tx, target)
		}
		if err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, domain.NewAccountAdminEvent(evt, target, admin.AccountID))
	})
	if err != nil {
		return asAppError(err, action+" account")
	}

	if action == ActionBan || action == ActionPromote || action == ActionDelete {
		n, err := s.sessions.DeleteByAccount(ctx, target)
		if err != nil {
			// The account change is committed; a stale session still fails
			// the ban and role checks on its next login.
			s.logger.Error("revoke sessions failed", "account_id", target, "error", err)
		} else if n > 0 {
			s.logger.Info("sessions revoked", "account_id", target, "count", n)
		}
	}

	s.logger.Info("admin action", "action", action, "account_id", target, "admin_id", admin.AccountID)
	return nil
}
