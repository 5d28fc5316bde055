package repository

import (
	"context"
	"time"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// AccountRepository provides access to accounts.
type AccountRepository interface {
	// Create inserts a new account. Returns a CONFLICT AppError if the
	// username is taken.
	Create(ctx context.Context, db DBTX, acc *domain.Account) error

	// FindByID returns an account, or nil if it does not exist.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Account, error)

	// FindByUsername returns an account by case-insensitive username, or nil.
	FindByUsername(ctx context.Context, db DBTX, username string) (*domain.Account, error)

	// List returns every account ordered by registration.
	List(ctx context.Context, db DBTX) ([]domain.Account, error)

	// ListSummaries returns id/username/ban status for every account except exclude.
	ListSummaries(ctx context.Context, db DBTX, exclude uuid.UUID) ([]domain.AccountSummary, error)

	// Leaderboard returns accounts by balance descending, ties in registration order.
	Leaderboard(ctx context.Context, db DBTX) ([]domain.LeaderboardEntry, error)

	// Debit subtracts amount from field only if the result stays non-negative.
	// Returns INSUFFICIENT_BALANCE when the floor check fails.
	Debit(ctx context.Context, db DBTX, id uuid.UUID, field domain.BalanceField, amount int64) (*domain.Balances, error)

	// Credit adds amount to field.
	Credit(ctx context.Context, db DBTX, id uuid.UUID, field domain.BalanceField, amount int64) error

	// SetBanned toggles the ban flag and records who banned the account.
	SetBanned(ctx context.Context, db DBTX, id uuid.UUID, banned bool, by *uuid.UUID) error

	// SetBalances overwrites every balance column.
	SetBalances(ctx context.Context, db DBTX, id uuid.UUID, b domain.Balances) error

	// SetRole changes the account role.
	SetRole(ctx context.Context, db DBTX, id uuid.UUID, role domain.Role) error

	// SetProfilePic replaces the profile image reference.
	SetProfilePic(ctx context.Context, db DBTX, id uuid.UUID, pic string) error

	// Delete removes the account; dependent rows cascade.
	Delete(ctx context.Context, db DBTX, id uuid.UUID) error
}

// ItemRepository provides access to the shop catalog.
type ItemRepository interface {
	Create(ctx context.Context, db DBTX, item *domain.Item) error
	Update(ctx context.Context, db DBTX, item *domain.Item) error
	// Upsert inserts or updates by name, reporting whether a row was inserted.
	Upsert(ctx context.Context, db DBTX, item *domain.Item) (bool, error)
	Delete(ctx context.Context, db DBTX, id uuid.UUID) error
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Item, error)
	List(ctx context.Context, db DBTX) ([]domain.Item, error)
}

// ShopRequestRepository provides access to shop_requests.
type ShopRequestRepository interface {
	Create(ctx context.Context, db DBTX, req *domain.ShopRequest) error
	// LockForUpdate returns the request with a row lock, or nil.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.ShopRequest, error)
	SetStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.RequestStatus, by uuid.UUID) error
	ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) ([]domain.ShopRequest, error)
	ListAll(ctx context.Context, db DBTX) ([]domain.ShopRequest, error)
}

// MessageRepository provides access to chat messages.
type MessageRepository interface {
	Create(ctx context.Context, db DBTX, msg *domain.Message) error
	// ListAll returns every message newest first, ties in insertion order.
	ListAll(ctx context.Context, db DBTX) ([]domain.Message, error)
}

// NoticeRepository provides access to notices.
type NoticeRepository interface {
	Create(ctx context.Context, db DBTX, n *domain.Notice) error
	// ListAll returns every notice newest first, ties in insertion order.
	ListAll(ctx context.Context, db DBTX) ([]domain.Notice, error)
}

// SupportRepository provides access to support tickets.
type SupportRepository interface {
	Create(ctx context.Context, db DBTX, t *domain.SupportTicket) error
	SetStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.TicketStatus) error
	ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) ([]domain.SupportTicket, error)
	ListAll(ctx context.Context, db DBTX) ([]domain.SupportTicket, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the change).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events in insertion order.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxRow, error)

	// MarkPublished stamps published_at on the given rows.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error

	// PurgePublished deletes rows published before the cutoff.
	PurgePublished(ctx context.Context, db DBTX, before time.Time) (int64, error)
}

// StatsRepository computes admin panel counters.
type StatsRepository interface {
	PanelStats(ctx context.Context, db DBTX) (domain.PanelStats, error)
}
