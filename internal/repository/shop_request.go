package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type shopRequestRepo struct{}

// NewShopRequestRepository returns a pgx-backed ShopRequestRepository.
func NewShopRequestRepository() ShopRequestRepository {
	return &shopRequestRepo{}
}

const shopRequestSelect = `
	SELECT r.id, r.account_id, a.username, r.item_id, r.name, r.price, r.currency,
	       r.status, r.verified_by, r.created_at, r.updated_at
	FROM shop_requests r
	JOIN accounts a ON a.id = r.account_id`

func scanShopRequest(row pgx.Row) (*domain.ShopRequest, error) {
	sr := &domain.ShopRequest{}
	err := row.Scan(&sr.ID, &sr.AccountID, &sr.Username, &sr.ItemID, &sr.Name, &sr.Price, &sr.Currency,
		&sr.Status, &sr.VerifiedBy, &sr.CreatedAt, &sr.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan shop request: %w", err)
	}
	return sr, nil
}

func (r *shopRequestRepo) Create(ctx context.Context, db DBTX, req *domain.ShopRequest) error {
	err := db.QueryRow(ctx, `
		INSERT INTO shop_requests (id, account_id, item_id, name, price, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		req.ID, req.AccountID, req.ItemID, req.Name, req.Price, req.Currency, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert shop request: %w", err)
	}
	return nil
}

func (r *shopRequestRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.ShopRequest, error) {
	return scanShopRequest(tx.QueryRow(ctx, shopRequestSelect+` WHERE r.id = $1 FOR UPDATE OF r`, id))
}

func (r *shopRequestRepo) SetStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.RequestStatus, by uuid.UUID) error {
	tag, err := db.Exec(ctx, `
		UPDATE shop_requests SET status = $2, verified_by = $3, updated_at = now()
		WHERE id = $1`, id, status, by)
	if err != nil {
		return fmt.Errorf("update shop request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("shop request", id.String())
	}
	return nil
}

func (r *shopRequestRepo) ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) ([]domain.ShopRequest, error) {
	return r.list(ctx, db, shopRequestSelect+` WHERE r.account_id = $1 ORDER BY r.created_at DESC`, accountID)
}

func (r *shopRequestRepo) ListAll(ctx context.Context, db DBTX) ([]domain.ShopRequest, error) {
	return r.list(ctx, db, shopRequestSelect+` ORDER BY (r.status = 'Pending') DESC, r.created_at DESC`)
}

func (r *shopRequestRepo) list(ctx context.Context, db DBTX, sql string, args ...interface{}) ([]domain.ShopRequest, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list shop requests: %w", err)
	}
	defer rows.Close()

	var out []domain.ShopRequest
	for rows.Next() {
		sr, err := scanShopRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sr)
	}
	return out, rows.Err()
}
