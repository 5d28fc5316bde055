package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type itemRepo struct{}

// NewItemRepository returns a pgx-backed ItemRepository.
func NewItemRepository() ItemRepository {
	return &itemRepo{}
}

const itemColumns = `id, name, price, currency, created_at, updated_at`

func scanItem(row pgx.Row) (*domain.Item, error) {
	it := &domain.Item{}
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.Currency, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}
	return it, nil
}

func (r *itemRepo) Create(ctx context.Context, db DBTX, item *domain.Item) error {
	err := db.QueryRow(ctx, `
		INSERT INTO items (id, name, price, currency) VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		item.ID, item.Name, item.Price, item.Currency,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict(fmt.Sprintf("An item named %q already exists.", item.Name))
	}
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *itemRepo) Update(ctx context.Context, db DBTX, item *domain.Item) error {
	err := db.QueryRow(ctx, `
		UPDATE items SET name = $2, price = $3, currency = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		item.ID, item.Name, item.Price, item.Currency,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound("item", item.ID.String())
	}
	if isUniqueViolation(err) {
		return domain.ErrConflict(fmt.Sprintf("An item named %q already exists.", item.Name))
	}
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (r *itemRepo) Upsert(ctx context.Context, db DBTX, item *domain.Item) (bool, error) {
	var inserted bool
	err := db.QueryRow(ctx, `
		INSERT INTO items (id, name, price, currency) VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET price = EXCLUDED.price, currency = EXCLUDED.currency, updated_at = now()
		RETURNING id, created_at, updated_at, (xmax = 0)`,
		item.ID, item.Name, item.Price, item.Currency,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert item: %w", err)
	}
	return inserted, nil
}

func (r *itemRepo) Delete(ctx context.Context, db DBTX, id uuid.UUID) error {
	tag, err := db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("item", id.String())
	}
	return nil
}

func (r *itemRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Item, error) {
	return scanItem(db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
}

func (r *itemRepo) List(ctx context.Context, db DBTX) ([]domain.Item, error) {
	rows, err := db.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY price ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}
