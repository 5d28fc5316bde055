package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/footballcurrency/portal/internal/domain"
)

type outboxRepo struct{}

// NewOutboxRepository returns a pgx-backed OutboxRepository.
func NewOutboxRepository() OutboxRepository {
	return &outboxRepo{}
}

func (r *outboxRepo) Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error {
	_, err := db.Exec(ctx, `
		INSERT INTO event_outbox (event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		draft.EventID,
		string(draft.AggregateType),
		draft.AggregateID,
		string(draft.EventType),
		draft.Payload,
		draft.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepo) FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxRow, error) {
	rows, err := db.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at
		FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxRow
	for rows.Next() {
		var e domain.OutboxRow
		err := rows.Scan(&e.SeqID, &e.EventID, &e.AggregateType, &e.AggregateID,
			&e.EventType, &e.Payload, &e.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *outboxRepo) MarkPublished(ctx context.Context, db DBTX, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.Exec(ctx, `UPDATE event_outbox SET published_at = now() WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

func (r *outboxRepo) PurgePublished(ctx context.Context, db DBTX, before time.Time) (int64, error) {
	tag, err := db.Exec(ctx,
		`DELETE FROM event_outbox WHERE published_at IS NOT NULL AND published_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}

// OutboxSource adapts an OutboxRepository bound to a database handle to the
// relay's source interface.
type OutboxSource struct {
	Repo OutboxRepository
	DB   DBTX
}

func (s OutboxSource) FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxRow, error) {
	return s.Repo.FetchUnpublished(ctx, s.DB, limit)
}

func (s OutboxSource) MarkPublished(ctx context.Context, ids []int64) error {
	return s.Repo.MarkPublished(ctx, s.DB, ids)
}
