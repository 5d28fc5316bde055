package repository

import (
	"context"
	"fmt"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/google/uuid"
)

type messageRepo struct{}

// NewMessageRepository returns a pgx-backed MessageRepository.
func NewMessageRepository() MessageRepository {
	return &messageRepo{}
}

func (r *messageRepo) Create(ctx context.Context, db DBTX, msg *domain.Message) error {
	err := db.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content)
		VALUES ($1, $2, $3, $4) RETURNING created_at`,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListAll orders by seq after created_at so equal timestamps keep
// insertion order.
func (r *messageRepo) ListAll(ctx context.Context, db DBTX) ([]domain.Message, error) {
	rows, err := db.Query(ctx, `
		SELECT m.id, m.sender_id, a.username, m.receiver_id, m.content, m.created_at
		FROM messages m
		JOIN accounts a ON a.id = m.sender_id
		ORDER BY m.created_at DESC, m.seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderUsername, &m.ReceiverID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type noticeRepo struct{}

// NewNoticeRepository returns a pgx-backed NoticeRepository.
func NewNoticeRepository() NoticeRepository {
	return &noticeRepo{}
}

func (r *noticeRepo) Create(ctx context.Context, db DBTX, n *domain.Notice) error {
	err := db.QueryRow(ctx, `
		INSERT INTO notices (id, title, content, author_id)
		VALUES ($1, $2, $3, $4) RETURNING created_at`,
		n.ID, n.Title, n.Content, n.AuthorID,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notice: %w", err)
	}
	return nil
}

func (r *noticeRepo) ListAll(ctx context.Context, db DBTX) ([]domain.Notice, error) {
	rows, err := db.Query(ctx, `
		SELECT id, title, content, author_id, created_at
		FROM notices ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var out []domain.Notice
	for rows.Next() {
		var n domain.Notice
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.AuthorID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type supportRepo struct{}

// NewSupportRepository returns a pgx-backed SupportRepository.
func NewSupportRepository() SupportRepository {
	return &supportRepo{}
}

const ticketSelect = `
	SELECT t.id, t.account_id, a.username, t.issue, t.status, t.created_at, t.updated_at
	FROM support_tickets t
	JOIN accounts a ON a.id = t.account_id`

func (r *supportRepo) Create(ctx context.Context, db DBTX, t *domain.SupportTicket) error {
	err := db.QueryRow(ctx, `
		INSERT INTO support_tickets (id, account_id, issue, status)
		VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`,
		t.ID, t.AccountID, t.Issue, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert support ticket: %w", err)
	}
	return nil
}

func (r *supportRepo) SetStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.TicketStatus) error {
	tag, err := db.Exec(ctx,
		`UPDATE support_tickets SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update support ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("support ticket", id.String())
	}
	return nil
}

func (r *supportRepo) ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) ([]domain.SupportTicket, error) {
	return r.list(ctx, db, ticketSelect+` WHERE t.account_id = $1 ORDER BY t.created_at DESC`, accountID)
}

func (r *supportRepo) ListAll(ctx context.Context, db DBTX) ([]domain.SupportTicket, error) {
	return r.list(ctx, db, ticketSelect+` ORDER BY t.created_at DESC`)
}

func (r *supportRepo) list(ctx context.Context, db DBTX, sql string, args ...interface{}) ([]domain.SupportTicket, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list support tickets: %w", err)
	}
	defer rows.Close()

	var out []domain.SupportTicket
	for rows.Next() {
		var t domain.SupportTicket
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Username, &t.Issue, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan support ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
