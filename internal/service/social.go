package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/infra"
	"github.com/footballcurrency/portal/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SocialService serves chat, player listings, the leaderboard, notices and
// support tickets.
type SocialService struct {
	db       DB
	accounts repository.AccountRepository
	messages repository.MessageRepository
	notices  repository.NoticeRepository
	support  repository.SupportRepository
	outbox   repository.OutboxRepository
	logger   *slog.Logger
}

// NewSocialService creates a SocialService.
func NewSocialService(
	db DB,
	accounts repository.AccountRepository,
	messages repository.MessageRepository,
	notices repository.NoticeRepository,
	support repository.SupportRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *SocialService {
	return &SocialService{
		db:       db,
		accounts: accounts,
		messages: messages,
		notices:  notices,
		support:  support,
		outbox:   outbox,
		logger:   logger,
	}
}

// Friends lists every account other than the caller.
func (s *SocialService) Friends(ctx context.Context, id *domain.Identity) ([]domain.AccountSummary, error) {
	out, err := s.accounts.ListSummaries(ctx, s.db, id.AccountID)
	if err != nil {
		return nil, domain.ErrInternal("list friends", err)
	}
	return out, nil
}

// Players lists every account with its ban status.
func (s *SocialService) Players(ctx context.Context) ([]domain.AccountSummary, error) {
	out, err := s.accounts.ListSummaries(ctx, s.db, uuid.Nil)
	if err != nil {
		return nil, domain.ErrInternal("list players", err)
	}
	return out, nil
}

// Messages returns the whole chat history newest first.
func (s *SocialService) Messages(ctx context.Context) ([]domain.Message, error) {
	out, err := s.messages.ListAll(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list messages", err)
	}
	return out, nil
}

// PostMessage appends a broadcast chat message from the caller.
func (s *SocialService) PostMessage(ctx context.Context, id *domain.Identity, content string) (*domain.Message, error) {
	content, err := domain.ValidateText("content", content, domain.MaxMessageLength)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	msg := &domain.Message{ID: uuid.New(), SenderID: id.AccountID, Content: content}
	if err := s.messages.Create(ctx, s.db, msg); err != nil {
		return nil, domain.ErrInternal("post message", err)
	}
	return msg, nil
}

// Leaderboard ranks players by balance, ties in registration order.
func (s *SocialService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	rows, err := s.accounts.Leaderboard(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("leaderboard", err)
	}
	return domain.RankLeaderboard(rows), nil
}

// Notices returns every notice newest first.
func (s *SocialService) Notices(ctx context.Context) ([]domain.Notice, error) {
	out, err := s.notices.ListAll(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list notices", err)
	}
	return out, nil
}

// PublishNotice creates a notice authored by admin.
func (s *SocialService) PublishNotice(ctx context.Context, admin *domain.Identity, title, content string) (*domain.Notice, error) {
	title, err := domain.ValidateText("title", title, domain.MaxTitleLength)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	content, err = domain.ValidateText("content", content, domain.MaxIssueLength)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	n := &domain.Notice{ID: uuid.New(), Title: title, Content: content, AuthorID: &admin.AccountID}
	err = infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.notices.Create(ctx, tx, n); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, domain.NewNoticePublishedEvent(n))
	})
	if err != nil {
		return nil, asAppError(err, "publish notice")
	}
	s.logger.Info("notice published", "notice_id", n.ID, "admin_id", admin.AccountID)
	return n, nil
}

// Tickets returns the caller's support tickets.
func (s *SocialService) Tickets(ctx context.Context, id *domain.Identity) ([]domain.SupportTicket, error) {
	out, err := s.support.ListByAccount(ctx, s.db, id.AccountID)
	if err != nil {
		return nil, domain.ErrInternal("list tickets", err)
	}
	return out, nil
}

// AllTickets returns every support ticket.
func (s *SocialService) AllTickets(ctx context.Context) ([]domain.SupportTicket, error) {
	out, err := s.support.ListAll(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list tickets", err)
	}
	return out, nil
}

// OpenTicket files a new support ticket for the caller.
func (s *SocialService) OpenTicket(ctx context.Context, id *domain.Identity, issue string) (*domain.SupportTicket, error) {
	issue, err := domain.ValidateText("issue", issue, domain.MaxIssueLength)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	t := &domain.SupportTicket{ID: uuid.New(), AccountID: id.AccountID, Issue: issue, Status: domain.TicketOpen}
	if err := s.support.Create(ctx, s.db, t); err != nil {
		return nil, domain.ErrInternal("open ticket", err)
	}
	return t, nil
}

// SetTicketStatus moves a ticket to status.
func (s *SocialService) SetTicketStatus(ctx context.Context, ticketID uuid.UUID, status string) error {
	st, err := domain.ParseTicketStatus(strings.TrimSpace(status))
	if err != nil {
		return err
	}
	if err := s.support.SetStatus(ctx, s.db, ticketID, st); err != nil {
		return asAppError(err, "set ticket status")
	}
	return nil
}
