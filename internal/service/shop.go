package service

import (
	"context"
	"log/slog"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/infra"
	"github.com/footballcurrency/portal/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Admin actions on a shop request.
const (
	RequestActionVerify = "verify"
	RequestActionReject = "reject"
)

// ShopService handles purchases and their admin fulfilment.
//
// A purchase debits the item price immediately and queues a Pending request;
// rejecting the request refunds the price.
type ShopService struct {
	db       DB
	accounts repository.AccountRepository
	items    repository.ItemRepository
	requests repository.ShopRequestRepository
	outbox   repository.OutboxRepository
	logger   *slog.Logger
}

// NewShopService creates a ShopService.
func NewShopService(
	db DB,
	accounts repository.AccountRepository,
	items repository.ItemRepository,
	requests repository.ShopRequestRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *ShopService {
	return &ShopService{
		db:       db,
		accounts: accounts,
		items:    items,
		requests: requests,
		outbox:   outbox,
		logger:   logger,
	}
}

// ShopView is what a player sees on the shop page.
type ShopView struct {
	Items    []domain.Item        `json:"items"`
	Requests []domain.ShopRequest `json:"requests"`
	Balances domain.Balances      `json:"balances"`
}

// View returns the catalog plus the caller's own requests.
func (s *ShopService) View(ctx context.Context, id *domain.Identity) (*ShopView, error) {
	acc, err := s.accounts.FindByID(ctx, s.db, id.AccountID)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if acc == nil {
		return nil, domain.ErrNotFound("account", id.AccountID.String())
	}
	items, err := s.items.List(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list items", err)
	}
	reqs, err := s.requests.ListByAccount(ctx, s.db, id.AccountID)
	if err != nil {
		return nil, domain.ErrInternal("list shop requests", err)
	}
	return &ShopView{Items: items, Requests: reqs, Balances: acc.Balances}, nil
}

// Purchase debits the item's price from the caller and records a Pending
// request, all in one transaction. The debit is conditional in SQL so
// concurrent purchases can never take a balance below zero.
func (s *ShopService) Purchase(ctx context.Context, id *domain.Identity, itemID uuid.UUID) (*domain.ShopRequest, error) {
	var req *domain.ShopRequest
	err := infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		item, err := s.items.FindByID(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound("item", itemID.String())
		}

		acc, err := s.accounts.FindByID(ctx, tx, id.AccountID)
		if err != nil {
			return err
		}
		if acc == nil {
			return domain.ErrNotFound("account", id.AccountID.String())
		}
		if acc.IsBanned {
			by := ""
			if acc.BannedByName != nil {
				by = *acc.BannedByName
			}
			return domain.ErrBanned(by)
		}

		if _, err := s.accounts.Debit(ctx, tx, acc.ID, item.Currency, item.Price); err != nil {
			return err
		}

		req = &domain.ShopRequest{
			ID:        uuid.New(),
			AccountID: acc.ID,
			Username:  acc.Username,
			ItemID:    &item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Currency:  item.Currency,
			Status:    domain.RequestPending,
		}
		if err := s.requests.Create(ctx, tx, req); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, domain.NewShopRequestEvent(domain.EventPurchaseRequested, req))
	})
	if err != nil {
		return nil, asAppError(err, "purchase")
	}

	s.logger.Info("purchase requested", "account_id", req.AccountID, "item", req.Name, "price", req.Price, "currency", req.Currency)
	return req, nil
}

// ListRequests returns every shop request, pending first.
func (s *ShopService) ListRequests(ctx context.Context) ([]domain.ShopRequest, error) {
	reqs, err := s.requests.ListAll(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list shop requests", err)
	}
	return reqs, nil
}

// ProcessRequest verifies or rejects a Pending request. An empty action
// means verify. Rejection refunds the price in the same transaction.
func (s *ShopService) ProcessRequest(ctx context.Context, admin *domain.Identity, requestID uuid.UUID, action string) (*domain.ShopRequest, error) {
	var status domain.RequestStatus
	var evt domain.EventType
	switch action {
	case "", RequestActionVerify:
		status, evt = domain.RequestVerified, domain.EventRequestVerified
	case RequestActionReject:
		status, evt = domain.RequestRejected, domain.EventRequestRejected
	default:
		return nil, domain.ErrValidation("unknown action: " + action)
	}

	var req *domain.ShopRequest
	err := infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		req, err = s.requests.LockForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound("shop request", requestID.String())
		}
		if req.Status != domain.RequestPending {
			return domain.ErrConflict("Request is already " + string(req.Status) + ".")
		}

		if status == domain.RequestRejected {
			if err := s.accounts.Credit(ctx, tx, req.AccountID, req.Currency, req.Price); err != nil {
				return err
			}
		}
		if err := s.requests.SetStatus(ctx, tx, req.ID, status, admin.AccountID); err != nil {
			return err
		}
		req.Status = status
		req.VerifiedBy = &admin.AccountID
		return s.outbox.Insert(ctx, tx, domain.NewShopRequestEvent(evt, req))
	})
	if err != nil {
		return nil, asAppError(err, "process shop request")
	}

	s.logger.Info("shop request processed", "request_id", req.ID, "status", req.Status, "admin_id", admin.AccountID)
	return req, nil
}
