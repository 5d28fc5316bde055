package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

func newDraft(agg AggregateType, aggID string, evt EventType, payload interface{}) OutboxDraft {
	raw, _ := json.Marshal(payload)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   aggID,
		EventType:     evt,
		Payload:       raw,
		OccurredAt:    time.Now(),
	}
}

// NewAccountRegisteredEvent is emitted on signup and admin bootstrap.
func NewAccountRegisteredEvent(acc *Account) OutboxDraft {
	return newDraft(AggregateAccount, acc.ID.String(), EventAccountRegistered, map[string]interface{}{
		"account_id": acc.ID.String(),
		"username":   acc.Username,
		"role":       acc.Role,
		"balances":   acc.Balances,
	})
}

// NewAccountAdminEvent is emitted for ban, unban, reset, promote and delete.
func NewAccountAdminEvent(evt EventType, accountID, adminID uuid.UUID) OutboxDraft {
	return newDraft(AggregateAccount, accountID.String(), evt, map[string]string{
		"account_id": accountID.String(),
		"admin_id":   adminID.String(),
	})
}

// NewShopRequestEvent is emitted when a shop request is created or processed.
func NewShopRequestEvent(evt EventType, req *ShopRequest) OutboxDraft {
	return newDraft(AggregateShop, req.AccountID.String(), evt, req)
}

// NewItemEvent is emitted for catalog changes.
func NewItemEvent(evt EventType, item *Item) OutboxDraft {
	return newDraft(AggregateCatalog, item.ID.String(), evt, item)
}

// NewNoticePublishedEvent is emitted when an admin posts a notice.
func NewNoticePublishedEvent(n *Notice) OutboxDraft {
	return newDraft(AggregateNotice, n.ID.String(), EventNoticePublished, n)
}
