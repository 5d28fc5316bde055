package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AggregateType identifies the entity an outbox event belongs to.
type AggregateType string

const (
	AggregateAccount AggregateType = "account"
	AggregateShop    AggregateType = "shop"
	AggregateCatalog AggregateType = "catalog"
	AggregateNotice  AggregateType = "notice"
)

// EventType is the name of a domain event.
type EventType string

const (
	EventAccountRegistered EventType = "account.registered"
	EventAccountBanned     EventType = "account.banned"
	EventAccountUnbanned   EventType = "account.unbanned"
	EventBalanceReset      EventType = "account.balance_reset"
	EventAccountPromoted   EventType = "account.promoted"
	EventAccountDeleted    EventType = "account.deleted"
	EventPurchaseRequested EventType = "shop.purchase_requested"
	EventRequestVerified   EventType = "shop.request_verified"
	EventRequestRejected   EventType = "shop.request_rejected"
	EventItemChanged       EventType = "catalog.item_changed"
	EventItemDeleted       EventType = "catalog.item_deleted"
	EventNoticePublished   EventType = "notice.published"
)

// OutboxDraft is an event to be inserted into event_outbox within the same
// transaction as the state change it describes.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// OutboxRow is a stored outbox event with its sequence id.
type OutboxRow struct {
	SeqID int64
	OutboxDraft
}
