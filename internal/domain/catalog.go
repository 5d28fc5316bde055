package domain

import (
	"time"

	"github.com/google/uuid"
)

// Item is a shop catalog entry.
type Item struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Price     int64        `json:"price"`
	Currency  BalanceField `json:"currency"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ItemInput is the admin-supplied form of an item.
type ItemInput struct {
	Name     string
	Price    int64
	Currency BalanceField
}

// RequestStatus is the lifecycle state of a shop request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestVerified RequestStatus = "Verified"
	RequestRejected RequestStatus = "Rejected"
)

// ShopRequest records a purchase awaiting admin fulfilment.
type ShopRequest struct {
	ID         uuid.UUID     `json:"id"`
	AccountID  uuid.UUID     `json:"account_id"`
	Username   string        `json:"username,omitempty"`
	ItemID     *uuid.UUID    `json:"item_id,omitempty"`
	Name       string        `json:"name"`
	Price      int64         `json:"price"`
	Currency   BalanceField  `json:"currency"`
	Status     RequestStatus `json:"status"`
	VerifiedBy *uuid.UUID    `json:"verified_by,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ImportResult summarises a bulk catalog import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
