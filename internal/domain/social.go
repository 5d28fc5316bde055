package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a chat line. A nil ReceiverID is a broadcast to everyone.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	SenderUsername string     `json:"sender_username"`
	ReceiverID     *uuid.UUID `json:"receiver_id,omitempty"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsBroadcast reports whether m was sent to the global chat.
func (m Message) IsBroadcast() bool { return m.ReceiverID == nil }

// Notice is an admin-authored broadcast shown to all players.
type Notice struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	AuthorID  *uuid.UUID `json:"author_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TicketStatus is the state of a support ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketClosed     TicketStatus = "Closed"
)

// ParseTicketStatus validates an admin-supplied status.
func ParseTicketStatus(s string) (TicketStatus, error) {
	switch TicketStatus(s) {
	case TicketOpen, TicketInProgress, TicketClosed:
		return TicketStatus(s), nil
	}
	return "", ErrValidation("unknown ticket status: " + s)
}

// SupportTicket is a player-raised issue.
type SupportTicket struct {
	ID        uuid.UUID    `json:"id"`
	AccountID uuid.UUID    `json:"account_id"`
	Username  string       `json:"username,omitempty"`
	Issue     string       `json:"issue"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// PanelStats are the counters shown on the admin panel.
type PanelStats struct {
	Accounts        int `json:"accounts"`
	BannedAccounts  int `json:"banned_accounts"`
	Items           int `json:"items"`
	PendingRequests int `json:"pending_requests"`
	OpenTickets     int `json:"open_tickets"`
}
