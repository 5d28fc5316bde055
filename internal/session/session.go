// Package session keeps server-side login sessions. A session exists only
// while its record is in the store, so deleting it logs the browser out even
// if the signed cookie is still presented.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/google/uuid"
)

// Session binds a browser to an authenticated account.
type Session struct {
	ID        string      `json:"id"`
	AccountID uuid.UUID   `json:"account_id"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions.
type Store interface {
	// Save stores s until s.ExpiresAt.
	Save(ctx context.Context, s *Session) error
	// Get returns the live session with the given id, or nil.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete removes one session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
	// DeleteByAccount removes every session of an account and returns how many.
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int, error)
	// Sweep drops expired sessions and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// New builds a session for the account, valid for ttl.
func New(accountID uuid.UUID, role domain.Role, ttl time.Duration) (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:        id,
		AccountID: accountID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
