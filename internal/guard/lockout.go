package guard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/repository"
)

const (
	MaxAttempts   = 5
	LockoutWindow = 15 * time.Minute
)

// MsgLocked is shown while an account is locked out.
const MsgLocked = "Too many failed login attempts, try again later."

// Lockout tracks login attempts in the login_attempts table.
type Lockout struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewLockout creates a lockout with the default thresholds.
func NewLockout(logger *slog.Logger) *Lockout {
	return &Lockout{maxAttempts: MaxAttempts, window: LockoutWindow, now: time.Now, logger: logger}
}

// RecordAttempt inserts a login attempt row.
func (l *Lockout) RecordAttempt(ctx context.Context, db repository.DBTX, username, ip string, success bool) error {
	_, err := db.Exec(ctx, `
		INSERT INTO login_attempts (username, ip_address, success)
		VALUES ($1, $2, $3)`,
		strings.ToLower(username), ip, success)
	if err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

// CheckLocked returns ACCOUNT_LOCKED if the username has >= MaxAttempts
// failed logins within the window and no success since.
func (l *Lockout) CheckLocked(ctx context.Context, db repository.DBTX, username string) error {
	var count int
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE lower(username) = lower($1) AND success = false
		  AND created_at > $2
		  AND created_at > COALESCE((
		      SELECT MAX(created_at) FROM login_attempts
		      WHERE lower(username) = lower($1) AND success = true), '-infinity')`,
		username, l.now().Add(-l.window)).Scan(&count)
	if err != nil {
		// Fail open so a broken table does not block every login.
		l.logger.Warn("lockout check failed, allowing login", "username", username, "error", err)
		return nil
	}
	if count >= l.maxAttempts {
		return domain.ErrAccountLocked(MsgLocked)
	}
	return nil
}

// Prune deletes attempts older than retention. Used by housekeeping.
func (l *Lockout) Prune(ctx context.Context, db repository.DBTX, retention time.Duration) (int, error) {
	if retention < l.window {
		retention = l.window
	}
	tag, err := db.Exec(ctx, `DELETE FROM login_attempts WHERE created_at < $1`, l.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune login attempts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
