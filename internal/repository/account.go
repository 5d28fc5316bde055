package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type accountRepo struct{}

// NewAccountRepository returns a pgx-backed AccountRepository.
func NewAccountRepository() AccountRepository {
	return &accountRepo{}
}

const accountColumns = `
	a.id, a.username, a.password_hash, a.role,
	a.balance, a.bank_cash, a.cash, a.fc_coin, a.card_limit,
	a.is_banned, a.banned_by, b.username, a.profile_pic,
	a.created_at, a.updated_at`

const accountFrom = `FROM accounts a LEFT JOIN accounts b ON b.id = a.banned_by`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.Role,
		&a.Balances.Balance, &a.Balances.BankCash, &a.Balances.Cash, &a.Balances.FCCoin, &a.Balances.CardLimit,
		&a.IsBanned, &a.BannedBy, &a.BannedByName, &a.ProfilePic,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

// balanceColumn maps a field to its column name. Only whitelisted names are
// ever interpolated into SQL.
func balanceColumn(f domain.BalanceField) (string, error) {
	switch f {
	case domain.FieldBalance, domain.FieldBankCash, domain.FieldCash, domain.FieldFCCoin, domain.FieldCardLimit:
		return string(f), nil
	}
	return "", fmt.Errorf("unknown balance field %q", f)
}

func (r *accountRepo) Create(ctx context.Context, db DBTX, acc *domain.Account) error {
	err := db.QueryRow(ctx, `
		INSERT INTO accounts (id, username, password_hash, role,
			balance, bank_cash, cash, fc_coin, card_limit, profile_pic)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		acc.ID, acc.Username, acc.PasswordHash, acc.Role,
		acc.Balances.Balance, acc.Balances.BankCash, acc.Balances.Cash, acc.Balances.FCCoin, acc.Balances.CardLimit,
		acc.ProfilePic,
	).Scan(&acc.CreatedAt, &acc.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict("Username already exists.")
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *accountRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Account, error) {
	return scanAccount(db.QueryRow(ctx, `SELECT `+accountColumns+` `+accountFrom+` WHERE a.id = $1`, id))
}

func (r *accountRepo) FindByUsername(ctx context.Context, db DBTX, username string) (*domain.Account, error) {
	return scanAccount(db.QueryRow(ctx,
		`SELECT `+accountColumns+` `+accountFrom+` WHERE lower(a.username) = lower($1)`, username))
}

func (r *accountRepo) List(ctx context.Context, db DBTX) ([]domain.Account, error) {
	rows, err := db.Query(ctx, `SELECT `+accountColumns+` `+accountFrom+` ORDER BY a.created_at ASC, a.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *accountRepo) ListSummaries(ctx context.Context, db DBTX, exclude uuid.UUID) ([]domain.AccountSummary, error) {
	rows, err := db.Query(ctx, `
		SELECT id, username, role, is_banned, profile_pic
		FROM accounts WHERE id <> $1
		ORDER BY lower(username) ASC`, exclude)
	if err != nil {
		return nil, fmt.Errorf("list account summaries: %w", err)
	}
	defer rows.Close()

	var out []domain.AccountSummary
	for rows.Next() {
		var s domain.AccountSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.Role, &s.IsBanned, &s.ProfilePic); err != nil {
			return nil, fmt.Errorf("scan account summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *accountRepo) Leaderboard(ctx context.Context, db DBTX) ([]domain.LeaderboardEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT id, username, balance, created_at
		FROM accounts
		WHERE role = 'player'
		ORDER BY balance DESC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.AccountID, &e.Username, &e.Balance, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Debit performs the floor check in the database so concurrent purchases
// cannot both pass a stale read.
func (r *accountRepo) Debit(ctx context.Context, db DBTX, id uuid.UUID, field domain.BalanceField, amount int64) (*domain.Balances, error) {
	col, err := balanceColumn(field)
	if err != nil {
		return nil, err
	}

	b := &domain.Balances{}
	err = db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE accounts SET %[1]s = %[1]s - $2, updated_at = now()
		WHERE id = $1 AND %[1]s >= $2
		RETURNING balance, bank_cash, cash, fc_coin, card_limit`, col),
		id, amount,
	).Scan(&b.Balance, &b.BankCash, &b.Cash, &b.FCCoin, &b.CardLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInsufficientBalance()
	}
	if err != nil {
		return nil, fmt.Errorf("debit %s: %w", col, err)
	}
	return b, nil
}

func (r *accountRepo) Credit(ctx context.Context, db DBTX, id uuid.UUID, field domain.BalanceField, amount int64) error {
	col, err := balanceColumn(field)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, fmt.Sprintf(
		`UPDATE accounts SET %[1]s = %[1]s + $2, updated_at = now() WHERE id = $1`, col), id, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", col, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("account", id.String())
	}
	return nil
}

func (r *accountRepo) SetBanned(ctx context.Context, db DBTX, id uuid.UUID, banned bool, by *uuid.UUID) error {
	if !banned {
		by = nil
	}
	return r.execOne(ctx, db, id,
		`UPDATE accounts SET is_banned = $2, banned_by = $3, updated_at = now() WHERE id = $1`,
		banned, by)
}

func (r *accountRepo) SetBalances(ctx context.Context, db DBTX, id uuid.UUID, b domain.Balances) error {
	return r.execOne(ctx, db, id, `
		UPDATE accounts
		SET balance = $2, bank_cash = $3, cash = $4, fc_coin = $5, card_limit = $6, updated_at = now()
		WHERE id = $1`,
		b.Balance, b.BankCash, b.Cash, b.FCCoin, b.CardLimit)
}

func (r *accountRepo) SetRole(ctx context.Context, db DBTX, id uuid.UUID, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrValidation("unknown role: " + string(role))
	}
	return r.execOne(ctx, db, id,
		`UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1`, role)
}

func (r *accountRepo) SetProfilePic(ctx context.Context, db DBTX, id uuid.UUID, pic string) error {
	return r.execOne(ctx, db, id,
		`UPDATE accounts SET profile_pic = $2, updated_at = now() WHERE id = $1`, pic)
}

func (r *accountRepo) Delete(ctx context.Context, db DBTX, id uuid.UUID) error {
	return r.execOne(ctx, db, id, `DELETE FROM accounts WHERE id = $1`)
}

func (r *accountRepo) execOne(ctx context.Context, db DBTX, id uuid.UUID, sql string, args ...interface{}) error {
	tag, err := db.Exec(ctx, sql, append([]interface{}{id}, args...)...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("account", id.String())
	}
	return nil
}
