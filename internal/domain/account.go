package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level of an account.
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RolePlayer || r == RoleAdmin
}

// BalanceField names one of the integer currency counters on an account.
type BalanceField string

const (
	FieldBalance   BalanceField = "balance"
	FieldBankCash  BalanceField = "bank_cash"
	FieldCash      BalanceField = "cash"
	FieldFCCoin    BalanceField = "fc_coin"
	FieldCardLimit BalanceField = "card_limit"
)

// SpendableFields are the balance fields an item can be priced in.
var SpendableFields = []BalanceField{FieldBalance, FieldBankCash, FieldCash, FieldFCCoin}

// ParseBalanceField maps user input to a spendable field. Empty input means balance.
func ParseBalanceField(s string) (BalanceField, error) {
	if s == "" {
		return FieldBalance, nil
	}
	for _, f := range SpendableFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrValidation("unknown currency: " + s)
}

// Balances holds the currency counters of an account.
type Balances struct {
	Balance   int64 `json:"balance"`
	BankCash  int64 `json:"bank_cash"`
	Cash      int64 `json:"cash"`
	FCCoin    int64 `json:"fc_coin"`
	CardLimit int64 `json:"card_limit"`
}

// StartingBalances are granted on signup.
func StartingBalances() Balances {
	return Balances{Balance: 1000, BankCash: 500, Cash: 200, FCCoin: 50, CardLimit: 1000}
}

// ResetBalances returns b with the spendable fields restored to their
// starting values. CardLimit is left as is.
func ResetBalances(b Balances) Balances {
	start := StartingBalances()
	b.Balance = start.Balance
	b.BankCash = start.BankCash
	b.Cash = start.Cash
	b.FCCoin = start.FCCoin
	return b
}

// Account is a registered user, player or admin.
type Account struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Balances     Balances   `json:"balances"`
	IsBanned     bool       `json:"is_banned"`
	BannedBy     *uuid.UUID `json:"banned_by,omitempty"`
	BannedByName *string    `json:"banned_by_name,omitempty"`
	ProfilePic   *string    `json:"profile_pic,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AccountSummary is the listing shape used by the friends and player lists.
type AccountSummary struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Role       Role      `json:"role"`
	IsBanned   bool      `json:"is_banned"`
	ProfilePic *string   `json:"profile_pic,omitempty"`
}

// Identity is the authenticated caller, built once per request from a
// verified session.
type Identity struct {
	AccountID uuid.UUID
	Role      Role
	SessionID string
}
