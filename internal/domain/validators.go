package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]{3,32}$`)

const (
	MinPasswordLength = 6
	MaxMessageLength  = 500
	MaxTitleLength    = 200
	MaxIssueLength    = 2000
)

// ValidateUsername checks length and character set of a username.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-32 letters, digits, '.', '_' or '-'")
	}
	return nil
}

// ValidatePassword checks the minimum password length.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidatePositiveAmount checks that a price is a positive integer.
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	return nil
}

// ValidateText trims s and checks it is non-empty and at most max runes.
func ValidateText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", fmt.Errorf("%s must be at most %d characters", field, max)
	}
	return s, nil
}

// ValidateItem checks an admin-supplied catalog entry.
func ValidateItem(in ItemInput) (ItemInput, error) {
	name, err := ValidateText("name", in.Name, MaxTitleLength)
	if err != nil {
		return in, err
	}
	in.Name = name
	if err := ValidatePositiveAmount(in.Price); err != nil {
		return in, fmt.Errorf("price must be a positive integer")
	}
	if in.Currency == "" {
		in.Currency = FieldBalance
	}
	if _, err := ParseBalanceField(string(in.Currency)); err != nil {
		return in, fmt.Errorf("unknown currency: %s", in.Currency)
	}
	return in, nil
}
