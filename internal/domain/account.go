// Package domain provides definitions of all entities and their errors.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountAlreadyExists indicates that an account with the given number already exists.
	ErrAccountAlreadyExists = errors.New("account already exists")
	// ErrInvalidAccountNumber indicates a blank account number.
	ErrInvalidAccountNumber = errors.New("account number cannot be empty")
	// ErrNegativeBalance indicates an attempt to set a balance below zero.
	ErrNegativeBalance = errors.New("balance cannot be negative")
	// ErrAmountPrecision indicates a money value with more than two fractional digits.
	ErrAmountPrecision = errors.New("amount must have at most 2 decimal places")
)

// MoneyScale is the number of fractional digits money values carry.
const MoneyScale = 2

// Account holds the balance of a named account holder.
type Account struct {
	AccountNumber string          `json:"account_number"`
	Username      string          `json:"username"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CreateAccountParams is the input data to open an account.
type CreateAccountParams struct {
	AccountNumber string          `json:"account_number"`
	Username      string          `json:"username"`
	Balance       decimal.Decimal `json:"balance"`
}

// ValidMoneyScale reports whether d fits into MoneyScale fractional digits.
func ValidMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}
