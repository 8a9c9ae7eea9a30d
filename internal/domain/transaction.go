package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrTransactionNotFound indicates that the transaction is not found.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionAlreadyExists indicates that a transaction with the given id is already stored.
	ErrTransactionAlreadyExists = errors.New("transaction already exists")
	// ErrSourceAccountNotFound indicates that the transfer source account is not found.
	ErrSourceAccountNotFound = errors.New("source account not found")
	// ErrTargetAccountNotFound indicates that the transfer target account is not found.
	ErrTargetAccountNotFound = errors.New("target account not found")
	// ErrInvalidAmount indicates a zero or negative transfer amount.
	ErrInvalidAmount = errors.New("amount must be greater than 0")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance in source account")
	// ErrDuplicateTransaction indicates a transfer matching a recent one.
	ErrDuplicateTransaction = errors.New("duplicate transaction detected")
	// ErrCompletedTransactionImmutable indicates an attempt to modify a completed transaction.
	ErrCompletedTransactionImmutable = errors.New("cannot modify completed transaction")
	// ErrInvalidStatus indicates an unknown transaction status.
	ErrInvalidStatus = errors.New("invalid transaction status")
	// ErrInvalidStatusTransition indicates a status change the lifecycle does not allow.
	ErrInvalidStatusTransition = errors.New("invalid transaction status transition")
)

// Status is the lifecycle state of a transaction.
type Status string

// Transaction statuses. COMPLETED and FAILED are terminal.
const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// ParseStatus converts s into a Status, ignoring case.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(s)); st {
	case StatusPending, StatusCompleted, StatusFailed:
		return st, nil
	}

	return "", ErrInvalidStatus
}

// Terminal reports whether no further status changes are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction records a transfer of funds between two accounts.
type Transaction struct {
	ID                  uuid.UUID       `json:"id"`
	AccountNumber       string          `json:"account_number"`
	TargetAccountNumber string          `json:"target_account_number"`
	Amount              decimal.Decimal `json:"amount"`
	Description         string          `json:"description"`
	Timestamp           time.Time       `json:"timestamp"`
	Status              Status          `json:"status"`
}

// TransferParams is the input data for a transfer.
//
// ID is optional; uuid.Nil makes the engine generate one.
type TransferParams struct {
	ID                  uuid.UUID       `json:"id"`
	AccountNumber       string          `json:"account_number"`
	TargetAccountNumber string          `json:"target_account_number"`
	Amount              decimal.Decimal `json:"amount"`
	Description         string          `json:"description"`
}

// UpdateTransactionParams holds the fields of a transaction that may be rewritten.
type UpdateTransactionParams struct {
	AccountNumber       string          `json:"account_number"`
	TargetAccountNumber string          `json:"target_account_number"`
	Amount              decimal.Decimal `json:"amount"`
	Description         string          `json:"description"`
}
