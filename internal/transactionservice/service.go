// Package transactionservice manages business logic layer of transactions.
//
// It hosts the transfer engine: a transfer is validated, checked against recent
// transfers from the same account, applied to both balances through the account
// service and recorded as a COMPLETED transaction.
package transactionservice

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/lockpkg"
	"github.com/go-petr/pet-ledger/pkg/pagepkg"
)

// Repo provides data access layer interface needed by transaction service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transactionservice
type Repo interface {
	Create(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	Update(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]domain.Transaction, error)
}

// AccountService provides the account operations a transfer needs.
type AccountService interface {
	Get(ctx context.Context, accountNumber string) (domain.Account, error)
	Debit(ctx context.Context, accountNumber string, amount decimal.Decimal) (domain.Account, error)
	Credit(ctx context.Context, accountNumber string, amount decimal.Decimal) (domain.Account, error)
}

// Publisher delivers transaction events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// RoutingKeyCompleted is the routing key of events about completed transfers.
const RoutingKeyCompleted = "transaction.completed"

// CompletedEvent is the body of RoutingKeyCompleted messages.
// Amount is rendered with two fractional digits, as in the HTTP API.
type CompletedEvent struct {
	ID                  uuid.UUID     `json:"id"`
	AccountNumber       string        `json:"account_number"`
	TargetAccountNumber string        `json:"target_account_number"`
	Amount              string        `json:"amount"`
	Description         string        `json:"description"`
	Timestamp           time.Time     `json:"timestamp"`
	Status              domain.Status `json:"status"`
}

func newCompletedEvent(t domain.Transaction) CompletedEvent {
	return CompletedEvent{
		ID:                  t.ID,
		AccountNumber:       t.AccountNumber,
		TargetAccountNumber: t.TargetAccountNumber,
		Amount:              t.Amount.StringFixed(domain.MoneyScale),
		Description:         t.Description,
		Timestamp:           t.Timestamp,
		Status:              t.Status,
	}
}

// Default listing order.
const (
	DefaultSortBy        = "timestamp"
	DefaultSortDirection = domain.Desc
)

type compareFunc func(a, b domain.Transaction) int

var sortFields = map[string]compareFunc{
	"id":                    func(a, b domain.Transaction) int { return strings.Compare(a.ID.String(), b.ID.String()) },
	"account_number":        func(a, b domain.Transaction) int { return strings.Compare(a.AccountNumber, b.AccountNumber) },
	"target_account_number": func(a, b domain.Transaction) int { return strings.Compare(a.TargetAccountNumber, b.TargetAccountNumber) },
	"amount":                func(a, b domain.Transaction) int { return a.Amount.Cmp(b.Amount) },
	"description":           func(a, b domain.Transaction) int { return strings.Compare(a.Description, b.Description) },
	"timestamp":             func(a, b domain.Transaction) int { return compareTime(a.Timestamp, b.Timestamp) },
	"status":                func(a, b domain.Transaction) int { return strings.Compare(string(a.Status), string(b.Status)) },
}

// Service facilitates transaction service layer logic.
type Service struct {
	repo           Repo
	accountService AccountService
	publisher      Publisher
	sources        *lockpkg.KeyedMutex
	ids            *lockpkg.KeyedMutex
	now            func() time.Time
}

// New returns transaction service struct to manage transaction business logic.
//
// publisher may be nil, in which case no events are sent.
func New(tr Repo, as AccountService, p Publisher) *Service {
	return &Service{
		repo:           tr,
		accountService: as,
		publisher:      p,
		sources:        lockpkg.New(),
		ids:            lockpkg.New(),
		now:            time.Now,
	}
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	if !domain.ValidMoneyScale(amount) {
		return domain.ErrAmountPrecision
	}

	return nil
}

// isDuplicate reports whether a stored transaction from the same source with an equal
// amount falls into the same minute of the hour as now.
//
// Only the minute-of-hour is compared: 10:05 matches 11:05, and 10:59 does not match 11:00.
func (s *Service) isDuplicate(ctx context.Context, arg domain.TransferParams, now time.Time) (bool, error) {
	transactions, err := s.repo.List(ctx)
	if err != nil {
		return false, err
	}

	for _, t := range transactions {
		if t.AccountNumber != arg.AccountNumber || !t.Amount.Equal(arg.Amount) || t.Timestamp.IsZero() {
			continue
		}

		if abs(t.Timestamp.Minute()-now.Minute()) < 1 {
			return true, nil
		}
	}

	return false, nil
}

// Transfer moves arg.Amount from the source to the target account and records a
// COMPLETED transaction.
//
// Transfers from the same source account are serialized. If crediting the target or
// storing the record fails, the balance changes already made are reverted.
func (s *Service) Transfer(ctx context.Context, arg domain.TransferParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx).With().
		Str("source", arg.AccountNumber).
		Str("target", arg.TargetAccountNumber).
		Str("amount", arg.Amount.String()).
		Logger()

	if err := validAmount(arg.Amount); err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	unlock := s.sources.Lock(arg.AccountNumber)
	defer unlock()

	now := s.now()

	duplicate, err := s.isDuplicate(ctx, arg, now)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, err
	}

	if duplicate {
		l.Info().Err(domain.ErrDuplicateTransaction).Send()
		return domain.Transaction{}, domain.ErrDuplicateTransaction
	}

	if arg.ID != uuid.Nil {
		_, err := s.repo.Get(ctx, arg.ID)
		if err == nil {
			return domain.Transaction{}, domain.ErrTransactionAlreadyExists
		}

		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return domain.Transaction{}, err
		}
	}

	source, err := s.accountService.Get(ctx, arg.AccountNumber)
	if err != nil {
		return domain.Transaction{}, accountErr(err, domain.ErrSourceAccountNotFound)
	}

	if _, err := s.accountService.Get(ctx, arg.TargetAccountNumber); err != nil {
		return domain.Transaction{}, accountErr(err, domain.ErrTargetAccountNotFound)
	}

	if source.Balance.LessThan(arg.Amount) {
		l.Info().Str("balance", source.Balance.String()).Err(domain.ErrInsufficientBalance).Send()
		return domain.Transaction{}, domain.ErrInsufficientBalance
	}

	if _, err := s.accountService.Debit(ctx, arg.AccountNumber, arg.Amount); err != nil {
		l.Info().Err(err).Msg("debit failed")
		return domain.Transaction{}, accountErr(err, domain.ErrSourceAccountNotFound)
	}

	if _, err := s.accountService.Credit(ctx, arg.TargetAccountNumber, arg.Amount); err != nil {
		l.Error().Err(err).Msg("credit failed, reverting debit")
		s.revert(ctx, arg, false)

		return domain.Transaction{}, accountErr(err, domain.ErrTargetAccountNotFound)
	}

	t, err := s.repo.Create(ctx, domain.Transaction{
		ID:                  arg.ID,
		AccountNumber:       arg.AccountNumber,
		TargetAccountNumber: arg.TargetAccountNumber,
		Amount:              arg.Amount,
		Description:         arg.Description,
		Timestamp:           now,
		Status:              domain.StatusCompleted,
	})
	if err != nil {
		l.Error().Err(err).Msg("storing transaction failed, reverting transfer")
		s.revert(ctx, arg, true)

		return domain.Transaction{}, err
	}

	l.Info().Stringer("id", t.ID).Msg("transfer completed")

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, RoutingKeyCompleted, newCompletedEvent(t)); err != nil {
			l.Error().Err(err).Stringer("id", t.ID).Msg("cannot publish transaction event")
		}
	}

	return t, nil
}

// revert undoes the balance changes of a failed transfer.
// The credit of the target is undone only when credited is set.
func (s *Service) revert(ctx context.Context, arg domain.TransferParams, credited bool) {
	l := zerolog.Ctx(ctx)

	if credited {
		if _, err := s.accountService.Debit(ctx, arg.TargetAccountNumber, arg.Amount); err != nil {
			l.Error().Err(err).
				Str("account_number", arg.TargetAccountNumber).
				Str("amount", arg.Amount.String()).
				Msg("cannot revert credit")
		}
	}

	if _, err := s.accountService.Credit(ctx, arg.AccountNumber, arg.Amount); err != nil {
		l.Error().Err(err).
			Str("account_number", arg.AccountNumber).
			Str("amount", arg.Amount.String()).
			Msg("cannot revert debit")
	}
}

// accountErr replaces a generic account-not-found error with the transfer-specific one.
func accountErr(err, notFound error) error {
	if errors.Is(err, domain.ErrAccountNotFound) {
		return notFound
	}

	return err
}

// Get returns the transaction with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	return s.repo.Get(ctx, id)
}

// List returns all transactions in the order they were stored.
func (s *Service) List(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.List(ctx)
}

// ListPage returns one page of all transactions sorted as requested.
//
// The page is cut from a sorted snapshot of the whole store. Transactions with equal
// sort keys are ordered by id.
func (s *Service) ListPage(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Transaction], error) {
	var page domain.Page[domain.Transaction]

	if req.Page < 0 || req.Size <= 0 {
		return page, domain.ErrInvalidPage
	}

	sortBy, direction := req.SortBy, req.Direction
	if sortBy == "" {
		sortBy = DefaultSortBy
	}

	if direction == "" {
		direction = DefaultSortDirection
	}

	compare, ok := sortFields[sortBy]
	if !ok {
		return page, domain.ErrInvalidSortField
	}

	if direction != domain.Asc && direction != domain.Desc {
		return page, domain.ErrInvalidSortDirection
	}

	transactions, err := s.repo.List(ctx)
	if err != nil {
		return page, err
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		c := compare(transactions[i], transactions[j])
		if direction == domain.Desc {
			c = -c
		}

		if c == 0 {
			return transactions[i].ID.String() < transactions[j].ID.String()
		}

		return c < 0
	})

	start, end := pagepkg.Window(len(transactions), req.Page, req.Size)

	page.Items = transactions[start:end]
	page.Page = req.Page
	page.Size = req.Size
	page.TotalItems = len(transactions)
	page.TotalPages = pagepkg.TotalPages(len(transactions), req.Size)

	return page, nil
}

// Update rewrites source, target, amount and description of a transaction that is not
// COMPLETED. Status and timestamp are kept. Balances are not touched.
//
// Changes to one transaction are serialized with UpdateStatus and Delete.
func (s *Service) Update(ctx context.Context, id uuid.UUID, arg domain.UpdateTransactionParams) (domain.Transaction, error) {
	unlock := s.ids.Lock(id.String())
	defer unlock()

	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}

	if t.Status == domain.StatusCompleted {
		zerolog.Ctx(ctx).Info().Stringer("id", id).Err(domain.ErrCompletedTransactionImmutable).Send()
		return domain.Transaction{}, domain.ErrCompletedTransactionImmutable
	}

	if err := validAmount(arg.Amount); err != nil {
		return domain.Transaction{}, err
	}

	t.AccountNumber = arg.AccountNumber
	t.TargetAccountNumber = arg.TargetAccountNumber
	t.Amount = arg.Amount
	t.Description = arg.Description

	return s.repo.Update(ctx, t)
}

// UpdateStatus moves a PENDING transaction to the given status.
//
// This is the only way a transaction becomes FAILED. It moves no money.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Transaction, error) {
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return domain.Transaction{}, err
	}

	unlock := s.ids.Lock(id.String())
	defer unlock()

	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}

	switch {
	case t.Status == domain.StatusCompleted:
		return domain.Transaction{}, domain.ErrCompletedTransactionImmutable
	case t.Status.Terminal(), status == domain.StatusPending:
		return domain.Transaction{}, domain.ErrInvalidStatusTransition
	}

	t.Status = status

	return s.repo.Update(ctx, t)
}

// Delete removes the transaction. Balances moved by it stay as they are.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.ids.Lock(id.String())
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Stringer("id", id).Msg("transaction deleted")

	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}

	return 0
}
