// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/lockpkg"
	"github.com/go-petr/pet-ledger/pkg/pagepkg"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, a domain.Account) (domain.Account, error)
	Get(ctx context.Context, accountNumber string) (domain.Account, error)
	Update(ctx context.Context, a domain.Account) (domain.Account, error)
	Delete(ctx context.Context, accountNumber string) error
	List(ctx context.Context) ([]domain.Account, error)
}

// Default listing order.
const (
	DefaultSortBy        = "account_number"
	DefaultSortDirection = domain.Asc
)

type lessFunc func(a, b domain.Account) int

var sortFields = map[string]lessFunc{
	"account_number": func(a, b domain.Account) int { return strings.Compare(a.AccountNumber, b.AccountNumber) },
	"username":       func(a, b domain.Account) int { return strings.Compare(a.Username, b.Username) },
	"balance":        func(a, b domain.Account) int { return a.Balance.Cmp(b.Balance) },
	"created_at":     func(a, b domain.Account) int { return compareTime(a.CreatedAt, b.CreatedAt) },
}

// Service facilitates account service layer logic.
//
// Every change to an account runs under that account's lock, so balance updates
// are never lost to concurrent writers.
type Service struct {
	repo  Repo
	locks *lockpkg.KeyedMutex
	now   func() time.Time
}

// New returns account service struct to manage account business logic.
func New(ar Repo) *Service {
	return &Service{
		repo:  ar,
		locks: lockpkg.New(),
		now:   time.Now,
	}
}

// Create opens an account with the given initial balance.
func (s *Service) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if strings.TrimSpace(arg.AccountNumber) == "" {
		return domain.Account{}, domain.ErrInvalidAccountNumber
	}

	if err := validBalance(arg.Balance); err != nil {
		l.Info().Err(err).Str("balance", arg.Balance.String()).Send()
		return domain.Account{}, err
	}

	unlock := s.locks.Lock(arg.AccountNumber)
	defer unlock()

	account, err := s.repo.Create(ctx, domain.Account{
		AccountNumber: arg.AccountNumber,
		Username:      arg.Username,
		Balance:       arg.Balance,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return domain.Account{}, err
	}

	l.Info().Str("account_number", account.AccountNumber).Msg("account created")

	return account, nil
}

// Get returns the account with the given number.
func (s *Service) Get(ctx context.Context, accountNumber string) (domain.Account, error) {
	return s.repo.Get(ctx, accountNumber)
}

// UpdateProfile changes the account holder name and leaves balance and creation time intact.
func (s *Service) UpdateProfile(ctx context.Context, accountNumber, username string) (domain.Account, error) {
	return s.modify(ctx, accountNumber, func(a *domain.Account) error {
		a.Username = username
		return nil
	})
}

// SetBalance overwrites the balance of the account.
func (s *Service) SetBalance(ctx context.Context, accountNumber string, balance decimal.Decimal) (domain.Account, error) {
	if err := validBalance(balance); err != nil {
		return domain.Account{}, err
	}

	return s.modify(ctx, accountNumber, func(a *domain.Account) error {
		a.Balance = balance
		return nil
	})
}

// Debit subtracts amount from the account balance.
//
// The balance is read and written under the account lock; ErrInsufficientBalance is
// returned if the result would be negative.
func (s *Service) Debit(ctx context.Context, accountNumber string, amount decimal.Decimal) (domain.Account, error) {
	return s.modify(ctx, accountNumber, func(a *domain.Account) error {
		if a.Balance.LessThan(amount) {
			return domain.ErrInsufficientBalance
		}

		a.Balance = a.Balance.Sub(amount)

		return nil
	})
}

// Credit adds amount to the account balance.
func (s *Service) Credit(ctx context.Context, accountNumber string, amount decimal.Decimal) (domain.Account, error) {
	return s.modify(ctx, accountNumber, func(a *domain.Account) error {
		balance := a.Balance.Add(amount)
		if balance.IsNegative() {
			return domain.ErrNegativeBalance
		}

		a.Balance = balance

		return nil
	})
}

// Delete removes the account. Transactions referencing it are kept.
func (s *Service) Delete(ctx context.Context, accountNumber string) error {
	unlock := s.locks.Lock(accountNumber)
	defer unlock()

	if err := s.repo.Delete(ctx, accountNumber); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Str("account_number", accountNumber).Msg("account deleted")

	return nil
}

// List returns one page of accounts sorted as requested.
//
// Accounts with equal sort keys are ordered by account number.
func (s *Service) List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Account], error) {
	var page domain.Page[domain.Account]

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

	accounts, err := s.repo.List(ctx)
	if err != nil {
		return page, err
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		c := compare(accounts[i], accounts[j])
		if direction == domain.Desc {
			c = -c
		}

		if c == 0 {
			return accounts[i].AccountNumber < accounts[j].AccountNumber
		}

		return c < 0
	})

	start, end := pagepkg.Window(len(accounts), req.Page, req.Size)

	page.Items = accounts[start:end]
	page.Page = req.Page
	page.Size = req.Size
	page.TotalItems = len(accounts)
	page.TotalPages = pagepkg.TotalPages(len(accounts), req.Size)

	return page, nil
}

// modify applies change to the stored account under the account lock.
func (s *Service) modify(ctx context.Context, accountNumber string, change func(a *domain.Account) error) (domain.Account, error) {
	unlock := s.locks.Lock(accountNumber)
	defer unlock()

	account, err := s.repo.Get(ctx, accountNumber)
	if err != nil {
		return domain.Account{}, err
	}

	if err := change(&account); err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("account_number", accountNumber).Send()
		return domain.Account{}, err
	}

	return s.repo.Update(ctx, account)
}

func validBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return domain.ErrNegativeBalance
	}

	if !domain.ValidMoneyScale(balance) {
		return domain.ErrAmountPrecision
	}

	return nil
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
