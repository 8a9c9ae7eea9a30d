// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/kvstore"
)

// RepoMem keeps accounts in process memory, keyed by account number.
type RepoMem struct {
	store *kvstore.Store[string, domain.Account]
}

// NewRepoMem returns an empty account RepoMem.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		store: kvstore.New[string, domain.Account](),
	}
}

// Create stores the account unless its number is already taken.
func (r *RepoMem) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	if !r.store.Insert(a.AccountNumber, a) {
		zerolog.Ctx(ctx).Info().Str("account_number", a.AccountNumber).Err(domain.ErrAccountAlreadyExists).Send()
		return domain.Account{}, domain.ErrAccountAlreadyExists
	}

	return a, nil
}

// Get returns the account with the given number.
func (r *RepoMem) Get(ctx context.Context, accountNumber string) (domain.Account, error) {
	a, ok := r.store.Get(accountNumber)
	if !ok {
		zerolog.Ctx(ctx).Info().Str("account_number", accountNumber).Err(domain.ErrAccountNotFound).Send()
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

// Update overwrites a stored account and returns it.
func (r *RepoMem) Update(ctx context.Context, a domain.Account) (domain.Account, error) {
	if !r.store.Replace(a.AccountNumber, a) {
		zerolog.Ctx(ctx).Info().Str("account_number", a.AccountNumber).Err(domain.ErrAccountNotFound).Send()
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

// Delete removes the account with the given number.
func (r *RepoMem) Delete(ctx context.Context, accountNumber string) error {
	if !r.store.Delete(accountNumber) {
		zerolog.Ctx(ctx).Info().Str("account_number", accountNumber).Err(domain.ErrAccountNotFound).Send()
		return domain.ErrAccountNotFound
	}

	return nil
}

// List returns all accounts in creation order.
func (r *RepoMem) List(ctx context.Context) ([]domain.Account, error) {
	return r.store.List(), nil
}
