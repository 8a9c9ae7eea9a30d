// Package transactionrepo manages repository layer of transactions.
package transactionrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/kvstore"
)

// RepoMem keeps transactions in process memory, keyed by id.
type RepoMem struct {
	store *kvstore.Store[uuid.UUID, domain.Transaction]
}

// NewRepoMem returns an empty transaction RepoMem.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		store: kvstore.New[uuid.UUID, domain.Transaction](),
	}
}

// Create stores the transaction, generating its id when it has none.
func (r *RepoMem) Create(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	if !r.store.Insert(t.ID, t) {
		zerolog.Ctx(ctx).Info().Stringer("id", t.ID).Err(domain.ErrTransactionAlreadyExists).Send()
		return domain.Transaction{}, domain.ErrTransactionAlreadyExists
	}

	return t, nil
}

// Get returns the transaction with the given id.
func (r *RepoMem) Get(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	t, ok := r.store.Get(id)
	if !ok {
		zerolog.Ctx(ctx).Info().Stringer("id", id).Err(domain.ErrTransactionNotFound).Send()
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	return t, nil
}

// Update overwrites a stored transaction and returns it.
func (r *RepoMem) Update(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	if !r.store.Replace(t.ID, t) {
		zerolog.Ctx(ctx).Info().Stringer("id", t.ID).Err(domain.ErrTransactionNotFound).Send()
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	return t, nil
}

// Delete removes the transaction with the given id.
func (r *RepoMem) Delete(ctx context.Context, id uuid.UUID) error {
	if !r.store.Delete(id) {
		zerolog.Ctx(ctx).Info().Stringer("id", id).Err(domain.ErrTransactionNotFound).Send()
		return domain.ErrTransactionNotFound
	}

	return nil
}

// List returns all transactions in the order they were stored.
func (r *RepoMem) List(ctx context.Context) ([]domain.Transaction, error) {
	return r.store.List(), nil
}

// Count returns the number of stored transactions.
func (r *RepoMem) Count(ctx context.Context) (int, error) {
	return r.store.Len(), nil
}
