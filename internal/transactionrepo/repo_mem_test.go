package transactionrepo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
)

func randomTransaction() domain.Transaction {
	return domain.Transaction{
		AccountNumber:       randompkg.AccountNumber(),
		TargetAccountNumber: randompkg.AccountNumber(),
		Amount:              randompkg.MoneyBetween(1, 100),
		Description:         randompkg.String(12),
		Timestamp:           time.Now().UTC(),
		Status:              domain.StatusCompleted,
	}
}

func TestCreate(t *testing.T) {
	r := NewRepoMem()

	arg := randomTransaction()

	got, err := r.Create(context.Background(), arg)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, got.ID)

	arg.ID = got.ID
	require.Equal(t, arg, got)

	_, err = r.Create(context.Background(), arg)
	require.ErrorIs(t, err, domain.ErrTransactionAlreadyExists)

	n, err := r.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCreateKeepsGivenID(t *testing.T) {
	r := NewRepoMem()

	arg := randomTransaction()
	arg.ID = uuid.New()

	got, err := r.Create(context.Background(), arg)
	require.NoError(t, err)
	require.Equal(t, arg.ID, got.ID)
}

func TestGetUpdateDelete(t *testing.T) {
	r := NewRepoMem()

	created, err := r.Create(context.Background(), randomTransaction())
	require.NoError(t, err)

	got, err := r.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	created.Description = "changed"

	updated, err := r.Update(context.Background(), created)
	require.NoError(t, err)
	require.Equal(t, "changed", updated.Description)

	require.NoError(t, r.Delete(context.Background(), created.ID))

	_, err = r.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)

	_, err = r.Update(context.Background(), created)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)

	require.ErrorIs(t, r.Delete(context.Background(), created.ID), domain.ErrTransactionNotFound)
}

func TestList(t *testing.T) {
	r := NewRepoMem()

	var want []domain.Transaction

	for i := 0; i < 5; i++ {
		created, err := r.Create(context.Background(), randomTransaction())
		require.NoError(t, err)

		want = append(want, created)
	}

	got, err := r.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)
}
