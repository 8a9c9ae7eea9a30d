package transactionservice

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/accountservice"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/transactionrepo"
)

type fixture struct {
	accounts     *accountservice.Service
	transactions *transactionrepo.RepoMem
	service      *Service
	clock        time.Time
}

func newFixture(t *testing.T, balances map[string]string) *fixture {
	t.Helper()

	f := &fixture{
		accounts:     accountservice.New(accountrepo.NewRepoMem()),
		transactions: transactionrepo.NewRepoMem(),
		clock:        testNow,
	}

	f.service = New(f.transactions, f.accounts, nil)
	f.service.now = func() time.Time { return f.clock }

	for number, balance := range balances {
		_, err := f.accounts.Create(context.Background(), domain.CreateAccountParams{
			AccountNumber: number,
			Username:      "holder " + number,
			Balance:       decimal.RequireFromString(balance),
		})
		require.NoError(t, err)
	}

	return f
}

func (f *fixture) balance(t *testing.T, accountNumber string) string {
	t.Helper()

	a, err := f.accounts.Get(context.Background(), accountNumber)
	require.NoError(t, err)

	return a.Balance.StringFixed(2)
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()

	n, err := f.transactions.Count(context.Background())
	require.NoError(t, err)

	return n
}

func transfer(source, target, amount string) domain.TransferParams {
	return domain.TransferParams{
		AccountNumber:       source,
		TargetAccountNumber: target,
		Amount:              decimal.RequireFromString(amount),
	}
}

func TestTransferMovesFunds(t *testing.T) {
	f := newFixture(t, map[string]string{"A1": "1000.00", "A2": "1000.00"})

	res, err := f.service.Transfer(context.Background(), transfer("A1", "A2", "100.00"))
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, res.Status)

	require.Equal(t, "900.00", f.balance(t, "A1"))
	require.Equal(t, "1100.00", f.balance(t, "A2"))

	stored, err := f.service.Get(context.Background(), res.ID)
	require.NoError(t, err)
	require.Equal(t, res, stored)
}

func TestTransferInsufficientBalance(t *testing.T) {
	f := newFixture(t, map[string]string{"A1": "50.00", "A2": "1000.00"})

	_, err := f.service.Transfer(context.Background(), transfer("A1", "A2", "50.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	require.Equal(t, "50.00", f.balance(t, "A1"))
	require.Equal(t, "1000.00", f.balance(t, "A2"))
	require.Zero(t, f.count(t))
}

func TestTransferDuplicateWithinMinute(t *testing.T) {
	f := newFixture(t, map[string]string{"A1": "1000.00", "A2": "1000.00"})

	_, err := f.service.Transfer(context.Background(), transfer("A1", "A2", "100.00"))
	require.NoError(t, err)

	f.clock = f.clock.Add(20 * time.Second)

	_, err = f.service.Transfer(context.Background(), transfer("A1", "A2", "100.00"))
	require.ErrorIs(t, err, domain.ErrDuplicateTransaction)

	require.Equal(t, "900.00", f.balance(t, "A1"))
	require.Equal(t, "1100.00", f.balance(t, "A2"))
	require.Equal(t, 1, f.count(t))

	// The next minute of the hour is no longer a duplicate.
	f.clock = f.clock.Add(time.Minute)

	_, err = f.service.Transfer(context.Background(), transfer("A1", "A2", "100.00"))
	require.NoError(t, err)
	require.Equal(t, 2, f.count(t))
}

func TestTransferAccountsNotFound(t *testing.T) {
	f := newFixture(t, map[string]string{"A1": "1000.00"})

	_, err := f.service.Transfer(context.Background(), transfer("A0", "A1", "1.00"))
	require.ErrorIs(t, err, domain.ErrSourceAccountNotFound)

	_, err = f.service.Transfer(context.Background(), transfer("A1", "A9", "1.00"))
	require.ErrorIs(t, err, domain.ErrTargetAccountNotFound)

	require.Equal(t, "1000.00", f.balance(t, "A1"))
	require.Zero(t, f.count(t))
}

func TestTransferToSelf(t *testing.T) {
	f := newFixture(t, map[string]string{"A1": "100.00"})

	res, err := f.service.Transfer(context.Background(), transfer("A1", "A1", "60.00"))
	require.NoError(t, err)
	require.Equal(t, "A1", res.TargetAccountNumber)

	require.Equal(t, "100.00", f.balance(t, "A1"))
	require.Equal(t, 1, f.count(t))
}

func TestDeleteKeepsBalances(t *testing.T) {
	f := newFixture(t, map[string]string{"A1": "1000.00", "A2": "1000.00"})

	res, err := f.service.Transfer(context.Background(), transfer("A1", "A2", "100.00"))
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), res.ID))
	require.Zero(t, f.count(t))

	require.Equal(t, "900.00", f.balance(t, "A1"))
	require.Equal(t, "1100.00", f.balance(t, "A2"))

	require.ErrorIs(t, f.service.Delete(context.Background(), uuid.New()), domain.ErrTransactionNotFound)
}

func TestDeleteMissingKeepsStoreSize(t *testing.T) {
	f := newFixture(t, map[string]string{"A1": "1000.00", "A2": "1000.00"})

	_, err := f.service.Transfer(context.Background(), transfer("A1", "A2", "100.00"))
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
	require.Equal(t, 1, f.count(t))
}

func TestUpdateStoredPending(t *testing.T) {
	f := newFixture(t, nil)

	pending, err := f.transactions.Create(context.Background(), domain.Transaction{
		AccountNumber:       "A1",
		TargetAccountNumber: "A2",
		Amount:              decimal.RequireFromString("10.00"),
		Timestamp:           testNow,
		Status:              domain.StatusPending,
	})
	require.NoError(t, err)

	updated, err := f.service.Update(context.Background(), pending.ID, domain.UpdateTransactionParams{
		AccountNumber:       "A3",
		TargetAccountNumber: "A4",
		Amount:              decimal.RequireFromString("20.00"),
		Description:         "rent",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, updated.Status)
	require.Equal(t, testNow, updated.Timestamp)

	failed, err := f.service.UpdateStatus(context.Background(), pending.ID, domain.StatusFailed)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, failed.Status)

	stored, err := f.service.Get(context.Background(), pending.ID)
	require.NoError(t, err)
	require.Equal(t, "A3", stored.AccountNumber)
	require.Equal(t, domain.StatusFailed, stored.Status)
}

// statusRaceRepo runs during once, right after the first Get returns.
type statusRaceRepo struct {
	*transactionrepo.RepoMem
	hooked atomic.Bool
	during func()
}

func (r *statusRaceRepo) Get(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	t, err := r.RepoMem.Get(ctx, id)
	if r.hooked.CompareAndSwap(false, true) {
		r.during()
	}

	return t, err
}

func TestUpdateDoesNotOverwriteConcurrentStatusChange(t *testing.T) {
	ctx := context.Background()

	repo := &statusRaceRepo{RepoMem: transactionrepo.NewRepoMem()}
	s := New(repo, accountservice.New(accountrepo.NewRepoMem()), nil)

	pending, err := repo.Create(ctx, domain.Transaction{
		AccountNumber:       "A1",
		TargetAccountNumber: "A2",
		Amount:              decimal.RequireFromString("10.00"),
		Timestamp:           testNow,
		Status:              domain.StatusPending,
	})
	require.NoError(t, err)

	statusErr := make(chan error, 1)

	// Complete the transaction while Update sits between its read and its write.
	repo.during = func() {
		go func() {
			_, err := s.UpdateStatus(ctx, pending.ID, domain.StatusCompleted)
			statusErr <- err
		}()

		select {
		case err := <-statusErr:
			statusErr <- err
		case <-time.After(100 * time.Millisecond):
		}
	}

	_, err = s.Update(ctx, pending.ID, domain.UpdateTransactionParams{
		AccountNumber:       "A1",
		TargetAccountNumber: "A2",
		Amount:              decimal.RequireFromString("99"),
	})
	require.NoError(t, err)
	require.NoError(t, <-statusErr)

	stored, err := repo.RepoMem.Get(ctx, pending.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, stored.Status)
	require.True(t, decimal.RequireFromString("99").Equal(stored.Amount))

	_, err = s.Update(ctx, pending.ID, domain.UpdateTransactionParams{
		AccountNumber:       "A1",
		TargetAccountNumber: "A2",
		Amount:              decimal.RequireFromString("1"),
	})
	require.ErrorIs(t, err, domain.ErrCompletedTransactionImmutable)
}

func TestListPage(t *testing.T) {
	f := newFixture(t, map[string]string{"A1": "1000.00", "A2": "1000.00"})

	var created []domain.Transaction

	for i := 0; i < 3; i++ {
		res, err := f.service.Transfer(context.Background(), transfer("A1", "A2", "10.00"))
		require.NoError(t, err)

		created = append(created, res)
		f.clock = f.clock.Add(time.Minute)
	}

	all, err := f.service.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, created, all)

	first, err := f.service.ListPage(context.Background(), domain.PageRequest{Page: 0, Size: 2})
	require.NoError(t, err)
	require.Equal(t, []domain.Transaction{created[2], created[1]}, first.Items)
	require.Equal(t, 3, first.TotalItems)
	require.Equal(t, 2, first.TotalPages)

	second, err := f.service.ListPage(context.Background(), domain.PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	require.Equal(t, []domain.Transaction{created[0]}, second.Items)

	asc, err := f.service.ListPage(context.Background(), domain.PageRequest{
		Page: 0, Size: 10, SortBy: "timestamp", Direction: domain.Asc,
	})
	require.NoError(t, err)
	require.Equal(t, created, asc.Items)

	_, err = f.service.ListPage(context.Background(), domain.PageRequest{Page: 0, Size: 2, SortBy: "owner"})
	require.ErrorIs(t, err, domain.ErrInvalidSortField)

	_, err = f.service.ListPage(context.Background(), domain.PageRequest{Page: -1, Size: 2})
	require.ErrorIs(t, err, domain.ErrInvalidPage)

	_, err = f.service.ListPage(context.Background(), domain.PageRequest{Page: 0, Size: 2, Direction: "sideways"})
	require.ErrorIs(t, err, domain.ErrInvalidSortDirection)
}

func TestConcurrentTransfersConserveMoney(t *testing.T) {
	numbers := []string{"A1", "A2", "A3", "A4"}
	f := newFixture(t, map[string]string{"A1": "100.00", "A2": "100.00", "A3": "100.00", "A4": "100.00"})

	const n = 400

	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			// Distinct amounts keep the duplicate check out of the way.
			arg := domain.TransferParams{
				AccountNumber:       numbers[i%len(numbers)],
				TargetAccountNumber: numbers[(i+1)%len(numbers)],
				Amount:              decimal.New(int64(i+1), -2),
			}

			_, _ = f.service.Transfer(context.Background(), arg)
		}(i)
	}

	wg.Wait()

	total := decimal.Zero

	for _, number := range numbers {
		a, err := f.accounts.Get(context.Background(), number)
		require.NoError(t, err)
		require.False(t, a.Balance.IsNegative())

		total = total.Add(a.Balance)
	}

	require.Equal(t, "400.00", total.StringFixed(2))

	// Every account's balance equals its opening balance plus the recorded net flow.
	recorded, err := f.service.List(context.Background())
	require.NoError(t, err)

	net := map[string]decimal.Decimal{}
	for _, tr := range recorded {
		net[tr.AccountNumber] = net[tr.AccountNumber].Sub(tr.Amount)
		net[tr.TargetAccountNumber] = net[tr.TargetAccountNumber].Add(tr.Amount)
	}

	for _, number := range numbers {
		want := decimal.RequireFromString("100.00").Add(net[number])
		require.Equal(t, want.StringFixed(2), f.balance(t, number), number)
	}
}
