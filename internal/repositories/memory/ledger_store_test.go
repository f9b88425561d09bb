package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/finsentry/aml_backend/internal/apperrors"
	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferBalances_ConservesTotal(t *testing.T) {
	store := NewLedgerStore()
	ctx := context.Background()
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "A", Balance: decimal.NewFromInt(1000), Status: domain.AccountActive}))
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "B", Balance: decimal.NewFromInt(500), Status: domain.AccountActive}))

	require.NoError(t, store.TransferBalances(ctx, "A", "B", decimal.NewFromInt(300)))

	a, err := store.FindAccountByID(ctx, "A")
	require.NoError(t, err)
	b, err := store.FindAccountByID(ctx, "B")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(700)))
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(800)))
	assert.True(t, a.Balance.Add(b.Balance).Equal(decimal.NewFromInt(1500)))
}

func TestTransferBalances_RejectsOverdraw(t *testing.T) {
	store := NewLedgerStore()
	ctx := context.Background()
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "A", Balance: decimal.NewFromInt(100), Status: domain.AccountActive}))
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "B", Balance: decimal.Zero, Status: domain.AccountActive}))

	err := store.TransferBalances(ctx, "A", "B", decimal.NewFromInt(101))
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientFunds))

	// Neither balance changed.
	a, err := store.FindAccountByID(ctx, "A")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(100)))
	b, err := store.FindAccountByID(ctx, "B")
	require.NoError(t, err)
	assert.True(t, b.Balance.IsZero())
}

func TestTransferBalances_ConcurrentSpendsNeverOverdraw(t *testing.T) {
	store := NewLedgerStore()
	ctx := context.Background()
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "A", Balance: decimal.NewFromInt(100), Status: domain.AccountActive}))
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "B", Balance: decimal.Zero, Status: domain.AccountActive}))

	var wg sync.WaitGroup
	succeeded := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.TransferBalances(ctx, "A", "B", decimal.NewFromInt(60)); err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	count := 0
	for range succeeded {
		count++
	}
	assert.Equal(t, 1, count, "only one 60 transfer fits a 100 balance")

	a, err := store.FindAccountByID(ctx, "A")
	require.NoError(t, err)
	assert.False(t, a.Balance.IsNegative())
}

func TestNextTransactionID_MonotonicFormat(t *testing.T) {
	store := NewLedgerStore()
	ctx := context.Background()

	first, err := store.NextTransactionID(ctx)
	require.NoError(t, err)
	second, err := store.NextTransactionID(ctx)
	require.NoError(t, err)

	assert.Equal(t, "TX000001", first)
	assert.Equal(t, "TX000002", second)
}

func TestFindTransactionsInWindow(t *testing.T) {
	store := NewLedgerStore()
	ctx := context.Background()
	now := time.Now()

	for i, ts := range []time.Time{now.Add(-1 * time.Hour), now.Add(-30 * time.Hour)} {
		id, err := store.NextTransactionID(ctx)
		require.NoError(t, err)
		require.NoError(t, store.SaveTransaction(ctx, domain.Transaction{
			TransactionID:   id,
			SourceAccountID: "A",
			TargetAccountID: "B",
			Amount:          decimal.NewFromInt(int64(100 + i)),
			Timestamp:       ts,
			Status:          domain.TransactionApproved,
		}))
	}

	recent, err := store.FindTransactionsInWindow(ctx, "A", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].Amount.Equal(decimal.NewFromInt(100)))
}
