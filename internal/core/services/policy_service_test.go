package services

import (
	"context"
	"testing"
	"time"

	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTransferAt(t *testing.T, store *memory.LedgerStore, source, target string, amount int64, ts time.Time) {
	t.Helper()
	ctx := context.Background()
	id, err := store.NextTransactionID(ctx)
	require.NoError(t, err)
	err = store.SaveTransaction(ctx, domain.Transaction{
		TransactionID:   id,
		SourceAccountID: source,
		TargetAccountID: target,
		Amount:          decimal.NewFromInt(amount),
		Currency:        "USD",
		TransactionType: "transfer",
		Timestamp:       ts,
		Status:          domain.TransactionApproved,
	})
	require.NoError(t, err)
}

func TestDetectStructuring_CandidateCountsOnce(t *testing.T) {
	store := memory.NewLedgerStore()
	seedAccount(t, store, "A", 0.1)
	seedAccount(t, store, "B", 0.1)

	now := time.Now()
	svc := NewPolicyService(store, DefaultPolicyConfig())
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	// Two banded transfers already in the window.
	seedTransferAt(t, store, "A", "B", 9100, now.Add(-1*time.Hour))
	seedTransferAt(t, store, "A", "B", 9200, now.Add(-2*time.Hour))

	// A non-banded candidate keeps the count at two: not structuring.
	detected, err := svc.DetectStructuring(ctx, "A", decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.False(t, detected)

	// A banded candidate makes it three: structuring.
	detected, err = svc.DetectStructuring(ctx, "A", decimal.NewFromInt(9500))
	require.NoError(t, err)
	assert.True(t, detected)
}

func TestDetectStructuring_WindowExcludesOldTransfers(t *testing.T) {
	store := memory.NewLedgerStore()
	seedAccount(t, store, "A", 0.1)
	seedAccount(t, store, "B", 0.1)

	now := time.Now()
	svc := NewPolicyService(store, DefaultPolicyConfig())
	svc.now = func() time.Time { return now }

	seedTransferAt(t, store, "A", "B", 9100, now.Add(-49*time.Hour))
	seedTransferAt(t, store, "A", "B", 9200, now.Add(-50*time.Hour))
	seedTransferAt(t, store, "A", "B", 9300, now.Add(-1*time.Hour))

	detected, err := svc.DetectStructuring(context.Background(), "A", decimal.NewFromInt(9400))
	require.NoError(t, err)
	assert.False(t, detected, "aged-out transfers must not count")
}

func TestDetectStructuring_BandEdges(t *testing.T) {
	store := memory.NewLedgerStore()
	seedAccount(t, store, "A", 0.1)
	seedAccount(t, store, "B", 0.1)

	now := time.Now()
	svc := NewPolicyService(store, DefaultPolicyConfig())
	svc.now = func() time.Time { return now }

	// Band is inclusive at both ends; 8999 and 10000 fall outside.
	seedTransferAt(t, store, "A", "B", 9000, now.Add(-1*time.Hour))
	seedTransferAt(t, store, "A", "B", 9999, now.Add(-2*time.Hour))
	seedTransferAt(t, store, "A", "B", 8999, now.Add(-3*time.Hour))
	seedTransferAt(t, store, "A", "B", 10000, now.Add(-4*time.Hour))

	detected, err := svc.DetectStructuring(context.Background(), "A", decimal.NewFromInt(9500))
	require.NoError(t, err)
	assert.True(t, detected)
}

func TestDetectHighVelocity(t *testing.T) {
	store := memory.NewLedgerStore()
	seedAccount(t, store, "A", 0.1)
	seedAccount(t, store, "B", 0.1)

	now := time.Now()
	svc := NewPolicyService(store, DefaultPolicyConfig())
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		seedTransferAt(t, store, "A", "B", 100, now.Add(-time.Duration(i+1)*time.Minute))
	}
	detected, err := svc.DetectHighVelocity(ctx, "A")
	require.NoError(t, err)
	assert.False(t, detected, "ten transactions is at the threshold, not over it")

	seedTransferAt(t, store, "A", "B", 100, now.Add(-30*time.Second))
	detected, err = svc.DetectHighVelocity(ctx, "A")
	require.NoError(t, err)
	assert.True(t, detected)
}

func TestDetectHighVelocity_WindowExcludesOldTransfers(t *testing.T) {
	store := memory.NewLedgerStore()
	seedAccount(t, store, "A", 0.1)
	seedAccount(t, store, "B", 0.1)

	now := time.Now()
	svc := NewPolicyService(store, DefaultPolicyConfig())
	svc.now = func() time.Time { return now }

	for i := 0; i < 15; i++ {
		seedTransferAt(t, store, "A", "B", 100, now.Add(-25*time.Hour))
	}
	detected, err := svc.DetectHighVelocity(context.Background(), "A")
	require.NoError(t, err)
	assert.False(t, detected)
}
