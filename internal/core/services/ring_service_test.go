package services

import (
	"context"
	"testing"

	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRings_DetectsTriangleOnce(t *testing.T) {
	store := memory.NewLedgerStore()
	for _, id := range []string{"A", "B", "C"} {
		seedAccount(t, store, id, 0.1)
	}
	seedTransfer(t, store, "A", "B", 500, "transfer")
	seedTransfer(t, store, "B", "C", 500, "transfer")
	seedTransfer(t, store, "C", "A", 500, "transfer")

	svc := NewRingService(store, DefaultRingDetectorConfig())
	rings, err := svc.FindRings(context.Background())
	require.NoError(t, err)

	// Three seeds can all walk the same cycle; it must be reported once.
	require.Len(t, rings, 1)
	assert.Equal(t, 3, rings[0].RingLength)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, ringIDs(rings[0]))
	assert.Equal(t, "Account A", rings[0].Path[0].Name)
}

func TestFindRings_IgnoresTwoNodeCycles(t *testing.T) {
	store := memory.NewLedgerStore()
	seedAccount(t, store, "A", 0.1)
	seedAccount(t, store, "B", 0.1)
	seedTransfer(t, store, "A", "B", 500, "transfer")
	seedTransfer(t, store, "B", "A", 500, "transfer")

	svc := NewRingService(store, DefaultRingDetectorConfig())
	rings, err := svc.FindRings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rings)
}

func TestFindRings_NoDuplicateMembersOnPath(t *testing.T) {
	store := memory.NewLedgerStore()
	for _, id := range []string{"A", "B", "C", "D"} {
		seedAccount(t, store, id, 0.1)
	}
	seedTransfer(t, store, "A", "B", 500, "transfer")
	seedTransfer(t, store, "B", "C", 500, "transfer")
	seedTransfer(t, store, "C", "D", 500, "transfer")
	seedTransfer(t, store, "D", "A", 500, "transfer")
	seedTransfer(t, store, "C", "A", 500, "transfer")

	svc := NewRingService(store, DefaultRingDetectorConfig())
	rings, err := svc.FindRings(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rings)

	for _, ring := range rings {
		seen := map[string]bool{}
		for _, member := range ring.Path {
			assert.False(t, seen[member.AccountID], "member %s repeated on ring path", member.AccountID)
			seen[member.AccountID] = true
		}
		assert.GreaterOrEqual(t, ring.RingLength, 3)
	}
}

func TestFindRings_HonorsResultCap(t *testing.T) {
	store := memory.NewLedgerStore()
	// Two disjoint triangles but a cap of one ring.
	for _, id := range []string{"A", "B", "C", "X", "Y", "Z"} {
		seedAccount(t, store, id, 0.1)
	}
	seedTransfer(t, store, "A", "B", 500, "transfer")
	seedTransfer(t, store, "B", "C", 500, "transfer")
	seedTransfer(t, store, "C", "A", 500, "transfer")
	seedTransfer(t, store, "X", "Y", 500, "transfer")
	seedTransfer(t, store, "Y", "Z", 500, "transfer")
	seedTransfer(t, store, "Z", "X", 500, "transfer")

	cfg := DefaultRingDetectorConfig()
	cfg.MaxRings = 1
	svc := NewRingService(store, cfg)
	rings, err := svc.FindRings(context.Background())
	require.NoError(t, err)
	assert.Len(t, rings, 1)
}

func TestFindRings_EmptyLedger(t *testing.T) {
	store := memory.NewLedgerStore()
	svc := NewRingService(store, DefaultRingDetectorConfig())
	rings, err := svc.FindRings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rings)
}

func ringIDs(ring domain.Ring) []string {
	ids := make([]string, 0, len(ring.Path))
	for _, member := range ring.Path {
		ids = append(ids, member.AccountID)
	}
	return ids
}
