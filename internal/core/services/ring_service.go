package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/core/ports"
)

// RingDetectorConfig bounds the ring search so it stays cheap on large ledgers.
type RingDetectorConfig struct {
	MaxStartAccounts int // how many accounts to seed the search from
	MaxDepth         int // longest ring considered
	MinRingLength    int // shortest ring reported
	MaxRings         int // hard cap on results
}

// DefaultRingDetectorConfig returns the standard search bounds.
func DefaultRingDetectorConfig() RingDetectorConfig {
	return RingDetectorConfig{
		MaxStartAccounts: 50,
		MaxDepth:         6,
		MinRingLength:    3,
		MaxRings:         20,
	}
}

// RingService detects circular transaction paths over the full ledger.
type RingService struct {
	BaseService
	repo ports.LedgerRepository
	cfg  RingDetectorConfig
}

// NewRingService creates a new RingService.
func NewRingService(repo ports.LedgerRepository, cfg RingDetectorConfig) *RingService {
	return &RingService{repo: repo, cfg: cfg}
}

// dfsFrame is one pending expansion in the iterative ring search.
type dfsFrame struct {
	node string
	path []string
}

// FindRings returns up to MaxRings closed directed paths of MinRingLength or
// more distinct accounts. Rings that visit the same member set are reported
// once regardless of direction or starting point.
func (s *RingService) FindRings(ctx context.Context) ([]domain.Ring, error) {
	txns, err := s.repo.ListTransactions(ctx)
	if err != nil {
		s.LogError(ctx, err, "Ledger scan for ring detection failed")
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	adjacency := make(map[string][]string)
	for _, txn := range txns {
		adjacency[txn.SourceAccountID] = append(adjacency[txn.SourceAccountID], txn.TargetAccountID)
	}

	// Deterministic seed order: senders sorted by id, first MaxStartAccounts.
	starts := make([]string, 0, len(adjacency))
	for id := range adjacency {
		starts = append(starts, id)
	}
	sort.Strings(starts)
	if len(starts) > s.cfg.MaxStartAccounts {
		starts = starts[:s.cfg.MaxStartAccounts]
	}

	seen := make(map[string]bool) // sorted member-set keys of reported rings
	var ringPaths [][]string

search:
	for _, start := range starts {
		stack := []dfsFrame{{node: start, path: []string{start}}}
		for len(stack) > 0 {
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			for _, next := range adjacency[frame.node] {
				if next == start {
					if len(frame.path) >= s.cfg.MinRingLength {
						key := memberSetKey(frame.path)
						if !seen[key] {
							seen[key] = true
							ringPaths = append(ringPaths, frame.path)
							if len(ringPaths) >= s.cfg.MaxRings {
								break search
							}
						}
					}
					continue
				}
				if len(frame.path) >= s.cfg.MaxDepth || containsID(frame.path, next) {
					continue
				}
				branch := make([]string, len(frame.path), len(frame.path)+1)
				copy(branch, frame.path)
				stack = append(stack, dfsFrame{node: next, path: append(branch, next)})
			}
		}
	}

	rings, err := s.resolveRingMembers(ctx, ringPaths)
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Ring detection completed", "startAccounts", len(starts), "ringsFound", len(rings))
	return rings, nil
}

// resolveRingMembers turns raw id paths into rings with account names attached.
func (s *RingService) resolveRingMembers(ctx context.Context, ringPaths [][]string) ([]domain.Ring, error) {
	memberIDs := make([]string, 0)
	idSet := make(map[string]bool)
	for _, path := range ringPaths {
		for _, id := range path {
			if !idSet[id] {
				idSet[id] = true
				memberIDs = append(memberIDs, id)
			}
		}
	}

	accounts := map[string]domain.Account{}
	if len(memberIDs) > 0 {
		var err error
		accounts, err = s.repo.FindAccountsByIDs(ctx, memberIDs)
		if err != nil {
			s.LogError(ctx, err, "Ring member load failed")
			return nil, fmt.Errorf("loading ring members: %w", err)
		}
	}

	rings := make([]domain.Ring, 0, len(ringPaths))
	for _, path := range ringPaths {
		members := make([]domain.RingMember, 0, len(path))
		for _, id := range path {
			member := domain.RingMember{AccountID: id}
			if acc, ok := accounts[id]; ok {
				member.Name = acc.Name
			}
			members = append(members, member)
		}
		rings = append(rings, domain.Ring{Path: members, RingLength: len(members)})
	}
	return rings, nil
}

func memberSetKey(path []string) string {
	sorted := make([]string, len(path))
	copy(sorted, path)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

func containsID(path []string, id string) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}
