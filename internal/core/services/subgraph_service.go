package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/finsentry/aml_backend/internal/apperrors"
	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/core/ports"
)

// SubgraphService extracts bounded-hop neighborhoods of the account graph.
type SubgraphService struct {
	BaseService
	repo ports.LedgerRepository
}

// NewSubgraphService creates a new SubgraphService.
func NewSubgraphService(repo ports.LedgerRepository) *SubgraphService {
	return &SubgraphService{repo: repo}
}

// ExtractSubgraph returns the neighborhood of the focal account within the
// given hop depth. Nodes are every account reachable in at most depth hops,
// links are every transaction whose both endpoints lie inside that node set.
func (s *SubgraphService) ExtractSubgraph(ctx context.Context, accountID string, depth int) (*domain.Subgraph, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("%w: depth must be at least 1, got %d", apperrors.ErrValidation, depth)
	}

	if _, err := s.repo.FindAccountByID(ctx, accountID); err != nil {
		s.LogError(ctx, err, "Focal account lookup failed", "accountID", accountID)
		return nil, fmt.Errorf("finding focal account %s: %w", accountID, err)
	}

	// Layered expansion: each pass adds the accounts one hop further out.
	visited := map[string]bool{accountID: true}
	frontier := []string{accountID}
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		neighborIDs, err := s.repo.FindNeighborAccountIDs(ctx, frontier)
		if err != nil {
			s.LogError(ctx, err, "Neighbor expansion failed", "accountID", accountID, "hop", hop)
			return nil, fmt.Errorf("expanding hop %d: %w", hop+1, err)
		}
		next := make([]string, 0, len(neighborIDs))
		for _, id := range neighborIDs {
			if !visited[id] {
				visited[id] = true
				next = append(next, id)
			}
		}
		frontier = next
	}

	memberIDs := make([]string, 0, len(visited))
	for id := range visited {
		memberIDs = append(memberIDs, id)
	}
	sort.Strings(memberIDs)

	accounts, err := s.repo.FindAccountsByIDs(ctx, memberIDs)
	if err != nil {
		s.LogError(ctx, err, "Subgraph node load failed", "accountID", accountID)
		return nil, fmt.Errorf("loading subgraph accounts: %w", err)
	}

	nodes := make([]domain.Account, 0, len(memberIDs))
	for _, id := range memberIDs {
		if acc, ok := accounts[id]; ok {
			nodes = append(nodes, acc)
		}
	}

	txns, err := s.repo.FindTransactionsAmong(ctx, memberIDs)
	if err != nil {
		s.LogError(ctx, err, "Subgraph edge load failed", "accountID", accountID)
		return nil, fmt.Errorf("loading subgraph transactions: %w", err)
	}

	links := make([]domain.TransactionEdge, 0, len(txns))
	for _, txn := range txns {
		links = append(links, domain.TransactionEdge{
			TransactionID:   txn.TransactionID,
			SourceAccountID: txn.SourceAccountID,
			TargetAccountID: txn.TargetAccountID,
			Amount:          txn.Amount,
			TransactionType: txn.TransactionType,
		})
	}

	s.LogDebug(ctx, "Subgraph extracted", "accountID", accountID, "depth", depth, "nodes", len(nodes), "links", len(links))
	return &domain.Subgraph{Nodes: nodes, Links: links}, nil
}
