// Package memory provides a mutex-guarded in-memory LedgerRepository.
// It backs local development without Postgres and the service test suites.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/finsentry/aml_backend/internal/apperrors"
	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/core/ports"
	"github.com/shopspring/decimal"
)

// LedgerStore implements ports.LedgerRepository over in-process maps.
// All methods are safe for concurrent use.
type LedgerStore struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account
	txns      []domain.Transaction
	appeals   map[string]domain.Appeal
	txCounter int
}

var _ ports.LedgerRepository = (*LedgerStore)(nil)

// NewLedgerStore creates an empty store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		accounts: make(map[string]domain.Account),
		appeals:  make(map[string]domain.Appeal),
	}
}

func (s *LedgerStore) SaveAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountID]; exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}
	s.accounts[account.AccountID] = account
	return nil
}

func (s *LedgerStore) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

func (s *LedgerStore) FindAccountsByIDs(_ context.Context, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := s.accounts[id]; ok {
			found[id] = account
		}
	}
	return found, nil
}

func (s *LedgerStore) ListAccounts(_ context.Context, status domain.AccountStatus) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		if status == "" || account.Status == status {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].RiskScore != accounts[j].RiskScore {
			return accounts[i].RiskScore > accounts[j].RiskScore
		}
		return accounts[i].AccountID < accounts[j].AccountID
	})
	return accounts, nil
}

func (s *LedgerStore) UpdateAccountStatus(_ context.Context, accountID string, status domain.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	account.Status = status
	s.accounts[accountID] = account
	return nil
}

func (s *LedgerStore) NextTransactionID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCounter++
	return fmt.Sprintf("TX%06d", s.txCounter), nil
}

func (s *LedgerStore) SaveTransaction(_ context.Context, txn domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.txns {
		if existing.TransactionID == txn.TransactionID {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, txn.TransactionID)
		}
	}
	s.txns = append(s.txns, txn)
	return nil
}

func (s *LedgerStore) FindTransactionsByAccount(_ context.Context, accountID string) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.Transaction
	for _, txn := range s.txns {
		if txn.SourceAccountID == accountID || txn.TargetAccountID == accountID {
			matched = append(matched, txn)
		}
	}
	sortNewestFirst(matched)
	return matched, nil
}

func (s *LedgerStore) FindTransactionsInWindow(_ context.Context, accountID string, since time.Time) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.Transaction
	for _, txn := range s.txns {
		if (txn.SourceAccountID == accountID || txn.TargetAccountID == accountID) && !txn.Timestamp.Before(since) {
			matched = append(matched, txn)
		}
	}
	sortNewestFirst(matched)
	return matched, nil
}

func (s *LedgerStore) ListTransactions(_ context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]domain.Transaction, len(s.txns))
	copy(all, s.txns)
	return all, nil
}

func (s *LedgerStore) ListTransactionsByStatus(_ context.Context, status domain.TransactionStatus) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.Transaction
	for _, txn := range s.txns {
		if txn.Status == status {
			matched = append(matched, txn)
		}
	}
	sortNewestFirst(matched)
	return matched, nil
}

func (s *LedgerStore) FindNeighborAccountIDs(_ context.Context, accountIDs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		members[id] = true
	}
	neighborSet := make(map[string]bool)
	for _, txn := range s.txns {
		if members[txn.SourceAccountID] {
			neighborSet[txn.TargetAccountID] = true
		}
		if members[txn.TargetAccountID] {
			neighborSet[txn.SourceAccountID] = true
		}
	}
	neighbors := make([]string, 0, len(neighborSet))
	for id := range neighborSet {
		neighbors = append(neighbors, id)
	}
	sort.Strings(neighbors)
	return neighbors, nil
}

func (s *LedgerStore) FindTransactionsAmong(_ context.Context, accountIDs []string) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		members[id] = true
	}
	var matched []domain.Transaction
	for _, txn := range s.txns {
		if members[txn.SourceAccountID] && members[txn.TargetAccountID] {
			matched = append(matched, txn)
		}
	}
	return matched, nil
}

func (s *LedgerStore) TransferBalances(_ context.Context, sourceAccountID, targetAccountID string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.accounts[sourceAccountID]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, sourceAccountID)
	}
	target, ok := s.accounts[targetAccountID]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, targetAccountID)
	}

	// Re-verify under the lock so a concurrent transfer cannot overdraw.
	if source.Balance.LessThan(amount) {
		return fmt.Errorf("%w: current balance %s does not cover %s", apperrors.ErrInsufficientFunds, source.Balance.String(), amount.String())
	}

	source.Balance = source.Balance.Sub(amount)
	target.Balance = target.Balance.Add(amount)
	s.accounts[sourceAccountID] = source
	s.accounts[targetAccountID] = target
	return nil
}

func (s *LedgerStore) SaveAppeal(_ context.Context, appeal domain.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.appeals[appeal.AppealID]; exists {
		return fmt.Errorf("%w: appeal %s", apperrors.ErrDuplicate, appeal.AppealID)
	}
	s.appeals[appeal.AppealID] = appeal
	return nil
}

func (s *LedgerStore) FindAppealsByAccount(_ context.Context, accountID string) ([]domain.Appeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.Appeal
	for _, appeal := range s.appeals {
		if appeal.AccountID == accountID {
			matched = append(matched, appeal)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *LedgerStore) FindPendingAppealByAccount(_ context.Context, accountID string) (*domain.Appeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, appeal := range s.appeals {
		if appeal.AccountID == accountID && appeal.Status == domain.AppealPending {
			found := appeal
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: no pending appeal for account %s", apperrors.ErrNotFound, accountID)
}

func (s *LedgerStore) ResolveAppeal(_ context.Context, appealID string, status domain.AppealStatus, reviewedBy string, reviewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appeal, ok := s.appeals[appealID]
	if !ok {
		return fmt.Errorf("%w: appeal %s", apperrors.ErrNotFound, appealID)
	}
	if appeal.Status != domain.AppealPending {
		return fmt.Errorf("%w: appeal %s is already %s", apperrors.ErrInvalidState, appealID, appeal.Status)
	}
	appeal.Status = status
	appeal.ReviewedBy = reviewedBy
	appeal.ReviewedAt = &reviewedAt
	s.appeals[appealID] = appeal
	return nil
}

func sortNewestFirst(txns []domain.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].Timestamp.Equal(txns[j].Timestamp) {
			return txns[i].Timestamp.After(txns[j].Timestamp)
		}
		return txns[i].TransactionID > txns[j].TransactionID
	})
}
