package ports

import (
	"context"
	"time"

	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Note: context is included on every method for cancellation/timeouts.
// The ledger is append-mostly: accounts mutate only balance and status,
// transactions are immutable once written with a terminal status.

// AccountRepository defines the persistence operations for Accounts.
type AccountRepository interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)
	// ListAccounts returns accounts ordered by stored risk score, highest
	// first. An empty status lists all accounts.
	ListAccounts(ctx context.Context, status domain.AccountStatus) ([]domain.Account, error)
	UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus) error
}

// TransactionRepository defines the persistence and graph-query operations
// for Transactions.
type TransactionRepository interface {
	// NextTransactionID reserves the next monotonic transaction identifier.
	NextTransactionID(ctx context.Context) (string, error)
	SaveTransaction(ctx context.Context, txn domain.Transaction) error
	// FindTransactionsByAccount returns every transaction in which the
	// account participates as source or target, newest first.
	FindTransactionsByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error)
	// FindTransactionsInWindow restricts FindTransactionsByAccount to
	// transactions with timestamp >= since.
	FindTransactionsInWindow(ctx context.Context, accountID string, since time.Time) ([]domain.Transaction, error)
	// ListTransactions is the full scan used by ring detection.
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListTransactionsByStatus(ctx context.Context, status domain.TransactionStatus) ([]domain.Transaction, error)
	// FindNeighborAccountIDs returns the ids of accounts connected by any
	// transaction (either direction) to any of the given accounts.
	FindNeighborAccountIDs(ctx context.Context, accountIDs []string) ([]string, error)
	// FindTransactionsAmong returns transactions whose source AND target
	// both lie in the given account set.
	FindTransactionsAmong(ctx context.Context, accountIDs []string) ([]domain.Transaction, error)
	// TransferBalances debits the source and credits the target by amount as
	// one atomic update. The source balance is re-verified inside the same
	// critical section; ErrInsufficientFunds is returned when it no longer
	// covers the amount, and neither balance changes.
	TransferBalances(ctx context.Context, sourceAccountID, targetAccountID string, amount decimal.Decimal) error
}

// AppealRepository defines the persistence operations for Appeals.
type AppealRepository interface {
	SaveAppeal(ctx context.Context, appeal domain.Appeal) error
	FindAppealsByAccount(ctx context.Context, accountID string) ([]domain.Appeal, error)
	// FindPendingAppealByAccount returns ErrNotFound when the account has no
	// PENDING appeal.
	FindPendingAppealByAccount(ctx context.Context, accountID string) (*domain.Appeal, error)
	// ResolveAppeal moves a PENDING appeal to a terminal status and stamps
	// the review. It returns ErrInvalidState when the appeal is not PENDING.
	ResolveAppeal(ctx context.Context, appealID string, status domain.AppealStatus, reviewedBy string, reviewedAt time.Time) error
}

// LedgerRepository groups the full capability set the core depends on.
type LedgerRepository interface {
	AccountRepository
	TransactionRepository
	AppealRepository
}
