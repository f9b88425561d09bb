package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finsentry/aml_backend/internal/apperrors"
	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/core/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for transaction data.
func newPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository{Pool: pool}}
}

// Ensure PgxTransactionRepository implements ports.TransactionRepository
var _ ports.TransactionRepository = (*PgxTransactionRepository)(nil)

const transactionColumns = `transaction_id, source_account_id, target_account_id, amount, currency, transaction_type, timestamp, status, is_suspicious, ai_risk_score`

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var txn domain.Transaction
	err := row.Scan(
		&txn.TransactionID,
		&txn.SourceAccountID,
		&txn.TargetAccountID,
		&txn.Amount,
		&txn.Currency,
		&txn.TransactionType,
		&txn.Timestamp,
		&txn.Status,
		&txn.IsSuspicious,
		&txn.AIRiskScore,
	)
	return txn, err
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()
	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txns, nil
}

// NextTransactionID reserves the next monotonic transaction identifier.
func (r *PgxTransactionRepository) NextTransactionID(ctx context.Context) (string, error) {
	var seq int64
	if err := r.Pool.QueryRow(ctx, `SELECT nextval('transaction_id_seq');`).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to reserve transaction id: %w", err)
	}
	return fmt.Sprintf("TX%06d", seq), nil
}

// SaveTransaction inserts a new transaction record.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (transaction_id, source_account_id, target_account_id, amount, currency, transaction_type, timestamp, status, is_suspicious, ai_risk_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		txn.TransactionID,
		txn.SourceAccountID,
		txn.TargetAccountID,
		txn.Amount,
		txn.Currency,
		txn.TransactionType,
		txn.Timestamp,
		txn.Status,
		txn.IsSuspicious,
		txn.AIRiskScore,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: transaction %s already exists", apperrors.ErrDuplicate, txn.TransactionID)
		}
		return fmt.Errorf("failed to save transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// FindTransactionsByAccount returns every transaction the account participates
// in, newest first.
func (r *PgxTransactionRepository) FindTransactionsByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE source_account_id = $1 OR target_account_id = $1
		ORDER BY timestamp DESC, transaction_id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for account %s: %w", accountID, err)
	}
	return collectTransactions(rows)
}

// FindTransactionsInWindow restricts FindTransactionsByAccount to
// transactions with timestamp >= since.
func (r *PgxTransactionRepository) FindTransactionsInWindow(ctx context.Context, accountID string, since time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE (source_account_id = $1 OR target_account_id = $1) AND timestamp >= $2
		ORDER BY timestamp DESC, transaction_id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction window for account %s: %w", accountID, err)
	}
	return collectTransactions(rows)
}

// ListTransactions is the full scan used by ring detection.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+transactionColumns+` FROM transactions;`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return collectTransactions(rows)
}

// ListTransactionsByStatus returns transactions in the given status, newest first.
func (r *PgxTransactionRepository) ListTransactionsByStatus(ctx context.Context, status domain.TransactionStatus) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE status = $1
		ORDER BY timestamp DESC, transaction_id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by status %s: %w", status, err)
	}
	return collectTransactions(rows)
}

// FindNeighborAccountIDs returns the ids of accounts connected by any
// transaction to any of the given accounts.
func (r *PgxTransactionRepository) FindNeighborAccountIDs(ctx context.Context, accountIDs []string) ([]string, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT neighbor FROM (
			SELECT target_account_id AS neighbor FROM transactions WHERE source_account_id = ANY($1)
			UNION
			SELECT source_account_id AS neighbor FROM transactions WHERE target_account_id = ANY($1)
		) n
		ORDER BY neighbor;
	`
	rows, err := r.Pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbor accounts: %w", err)
	}
	defer rows.Close()

	var neighbors []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor id: %w", err)
		}
		neighbors = append(neighbors, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating neighbor rows: %w", err)
	}
	return neighbors, nil
}

// FindTransactionsAmong returns transactions whose source and target both lie
// in the given account set.
func (r *PgxTransactionRepository) FindTransactionsAmong(ctx context.Context, accountIDs []string) ([]domain.Transaction, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE source_account_id = ANY($1) AND target_account_id = ANY($1);
	`
	rows, err := r.Pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions among accounts: %w", err)
	}
	return collectTransactions(rows)
}

// TransferBalances debits the source and credits the target as one atomic
// update. Both rows are locked in account id order to avoid deadlocks between
// concurrent transfers, and the source balance is re-verified under the lock.
func (r *PgxTransactionRepository) TransferBalances(ctx context.Context, sourceAccountID, targetAccountID string, amount decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	lockQuery := `
		SELECT account_id, balance FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, lockQuery, []string{sourceAccountID, targetAccountID})
	if err != nil {
		return fmt.Errorf("failed to lock accounts for transfer: %w", err)
	}
	balances := make(map[string]decimal.Decimal, 2)
	for rows.Next() {
		var id string
		var balance decimal.Decimal
		if err := rows.Scan(&id, &balance); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan locked account row: %w", err)
		}
		balances[id] = balance
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating locked account rows: %w", err)
	}

	sourceBalance, ok := balances[sourceAccountID]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, sourceAccountID)
	}
	if _, ok := balances[targetAccountID]; !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, targetAccountID)
	}
	if sourceBalance.LessThan(amount) {
		return fmt.Errorf("%w: current balance %s does not cover %s", apperrors.ErrInsufficientFunds, sourceBalance.String(), amount.String())
	}

	batch := &pgx.Batch{}
	batch.Queue(`UPDATE accounts SET balance = balance - $1 WHERE account_id = $2;`, amount, sourceAccountID)
	batch.Queue(`UPDATE accounts SET balance = balance + $1 WHERE account_id = $2;`, amount, targetAccountID)
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < 2; i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to apply balance update: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close balance update batch: %w", err)
	}

	return r.Commit(ctx, tx)
}
