package pgsql

import (
	"github.com/finsentry/aml_backend/internal/core/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ledgerRepository bundles the three pgsql repositories into the single
// capability set the core depends on.
type ledgerRepository struct {
	*PgxAccountRepository
	*PgxTransactionRepository
	*PgxAppealRepository
}

// NewLedgerRepository wires the Postgres-backed LedgerRepository.
func NewLedgerRepository(dbPool *pgxpool.Pool) ports.LedgerRepository {
	return &ledgerRepository{
		PgxAccountRepository:     newPgxAccountRepository(dbPool),
		PgxTransactionRepository: newPgxTransactionRepository(dbPool),
		PgxAppealRepository:      newPgxAppealRepository(dbPool),
	}
}
