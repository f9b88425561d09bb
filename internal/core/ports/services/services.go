package services

import (
	"context"

	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// GraphSvcFacade exposes the read-only graph operations. Both operations
// tolerate a ledger that is being concurrently appended to.
type GraphSvcFacade interface {
	// ExtractSubgraph returns the neighborhood of the focal account within
	// the given hop depth (>= 1).
	ExtractSubgraph(ctx context.Context, accountID string, depth int) (*domain.Subgraph, error)
	// FindRings returns up to the configured maximum number of circular
	// transaction paths over the full ledger.
	FindRings(ctx context.Context) ([]domain.Ring, error)
}

// RiskSvcFacade exposes account risk scoring.
type RiskSvcFacade interface {
	ScoreAccountRisk(ctx context.Context, accountID string) (*domain.RiskAssessment, error)
}

// PolicySvcFacade exposes the per-transaction policy checks. Both checks are
// recomputed from ledger history at submission time; no counters persist.
type PolicySvcFacade interface {
	// DetectStructuring reports whether approving the candidate amount would
	// exceed the structuring threshold within the trailing window.
	DetectStructuring(ctx context.Context, accountID string, candidateAmount decimal.Decimal) (bool, error)
	// DetectHighVelocity reports whether the account's recent transaction
	// count exceeds the velocity threshold.
	DetectHighVelocity(ctx context.Context, accountID string) (bool, error)
}

// TransactionSvcFacade exposes transaction screening and lookups.
type TransactionSvcFacade interface {
	EvaluateTransaction(ctx context.Context, req dto.EvaluateTransactionRequest) (*dto.TransactionDecision, error)
	ListFlaggedTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListAccountTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error)
}

// ServiceContainer bundles every service facade for route registration.
type ServiceContainer struct {
	Graph       GraphSvcFacade
	Risk        RiskSvcFacade
	Policy      PolicySvcFacade
	Transaction TransactionSvcFacade
	Account     AccountSvcFacade
}

// AccountSvcFacade exposes account lifecycle and the appeal workflow.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, status domain.AccountStatus) ([]domain.Account, error)
	FreezeAccount(ctx context.Context, accountID string) error
	UnfreezeAccount(ctx context.Context, accountID string) error
	BlockAccount(ctx context.Context, accountID string) error
	SubmitAppeal(ctx context.Context, accountID string, justification string) (*domain.Appeal, error)
	ResolveAppeal(ctx context.Context, accountID string, approve bool, reviewedBy string) (*domain.Appeal, error)
	ListAppeals(ctx context.Context, accountID string) ([]domain.Appeal, error)
}
