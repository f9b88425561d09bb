package services

import (
	"context"
	"fmt"
	"time"

	"github.com/finsentry/aml_backend/internal/apperrors"
	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/core/ports"
	portssvc "github.com/finsentry/aml_backend/internal/core/ports/services"
	"github.com/finsentry/aml_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// Decision messages returned to submitters.
const (
	msgAccountFrozen = "Account frozen due to structuring detection"
	msgFlagged       = "Transaction flagged for compliance review"
	msgApproved      = "Transaction approved"
)

// ScreeningThresholds holds the flag criteria applied to every submission.
type ScreeningThresholds struct {
	BandLow       decimal.Decimal // reporting-threshold band, inclusive
	BandHigh      decimal.Decimal
	LargeAmount   decimal.Decimal // flag amounts strictly above this
	HighRiskScore float64         // flag risk scores strictly above this
}

// DefaultScreeningThresholds returns the standard flag criteria.
func DefaultScreeningThresholds() ScreeningThresholds {
	return ScreeningThresholds{
		BandLow:       decimal.NewFromInt(9000),
		BandHigh:      decimal.NewFromInt(9999),
		LargeAmount:   decimal.NewFromInt(50000),
		HighRiskScore: 0.7,
	}
}

// TransactionService screens candidate transactions and settles the ones
// that are approved.
type TransactionService struct {
	BaseService
	repo   ports.LedgerRepository
	risk   portssvc.RiskSvcFacade
	policy portssvc.PolicySvcFacade
	cfg    ScreeningThresholds
	now    func() time.Time
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(repo ports.LedgerRepository, risk portssvc.RiskSvcFacade, policy portssvc.PolicySvcFacade, cfg ScreeningThresholds) *TransactionService {
	return &TransactionService{repo: repo, risk: risk, policy: policy, cfg: cfg, now: time.Now}
}

// EvaluateTransaction runs the full screening pipeline on one candidate:
// eligibility, risk scoring, policy checks, then decision. Every decision is
// persisted as an immutable transaction record; balances move only on
// approval.
func (s *TransactionService) EvaluateTransaction(ctx context.Context, req dto.EvaluateTransactionRequest) (*dto.TransactionDecision, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if req.SourceAccountID == req.TargetAccountID {
		return nil, fmt.Errorf("%w: source and target accounts must differ", apperrors.ErrValidation)
	}

	source, err := s.repo.FindAccountByID(ctx, req.SourceAccountID)
	if err != nil {
		return nil, fmt.Errorf("finding source account %s: %w", req.SourceAccountID, err)
	}
	if _, err := s.repo.FindAccountByID(ctx, req.TargetAccountID); err != nil {
		return nil, fmt.Errorf("finding target account %s: %w", req.TargetAccountID, err)
	}

	if source.Status == domain.AccountFrozen {
		return nil, fmt.Errorf("%w: account is frozen, cannot process transactions", apperrors.ErrInvalidState)
	}

	if source.Balance.LessThan(req.Amount) {
		return nil, fmt.Errorf("%w: current balance %s does not cover %s", apperrors.ErrInsufficientFunds, source.Balance.String(), req.Amount.String())
	}

	// Risk pre-check. A scorer failure never rejects the submission; the
	// stored base risk stands in and the typology stays empty.
	aiRiskScore := source.RiskScore
	typology := ""
	if assessment, scoreErr := s.risk.ScoreAccountRisk(ctx, req.SourceAccountID); scoreErr != nil {
		s.LogWarn(ctx, "Risk scorer unavailable, using stored base risk", "accountID", req.SourceAccountID, "error", scoreErr.Error())
	} else {
		aiRiskScore = assessment.RiskProbability
		typology = assessment.PrimaryFlag
	}

	structuring, err := s.policy.DetectStructuring(ctx, req.SourceAccountID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("structuring check: %w", err)
	}
	velocity, err := s.policy.DetectHighVelocity(ctx, req.SourceAccountID)
	if err != nil {
		return nil, fmt.Errorf("velocity check: %w", err)
	}

	shouldFlag := structuring ||
		velocity ||
		s.inBand(req.Amount) ||
		req.Amount.GreaterThan(s.cfg.LargeAmount) ||
		aiRiskScore > s.cfg.HighRiskScore

	status := domain.TransactionApproved
	message := msgApproved
	switch {
	case structuring:
		status = domain.TransactionBlocked
		message = msgAccountFrozen
	case shouldFlag:
		status = domain.TransactionFlagged
		message = msgFlagged
	}

	if structuring {
		if err := s.repo.UpdateAccountStatus(ctx, req.SourceAccountID, domain.AccountFrozen); err != nil {
			s.LogError(ctx, err, "Auto-freeze after structuring failed", "accountID", req.SourceAccountID)
			return nil, fmt.Errorf("freezing account %s: %w", req.SourceAccountID, err)
		}
	}

	newBalance := source.Balance
	if status == domain.TransactionApproved {
		// The balance is re-verified under the transfer's lock; a concurrent
		// spend between the check above and here surfaces as
		// ErrInsufficientFunds and nothing is persisted.
		if err := s.repo.TransferBalances(ctx, req.SourceAccountID, req.TargetAccountID, req.Amount); err != nil {
			return nil, fmt.Errorf("settling transfer: %w", err)
		}
		newBalance = source.Balance.Sub(req.Amount)
	}

	txnID, err := s.repo.NextTransactionID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserving transaction id: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	txnType := req.TransactionType
	if txnType == "" {
		txnType = "transfer"
	}

	txn := domain.Transaction{
		TransactionID:   txnID,
		SourceAccountID: req.SourceAccountID,
		TargetAccountID: req.TargetAccountID,
		Amount:          req.Amount,
		Currency:        currency,
		TransactionType: txnType,
		Timestamp:       s.now().UTC(),
		Status:          status,
		IsSuspicious:    shouldFlag,
		AIRiskScore:     aiRiskScore,
	}
	if err := s.repo.SaveTransaction(ctx, txn); err != nil {
		s.LogError(ctx, err, "Transaction record persist failed", "transactionID", txnID)
		return nil, fmt.Errorf("saving transaction %s: %w", txnID, err)
	}

	s.LogInfo(ctx, "Transaction screened",
		"transactionID", txnID,
		"status", status,
		"sourceAccountID", req.SourceAccountID,
		"targetAccountID", req.TargetAccountID,
		"aiRiskScore", aiRiskScore,
		"structuringDetected", structuring,
	)

	return &dto.TransactionDecision{
		TransactionID:       txnID,
		Status:              status,
		SourceAccountID:     req.SourceAccountID,
		TargetAccountID:     req.TargetAccountID,
		Amount:              req.Amount,
		AIRiskScore:         aiRiskScore,
		Typology:            typology,
		StructuringDetected: structuring,
		AccountFrozen:       structuring,
		NewBalance:          newBalance,
		Message:             message,
	}, nil
}

// ListFlaggedTransactions returns every transaction held for compliance review.
func (s *TransactionService) ListFlaggedTransactions(ctx context.Context) ([]domain.Transaction, error) {
	txns, err := s.repo.ListTransactionsByStatus(ctx, domain.TransactionFlagged)
	if err != nil {
		s.LogError(ctx, err, "Flagged transaction scan failed")
		return nil, fmt.Errorf("listing flagged transactions: %w", err)
	}
	return txns, nil
}

// ListAccountTransactions returns the account's full history, newest first.
func (s *TransactionService) ListAccountTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	if _, err := s.repo.FindAccountByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("finding account %s: %w", accountID, err)
	}
	txns, err := s.repo.FindTransactionsByAccount(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Account history scan failed", "accountID", accountID)
		return nil, fmt.Errorf("listing transactions for account %s: %w", accountID, err)
	}
	return txns, nil
}

func (s *TransactionService) inBand(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(s.cfg.BandLow) && amount.LessThanOrEqual(s.cfg.BandHigh)
}
