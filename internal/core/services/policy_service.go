package services

import (
	"context"
	"fmt"
	"time"

	"github.com/finsentry/aml_backend/internal/core/ports"
	"github.com/shopspring/decimal"
)

// PolicyConfig holds the thresholds of the submission-time policy checks.
type PolicyConfig struct {
	StructuringWindow   time.Duration   // lookback for banded transactions
	StructuringMaxCount int             // banded count above which structuring fires
	BandLow             decimal.Decimal // reporting-threshold band, inclusive
	BandHigh            decimal.Decimal
	VelocityWindow      time.Duration // lookback for the velocity count
	VelocityMaxCount    int           // count above which velocity fires
}

// DefaultPolicyConfig returns the standard policy thresholds.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		StructuringWindow:   48 * time.Hour,
		StructuringMaxCount: 2,
		BandLow:             decimal.NewFromInt(9000),
		BandHigh:            decimal.NewFromInt(9999),
		VelocityWindow:      24 * time.Hour,
		VelocityMaxCount:    10,
	}
}

// PolicyService recomputes the structuring and velocity checks from ledger
// history on every call. No counters are kept between submissions.
type PolicyService struct {
	BaseService
	repo ports.TransactionRepository
	cfg  PolicyConfig
	now  func() time.Time
}

// NewPolicyService creates a new PolicyService.
func NewPolicyService(repo ports.TransactionRepository, cfg PolicyConfig) *PolicyService {
	return &PolicyService{repo: repo, cfg: cfg, now: time.Now}
}

// DetectStructuring reports whether approving the candidate amount would push
// the account over the banded-transaction threshold within the trailing
// window. The candidate itself counts once when it falls in the band; it is
// not yet persisted, so the window scan cannot double count it.
func (s *PolicyService) DetectStructuring(ctx context.Context, accountID string, candidateAmount decimal.Decimal) (bool, error) {
	since := s.now().Add(-s.cfg.StructuringWindow)
	recent, err := s.repo.FindTransactionsInWindow(ctx, accountID, since)
	if err != nil {
		s.LogError(ctx, err, "Structuring window scan failed", "accountID", accountID)
		return false, fmt.Errorf("scanning structuring window: %w", err)
	}

	count := 0
	for _, txn := range recent {
		if s.inBand(txn.Amount) {
			count++
		}
	}
	if s.inBand(candidateAmount) {
		count++
	}

	detected := count > s.cfg.StructuringMaxCount
	if detected {
		s.LogWarn(ctx, "Structuring detected", "accountID", accountID, "bandedCount", count)
	}
	return detected, nil
}

// DetectHighVelocity reports whether the account's transaction count in the
// trailing window exceeds the velocity threshold.
func (s *PolicyService) DetectHighVelocity(ctx context.Context, accountID string) (bool, error) {
	since := s.now().Add(-s.cfg.VelocityWindow)
	recent, err := s.repo.FindTransactionsInWindow(ctx, accountID, since)
	if err != nil {
		s.LogError(ctx, err, "Velocity window scan failed", "accountID", accountID)
		return false, fmt.Errorf("scanning velocity window: %w", err)
	}

	detected := len(recent) > s.cfg.VelocityMaxCount
	if detected {
		s.LogWarn(ctx, "High velocity detected", "accountID", accountID, "windowCount", len(recent))
	}
	return detected, nil
}

func (s *PolicyService) inBand(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(s.cfg.BandLow) && amount.LessThanOrEqual(s.cfg.BandHigh)
}
