package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finsentry/aml_backend/internal/apperrors"
	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/core/ports"
	"github.com/finsentry/aml_backend/internal/dto"
	"github.com/google/uuid"
)

// AccountService manages account onboarding, the freeze state machine and
// the appeal workflow.
type AccountService struct {
	BaseService
	repo ports.LedgerRepository
	now  func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(repo ports.LedgerRepository) *AccountService {
	return &AccountService{repo: repo, now: time.Now}
}

// CreateAccount onboards a new account in ACTIVE status.
func (s *AccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	if req.RiskScore < 0 || req.RiskScore > 1 {
		return nil, fmt.Errorf("%w: risk score must be within [0,1]", apperrors.ErrValidation)
	}
	if req.Balance.IsNegative() {
		return nil, fmt.Errorf("%w: balance must not be negative", apperrors.ErrValidation)
	}

	if _, err := s.repo.FindAccountByID(ctx, req.AccountID); err == nil {
		return nil, fmt.Errorf("%w: account %s already exists", apperrors.ErrDuplicate, req.AccountID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("checking account %s: %w", req.AccountID, err)
	}

	account := domain.Account{
		AccountID:      req.AccountID,
		Name:           req.Name,
		RiskScore:      req.RiskScore,
		AccountAgeDays: req.AccountAgeDays,
		Balance:        req.Balance,
		Status:         domain.AccountActive,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Account persist failed", "accountID", req.AccountID)
		return nil, fmt.Errorf("saving account %s: %w", req.AccountID, err)
	}

	s.LogInfo(ctx, "Account created", "accountID", account.AccountID)
	return &account, nil
}

// GetAccountByID returns one account.
func (s *AccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("finding account %s: %w", accountID, err)
	}
	return account, nil
}

// ListAccounts returns accounts ordered by stored risk, highest first. An
// empty status lists all accounts.
func (s *AccountService) ListAccounts(ctx context.Context, status domain.AccountStatus) ([]domain.Account, error) {
	accounts, err := s.repo.ListAccounts(ctx, status)
	if err != nil {
		s.LogError(ctx, err, "Account listing failed", "status", string(status))
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}

// FreezeAccount suspends an ACTIVE account. Frozen accounts cannot originate
// transactions until unfrozen.
func (s *AccountService) FreezeAccount(ctx context.Context, accountID string) error {
	return s.transition(ctx, accountID, domain.AccountFrozen, func(current domain.AccountStatus) error {
		if current != domain.AccountActive {
			return fmt.Errorf("%w: cannot freeze account in status %s", apperrors.ErrInvalidState, current)
		}
		return nil
	})
}

// UnfreezeAccount reinstates a FROZEN account.
func (s *AccountService) UnfreezeAccount(ctx context.Context, accountID string) error {
	return s.transition(ctx, accountID, domain.AccountActive, func(current domain.AccountStatus) error {
		if current != domain.AccountFrozen {
			return fmt.Errorf("%w: cannot unfreeze account in status %s", apperrors.ErrInvalidState, current)
		}
		return nil
	})
}

// BlockAccount permanently blocks an account. There is no transition out.
func (s *AccountService) BlockAccount(ctx context.Context, accountID string) error {
	return s.transition(ctx, accountID, domain.AccountBlocked, func(current domain.AccountStatus) error {
		if current == domain.AccountBlocked {
			return fmt.Errorf("%w: account is already blocked", apperrors.ErrInvalidState)
		}
		return nil
	})
}

func (s *AccountService) transition(ctx context.Context, accountID string, target domain.AccountStatus, guard func(domain.AccountStatus) error) error {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("finding account %s: %w", accountID, err)
	}
	if err := guard(account.Status); err != nil {
		return err
	}
	if err := s.repo.UpdateAccountStatus(ctx, accountID, target); err != nil {
		s.LogError(ctx, err, "Status transition failed", "accountID", accountID, "target", string(target))
		return fmt.Errorf("updating account %s status: %w", accountID, err)
	}
	s.LogInfo(ctx, "Account status changed", "accountID", accountID, "from", string(account.Status), "to", string(target))
	return nil
}

// SubmitAppeal opens a PENDING appeal on a FROZEN account. An account may
// hold at most one PENDING appeal at a time.
func (s *AccountService) SubmitAppeal(ctx context.Context, accountID string, justification string) (*domain.Appeal, error) {
	if justification == "" {
		return nil, fmt.Errorf("%w: justification is required", apperrors.ErrValidation)
	}

	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("finding account %s: %w", accountID, err)
	}
	if account.Status != domain.AccountFrozen {
		return nil, fmt.Errorf("%w: appeals are only accepted for frozen accounts, status is %s", apperrors.ErrInvalidState, account.Status)
	}

	if _, err := s.repo.FindPendingAppealByAccount(ctx, accountID); err == nil {
		return nil, fmt.Errorf("%w: account %s already has a pending appeal", apperrors.ErrInvalidState, accountID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("checking pending appeals for %s: %w", accountID, err)
	}

	appeal := domain.Appeal{
		AppealID:      uuid.NewString(),
		AccountID:     accountID,
		Justification: justification,
		Status:        domain.AppealPending,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.SaveAppeal(ctx, appeal); err != nil {
		s.LogError(ctx, err, "Appeal persist failed", "accountID", accountID)
		return nil, fmt.Errorf("saving appeal for %s: %w", accountID, err)
	}

	s.LogInfo(ctx, "Appeal submitted", "accountID", accountID, "appealID", appeal.AppealID)
	return &appeal, nil
}

// ResolveAppeal settles the account's PENDING appeal. Approval reinstates the
// account to ACTIVE; rejection leaves it FROZEN. An account whose latest
// appeal is already settled gets an invalid-state error, not a not-found.
func (s *AccountService) ResolveAppeal(ctx context.Context, accountID string, approve bool, reviewedBy string) (*domain.Appeal, error) {
	appeal, err := s.repo.FindPendingAppealByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if history, histErr := s.repo.FindAppealsByAccount(ctx, accountID); histErr == nil && len(history) > 0 {
				return nil, fmt.Errorf("%w: latest appeal for account %s is already resolved", apperrors.ErrInvalidState, accountID)
			}
		}
		return nil, fmt.Errorf("finding pending appeal for %s: %w", accountID, err)
	}

	status := domain.AppealRejected
	if approve {
		status = domain.AppealApproved
	}
	reviewedAt := s.now().UTC()
	if err := s.repo.ResolveAppeal(ctx, appeal.AppealID, status, reviewedBy, reviewedAt); err != nil {
		s.LogError(ctx, err, "Appeal resolution failed", "appealID", appeal.AppealID)
		return nil, fmt.Errorf("resolving appeal %s: %w", appeal.AppealID, err)
	}

	if approve {
		if err := s.repo.UpdateAccountStatus(ctx, accountID, domain.AccountActive); err != nil {
			s.LogError(ctx, err, "Reinstatement after appeal failed", "accountID", accountID)
			return nil, fmt.Errorf("reinstating account %s: %w", accountID, err)
		}
	}

	appeal.Status = status
	appeal.ReviewedAt = &reviewedAt
	appeal.ReviewedBy = reviewedBy
	s.LogInfo(ctx, "Appeal resolved", "accountID", accountID, "appealID", appeal.AppealID, "status", string(status))
	return appeal, nil
}

// ListAppeals returns the account's appeal history, newest first.
func (s *AccountService) ListAppeals(ctx context.Context, accountID string) ([]domain.Appeal, error) {
	if _, err := s.repo.FindAccountByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("finding account %s: %w", accountID, err)
	}
	appeals, err := s.repo.FindAppealsByAccount(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Appeal listing failed", "accountID", accountID)
		return nil, fmt.Errorf("listing appeals for %s: %w", accountID, err)
	}
	return appeals, nil
}
