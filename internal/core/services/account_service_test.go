package services

import (
	"context"
	"errors"
	"testing"

	"github.com/finsentry/aml_backend/internal/apperrors"
	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/dto"
	"github.com/finsentry/aml_backend/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	store := memory.NewLedgerStore()
	svc := NewAccountService(store)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, dto.CreateAccountRequest{
		AccountID:      "ACC1",
		Name:           "Dana",
		RiskScore:      0.25,
		AccountAgeDays: 200,
		Balance:        decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AccountActive, account.Status)
	assert.False(t, account.CreatedAt.IsZero())

	// Same id again is a duplicate.
	_, err = svc.CreateAccount(ctx, dto.CreateAccountRequest{AccountID: "ACC1", Name: "Dana"})
	assert.True(t, errors.Is(err, apperrors.ErrDuplicate))

	// Risk score outside [0,1] is rejected.
	_, err = svc.CreateAccount(ctx, dto.CreateAccountRequest{AccountID: "ACC2", Name: "Eli", RiskScore: 1.5})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = svc.CreateAccount(ctx, dto.CreateAccountRequest{AccountID: "ACC3", Name: "Fin", Balance: decimal.NewFromInt(-5)})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestListAccounts_OrderedByRisk(t *testing.T) {
	store := memory.NewLedgerStore()
	svc := NewAccountService(store)
	ctx := context.Background()

	for id, risk := range map[string]float64{"LOW": 0.1, "HIGH": 0.9, "MID": 0.5} {
		_, err := svc.CreateAccount(ctx, dto.CreateAccountRequest{AccountID: id, Name: id, RiskScore: risk})
		require.NoError(t, err)
	}

	accounts, err := svc.ListAccounts(ctx, "")
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "HIGH", accounts[0].AccountID)
	assert.Equal(t, "MID", accounts[1].AccountID)
	assert.Equal(t, "LOW", accounts[2].AccountID)

	require.NoError(t, svc.FreezeAccount(ctx, "MID"))
	frozen, err := svc.ListAccounts(ctx, domain.AccountFrozen)
	require.NoError(t, err)
	require.Len(t, frozen, 1)
	assert.Equal(t, "MID", frozen[0].AccountID)
}

func TestAccountStatusTransitions(t *testing.T) {
	store := memory.NewLedgerStore()
	svc := NewAccountService(store)
	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, dto.CreateAccountRequest{AccountID: "ACC1", Name: "Dana"})
	require.NoError(t, err)

	// Unfreezing an active account is invalid.
	assert.True(t, errors.Is(svc.UnfreezeAccount(ctx, "ACC1"), apperrors.ErrInvalidState))

	require.NoError(t, svc.FreezeAccount(ctx, "ACC1"))
	assert.True(t, errors.Is(svc.FreezeAccount(ctx, "ACC1"), apperrors.ErrInvalidState))

	require.NoError(t, svc.UnfreezeAccount(ctx, "ACC1"))
	account, err := svc.GetAccountByID(ctx, "ACC1")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountActive, account.Status)

	// BLOCKED is terminal.
	require.NoError(t, svc.BlockAccount(ctx, "ACC1"))
	assert.True(t, errors.Is(svc.BlockAccount(ctx, "ACC1"), apperrors.ErrInvalidState))
	assert.True(t, errors.Is(svc.FreezeAccount(ctx, "ACC1"), apperrors.ErrInvalidState))
	assert.True(t, errors.Is(svc.UnfreezeAccount(ctx, "ACC1"), apperrors.ErrInvalidState))

	assert.True(t, errors.Is(svc.FreezeAccount(ctx, "GHOST"), apperrors.ErrNotFound))
}

func TestAppealWorkflow(t *testing.T) {
	store := memory.NewLedgerStore()
	svc := NewAccountService(store)
	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, dto.CreateAccountRequest{AccountID: "ACC1", Name: "Dana"})
	require.NoError(t, err)

	// Appeals are only accepted for frozen accounts.
	_, err = svc.SubmitAppeal(ctx, "ACC1", "please reinstate")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))

	require.NoError(t, svc.FreezeAccount(ctx, "ACC1"))
	appeal, err := svc.SubmitAppeal(ctx, "ACC1", "false positive")
	require.NoError(t, err)
	assert.Equal(t, domain.AppealPending, appeal.Status)
	assert.NotEmpty(t, appeal.AppealID)

	// One pending appeal per account.
	_, err = svc.SubmitAppeal(ctx, "ACC1", "again")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))

	resolved, err := svc.ResolveAppeal(ctx, "ACC1", true, "analyst-7")
	require.NoError(t, err)
	assert.Equal(t, domain.AppealApproved, resolved.Status)
	require.NotNil(t, resolved.ReviewedAt)
	assert.Equal(t, "analyst-7", resolved.ReviewedBy)

	account, err := svc.GetAccountByID(ctx, "ACC1")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountActive, account.Status)

	// The settled appeal cannot be resolved again.
	_, err = svc.ResolveAppeal(ctx, "ACC1", true, "analyst-7")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
}

func TestResolveAppeal_NoAppealEverFiled(t *testing.T) {
	store := memory.NewLedgerStore()
	svc := NewAccountService(store)
	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, dto.CreateAccountRequest{AccountID: "ACC1", Name: "Dana"})
	require.NoError(t, err)
	require.NoError(t, svc.FreezeAccount(ctx, "ACC1"))

	_, err = svc.ResolveAppeal(ctx, "ACC1", true, "analyst-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAppealRejectionKeepsAccountFrozen(t *testing.T) {
	store := memory.NewLedgerStore()
	svc := NewAccountService(store)
	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, dto.CreateAccountRequest{AccountID: "ACC1", Name: "Dana"})
	require.NoError(t, err)
	require.NoError(t, svc.FreezeAccount(ctx, "ACC1"))

	_, err = svc.SubmitAppeal(ctx, "ACC1", "false positive")
	require.NoError(t, err)

	resolved, err := svc.ResolveAppeal(ctx, "ACC1", false, "analyst-3")
	require.NoError(t, err)
	assert.Equal(t, domain.AppealRejected, resolved.Status)

	account, err := svc.GetAccountByID(ctx, "ACC1")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountFrozen, account.Status)

	// A rejected appeal does not block a new submission.
	second, err := svc.SubmitAppeal(ctx, "ACC1", "new evidence")
	require.NoError(t, err)
	assert.Equal(t, domain.AppealPending, second.Status)

	history, err := svc.ListAppeals(ctx, "ACC1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSubmitAppeal_RequiresJustification(t *testing.T) {
	store := memory.NewLedgerStore()
	svc := NewAccountService(store)
	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, dto.CreateAccountRequest{AccountID: "ACC1", Name: "Dana"})
	require.NoError(t, err)
	require.NoError(t, svc.FreezeAccount(ctx, "ACC1"))

	_, err = svc.SubmitAppeal(ctx, "ACC1", "")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}
