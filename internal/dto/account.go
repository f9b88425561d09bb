package dto

import (
	"time"

	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to onboard a new account.
type CreateAccountRequest struct {
	AccountID      string          `json:"accountID" binding:"required"`
	Name           string          `json:"name" binding:"required"`
	RiskScore      float64         `json:"riskScore" binding:"omitempty,min=0,max=1"`
	AccountAgeDays int             `json:"accountAgeDays" binding:"omitempty,min=0"`
	Balance        decimal.Decimal `json:"balance"`
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID      string               `json:"accountID"`
	Name           string               `json:"name"`
	RiskScore      float64              `json:"riskScore"`
	AccountAgeDays int                  `json:"accountAgeDays"`
	Balance        decimal.Decimal      `json:"balance"`
	Status         domain.AccountStatus `json:"status"`
	Typology       string               `json:"typology,omitempty"`
	IsSuspicious   bool                 `json:"isSuspicious"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      acc.AccountID,
		Name:           acc.Name,
		RiskScore:      acc.RiskScore,
		AccountAgeDays: acc.AccountAgeDays,
		Balance:        acc.Balance,
		Status:         acc.Status,
		Typology:       acc.Typology,
		IsSuspicious:   acc.IsSuspicious,
		CreatedAt:      acc.CreatedAt,
	}
}

// ToAccountResponses converts a slice of domain accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE FROZEN BLOCKED"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
