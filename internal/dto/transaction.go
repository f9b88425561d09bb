package dto

import (
	"time"

	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EvaluateTransactionRequest defines a candidate transaction submitted for
// screening. Currency and type default to USD / transfer when omitted.
type EvaluateTransactionRequest struct {
	SourceAccountID string          `json:"sourceAccountID" binding:"required"`
	TargetAccountID string          `json:"targetAccountID" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Currency        string          `json:"currency" binding:"omitempty,currency"`
	TransactionType string          `json:"transactionType"`
}

// TransactionDecision is the screening outcome returned to the caller.
type TransactionDecision struct {
	TransactionID       string                   `json:"transactionID"`
	Status              domain.TransactionStatus `json:"status"`
	SourceAccountID     string                   `json:"sourceAccountID"`
	TargetAccountID     string                   `json:"targetAccountID"`
	Amount              decimal.Decimal          `json:"amount"`
	AIRiskScore         float64                  `json:"aiRiskScore"`
	Typology            string                   `json:"typology,omitempty"`
	StructuringDetected bool                     `json:"structuringDetected"`
	AccountFrozen       bool                     `json:"accountFrozen"`
	NewBalance          decimal.Decimal          `json:"newBalance"`
	Message             string                   `json:"message"`
}

// TransactionResponse defines the data returned for a persisted transaction.
// Mirrors domain.Transaction.
type TransactionResponse struct {
	TransactionID   string                   `json:"transactionID"`
	SourceAccountID string                   `json:"sourceAccountID"`
	TargetAccountID string                   `json:"targetAccountID"`
	Amount          decimal.Decimal          `json:"amount"`
	Currency        string                   `json:"currency"`
	TransactionType string                   `json:"transactionType"`
	Timestamp       time.Time                `json:"timestamp"`
	Status          domain.TransactionStatus `json:"status"`
	IsSuspicious    bool                     `json:"isSuspicious"`
	AIRiskScore     float64                  `json:"aiRiskScore"`
}

// ToTransactionResponse converts a domain.Transaction to its DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   txn.TransactionID,
		SourceAccountID: txn.SourceAccountID,
		TargetAccountID: txn.TargetAccountID,
		Amount:          txn.Amount,
		Currency:        txn.Currency,
		TransactionType: txn.TransactionType,
		Timestamp:       txn.Timestamp,
		Status:          txn.Status,
		IsSuspicious:    txn.IsSuspicious,
		AIRiskScore:     txn.AIRiskScore,
	}
}

// ToTransactionResponses converts a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return res
}
