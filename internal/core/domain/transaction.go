package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the terminal decision recorded for a transaction.
// PENDING is transient; a transaction transitions to exactly one of the
// other states and never changes afterwards.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "PENDING"
	TransactionApproved TransactionStatus = "APPROVED"
	TransactionFlagged  TransactionStatus = "FLAGGED"
	TransactionBlocked  TransactionStatus = "BLOCKED"
)

// Transaction is a single directed transfer between two accounts.
// Both endpoints must exist as accounts at creation time.
type Transaction struct {
	TransactionID   string            `json:"transactionID"` // monotonically assigned, e.g. TX000042
	SourceAccountID string            `json:"sourceAccountID"`
	TargetAccountID string            `json:"targetAccountID"`
	Amount          decimal.Decimal   `json:"amount"` // positive
	Currency        string            `json:"currency"`
	TransactionType string            `json:"transactionType"` // transfer, payment, wire, ...
	Timestamp       time.Time         `json:"timestamp"`
	Status          TransactionStatus `json:"status"`
	IsSuspicious    bool              `json:"isSuspicious"`
	AIRiskScore     float64           `json:"aiRiskScore"`
}
