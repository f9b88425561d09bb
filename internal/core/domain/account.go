package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
// ACTIVE and FROZEN are interchangeable via freeze/unfreeze; BLOCKED is terminal.
type AccountStatus string

const (
	AccountActive  AccountStatus = "ACTIVE"
	AccountFrozen  AccountStatus = "FROZEN"
	AccountBlocked AccountStatus = "BLOCKED"
)

// Account represents a participant in the transaction ledger.
// Accounts are never deleted, only status-transitioned.
type Account struct {
	AccountID      string          `json:"accountID"`
	Name           string          `json:"name"`
	RiskScore      float64         `json:"riskScore"` // stored base risk in [0,1]
	AccountAgeDays int             `json:"accountAgeDays"`
	Balance        decimal.Decimal `json:"balance"`
	Status         AccountStatus   `json:"status"`
	Typology       string          `json:"typology,omitempty"` // free-form classification tag
	IsSuspicious   bool            `json:"isSuspicious"`
	CreatedAt      time.Time       `json:"createdAt"`
}
