package domain

import "github.com/shopspring/decimal"

// RiskLevel is a discrete triage bucket derived from the blended risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Laundering pattern flags, in descending priority order when several fire.
const (
	FlagCircularFlow = "Circular Flow Detected"
	FlagSmurfing     = "Smurfing Detected"
	FlagStructuring  = "Structuring Detected"
	FlagHighVelocity = "High Transaction Velocity"
)

// ContributingFactor explains one signal that fed a risk assessment.
type ContributingFactor struct {
	FactorType  string `json:"factorType"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// ScoredNode is a subgraph account annotated with its own locally derived
// risk, independent of the focal account's blended score.
type ScoredNode struct {
	Account
	PredictedRiskScore float64 `json:"predictedRiskScore"`
}

// AnnotatedSubgraph is a Subgraph whose nodes carry per-node risk scores.
type AnnotatedSubgraph struct {
	Nodes []ScoredNode      `json:"nodes"`
	Links []TransactionEdge `json:"links"`
}

// SuspiciousTransaction is an incident transaction singled out during
// scoring, with the reasons it stood out.
type SuspiciousTransaction struct {
	TransactionID   string          `json:"transactionID"`
	SourceAccountID string          `json:"source"`
	TargetAccountID string          `json:"target"`
	Amount          decimal.Decimal `json:"amount"`
	Reasons         []string        `json:"reasons"`
}

// RiskAssessment is the full output of scoring one account.
type RiskAssessment struct {
	AccountID              string                  `json:"accountID"`
	RiskProbability        float64                 `json:"riskProbability"`
	RiskLevel              RiskLevel               `json:"riskLevel"`
	PrimaryFlag            string                  `json:"primaryFlag,omitempty"` // empty when no pattern fired
	ContributingFactors    []ContributingFactor    `json:"contributingFactors"`
	SuspiciousTransactions []SuspiciousTransaction `json:"suspiciousTransactions"`
	Subgraph               AnnotatedSubgraph       `json:"subgraph"`
}
