package domain

import "github.com/shopspring/decimal"

// TransactionEdge is a transaction viewed as a directed edge of the
// account graph.
type TransactionEdge struct {
	TransactionID   string          `json:"transactionID"`
	SourceAccountID string          `json:"source"`
	TargetAccountID string          `json:"target"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transactionType"`
}

// Subgraph is the bounded-hop neighborhood of a focal account: every
// account reachable within the hop limit plus every transaction whose both
// endpoints lie inside that set. It is derived per request, never persisted.
type Subgraph struct {
	Nodes []Account         `json:"nodes"`
	Links []TransactionEdge `json:"links"`
}

// RingMember is one account on a detected ring path.
type RingMember struct {
	AccountID string `json:"accountID"`
	Name      string `json:"name"`
}

// Ring is a closed directed path of at least three distinct accounts in the
// transaction graph. Rings with the same unordered member set are considered
// duplicates.
type Ring struct {
	Path       []RingMember `json:"path"`
	RingLength int          `json:"ringLength"`
}
