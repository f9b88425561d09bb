package domain

import "time"

// AppealStatus is the review state of an appeal. APPROVED and REJECTED are terminal.
type AppealStatus string

const (
	AppealPending  AppealStatus = "PENDING"
	AppealApproved AppealStatus = "APPROVED"
	AppealRejected AppealStatus = "REJECTED"
)

// Appeal is a frozen account holder's request to have their account
// reinstated. At most one PENDING appeal may exist per account.
type Appeal struct {
	AppealID      string       `json:"appealID"`
	AccountID     string       `json:"accountID"`
	Justification string       `json:"justification"`
	Status        AppealStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	ReviewedAt    *time.Time   `json:"reviewedAt,omitempty"`
	ReviewedBy    string       `json:"reviewedBy,omitempty"`
}
