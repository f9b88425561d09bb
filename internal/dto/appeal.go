package dto

import (
	"time"

	"github.com/finsentry/aml_backend/internal/core/domain"
)

// SubmitAppealRequest defines the data needed to open an appeal on a frozen
// account.
type SubmitAppealRequest struct {
	Justification string `json:"justification" binding:"required"`
}

// ResolveAppealRequest defines the review decision for a pending appeal.
// Approve is a pointer so that an explicit false is distinguishable from a
// missing field.
type ResolveAppealRequest struct {
	Approve    *bool  `json:"approve" binding:"required"`
	ReviewedBy string `json:"reviewedBy"`
}

// AppealResponse defines the data returned for an appeal.
// Mirrors domain.Appeal.
type AppealResponse struct {
	AppealID      string              `json:"appealID"`
	AccountID     string              `json:"accountID"`
	Justification string              `json:"justification"`
	Status        domain.AppealStatus `json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	ReviewedAt    *time.Time          `json:"reviewedAt,omitempty"`
	ReviewedBy    string              `json:"reviewedBy,omitempty"`
}

// ToAppealResponse converts a domain.Appeal to its DTO.
func ToAppealResponse(a *domain.Appeal) AppealResponse {
	return AppealResponse{
		AppealID:      a.AppealID,
		AccountID:     a.AccountID,
		Justification: a.Justification,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt,
		ReviewedAt:    a.ReviewedAt,
		ReviewedBy:    a.ReviewedBy,
	}
}

// ToAppealResponses converts a slice of domain appeals.
func ToAppealResponses(appeals []domain.Appeal) []AppealResponse {
	res := make([]AppealResponse, len(appeals))
	for i := range appeals {
		res[i] = ToAppealResponse(&appeals[i])
	}
	return res
}
