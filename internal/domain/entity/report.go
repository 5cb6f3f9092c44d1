package entity

import (
	"time"

	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

// Report is an employee's travel expense report
type Report struct {
	ID              int64                `json:"id"`
	OwnerID         string               `json:"owner_id"`
	Destination     string               `json:"destination"`
	Purpose         string               `json:"purpose"`
	StartDate       time.Time            `json:"start_date"`
	EndDate         time.Time            `json:"end_date"`
	Status          workflow.ReportState `json:"status"`
	Total           float64              `json:"total"`
	ApprovalToken   string               `json:"-"`
	ReviewerID      string               `json:"reviewer_id,omitempty"`
	RejectionReason string               `json:"rejection_reason,omitempty"`
	SubmissionCount int                  `json:"submission_count"`
	SubmittedAt     *time.Time           `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time           `json:"approved_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`

	Expenses []*ExpenseRecord `json:"expenses,omitempty"`
}

// HasBeenSubmitted returns true once the report entered approval at least once.
// Lines can no longer be deleted after that.
func (r *Report) HasBeenSubmitted() bool {
	return r.SubmissionCount > 0
}

// ReportFilter narrows report listings
type ReportFilter struct {
	OwnerID string
	Status  workflow.ReportState
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// ExpenseFilter narrows expense listings for one report
type ExpenseFilter struct {
	ReportID int64
	From     *time.Time
	To       *time.Time
}
