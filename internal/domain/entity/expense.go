package entity

import (
	"time"

	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

// ExpenseRecord is a single line on an expense report
type ExpenseRecord struct {
	ID               int64              `json:"id"`
	ReportID         int64              `json:"report_id"`
	Date             time.Time          `json:"date"`
	Category         string             `json:"category"`
	Description      string             `json:"description"`
	Amount           float64            `json:"amount"`
	Currency         string             `json:"currency"`
	NormalizedAmount float64            `json:"normalized_amount"`
	Status           workflow.LineState `json:"status"`
	ManagerComment   string             `json:"manager_comment,omitempty"`
	ReviewedBy       string             `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time         `json:"reviewed_at,omitempty"`
	CreatedBy        string             `json:"created_by"`
	CreatedAt        time.Time          `json:"created_at"`
}

// SameDay reports whether both expenses fall on the same calendar date
func (e *ExpenseRecord) SameDay(other *ExpenseRecord) bool {
	y1, m1, d1 := e.Date.Date()
	y2, m2, d2 := other.Date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
