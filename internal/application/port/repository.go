package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConditionFailed is returned when a conditional update matched no rows
	// because the record left the expected pre-state
	ErrConditionFailed = errors.New("record no longer in expected state")
)

// ReportRepository defines persistence operations for Report.
// Status-changing methods are conditional on the expected pre-state and
// return ErrConditionFailed when it no longer holds.
type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	GetByID(ctx context.Context, id int64) (*entity.Report, error)
	List(ctx context.Context, filter entity.ReportFilter) ([]*entity.Report, error)

	// UpdateTrip updates trip metadata while the report is draft or open
	UpdateTrip(ctx context.Context, report *entity.Report) error

	// UpdateTotal stores the recomputed running total
	UpdateTotal(ctx context.Context, id int64, total float64) error

	// Open moves a draft report to open
	Open(ctx context.Context, id int64, openedAt time.Time) error

	// MarkSubmitted moves an open report to pending_approval with a fresh token
	MarkSubmitted(ctx context.Context, id int64, token, reviewerID string, submittedAt time.Time) error

	// LockPending claims the report for a review batch; it fails unless the
	// report is pending_approval with the given token
	LockPending(ctx context.Context, id int64, token string) error

	// Close finalizes a fully approved report and clears its token
	Close(ctx context.Context, id int64, token string, approvedAt time.Time) error

	// ReturnToOwner reopens a report with rejected lines, clearing token and submission time
	ReturnToOwner(ctx context.Context, id int64, token, reason string, returnedAt time.Time) error
}

// ExpenseRepository defines persistence operations for ExpenseRecord
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.ExpenseRecord) error
	GetByID(ctx context.Context, id int64) (*entity.ExpenseRecord, error)

	// List returns the report's lines ordered by id
	List(ctx context.Context, filter entity.ExpenseFilter) ([]*entity.ExpenseRecord, error)

	Delete(ctx context.Context, id int64) error
	UpdateCategory(ctx context.Context, id int64, category string) error

	// ResetDecisions sets every line of the report back to pending for a new review cycle
	ResetDecisions(ctx context.Context, reportID int64) error

	// RecordDecision stores a reviewer's decision on one line of the report
	RecordDecision(ctx context.Context, reportID, id int64, status workflow.LineState, comment, reviewerID string, at time.Time) error
}

// TravelRequestRepository defines persistence operations for TravelRequest
type TravelRequestRepository interface {
	Create(ctx context.Context, req *entity.TravelRequest) error
	GetByID(ctx context.Context, id int64) (*entity.TravelRequest, error)
	List(ctx context.Context, filter entity.RequestFilter) ([]*entity.TravelRequest, error)

	// UpdateStatus moves the request from one status to another, conditional on from
	UpdateStatus(ctx context.Context, id int64, from, to workflow.RequestState, at time.Time) error

	Delete(ctx context.Context, id int64) error
}

// ApprovalStepRepository defines persistence operations for ApprovalStep
type ApprovalStepRepository interface {
	Create(ctx context.Context, step *entity.ApprovalStep) error

	// ListByRequest returns steps ordered by sequence
	ListByRequest(ctx context.Context, requestID int64) ([]*entity.ApprovalStep, error)

	// Decide records a human decision on a pending step
	Decide(ctx context.Context, id int64, status workflow.StepState, decidedBy, comment string, at time.Time) error

	// Skip marks a pending step skipped with a reason and no decision time
	Skip(ctx context.Context, id int64, reason string) error

	DeleteByRequest(ctx context.Context, requestID int64) error
}

// BudgetRepository defines persistence operations for ApprovedBudget
type BudgetRepository interface {
	Create(ctx context.Context, budget *entity.ApprovedBudget) error
	GetByID(ctx context.Context, id int64) (*entity.ApprovedBudget, error)
	GetByRequestID(ctx context.Context, requestID int64) (*entity.ApprovedBudget, error)
	GetByReportID(ctx context.Context, reportID int64) (*entity.ApprovedBudget, error)
	LinkReport(ctx context.Context, id, reportID int64) error
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	// Create returns ErrNotFound when the referenced report or request no longer exists
	Create(ctx context.Context, notification *entity.Notification) error
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.Notification, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMsg string) error

	// ListRetryable returns failed notifications that have a recipient and
	// fewer than maxAttempts send attempts, oldest first
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.Notification, error)
	DeleteByEntity(ctx context.Context, entityType string, entityID int64) error
}

// PolicyViolationRepository defines persistence operations for PolicyViolation
type PolicyViolationRepository interface {
	Create(ctx context.Context, violation *entity.PolicyViolation) error
	ListByRequest(ctx context.Context, requestID int64) ([]*entity.PolicyViolation, error)
	DeleteByRequest(ctx context.Context, requestID int64) error
}

// HistoryRepository defines persistence operations for StatusHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.StatusHistory) error
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusHistory, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
