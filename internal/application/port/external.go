package port

import (
	"context"
	"errors"

	"github.com/garyjia/travel-expense/internal/domain/entity"
)

// ErrNoApprover is returned when no user is configured for an approver rule,
// such as a submitter without a manager
var ErrNoApprover = errors.New("approver could not be resolved")

// RateSource returns exchange rates keyed by currency code, expressed as
// foreign units per one unit of base. Results may be stale or cached.
type RateSource interface {
	GetRates(ctx context.Context, base string) (map[string]float64, error)
}

// Notifier delivers a rendered message to one recipient
type Notifier interface {
	Send(ctx context.Context, recipientID, message string) error
}

// PolicyResolution is what the approval policy yields for one request
type PolicyResolution struct {
	Steps      []entity.StepTemplate
	Violations []entity.PolicyViolation
}

// PolicyResolver resolves the ordered approval levels for a travel request
type PolicyResolver interface {
	Resolve(ctx context.Context, organizationID string, req *entity.TravelRequest) (*PolicyResolution, error)
}

// ApproverResolver turns an approver rule into a concrete user
type ApproverResolver interface {
	ResolveApprover(ctx context.Context, rule, userID, requesterID string) (string, error)
}

// ManagerResolver finds the manager who reviews an employee's reports
type ManagerResolver interface {
	ManagerOf(ctx context.Context, employeeID string) (string, error)
}

// ReportExporter renders a closed report into the workbook accounting books from
type ReportExporter interface {
	ExportReport(ctx context.Context, report *entity.Report, expenses []*entity.ExpenseRecord) ([]byte, error)
}
