package entity

import (
	"time"

	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

// Approver resolution rules for a step
const (
	ApproverDirectManager     = "direct_manager"
	ApproverOrgAdmin          = "org_admin"
	ApproverAccountingManager = "accounting_manager"
	ApproverSpecificUser      = "specific_user"
)

// Skip rule kinds evaluated before a step activates
const (
	SkipNever          = ""
	SkipSelfApprover   = "self_approver"
	SkipBelowThreshold = "below_threshold"
)

// TravelRequest is a pre-trip request moving through an approval chain
type TravelRequest struct {
	ID             int64                 `json:"id"`
	RequesterID    string                `json:"requester_id"`
	OrganizationID string                `json:"organization_id"`
	Destination    string                `json:"destination"`
	Purpose        string                `json:"purpose"`
	StartDate      time.Time             `json:"start_date"`
	EndDate        time.Time             `json:"end_date"`
	EstimatedTotal float64               `json:"estimated_total"`
	Status         workflow.RequestState `json:"status"`
	SubmittedAt    *time.Time            `json:"submitted_at,omitempty"`
	DecidedAt      *time.Time            `json:"decided_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`

	Steps []*ApprovalStep `json:"steps,omitempty"`
}

// SkipRule describes when a step bypasses human decision
type SkipRule struct {
	Kind      string  `json:"kind,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

// ApprovalStep is one position in a travel request's approval chain
type ApprovalStep struct {
	ID             int64              `json:"id"`
	RequestID      int64              `json:"request_id"`
	Sequence       int                `json:"sequence"`
	ApproverRule   string             `json:"approver_rule"`
	ApproverUserID string             `json:"approver_user_id,omitempty"`
	ApproverID     string             `json:"approver_id"`
	Skip           SkipRule           `json:"skip_rule"`
	Status         workflow.StepState `json:"status"`
	DecidedBy      string             `json:"decided_by,omitempty"`
	DecidedAt      *time.Time         `json:"decided_at,omitempty"`
	Comment        string             `json:"comment,omitempty"`
	SkipReason     string             `json:"skip_reason,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// StepTemplate is what the policy resolver hands back for each level
type StepTemplate struct {
	ApproverRule   string   `json:"approver_rule" mapstructure:"approver"`
	ApproverUserID string   `json:"approver_user_id,omitempty" mapstructure:"user_id"`
	Skip           SkipRule `json:"skip_rule" mapstructure:"skip"`
}

// FirstPending returns the lowest-indexed pending step. Steps must be ordered by sequence.
func FirstPending(steps []*ApprovalStep) *ApprovalStep {
	for _, s := range steps {
		if s.Status == workflow.StepPending {
			return s
		}
	}
	return nil
}

// ActiveStep returns the step awaiting a decision. Only a request in
// pending_approval has one; steps left pending behind a rejection are dead.
func (r *TravelRequest) ActiveStep() *ApprovalStep {
	if r.Status != workflow.RequestPendingApproval {
		return nil
	}
	return FirstPending(r.Steps)
}

// RequestFilter narrows travel request listings
type RequestFilter struct {
	RequesterID string
	Status      workflow.RequestState
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
