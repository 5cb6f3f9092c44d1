package workflow

// Status is the constraint every closed status domain satisfies. Each domain
// is its own named type, so a report status can never be stored on a step.
type Status interface {
	~string
	IsValid() bool
}

// ReportState is the lifecycle status of an expense report
type ReportState string

const (
	ReportDraft           ReportState = "draft"
	ReportOpen            ReportState = "open"
	ReportPendingApproval ReportState = "pending_approval"
	ReportClosed          ReportState = "closed"
)

// IsValid returns true if the state is a known report state
func (s ReportState) IsValid() bool {
	switch s {
	case ReportDraft, ReportOpen, ReportPendingApproval, ReportClosed:
		return true
	}
	return false
}

// IsTerminal returns true once the report has been closed and forwarded
func (s ReportState) IsTerminal() bool {
	return s == ReportClosed
}

// IsEditable returns true while the employee may change lines and trip data
func (s ReportState) IsEditable() bool {
	return s == ReportDraft || s == ReportOpen
}

func (s ReportState) String() string {
	return string(s)
}

// RequestState is the lifecycle status of a pre-trip travel request
type RequestState string

const (
	RequestDraft             RequestState = "draft"
	RequestPendingApproval   RequestState = "pending_approval"
	RequestApproved          RequestState = "approved"
	RequestPartiallyApproved RequestState = "partially_approved"
	RequestRejected          RequestState = "rejected"
	RequestCancelled         RequestState = "cancelled"
)

var terminalRequestStates = map[RequestState]bool{
	RequestApproved:          true,
	RequestPartiallyApproved: true,
	RequestRejected:          true,
	RequestCancelled:         true,
}

// IsValid returns true if the state is a known request state
func (s RequestState) IsValid() bool {
	return s == RequestDraft || s == RequestPendingApproval || terminalRequestStates[s]
}

// IsTerminal returns true when the approval chain can no longer advance
func (s RequestState) IsTerminal() bool {
	return terminalRequestStates[s]
}

// IsCancellable returns true for the states a requester may cancel from
func (s RequestState) IsCancellable() bool {
	switch s {
	case RequestDraft, RequestPendingApproval, RequestRejected, RequestCancelled:
		return true
	}
	return false
}

func (s RequestState) String() string {
	return string(s)
}

// StepState is the decision state of one approval step
type StepState string

const (
	StepPending  StepState = "pending"
	StepApproved StepState = "approved"
	StepRejected StepState = "rejected"
	StepSkipped  StepState = "skipped"
)

// IsValid returns true if the state is a known step state
func (s StepState) IsValid() bool {
	switch s {
	case StepPending, StepApproved, StepRejected, StepSkipped:
		return true
	}
	return false
}

// IsTerminal returns true once the step has been decided or skipped
func (s StepState) IsTerminal() bool {
	return s.IsValid() && s != StepPending
}

func (s StepState) String() string {
	return string(s)
}

// LineState is the manager's decision on a single expense line
type LineState string

const (
	LinePending  LineState = "pending"
	LineApproved LineState = "approved"
	LineRejected LineState = "rejected"
)

// IsValid returns true if the state is a known line state
func (s LineState) IsValid() bool {
	switch s {
	case LinePending, LineApproved, LineRejected:
		return true
	}
	return false
}

// IsDecided returns true once a manager approved or rejected the line
func (s LineState) IsDecided() bool {
	return s == LineApproved || s == LineRejected
}

func (s LineState) String() string {
	return string(s)
}
