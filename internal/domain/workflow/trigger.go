package workflow

// ReportTrigger is an action that moves a report between states
type ReportTrigger string

const (
	ReportTriggerOpen    ReportTrigger = "OPEN"
	ReportTriggerSubmit  ReportTrigger = "SUBMIT"
	ReportTriggerApprove ReportTrigger = "APPROVE"
	ReportTriggerReturn  ReportTrigger = "RETURN"
)

func (t ReportTrigger) String() string {
	return string(t)
}

// RequestTrigger is an action that moves a travel request between states
type RequestTrigger string

const (
	RequestTriggerSubmit           RequestTrigger = "SUBMIT"
	RequestTriggerApprove          RequestTrigger = "APPROVE"
	RequestTriggerReject           RequestTrigger = "REJECT"
	RequestTriggerPartiallyApprove RequestTrigger = "PARTIALLY_APPROVE"
	RequestTriggerCancel           RequestTrigger = "CANCEL"
)

func (t RequestTrigger) String() string {
	return string(t)
}

// StepTrigger is a decision applied to a pending approval step
type StepTrigger string

const (
	StepTriggerApprove StepTrigger = "APPROVE"
	StepTriggerReject  StepTrigger = "REJECT"
	StepTriggerSkip    StepTrigger = "SKIP"
)

func (t StepTrigger) String() string {
	return string(t)
}
