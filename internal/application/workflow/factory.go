package workflow

import (
	"context"

	domainwf "github.com/garyjia/travel-expense/internal/domain/workflow"
)

// ReportMachine is the state machine of an expense report
type ReportMachine = domainwf.StateMachine[domainwf.ReportState, domainwf.ReportTrigger]

// RequestMachine is the state machine of a travel request
type RequestMachine = domainwf.StateMachine[domainwf.RequestState, domainwf.RequestTrigger]

// StepMachine is the state machine of one approval step
type StepMachine = domainwf.StateMachine[domainwf.StepState, domainwf.StepTrigger]

// BuildReportStateMachine creates a machine for the report lifecycle:
// draft → open → pending_approval → closed, or back to open when a line is rejected
func BuildReportStateMachine(initialState domainwf.ReportState) ReportMachine {
	builder := domainwf.NewBuilder[domainwf.ReportState, domainwf.ReportTrigger]()

	builder.Configure(domainwf.ReportDraft).
		Permit(domainwf.ReportTriggerOpen, domainwf.ReportOpen)

	builder.Configure(domainwf.ReportOpen).
		Permit(domainwf.ReportTriggerSubmit, domainwf.ReportPendingApproval)

	builder.Configure(domainwf.ReportPendingApproval).
		Permit(domainwf.ReportTriggerApprove, domainwf.ReportClosed).
		Permit(domainwf.ReportTriggerReturn, domainwf.ReportOpen)

	// CLOSED is terminal

	return builder.Build(initialState)
}

// BuildRequestStateMachine creates a machine for the travel request lifecycle
func BuildRequestStateMachine(initialState domainwf.RequestState) RequestMachine {
	builder := domainwf.NewBuilder[domainwf.RequestState, domainwf.RequestTrigger]()

	builder.Configure(domainwf.RequestDraft).
		Permit(domainwf.RequestTriggerSubmit, domainwf.RequestPendingApproval).
		Permit(domainwf.RequestTriggerCancel, domainwf.RequestCancelled)

	builder.Configure(domainwf.RequestPendingApproval).
		Permit(domainwf.RequestTriggerApprove, domainwf.RequestApproved).
		Permit(domainwf.RequestTriggerReject, domainwf.RequestRejected).
		Permit(domainwf.RequestTriggerPartiallyApprove, domainwf.RequestPartiallyApproved).
		Permit(domainwf.RequestTriggerCancel, domainwf.RequestCancelled)

	builder.Configure(domainwf.RequestRejected).
		Permit(domainwf.RequestTriggerCancel, domainwf.RequestCancelled)

	builder.Configure(domainwf.RequestCancelled).
		Permit(domainwf.RequestTriggerCancel, domainwf.RequestCancelled)

	// APPROVED and PARTIALLY_APPROVED are terminal; reversal is a separate process

	return builder.Build(initialState)
}

// BuildStepStateMachine creates a machine for a single approval step
func BuildStepStateMachine(initialState domainwf.StepState) StepMachine {
	builder := domainwf.NewBuilder[domainwf.StepState, domainwf.StepTrigger]()

	builder.Configure(domainwf.StepPending).
		Permit(domainwf.StepTriggerApprove, domainwf.StepApproved).
		Permit(domainwf.StepTriggerReject, domainwf.StepRejected).
		Permit(domainwf.StepTriggerSkip, domainwf.StepSkipped)

	return builder.Build(initialState)
}

// NextReportState validates trigger against from and returns the target state
func NextReportState(ctx context.Context, from domainwf.ReportState, trigger domainwf.ReportTrigger) (domainwf.ReportState, error) {
	machine := BuildReportStateMachine(from)
	if err := machine.Fire(ctx, trigger); err != nil {
		return from, err
	}
	return machine.State(), nil
}

// NextRequestState validates trigger against from and returns the target state
func NextRequestState(ctx context.Context, from domainwf.RequestState, trigger domainwf.RequestTrigger) (domainwf.RequestState, error) {
	machine := BuildRequestStateMachine(from)
	if err := machine.Fire(ctx, trigger); err != nil {
		return from, err
	}
	return machine.State(), nil
}

// NextStepState validates trigger against from and returns the target state
func NextStepState(ctx context.Context, from domainwf.StepState, trigger domainwf.StepTrigger) (domainwf.StepState, error) {
	machine := BuildStepStateMachine(from)
	if err := machine.Fire(ctx, trigger); err != nil {
		return from, err
	}
	return machine.State(), nil
}
