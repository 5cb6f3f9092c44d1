package workflow

import (
	"context"
	"errors"
	"testing"

	domainwf "github.com/garyjia/travel-expense/internal/domain/workflow"
)

func TestReportStateMachine_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domainwf.ReportState
		trigger domainwf.ReportTrigger
		want    domainwf.ReportState
		wantErr bool
	}{
		{"draft opens", domainwf.ReportDraft, domainwf.ReportTriggerOpen, domainwf.ReportOpen, false},
		{"open submits", domainwf.ReportOpen, domainwf.ReportTriggerSubmit, domainwf.ReportPendingApproval, false},
		{"pending closes", domainwf.ReportPendingApproval, domainwf.ReportTriggerApprove, domainwf.ReportClosed, false},
		{"pending returns to employee", domainwf.ReportPendingApproval, domainwf.ReportTriggerReturn, domainwf.ReportOpen, false},
		{"draft cannot submit", domainwf.ReportDraft, domainwf.ReportTriggerSubmit, domainwf.ReportDraft, true},
		{"pending cannot resubmit", domainwf.ReportPendingApproval, domainwf.ReportTriggerSubmit, domainwf.ReportPendingApproval, true},
		{"closed is terminal", domainwf.ReportClosed, domainwf.ReportTriggerReturn, domainwf.ReportClosed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextReportState(context.Background(), tt.from, tt.trigger)
			if tt.wantErr {
				if !errors.Is(err, domainwf.ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRequestStateMachine_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domainwf.RequestState
		trigger domainwf.RequestTrigger
		want    domainwf.RequestState
		wantErr bool
	}{
		{"draft submits", domainwf.RequestDraft, domainwf.RequestTriggerSubmit, domainwf.RequestPendingApproval, false},
		{"pending approves", domainwf.RequestPendingApproval, domainwf.RequestTriggerApprove, domainwf.RequestApproved, false},
		{"pending rejects", domainwf.RequestPendingApproval, domainwf.RequestTriggerReject, domainwf.RequestRejected, false},
		{"pending partially approves", domainwf.RequestPendingApproval, domainwf.RequestTriggerPartiallyApprove, domainwf.RequestPartiallyApproved, false},
		{"draft cancels", domainwf.RequestDraft, domainwf.RequestTriggerCancel, domainwf.RequestCancelled, false},
		{"pending cancels", domainwf.RequestPendingApproval, domainwf.RequestTriggerCancel, domainwf.RequestCancelled, false},
		{"rejected cancels", domainwf.RequestRejected, domainwf.RequestTriggerCancel, domainwf.RequestCancelled, false},
		{"cancelled cancels again", domainwf.RequestCancelled, domainwf.RequestTriggerCancel, domainwf.RequestCancelled, false},
		{"approved cannot cancel", domainwf.RequestApproved, domainwf.RequestTriggerCancel, domainwf.RequestApproved, true},
		{"partially approved cannot cancel", domainwf.RequestPartiallyApproved, domainwf.RequestTriggerCancel, domainwf.RequestPartiallyApproved, true},
		{"rejected cannot approve", domainwf.RequestRejected, domainwf.RequestTriggerApprove, domainwf.RequestRejected, true},
		{"draft cannot approve", domainwf.RequestDraft, domainwf.RequestTriggerApprove, domainwf.RequestDraft, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRequestState(context.Background(), tt.from, tt.trigger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRequestStateMachine_CancellableMatchesState(t *testing.T) {
	for _, s := range []domainwf.RequestState{
		domainwf.RequestDraft, domainwf.RequestPendingApproval, domainwf.RequestApproved,
		domainwf.RequestPartiallyApproved, domainwf.RequestRejected, domainwf.RequestCancelled,
	} {
		if got := BuildRequestStateMachine(s).CanFire(domainwf.RequestTriggerCancel); got != s.IsCancellable() {
			t.Errorf("%s: CanFire(CANCEL) = %v, IsCancellable() = %v", s, got, s.IsCancellable())
		}
	}
}

func TestStepStateMachine(t *testing.T) {
	for _, trigger := range []domainwf.StepTrigger{domainwf.StepTriggerApprove, domainwf.StepTriggerReject, domainwf.StepTriggerSkip} {
		next, err := NextStepState(context.Background(), domainwf.StepPending, trigger)
		if err != nil {
			t.Fatalf("%s from pending: %v", trigger, err)
		}
		if !next.IsTerminal() {
			t.Errorf("%s should lead to a terminal step state, got %s", trigger, next)
		}

		if _, err := NextStepState(context.Background(), next, domainwf.StepTriggerApprove); err == nil {
			t.Errorf("decided step %s must not accept another decision", next)
		}
	}
}
