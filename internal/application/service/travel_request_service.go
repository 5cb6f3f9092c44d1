package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/travel-expense/internal/application/dispatcher"
	"github.com/garyjia/travel-expense/internal/application/port"
	appwf "github.com/garyjia/travel-expense/internal/application/workflow"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/event"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

// RequestInput carries the fields of a new travel request
type RequestInput struct {
	OrganizationID string
	Destination    string
	Purpose        string
	StartDate      time.Time
	EndDate        time.Time
	EstimatedTotal float64
}

// TravelRequestService runs pre-trip requests through their approval chain
type TravelRequestService interface {
	CreateRequest(ctx context.Context, actor entity.Actor, input RequestInput) (*entity.TravelRequest, error)
	GetRequest(ctx context.Context, actor entity.Actor, id int64) (*entity.TravelRequest, error)
	ListRequests(ctx context.Context, actor entity.Actor, filter entity.RequestFilter) ([]*entity.TravelRequest, error)
	Submit(ctx context.Context, actor entity.Actor, id int64) (*entity.TravelRequest, error)
	Approve(ctx context.Context, actor entity.Actor, id, stepID int64, comment string) (*entity.TravelRequest, error)
	Reject(ctx context.Context, actor entity.Actor, id, stepID int64, comment string) (*entity.TravelRequest, error)
	Cancel(ctx context.Context, actor entity.Actor, id int64) (*entity.TravelRequest, error)
	RecordPartialApproval(ctx context.Context, actor entity.Actor, id int64, detail string) (*entity.TravelRequest, error)
	Delete(ctx context.Context, actor entity.Actor, id int64) error
	AttachBudget(ctx context.Context, actor entity.Actor, id int64, envelope *entity.ApprovedBudget) (*entity.ApprovedBudget, error)
	LinkBudgetToReport(ctx context.Context, actor entity.Actor, budgetID, reportID int64) (*entity.ApprovedBudget, error)
	History(ctx context.Context, actor entity.Actor, id int64) ([]*entity.StatusHistory, error)
	Violations(ctx context.Context, actor entity.Actor, id int64) ([]*entity.PolicyViolation, error)
}

type travelRequestServiceImpl struct {
	requestRepo   port.TravelRequestRepository
	stepRepo      port.ApprovalStepRepository
	violationRepo port.PolicyViolationRepository
	notifRepo     port.NotificationRepository
	budgetRepo    port.BudgetRepository
	reportRepo    port.ReportRepository
	historyRepo   port.HistoryRepository
	txManager     port.TransactionManager
	policy        port.PolicyResolver
	approvers     port.ApproverResolver
	dispatcher    dispatcher.Dispatcher
	logger        Logger
	opts          options
}

// NewTravelRequestService creates a new TravelRequestService
func NewTravelRequestService(
	requestRepo port.TravelRequestRepository,
	stepRepo port.ApprovalStepRepository,
	violationRepo port.PolicyViolationRepository,
	notifRepo port.NotificationRepository,
	budgetRepo port.BudgetRepository,
	reportRepo port.ReportRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	policy port.PolicyResolver,
	approvers port.ApproverResolver,
	d dispatcher.Dispatcher,
	logger Logger,
	opts ...Option,
) TravelRequestService {
	return &travelRequestServiceImpl{
		requestRepo:   requestRepo,
		stepRepo:      stepRepo,
		violationRepo: violationRepo,
		notifRepo:     notifRepo,
		budgetRepo:    budgetRepo,
		reportRepo:    reportRepo,
		historyRepo:   historyRepo,
		txManager:     txManager,
		policy:        policy,
		approvers:     approvers,
		dispatcher:    d,
		logger:        logger,
		opts:          newOptions(opts),
	}
}

// CreateRequest creates a draft travel request for the actor
func (s *travelRequestServiceImpl) CreateRequest(ctx context.Context, actor entity.Actor, input RequestInput) (*entity.TravelRequest, error) {
	if strings.TrimSpace(input.Destination) == "" {
		return nil, fmt.Errorf("%w: destination is required", workflow.ErrInvalidInput)
	}
	if input.EstimatedTotal < 0 {
		return nil, fmt.Errorf("%w: estimated total must not be negative", workflow.ErrInvalidInput)
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		return nil, fmt.Errorf("%w: trip ends before it starts", workflow.ErrInvalidInput)
	}

	now := s.opts.clock()
	req := &entity.TravelRequest{
		RequesterID:    actor.ID,
		OrganizationID: input.OrganizationID,
		Destination:    strings.TrimSpace(input.Destination),
		Purpose:        strings.TrimSpace(input.Purpose),
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		EstimatedTotal: input.EstimatedTotal,
		Status:         workflow.RequestDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create travel request: %w", err)
		}
		return s.history(txCtx, actor, req.ID, "", workflow.RequestDraft, "CREATE", "", now)
	})
	if err != nil {
		s.logger.Error("Failed to create travel request", "error", err, "requester_id", actor.ID)
		return nil, err
	}

	s.logger.Info("Travel request created", "request_id", req.ID, "requester_id", actor.ID)
	return req, nil
}

// GetRequest returns a request with its ordered steps
func (s *travelRequestServiceImpl) GetRequest(ctx context.Context, actor entity.Actor, id int64) (*entity.TravelRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewRequest(actor, req) {
		return nil, workflow.ErrForbidden
	}
	return req, nil
}

// ListRequests lists requests visible to the actor
func (s *travelRequestServiceImpl) ListRequests(ctx context.Context, actor entity.Actor, filter entity.RequestFilter) ([]*entity.TravelRequest, error) {
	if !actor.IsAccounting() && !actor.IsAdmin() {
		filter.RequesterID = actor.ID
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", workflow.ErrInvalidInput, filter.Status)
	}
	return s.requestRepo.List(ctx, filter)
}

// Submit instantiates the approval chain from policy and activates the first
// step that does not auto-skip
func (s *travelRequestServiceImpl) Submit(ctx context.Context, actor entity.Actor, id int64) (*entity.TravelRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != actor.ID {
		return nil, workflow.ErrForbidden
	}
	if _, err := appwf.NextRequestState(ctx, req.Status, workflow.RequestTriggerSubmit); err != nil {
		return nil, err
	}

	resolution, err := s.policy.Resolve(ctx, req.OrganizationID, req)
	if err != nil {
		return nil, fmt.Errorf("resolve approval policy: %w", err)
	}

	now := s.opts.clock()
	steps := make([]*entity.ApprovalStep, 0, len(resolution.Steps))
	for i, tmpl := range resolution.Steps {
		approverID, err := s.approvers.ResolveApprover(ctx, tmpl.ApproverRule, tmpl.ApproverUserID, req.RequesterID)
		if err != nil {
			return nil, fmt.Errorf("resolve approver for level %d: %w", i+1, err)
		}
		steps = append(steps, &entity.ApprovalStep{
			RequestID:      req.ID,
			Sequence:       i + 1,
			ApproverRule:   tmpl.ApproverRule,
			ApproverUserID: tmpl.ApproverUserID,
			ApproverID:     approverID,
			Skip:           tmpl.Skip,
			Status:         workflow.StepPending,
			CreatedAt:      now,
		})
	}

	box := &outbox{}
	correlationID := uuid.NewString()
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.UpdateStatus(txCtx, req.ID, workflow.RequestDraft, workflow.RequestPendingApproval, now); err != nil {
			if errors.Is(err, port.ErrConditionFailed) {
				return fmt.Errorf("%w: request %d was already submitted", workflow.ErrInvalidTransition, req.ID)
			}
			return fmt.Errorf("update status: %w", err)
		}
		if err := s.history(txCtx, actor, req.ID, workflow.RequestDraft, workflow.RequestPendingApproval,
			workflow.RequestTriggerSubmit.String(), fmt.Sprintf("%d approval levels", len(steps)), now); err != nil {
			return err
		}
		box.moved(entity.EntityTravelRequest, string(workflow.RequestDraft), string(workflow.RequestPendingApproval))
		req.Status = workflow.RequestPendingApproval

		for _, step := range steps {
			if err := s.stepRepo.Create(txCtx, step); err != nil {
				return fmt.Errorf("create step %d: %w", step.Sequence, err)
			}
		}
		for i := range resolution.Violations {
			v := resolution.Violations[i]
			v.TravelRequestID = req.ID
			v.CreatedAt = now
			if err := s.violationRepo.Create(txCtx, &v); err != nil {
				return fmt.Errorf("record policy violation: %w", err)
			}
		}

		req.Steps = steps
		return s.advance(txCtx, actor, req, correlationID, now, box)
	})
	if err != nil {
		s.logger.Error("Failed to submit travel request", "error", err, "request_id", id)
		return nil, err
	}

	box.publish(ctx, s.dispatcher, s.opts.observer)
	s.logger.Info("Travel request submitted", "request_id", id, "steps", len(steps), "violations", len(resolution.Violations))
	return s.load(ctx, id)
}

// Approve records the active approver's approval and advances the chain
func (s *travelRequestServiceImpl) Approve(ctx context.Context, actor entity.Actor, id, stepID int64, comment string) (*entity.TravelRequest, error) {
	return s.decide(ctx, actor, id, stepID, workflow.StepTriggerApprove, strings.TrimSpace(comment))
}

// Reject records the active approver's rejection; the request is rejected and
// later steps stay pending
func (s *travelRequestServiceImpl) Reject(ctx context.Context, actor entity.Actor, id, stepID int64, comment string) (*entity.TravelRequest, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, workflow.ErrMissingJustification
	}
	return s.decide(ctx, actor, id, stepID, workflow.StepTriggerReject, comment)
}

func (s *travelRequestServiceImpl) decide(ctx context.Context, actor entity.Actor, id, stepID int64, trigger workflow.StepTrigger, comment string) (*entity.TravelRequest, error) {
	now := s.opts.clock()
	box := &outbox{}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		if req.Status == workflow.RequestDraft {
			return fmt.Errorf("%w: request %d has not been submitted", workflow.ErrInvalidTransition, id)
		}

		active := req.ActiveStep()
		if active == nil || active.ID != stepID {
			return fmt.Errorf("%w: step %d is not awaiting a decision", workflow.ErrStaleDecision, stepID)
		}
		if actor.ID != active.ApproverID {
			return workflow.ErrForbidden
		}

		next, err := appwf.NextStepState(txCtx, active.Status, trigger)
		if err != nil {
			return err
		}
		if err := s.stepRepo.Decide(txCtx, active.ID, next, actor.ID, comment, now); err != nil {
			if errors.Is(err, port.ErrConditionFailed) {
				return fmt.Errorf("%w: step %d was decided concurrently", workflow.ErrStaleDecision, active.ID)
			}
			return fmt.Errorf("decide step: %w", err)
		}
		active.Status = next
		active.DecidedBy = actor.ID
		active.DecidedAt = &now
		active.Comment = comment

		if trigger == workflow.StepTriggerReject {
			return s.finish(txCtx, actor, req, workflow.RequestTriggerReject, comment, now, box)
		}
		return s.advance(txCtx, actor, req, uuid.NewString(), now, box)
	})
	if err != nil {
		s.logger.Error("Failed to record step decision", "error", err, "request_id", id, "step_id", stepID, "decision", trigger)
		return nil, err
	}

	box.publish(ctx, s.dispatcher, s.opts.observer)
	s.logger.Info("Step decision recorded", "request_id", id, "step_id", stepID, "decision", trigger, "approver_id", actor.ID)
	return s.load(ctx, id)
}

// advance evaluates skip rules on the lowest pending steps in order, then
// either activates the first step that must be decided by a human or approves
// the request when none is left
func (s *travelRequestServiceImpl) advance(ctx context.Context, actor entity.Actor, req *entity.TravelRequest, correlationID string, now time.Time, box *outbox) error {
	for {
		step := entity.FirstPending(req.Steps)
		if step == nil {
			return s.finish(ctx, actor, req, workflow.RequestTriggerApprove, "", now, box)
		}

		reason, skip := SkipReason(req, step)
		if !skip {
			box.emit(event.NewEventWithCorrelation(event.TypeSubmitted, entity.EntityTravelRequest, req.ID, step.ApproverID,
				fmt.Sprintf("Travel request #%d from %s to %s (%.2f) awaits your approval at level %d",
					req.ID, req.RequesterID, req.Destination, req.EstimatedTotal, step.Sequence),
				map[string]interface{}{"step_id": step.ID, "sequence": step.Sequence},
				correlationID))
			return nil
		}

		if _, err := appwf.NextStepState(ctx, step.Status, workflow.StepTriggerSkip); err != nil {
			return err
		}
		if err := s.stepRepo.Skip(ctx, step.ID, reason); err != nil {
			if errors.Is(err, port.ErrConditionFailed) {
				return fmt.Errorf("%w: step %d was decided concurrently", workflow.ErrStaleDecision, step.ID)
			}
			return fmt.Errorf("skip step: %w", err)
		}
		step.Status = workflow.StepSkipped
		step.SkipReason = reason

		box.emit(event.NewEventWithCorrelation(event.TypeSkipped, entity.EntityTravelRequest, req.ID, req.RequesterID,
			fmt.Sprintf("Approval level %d of your travel request #%d was skipped: %s", step.Sequence, req.ID, reason),
			map[string]interface{}{"step_id": step.ID, "sequence": step.Sequence, "reason": reason},
			correlationID))
	}
}

// finish moves a pending request into a terminal decision
func (s *travelRequestServiceImpl) finish(ctx context.Context, actor entity.Actor, req *entity.TravelRequest, trigger workflow.RequestTrigger, detail string, now time.Time, box *outbox) error {
	from := req.Status
	to, err := appwf.NextRequestState(ctx, from, trigger)
	if err != nil {
		return err
	}
	if err := s.requestRepo.UpdateStatus(ctx, req.ID, from, to, now); err != nil {
		if errors.Is(err, port.ErrConditionFailed) {
			return fmt.Errorf("%w: request %d left %s", workflow.ErrStaleDecision, req.ID, from)
		}
		return fmt.Errorf("update status: %w", err)
	}
	if err := s.history(ctx, actor, req.ID, from, to, trigger.String(), detail, now); err != nil {
		return err
	}
	req.Status = to
	box.moved(entity.EntityTravelRequest, string(from), string(to))

	switch to {
	case workflow.RequestApproved:
		box.emit(event.NewEvent(event.TypeApproved, entity.EntityTravelRequest, req.ID, req.RequesterID,
			fmt.Sprintf("Your travel request #%d to %s was approved", req.ID, req.Destination), nil))
	case workflow.RequestPartiallyApproved:
		box.emit(event.NewEvent(event.TypeApproved, entity.EntityTravelRequest, req.ID, req.RequesterID,
			fmt.Sprintf("Your travel request #%d to %s was partially approved: %s", req.ID, req.Destination, detail),
			map[string]interface{}{"partial": true}))
	case workflow.RequestRejected:
		box.emit(event.NewEvent(event.TypeRejected, entity.EntityTravelRequest, req.ID, req.RequesterID,
			fmt.Sprintf("Your travel request #%d to %s was rejected: %s", req.ID, req.Destination, detail),
			map[string]interface{}{"reason": detail}))
	}
	return nil
}

// Cancel withdraws a request that has not been approved
func (s *travelRequestServiceImpl) Cancel(ctx context.Context, actor entity.Actor, id int64) (*entity.TravelRequest, error) {
	now := s.opts.clock()
	box := &outbox{}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		if req.RequesterID != actor.ID {
			return workflow.ErrForbidden
		}
		to, err := appwf.NextRequestState(txCtx, req.Status, workflow.RequestTriggerCancel)
		if err != nil {
			return err
		}
		if req.Status == to {
			return nil
		}

		if err := s.requestRepo.UpdateStatus(txCtx, id, req.Status, to, now); err != nil {
			if errors.Is(err, port.ErrConditionFailed) {
				return fmt.Errorf("%w: request %d left %s", workflow.ErrStaleDecision, id, req.Status)
			}
			return fmt.Errorf("update status: %w", err)
		}
		box.moved(entity.EntityTravelRequest, string(req.Status), string(to))
		return s.history(txCtx, actor, id, req.Status, to, workflow.RequestTriggerCancel.String(), "", now)
	})
	if err != nil {
		s.logger.Error("Failed to cancel travel request", "error", err, "request_id", id)
		return nil, err
	}

	box.publish(ctx, s.dispatcher, s.opts.observer)
	s.logger.Info("Travel request cancelled", "request_id", id)
	return s.load(ctx, id)
}

// RecordPartialApproval stores the external policy evaluator's verdict that
// only some requested categories cleared the chain
func (s *travelRequestServiceImpl) RecordPartialApproval(ctx context.Context, actor entity.Actor, id int64, detail string) (*entity.TravelRequest, error) {
	if !actor.IsAdmin() && !actor.IsAccounting() {
		return nil, workflow.ErrForbidden
	}

	now := s.opts.clock()
	box := &outbox{}
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		return s.finish(txCtx, actor, req, workflow.RequestTriggerPartiallyApprove, strings.TrimSpace(detail), now, box)
	})
	if err != nil {
		s.logger.Error("Failed to record partial approval", "error", err, "request_id", id)
		return nil, err
	}

	box.publish(ctx, s.dispatcher, s.opts.observer)
	return s.load(ctx, id)
}

// Delete removes a request that never reached approval, together with its
// steps, notifications and policy violations
func (s *travelRequestServiceImpl) Delete(ctx context.Context, actor entity.Actor, id int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return notFound(err, "travel request", id)
		}
		if req.RequesterID != actor.ID && !actor.IsAdmin() {
			return workflow.ErrForbidden
		}
		switch req.Status {
		case workflow.RequestDraft, workflow.RequestRejected, workflow.RequestCancelled:
		default:
			return fmt.Errorf("%w: %s requests cannot be deleted", workflow.ErrInvalidTransition, req.Status)
		}

		if err := s.stepRepo.DeleteByRequest(txCtx, id); err != nil {
			return fmt.Errorf("delete steps: %w", err)
		}
		if err := s.notifRepo.DeleteByEntity(txCtx, entity.EntityTravelRequest, id); err != nil {
			return fmt.Errorf("delete notifications: %w", err)
		}
		if err := s.violationRepo.DeleteByRequest(txCtx, id); err != nil {
			return fmt.Errorf("delete policy violations: %w", err)
		}
		if err := s.requestRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("delete travel request: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to delete travel request", "error", err, "request_id", id)
		return err
	}

	s.logger.Info("Travel request deleted", "request_id", id, "actor_id", actor.ID)
	return nil
}

// AttachBudget stores the approved envelope of an approved request
func (s *travelRequestServiceImpl) AttachBudget(ctx context.Context, actor entity.Actor, id int64, envelope *entity.ApprovedBudget) (*entity.ApprovedBudget, error) {
	if !actor.IsAdmin() && !actor.IsAccounting() {
		return nil, workflow.ErrForbidden
	}
	if envelope == nil {
		return nil, fmt.Errorf("%w: budget is required", workflow.ErrInvalidInput)
	}
	for _, v := range []*float64{envelope.Flights, envelope.Accommodation, envelope.AccommodationPerNight,
		envelope.Meals, envelope.MealsPerDay, envelope.Transport, envelope.GrandTotal} {
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("%w: budget caps must not be negative", workflow.ErrInvalidInput)
		}
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return notFound(err, "travel request", id)
		}
		if req.Status != workflow.RequestApproved && req.Status != workflow.RequestPartiallyApproved {
			return fmt.Errorf("%w: budgets attach to approved requests, request is %s", workflow.ErrInvalidTransition, req.Status)
		}

		if _, err := s.budgetRepo.GetByRequestID(txCtx, id); err == nil {
			return fmt.Errorf("%w: request %d already has a budget", workflow.ErrInvalidInput, id)
		} else if !errors.Is(err, port.ErrNotFound) {
			return fmt.Errorf("get budget: %w", err)
		}

		envelope.ID = 0
		envelope.TravelRequestID = id
		envelope.ReportID = nil
		envelope.CreatedAt = s.opts.clock()
		return s.budgetRepo.Create(txCtx, envelope)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Budget attached", "request_id", id, "budget_id", envelope.ID)
	return envelope, nil
}

// LinkBudgetToReport links an approved budget to the report filed for the trip
func (s *travelRequestServiceImpl) LinkBudgetToReport(ctx context.Context, actor entity.Actor, budgetID, reportID int64) (*entity.ApprovedBudget, error) {
	var envelope *entity.ApprovedBudget
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		envelope, err = s.budgetRepo.GetByID(txCtx, budgetID)
		if err != nil {
			return notFound(err, "budget", budgetID)
		}
		req, err := s.requestRepo.GetByID(txCtx, envelope.TravelRequestID)
		if err != nil {
			return notFound(err, "travel request", envelope.TravelRequestID)
		}
		report, err := s.reportRepo.GetByID(txCtx, reportID)
		if err != nil {
			return notFound(err, "report", reportID)
		}

		privileged := actor.IsAccounting() || actor.IsAdmin()
		if !privileged && (report.OwnerID != actor.ID || req.RequesterID != actor.ID) {
			return workflow.ErrForbidden
		}
		if report.OwnerID != req.RequesterID {
			return fmt.Errorf("%w: report and travel request belong to different employees", workflow.ErrInvalidInput)
		}
		if envelope.ReportID != nil && *envelope.ReportID != reportID {
			return fmt.Errorf("%w: budget %d is linked to report %d", workflow.ErrInvalidInput, budgetID, *envelope.ReportID)
		}

		if err := s.budgetRepo.LinkReport(txCtx, budgetID, reportID); err != nil {
			return fmt.Errorf("link budget: %w", err)
		}
		envelope.ReportID = &reportID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Budget linked to report", "budget_id", budgetID, "report_id", reportID)
	return envelope, nil
}

// History returns the audit trail of a request, oldest first
func (s *travelRequestServiceImpl) History(ctx context.Context, actor entity.Actor, id int64) ([]*entity.StatusHistory, error) {
	if _, err := s.GetRequest(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByEntity(ctx, entity.EntityTravelRequest, id)
}

// Violations returns the policy findings recorded at submission
func (s *travelRequestServiceImpl) Violations(ctx context.Context, actor entity.Actor, id int64) ([]*entity.PolicyViolation, error) {
	if _, err := s.GetRequest(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.violationRepo.ListByRequest(ctx, id)
}

func (s *travelRequestServiceImpl) load(ctx context.Context, id int64) (*entity.TravelRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "travel request", id)
	}
	req.Steps, err = s.stepRepo.ListByRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	return req, nil
}

func (s *travelRequestServiceImpl) history(ctx context.Context, actor entity.Actor, id int64, from, to workflow.RequestState, action, detail string, at time.Time) error {
	return recordHistory(ctx, s.historyRepo, &entity.StatusHistory{
		EntityType:     entity.EntityTravelRequest,
		EntityID:       id,
		ActorID:        actor.ID,
		PreviousStatus: string(from),
		NewStatus:      string(to),
		Action:         action,
		Detail:         detail,
		Timestamp:      at,
	})
}

// SkipReason evaluates a step's skip rule against the request
func SkipReason(req *entity.TravelRequest, step *entity.ApprovalStep) (string, bool) {
	switch step.Skip.Kind {
	case entity.SkipSelfApprover:
		if step.ApproverID != "" && step.ApproverID == req.RequesterID {
			return "requester is their own approver at this level", true
		}
	case entity.SkipBelowThreshold:
		if req.EstimatedTotal < step.Skip.Threshold {
			return fmt.Sprintf("estimated total %.2f is below the %.2f threshold for this level",
				req.EstimatedTotal, step.Skip.Threshold), true
		}
	}
	return "", false
}

func canViewRequest(actor entity.Actor, req *entity.TravelRequest) bool {
	if actor.ID == req.RequesterID || actor.IsAccounting() || actor.IsAdmin() {
		return true
	}
	for _, step := range req.Steps {
		if step.ApproverID == actor.ID {
			return true
		}
	}
	return false
}
