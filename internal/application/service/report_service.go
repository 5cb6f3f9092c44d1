package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/travel-expense/internal/application/dispatcher"
	"github.com/garyjia/travel-expense/internal/application/port"
	appwf "github.com/garyjia/travel-expense/internal/application/workflow"
	"github.com/garyjia/travel-expense/internal/domain/budget"
	"github.com/garyjia/travel-expense/internal/domain/duplicate"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/event"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

// Review outcomes
const (
	ReviewOutcomePending  = "pending"
	ReviewOutcomeClosed   = "closed"
	ReviewOutcomeReturned = "returned"
)

// ReportInput carries the trip metadata of a report
type ReportInput struct {
	Destination string
	Purpose     string
	StartDate   time.Time
	EndDate     time.Time
}

// ExpenseInput carries one line as entered by an employee or accounting
type ExpenseInput struct {
	Date        time.Time
	Category    string
	Description string
	Amount      float64
	Currency    string
}

// LineDecision is a reviewer's verdict on one expense line
type LineDecision struct {
	ExpenseID int64
	Status    workflow.LineState
	Comment   string
}

// ReviewRequest is one batch of line decisions submitted with an approval token
type ReviewRequest struct {
	ReportID  int64
	Token     string
	Decisions []LineDecision
}

// ReviewOutcome is the report after a review batch
type ReviewOutcome struct {
	Report  *entity.Report
	Outcome string
}

// ReportService runs the expense report lifecycle
type ReportService interface {
	CreateReport(ctx context.Context, actor entity.Actor, input ReportInput) (*entity.Report, error)
	GetReport(ctx context.Context, actor entity.Actor, id int64) (*entity.Report, error)
	ListReports(ctx context.Context, actor entity.Actor, filter entity.ReportFilter) ([]*entity.Report, error)
	UpdateTrip(ctx context.Context, actor entity.Actor, id int64, input ReportInput) (*entity.Report, error)
	AddExpense(ctx context.Context, actor entity.Actor, reportID int64, input ExpenseInput) (*entity.ExpenseRecord, error)
	RemoveExpense(ctx context.Context, actor entity.Actor, reportID, expenseID int64) error
	CorrectCategory(ctx context.Context, actor entity.Actor, reportID, expenseID int64, category string) (*entity.ExpenseRecord, error)
	RecomputeTotal(ctx context.Context, reportID int64) (float64, error)
	Submit(ctx context.Context, actor entity.Actor, reportID int64) (*entity.Report, error)
	Review(ctx context.Context, actor entity.Actor, req ReviewRequest) (*ReviewOutcome, error)
	DetectDuplicates(ctx context.Context, actor entity.Actor, reportID int64) ([]entity.DuplicateGroup, error)
	Reconcile(ctx context.Context, actor entity.Actor, reportID int64) (*budget.Reconciliation, error)
	History(ctx context.Context, actor entity.Actor, reportID int64) ([]*entity.StatusHistory, error)
}

type reportServiceImpl struct {
	reportRepo  port.ReportRepository
	expenseRepo port.ExpenseRepository
	budgetRepo  port.BudgetRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	currency    CurrencyService
	managers    port.ManagerResolver
	dispatcher  dispatcher.Dispatcher
	logger      Logger
	opts        options
}

// NewReportService creates a new ReportService
func NewReportService(
	reportRepo port.ReportRepository,
	expenseRepo port.ExpenseRepository,
	budgetRepo port.BudgetRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	currency CurrencyService,
	managers port.ManagerResolver,
	d dispatcher.Dispatcher,
	logger Logger,
	opts ...Option,
) ReportService {
	return &reportServiceImpl{
		reportRepo:  reportRepo,
		expenseRepo: expenseRepo,
		budgetRepo:  budgetRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		currency:    currency,
		managers:    managers,
		dispatcher:  d,
		logger:      logger,
		opts:        newOptions(opts),
	}
}

// CreateReport creates a draft report owned by the actor
func (s *reportServiceImpl) CreateReport(ctx context.Context, actor entity.Actor, input ReportInput) (*entity.Report, error) {
	if err := validateTrip(input); err != nil {
		return nil, err
	}

	now := s.opts.clock()
	report := &entity.Report{
		OwnerID:     actor.ID,
		Destination: strings.TrimSpace(input.Destination),
		Purpose:     strings.TrimSpace(input.Purpose),
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      workflow.ReportDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.reportRepo.Create(txCtx, report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		return recordHistory(txCtx, s.historyRepo, &entity.StatusHistory{
			EntityType: entity.EntityReport,
			EntityID:   report.ID,
			ActorID:    actor.ID,
			NewStatus:  string(workflow.ReportDraft),
			Action:     "CREATE",
			Timestamp:  now,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create report", "error", err, "owner_id", actor.ID)
		return nil, err
	}

	s.logger.Info("Report created", "report_id", report.ID, "owner_id", actor.ID)
	return report, nil
}

// GetReport returns a report with its lines
func (s *reportServiceImpl) GetReport(ctx context.Context, actor entity.Actor, id int64) (*entity.Report, error) {
	report, err := s.loadReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewReport(actor, report) {
		return nil, workflow.ErrForbidden
	}

	report.Expenses, err = s.expenseRepo.List(ctx, entity.ExpenseFilter{ReportID: id})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return report, nil
}

// ListReports lists reports visible to the actor. Employees and managers only see their own.
func (s *reportServiceImpl) ListReports(ctx context.Context, actor entity.Actor, filter entity.ReportFilter) ([]*entity.Report, error) {
	if !actor.IsAccounting() && !actor.IsAdmin() {
		filter.OwnerID = actor.ID
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", workflow.ErrInvalidInput, filter.Status)
	}
	return s.reportRepo.List(ctx, filter)
}

// UpdateTrip changes trip metadata while the report is still editable
func (s *reportServiceImpl) UpdateTrip(ctx context.Context, actor entity.Actor, id int64, input ReportInput) (*entity.Report, error) {
	if err := validateTrip(input); err != nil {
		return nil, err
	}

	var report *entity.Report
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		report, err = s.loadReport(txCtx, id)
		if err != nil {
			return err
		}
		if report.OwnerID != actor.ID {
			return workflow.ErrForbidden
		}
		if !report.Status.IsEditable() {
			return fmt.Errorf("%w: report is %s", workflow.ErrInvalidTransition, report.Status)
		}

		report.Destination = strings.TrimSpace(input.Destination)
		report.Purpose = strings.TrimSpace(input.Purpose)
		report.StartDate = input.StartDate
		report.EndDate = input.EndDate
		report.UpdatedAt = s.opts.clock()
		return s.reportRepo.UpdateTrip(txCtx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// AddExpense adds a line to a report. Adding to a draft opens it. Accounting
// may insert lines at any point outside an active review.
func (s *reportServiceImpl) AddExpense(ctx context.Context, actor entity.Actor, reportID int64, input ExpenseInput) (*entity.ExpenseRecord, error) {
	if err := validateExpense(input); err != nil {
		return nil, err
	}

	normalized, err := s.currency.Normalizer(ctx).Normalize(input.Amount, input.Currency)
	if err != nil {
		return nil, fmt.Errorf("normalize %s amount: %w", input.Currency, err)
	}

	now := s.opts.clock()
	expense := &entity.ExpenseRecord{
		ReportID:         reportID,
		Date:             input.Date,
		Category:         strings.ToLower(strings.TrimSpace(input.Category)),
		Description:      strings.TrimSpace(input.Description),
		Amount:           input.Amount,
		Currency:         strings.ToUpper(strings.TrimSpace(input.Currency)),
		NormalizedAmount: normalized,
		Status:           workflow.LinePending,
		CreatedBy:        actor.ID,
		CreatedAt:        now,
	}

	box := &outbox{}
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		report, err := s.loadReport(txCtx, reportID)
		if err != nil {
			return err
		}

		switch {
		case actor.IsAccounting():
			if report.Status == workflow.ReportPendingApproval {
				return fmt.Errorf("%w: report is under review", workflow.ErrInvalidTransition)
			}
			if report.Status == workflow.ReportClosed {
				expense.Status = workflow.LineApproved
				expense.ReviewedBy = actor.ID
				expense.ReviewedAt = &now
			}
		case report.OwnerID == actor.ID:
			if !report.Status.IsEditable() {
				return fmt.Errorf("%w: report is %s", workflow.ErrInvalidTransition, report.Status)
			}
		default:
			return workflow.ErrForbidden
		}

		if report.Status == workflow.ReportDraft {
			if err := s.openReport(txCtx, actor, report, now, box); err != nil {
				return err
			}
		}

		if err := s.expenseRepo.Create(txCtx, expense); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}

		_, err = s.recomputeTotal(txCtx, reportID)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to add expense", "error", err, "report_id", reportID)
		return nil, err
	}

	box.publish(ctx, s.dispatcher, s.opts.observer)
	s.logger.Info("Expense added",
		"report_id", reportID,
		"expense_id", expense.ID,
		"normalized_amount", expense.NormalizedAmount,
	)
	return expense, nil
}

// RemoveExpense deletes a line from a report that has never been submitted
func (s *reportServiceImpl) RemoveExpense(ctx context.Context, actor entity.Actor, reportID, expenseID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		report, err := s.loadReport(txCtx, reportID)
		if err != nil {
			return err
		}
		if report.OwnerID != actor.ID {
			return workflow.ErrForbidden
		}
		if !report.Status.IsEditable() || report.HasBeenSubmitted() {
			return fmt.Errorf("%w: lines of a submitted report cannot be deleted", workflow.ErrInvalidTransition)
		}

		if _, err := s.loadExpense(txCtx, reportID, expenseID); err != nil {
			return err
		}
		if err := s.expenseRepo.Delete(txCtx, expenseID); err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}

		_, err = s.recomputeTotal(txCtx, reportID)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to remove expense", "error", err, "report_id", reportID, "expense_id", expenseID)
		return err
	}

	s.logger.Info("Expense removed", "report_id", reportID, "expense_id", expenseID)
	return nil
}

// CorrectCategory lets accounting reclassify a line
func (s *reportServiceImpl) CorrectCategory(ctx context.Context, actor entity.Actor, reportID, expenseID int64, category string) (*entity.ExpenseRecord, error) {
	if !actor.IsAccounting() {
		return nil, workflow.ErrForbidden
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if !knownCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", workflow.ErrInvalidInput, category)
	}

	var expense *entity.ExpenseRecord
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		expense, err = s.loadExpense(txCtx, reportID, expenseID)
		if err != nil {
			return err
		}
		if err := s.expenseRepo.UpdateCategory(txCtx, expenseID, category); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		previous := expense.Category
		expense.Category = category

		return recordHistory(txCtx, s.historyRepo, &entity.StatusHistory{
			EntityType: entity.EntityReport,
			EntityID:   reportID,
			ActorID:    actor.ID,
			Action:     "CORRECT_CATEGORY",
			Detail:     fmt.Sprintf("expense %d: %s -> %s", expenseID, previous, category),
			Timestamp:  s.opts.clock(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Expense category corrected", "report_id", reportID, "expense_id", expenseID, "category", category)
	return expense, nil
}

// RecomputeTotal sets the report total to the sum of its normalized lines
func (s *reportServiceImpl) RecomputeTotal(ctx context.Context, reportID int64) (float64, error) {
	var total float64
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.loadReport(txCtx, reportID); err != nil {
			return err
		}
		var err error
		total, err = s.recomputeTotal(txCtx, reportID)
		return err
	})
	return total, err
}

// Submit sends an open report to its owner's manager with a fresh approval token
func (s *reportServiceImpl) Submit(ctx context.Context, actor entity.Actor, reportID int64) (*entity.Report, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.OwnerID != actor.ID {
		return nil, workflow.ErrForbidden
	}
	if _, err := appwf.NextReportState(ctx, report.Status, workflow.ReportTriggerSubmit); err != nil {
		return nil, fmt.Errorf("%w (report is %s)", workflow.ErrAlreadyPending, report.Status)
	}

	reviewerID, err := s.managers.ManagerOf(ctx, report.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("resolve manager of %s: %w", report.OwnerID, err)
	}

	token := s.opts.tokens()
	now := s.opts.clock()
	box := &outbox{}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		lines, err := s.expenseRepo.List(txCtx, entity.ExpenseFilter{ReportID: reportID})
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		if len(lines) == 0 {
			return fmt.Errorf("%w: report has no expenses", workflow.ErrInvalidInput)
		}

		if err := s.expenseRepo.ResetDecisions(txCtx, reportID); err != nil {
			return fmt.Errorf("reset decisions: %w", err)
		}
		total, err := s.recomputeTotal(txCtx, reportID)
		if err != nil {
			return err
		}

		if err := s.reportRepo.MarkSubmitted(txCtx, reportID, token, reviewerID, now); err != nil {
			if errors.Is(err, port.ErrConditionFailed) {
				return workflow.ErrAlreadyPending
			}
			return fmt.Errorf("mark submitted: %w", err)
		}

		if err := recordHistory(txCtx, s.historyRepo, &entity.StatusHistory{
			EntityType:     entity.EntityReport,
			EntityID:       reportID,
			ActorID:        actor.ID,
			PreviousStatus: string(workflow.ReportOpen),
			NewStatus:      string(workflow.ReportPendingApproval),
			Action:         workflow.ReportTriggerSubmit.String(),
			Detail:         fmt.Sprintf("reviewer %s", reviewerID),
			Timestamp:      now,
		}); err != nil {
			return err
		}

		box.moved(entity.EntityReport, string(workflow.ReportOpen), string(workflow.ReportPendingApproval))
		box.emit(event.NewEvent(event.TypeSubmitted, entity.EntityReport, reportID, reviewerID,
			fmt.Sprintf("Expense report #%d (%s) from %s awaits your review: %d lines, total %.2f %s",
				reportID, report.Destination, report.OwnerID, len(lines), total, s.currency.BaseCurrency()),
			map[string]interface{}{
				"approval_token": token,
				"owner_id":       report.OwnerID,
				"total":          total,
			}))
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to submit report", "error", err, "report_id", reportID)
		return nil, err
	}

	box.publish(ctx, s.dispatcher, s.opts.observer)
	s.logger.Info("Report submitted", "report_id", reportID, "reviewer_id", reviewerID)

	return s.loadReport(ctx, reportID)
}

// Review applies a batch of line decisions, then decides the report once
// every line has a verdict. The batch is validated in full before any write.
func (s *reportServiceImpl) Review(ctx context.Context, actor entity.Actor, req ReviewRequest) (*ReviewOutcome, error) {
	if err := validateDecisions(req.Decisions); err != nil {
		return nil, err
	}

	now := s.opts.clock()
	box := &outbox{}
	outcome := ReviewOutcomePending

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		report, err := s.loadReport(txCtx, req.ReportID)
		if err != nil {
			return err
		}
		if report.Status != workflow.ReportPendingApproval {
			return fmt.Errorf("%w: report is %s", workflow.ErrReportNotPending, report.Status)
		}
		if req.Token == "" || req.Token != report.ApprovalToken {
			return workflow.ErrTokenAlreadyConsumed
		}
		if actor.ID != report.ReviewerID && !actor.IsAdmin() {
			return workflow.ErrForbidden
		}

		if err := s.reportRepo.LockPending(txCtx, report.ID, req.Token); err != nil {
			return consumedOr(err, "lock report")
		}

		lines, err := s.expenseRepo.List(txCtx, entity.ExpenseFilter{ReportID: report.ID})
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		owned := make(map[int64]bool, len(lines))
		for _, l := range lines {
			owned[l.ID] = true
		}
		for _, d := range req.Decisions {
			if !owned[d.ExpenseID] {
				return fmt.Errorf("%w: expense %d is not on report %d", workflow.ErrInvalidInput, d.ExpenseID, report.ID)
			}
		}

		for _, d := range req.Decisions {
			if err := s.expenseRepo.RecordDecision(txCtx, report.ID, d.ExpenseID, d.Status, strings.TrimSpace(d.Comment), actor.ID, now); err != nil {
				return fmt.Errorf("record decision on expense %d: %w", d.ExpenseID, err)
			}
		}

		// Decide from stored decisions, not from the batch
		lines, err = s.expenseRepo.List(txCtx, entity.ExpenseFilter{ReportID: report.ID})
		if err != nil {
			return fmt.Errorf("re-read expenses: %w", err)
		}
		decided, rejected := true, []string{}
		for _, l := range lines {
			switch l.Status {
			case workflow.LinePending:
				decided = false
			case workflow.LineRejected:
				rejected = append(rejected, l.ManagerComment)
			}
		}
		if !decided {
			return nil
		}

		if len(rejected) == 0 {
			outcome = ReviewOutcomeClosed
			return s.closeReport(txCtx, actor, report, req.Token, now, box)
		}
		outcome = ReviewOutcomeReturned
		return s.returnReport(txCtx, actor, report, req.Token, strings.Join(rejected, "; "), now, box)
	})
	if err != nil {
		s.logger.Error("Failed to apply review", "error", err, "report_id", req.ReportID, "reviewer_id", actor.ID)
		return nil, err
	}

	box.publish(ctx, s.dispatcher, s.opts.observer)
	s.logger.Info("Review applied",
		"report_id", req.ReportID,
		"reviewer_id", actor.ID,
		"decisions", len(req.Decisions),
		"outcome", outcome,
	)

	report, err := s.loadReport(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}
	return &ReviewOutcome{Report: report, Outcome: outcome}, nil
}

// DetectDuplicates flags lines of the report that look like the same spend
func (s *reportServiceImpl) DetectDuplicates(ctx context.Context, actor entity.Actor, reportID int64) ([]entity.DuplicateGroup, error) {
	report, err := s.GetReport(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	return duplicate.Detect(report.Expenses), nil
}

// Reconcile compares the report against its linked approved budget.
// Reports without a budget reconcile to nil.
func (s *reportServiceImpl) Reconcile(ctx context.Context, actor entity.Actor, reportID int64) (*budget.Reconciliation, error) {
	report, err := s.GetReport(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}

	envelope, err := s.budgetRepo.GetByReportID(ctx, reportID)
	if errors.Is(err, port.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	result := budget.Reconcile(envelope, report.Expenses)
	if err := result.Err(); err != nil {
		s.logger.Info("Budget envelope incomplete", "report_id", reportID, "budget_id", envelope.ID, "error", err)
	}
	return result, nil
}

// History returns the audit trail of a report, oldest first
func (s *reportServiceImpl) History(ctx context.Context, actor entity.Actor, reportID int64) ([]*entity.StatusHistory, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !canViewReport(actor, report) {
		return nil, workflow.ErrForbidden
	}
	return s.historyRepo.ListByEntity(ctx, entity.EntityReport, reportID)
}

func (s *reportServiceImpl) openReport(ctx context.Context, actor entity.Actor, report *entity.Report, now time.Time, box *outbox) error {
	next, err := appwf.NextReportState(ctx, report.Status, workflow.ReportTriggerOpen)
	if err != nil {
		return err
	}
	if err := s.reportRepo.Open(ctx, report.ID, now); err != nil {
		if errors.Is(err, port.ErrConditionFailed) {
			return fmt.Errorf("%w: report %d left draft", workflow.ErrStaleDecision, report.ID)
		}
		return fmt.Errorf("open report: %w", err)
	}
	box.moved(entity.EntityReport, string(report.Status), string(next))
	return recordHistory(ctx, s.historyRepo, &entity.StatusHistory{
		EntityType:     entity.EntityReport,
		EntityID:       report.ID,
		ActorID:        actor.ID,
		PreviousStatus: string(report.Status),
		NewStatus:      string(next),
		Action:         workflow.ReportTriggerOpen.String(),
		Timestamp:      now,
	})
}

func (s *reportServiceImpl) closeReport(ctx context.Context, actor entity.Actor, report *entity.Report, token string, now time.Time, box *outbox) error {
	next, err := appwf.NextReportState(ctx, report.Status, workflow.ReportTriggerApprove)
	if err != nil {
		return err
	}
	if err := s.reportRepo.Close(ctx, report.ID, token, now); err != nil {
		return consumedOr(err, "close report")
	}
	if err := recordHistory(ctx, s.historyRepo, &entity.StatusHistory{
		EntityType:     entity.EntityReport,
		EntityID:       report.ID,
		ActorID:        actor.ID,
		PreviousStatus: string(report.Status),
		NewStatus:      string(next),
		Action:         workflow.ReportTriggerApprove.String(),
		Timestamp:      now,
	}); err != nil {
		return err
	}

	box.moved(entity.EntityReport, string(report.Status), string(next))
	box.emit(event.NewEvent(event.TypeApproved, entity.EntityReport, report.ID, report.OwnerID,
		fmt.Sprintf("Your expense report #%d (%s) was approved and forwarded to accounting", report.ID, report.Destination),
		map[string]interface{}{"reviewer_id": actor.ID}))
	box.emit(event.NewEvent(event.TypeForwardedToAccounting, entity.EntityReport, report.ID, s.opts.accountingRecipient,
		fmt.Sprintf("Expense report #%d from %s is approved for booking", report.ID, report.OwnerID),
		map[string]interface{}{"owner_id": report.OwnerID, "reviewer_id": actor.ID}))
	return nil
}

func (s *reportServiceImpl) returnReport(ctx context.Context, actor entity.Actor, report *entity.Report, token, reason string, now time.Time, box *outbox) error {
	next, err := appwf.NextReportState(ctx, report.Status, workflow.ReportTriggerReturn)
	if err != nil {
		return err
	}
	if err := s.reportRepo.ReturnToOwner(ctx, report.ID, token, reason, now); err != nil {
		return consumedOr(err, "return report")
	}
	if err := recordHistory(ctx, s.historyRepo, &entity.StatusHistory{
		EntityType:     entity.EntityReport,
		EntityID:       report.ID,
		ActorID:        actor.ID,
		PreviousStatus: string(report.Status),
		NewStatus:      string(next),
		Action:         workflow.ReportTriggerReturn.String(),
		Detail:         reason,
		Timestamp:      now,
	}); err != nil {
		return err
	}

	box.moved(entity.EntityReport, string(report.Status), string(next))
	box.emit(event.NewEvent(event.TypeRejected, entity.EntityReport, report.ID, report.OwnerID,
		fmt.Sprintf("Your expense report #%d (%s) needs corrections: %s", report.ID, report.Destination, reason),
		map[string]interface{}{"reviewer_id": actor.ID, "reason": reason}))
	return nil
}

// recomputeTotal must run inside the caller's transaction.
// Lines already carry cent amounts, so the sum is stored as is.
func (s *reportServiceImpl) recomputeTotal(ctx context.Context, reportID int64) (float64, error) {
	lines, err := s.expenseRepo.List(ctx, entity.ExpenseFilter{ReportID: reportID})
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}

	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.NormalizedAmount))
	}
	total := sum.InexactFloat64()

	if err := s.reportRepo.UpdateTotal(ctx, reportID, total); err != nil {
		return 0, fmt.Errorf("update total: %w", err)
	}
	return total, nil
}

func (s *reportServiceImpl) loadReport(ctx context.Context, id int64) (*entity.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "report", id)
	}
	return report, nil
}

func (s *reportServiceImpl) loadExpense(ctx context.Context, reportID, expenseID int64) (*entity.ExpenseRecord, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, notFound(err, "expense", expenseID)
	}
	if expense.ReportID != reportID {
		return nil, fmt.Errorf("expense %d on report %d: %w", expenseID, reportID, port.ErrNotFound)
	}
	return expense, nil
}

func canViewReport(actor entity.Actor, report *entity.Report) bool {
	return actor.ID == report.OwnerID ||
		(report.ReviewerID != "" && actor.ID == report.ReviewerID) ||
		actor.IsAccounting() ||
		actor.IsAdmin()
}

// consumedOr maps a failed conditional update on the token to TokenAlreadyConsumed
func consumedOr(err error, op string) error {
	if errors.Is(err, port.ErrConditionFailed) {
		return workflow.ErrTokenAlreadyConsumed
	}
	return fmt.Errorf("%s: %w", op, err)
}

func validateTrip(input ReportInput) error {
	if strings.TrimSpace(input.Destination) == "" {
		return fmt.Errorf("%w: destination is required", workflow.ErrInvalidInput)
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		return fmt.Errorf("%w: trip ends before it starts", workflow.ErrInvalidInput)
	}
	return nil
}

func validateExpense(input ExpenseInput) error {
	if input.Date.IsZero() {
		return fmt.Errorf("%w: expense date is required", workflow.ErrInvalidInput)
	}
	if !knownCategory(strings.ToLower(strings.TrimSpace(input.Category))) {
		return fmt.Errorf("%w: unknown category %q", workflow.ErrInvalidInput, input.Category)
	}
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", workflow.ErrInvalidInput)
	}
	if len(strings.TrimSpace(input.Currency)) != 3 {
		return fmt.Errorf("%w: currency must be an ISO code", workflow.ErrInvalidInput)
	}
	return nil
}

func validateDecisions(decisions []LineDecision) error {
	if len(decisions) == 0 {
		return fmt.Errorf("%w: review batch is empty", workflow.ErrInvalidInput)
	}

	seen := make(map[int64]bool, len(decisions))
	for _, d := range decisions {
		if seen[d.ExpenseID] {
			return fmt.Errorf("%w: expense %d decided twice", workflow.ErrInvalidInput, d.ExpenseID)
		}
		seen[d.ExpenseID] = true

		switch d.Status {
		case workflow.LineApproved:
		case workflow.LineRejected:
			if strings.TrimSpace(d.Comment) == "" {
				return fmt.Errorf("%w: expense %d", workflow.ErrMissingJustification, d.ExpenseID)
			}
		default:
			return fmt.Errorf("%w: decision on expense %d must be approved or rejected", workflow.ErrInvalidInput, d.ExpenseID)
		}
	}
	return nil
}

// knownCategory accepts only the employee-facing categories; budget aliases
// apply during reconciliation and are never stored on a line
func knownCategory(category string) bool {
	for _, c := range entity.Categories {
		if c == category {
			return true
		}
	}
	return false
}
