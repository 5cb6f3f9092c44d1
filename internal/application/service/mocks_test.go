package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/travel-expense/internal/application/dispatcher"
	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/event"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingDispatcher captures events instead of running handlers
type recordingDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (d *recordingDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {}

func (d *recordingDispatcher) SubscribeNamed(eventType event.Type, name, description string, handler dispatcher.Handler) {
}

func (d *recordingDispatcher) Unsubscribe(eventType event.Type, name string) {}

func (d *recordingDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	d.DispatchAsync(ctx, evt)
	return nil
}

func (d *recordingDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, evt)
}

func (d *recordingDispatcher) ListHandlers(eventType event.Type) []dispatcher.HandlerInfo {
	return nil
}

func (d *recordingDispatcher) Close() error { return nil }

func (d *recordingDispatcher) ofType(t event.Type) []*event.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*event.Event
	for _, evt := range d.events {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

func (d *recordingDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

type recordingObserver struct {
	transitions []string
}

func (o *recordingObserver) ObserveTransition(entityType, from, to string) {
	o.transitions = append(o.transitions, fmt.Sprintf("%s:%s->%s", entityType, from, to))
}

// memStore backs every in-memory repository of a test
type memStore struct {
	mu            sync.Mutex
	nextID        int64
	reports       map[int64]*entity.Report
	expenses      map[int64]*entity.ExpenseRecord
	requests      map[int64]*entity.TravelRequest
	steps         map[int64]*entity.ApprovalStep
	budgets       map[int64]*entity.ApprovedBudget
	notifications map[int64]*entity.Notification
	violations    map[int64]*entity.PolicyViolation
	history       []*entity.StatusHistory
	deletes       []string
}

func newMemStore() *memStore {
	return &memStore{
		reports:       map[int64]*entity.Report{},
		expenses:      map[int64]*entity.ExpenseRecord{},
		requests:      map[int64]*entity.TravelRequest{},
		steps:         map[int64]*entity.ApprovalStep{},
		budgets:       map[int64]*entity.ApprovedBudget{},
		notifications: map[int64]*entity.Notification{},
		violations:    map[int64]*entity.PolicyViolation{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memReportRepo struct{ s *memStore }

func (r *memReportRepo) Create(ctx context.Context, report *entity.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	report.ID = r.s.id()
	stored := *report
	r.s.reports[report.ID] = &stored
	return nil
}

func (r *memReportRepo) GetByID(ctx context.Context, id int64) (*entity.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	report, ok := r.s.reports[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	out := *report
	return &out, nil
}

func (r *memReportRepo) List(ctx context.Context, filter entity.ReportFilter) ([]*entity.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Report
	for _, report := range r.s.reports {
		if filter.OwnerID != "" && report.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && report.Status != filter.Status {
			continue
		}
		cp := *report
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memReportRepo) UpdateTrip(ctx context.Context, report *entity.Report) error {
	return r.update(report.ID, func(stored *entity.Report) bool {
		if !stored.Status.IsEditable() {
			return false
		}
		stored.Destination = report.Destination
		stored.Purpose = report.Purpose
		stored.StartDate = report.StartDate
		stored.EndDate = report.EndDate
		return true
	})
}

func (r *memReportRepo) UpdateTotal(ctx context.Context, id int64, total float64) error {
	return r.update(id, func(stored *entity.Report) bool {
		stored.Total = total
		return true
	})
}

func (r *memReportRepo) Open(ctx context.Context, id int64, openedAt time.Time) error {
	return r.update(id, func(stored *entity.Report) bool {
		if stored.Status != workflow.ReportDraft {
			return false
		}
		stored.Status = workflow.ReportOpen
		stored.UpdatedAt = openedAt
		return true
	})
}

func (r *memReportRepo) MarkSubmitted(ctx context.Context, id int64, token, reviewerID string, submittedAt time.Time) error {
	return r.update(id, func(stored *entity.Report) bool {
		if stored.Status != workflow.ReportOpen {
			return false
		}
		stored.Status = workflow.ReportPendingApproval
		stored.ApprovalToken = token
		stored.ReviewerID = reviewerID
		stored.RejectionReason = ""
		stored.SubmittedAt = &submittedAt
		stored.SubmissionCount++
		return true
	})
}

func (r *memReportRepo) LockPending(ctx context.Context, id int64, token string) error {
	return r.update(id, func(stored *entity.Report) bool {
		return stored.Status == workflow.ReportPendingApproval && stored.ApprovalToken == token
	})
}

func (r *memReportRepo) Close(ctx context.Context, id int64, token string, approvedAt time.Time) error {
	return r.update(id, func(stored *entity.Report) bool {
		if stored.Status != workflow.ReportPendingApproval || stored.ApprovalToken != token {
			return false
		}
		stored.Status = workflow.ReportClosed
		stored.ApprovalToken = ""
		stored.ApprovedAt = &approvedAt
		return true
	})
}

func (r *memReportRepo) ReturnToOwner(ctx context.Context, id int64, token, reason string, returnedAt time.Time) error {
	return r.update(id, func(stored *entity.Report) bool {
		if stored.Status != workflow.ReportPendingApproval || stored.ApprovalToken != token {
			return false
		}
		stored.Status = workflow.ReportOpen
		stored.ApprovalToken = ""
		stored.SubmittedAt = nil
		stored.RejectionReason = reason
		stored.UpdatedAt = returnedAt
		return true
	})
}

func (r *memReportRepo) update(id int64, apply func(*entity.Report) bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.reports[id]
	if !ok {
		return port.ErrNotFound
	}
	if !apply(stored) {
		return port.ErrConditionFailed
	}
	return nil
}

type memExpenseRepo struct{ s *memStore }

func (r *memExpenseRepo) Create(ctx context.Context, expense *entity.ExpenseRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	expense.ID = r.s.id()
	stored := *expense
	r.s.expenses[expense.ID] = &stored
	return nil
}

func (r *memExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.ExpenseRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	expense, ok := r.s.expenses[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	out := *expense
	return &out, nil
}

func (r *memExpenseRepo) List(ctx context.Context, filter entity.ExpenseFilter) ([]*entity.ExpenseRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.ExpenseRecord{}
	for _, e := range r.s.expenses {
		if e.ReportID != filter.ReportID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memExpenseRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenses[id]; !ok {
		return port.ErrNotFound
	}
	delete(r.s.expenses, id)
	return nil
}

func (r *memExpenseRepo) UpdateCategory(ctx context.Context, id int64, category string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.expenses[id]
	if !ok {
		return port.ErrNotFound
	}
	e.Category = category
	return nil
}

func (r *memExpenseRepo) ResetDecisions(ctx context.Context, reportID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.expenses {
		if e.ReportID == reportID {
			e.Status = workflow.LinePending
			e.ManagerComment = ""
			e.ReviewedBy = ""
			e.ReviewedAt = nil
		}
	}
	return nil
}

func (r *memExpenseRepo) RecordDecision(ctx context.Context, reportID, id int64, status workflow.LineState, comment, reviewerID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.expenses[id]
	if !ok || e.ReportID != reportID {
		return port.ErrNotFound
	}
	e.Status = status
	e.ManagerComment = comment
	e.ReviewedBy = reviewerID
	e.ReviewedAt = &at
	return nil
}

type memRequestRepo struct{ s *memStore }

func (r *memRequestRepo) Create(ctx context.Context, req *entity.TravelRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req.ID = r.s.id()
	stored := *req
	stored.Steps = nil
	r.s.requests[req.ID] = &stored
	return nil
}

func (r *memRequestRepo) GetByID(ctx context.Context, id int64) (*entity.TravelRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	out := *req
	return &out, nil
}

func (r *memRequestRepo) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.TravelRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.TravelRequest
	for _, req := range r.s.requests {
		if filter.RequesterID != "" && req.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRequestRepo) UpdateStatus(ctx context.Context, id int64, from, to workflow.RequestState, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return port.ErrNotFound
	}
	if req.Status != from {
		return port.ErrConditionFailed
	}
	req.Status = to
	req.UpdatedAt = at
	return nil
}

func (r *memRequestRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.requests, id)
	r.s.deletes = append(r.s.deletes, "request")
	return nil
}

type memStepRepo struct{ s *memStore }

func (r *memStepRepo) Create(ctx context.Context, step *entity.ApprovalStep) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	step.ID = r.s.id()
	stored := *step
	r.s.steps[step.ID] = &stored
	return nil
}

func (r *memStepRepo) ListByRequest(ctx context.Context, requestID int64) ([]*entity.ApprovalStep, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.ApprovalStep{}
	for _, step := range r.s.steps {
		if step.RequestID == requestID {
			cp := *step
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r *memStepRepo) Decide(ctx context.Context, id int64, status workflow.StepState, decidedBy, comment string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	step, ok := r.s.steps[id]
	if !ok {
		return port.ErrNotFound
	}
	if step.Status != workflow.StepPending {
		return port.ErrConditionFailed
	}
	step.Status = status
	step.DecidedBy = decidedBy
	step.Comment = comment
	step.DecidedAt = &at
	return nil
}

func (r *memStepRepo) Skip(ctx context.Context, id int64, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	step, ok := r.s.steps[id]
	if !ok {
		return port.ErrNotFound
	}
	if step.Status != workflow.StepPending {
		return port.ErrConditionFailed
	}
	step.Status = workflow.StepSkipped
	step.SkipReason = reason
	return nil
}

func (r *memStepRepo) DeleteByRequest(ctx context.Context, requestID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, step := range r.s.steps {
		if step.RequestID == requestID {
			delete(r.s.steps, id)
		}
	}
	r.s.deletes = append(r.s.deletes, "steps")
	return nil
}

type memBudgetRepo struct{ s *memStore }

func (r *memBudgetRepo) Create(ctx context.Context, b *entity.ApprovedBudget) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b.ID = r.s.id()
	stored := *b
	r.s.budgets[b.ID] = &stored
	return nil
}

func (r *memBudgetRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovedBudget, error) {
	return r.find(func(b *entity.ApprovedBudget) bool { return b.ID == id })
}

func (r *memBudgetRepo) GetByRequestID(ctx context.Context, requestID int64) (*entity.ApprovedBudget, error) {
	return r.find(func(b *entity.ApprovedBudget) bool { return b.TravelRequestID == requestID })
}

func (r *memBudgetRepo) GetByReportID(ctx context.Context, reportID int64) (*entity.ApprovedBudget, error) {
	return r.find(func(b *entity.ApprovedBudget) bool { return b.ReportID != nil && *b.ReportID == reportID })
}

func (r *memBudgetRepo) LinkReport(ctx context.Context, id, reportID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.budgets[id]
	if !ok {
		return port.ErrNotFound
	}
	b.ReportID = &reportID
	return nil
}

func (r *memBudgetRepo) find(match func(*entity.ApprovedBudget) bool) (*entity.ApprovedBudget, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.budgets {
		if match(b) {
			out := *b
			return &out, nil
		}
	}
	return nil, port.ErrNotFound
}

type memNotificationRepo struct {
	s         *memStore
	createErr error
}

func (r *memNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.id()
	stored := *n
	r.s.notifications[n.ID] = &stored
	return nil
}

func (r *memNotificationRepo) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Notification{}
	for _, n := range r.s.notifications {
		if n.EntityType == entityType && n.EntityID == entityID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memNotificationRepo) MarkSent(ctx context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return port.ErrNotFound
	}
	n.Status = entity.NotificationStatusSent
	n.SentAt = &at
	n.ErrorMessage = ""
	n.Attempts++
	return nil
}

func (r *memNotificationRepo) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return port.ErrNotFound
	}
	n.Status = entity.NotificationStatusFailed
	n.ErrorMessage = errorMsg
	n.Attempts++
	return nil
}

func (r *memNotificationRepo) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Notification{}
	for _, n := range r.s.notifications {
		if n.Status == entity.NotificationStatusFailed && n.RecipientID != "" && n.Attempts < maxAttempts {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memNotificationRepo) DeleteByEntity(ctx context.Context, entityType string, entityID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, n := range r.s.notifications {
		if n.EntityType == entityType && n.EntityID == entityID {
			delete(r.s.notifications, id)
		}
	}
	r.s.deletes = append(r.s.deletes, "notifications")
	return nil
}

type memViolationRepo struct{ s *memStore }

func (r *memViolationRepo) Create(ctx context.Context, v *entity.PolicyViolation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v.ID = r.s.id()
	stored := *v
	r.s.violations[v.ID] = &stored
	return nil
}

func (r *memViolationRepo) ListByRequest(ctx context.Context, requestID int64) ([]*entity.PolicyViolation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.PolicyViolation{}
	for _, v := range r.s.violations {
		if v.TravelRequestID == requestID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memViolationRepo) DeleteByRequest(ctx context.Context, requestID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, v := range r.s.violations {
		if v.TravelRequestID == requestID {
			delete(r.s.violations, id)
		}
	}
	r.s.deletes = append(r.s.deletes, "violations")
	return nil
}

type memHistoryRepo struct{ s *memStore }

func (r *memHistoryRepo) Create(ctx context.Context, h *entity.StatusHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h.ID = r.s.id()
	stored := *h
	r.s.history = append(r.s.history, &stored)
	return nil
}

func (r *memHistoryRepo) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.StatusHistory{}
	for _, h := range r.s.history {
		if h.EntityType == entityType && h.EntityID == entityID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockManagers struct {
	managers map[string]string
}

func (m *mockManagers) ManagerOf(ctx context.Context, employeeID string) (string, error) {
	manager, ok := m.managers[employeeID]
	if !ok {
		return "", fmt.Errorf("%w: no manager for %s", port.ErrNoApprover, employeeID)
	}
	return manager, nil
}

type mockPolicy struct {
	resolution *port.PolicyResolution
	err        error
}

func (m *mockPolicy) Resolve(ctx context.Context, organizationID string, req *entity.TravelRequest) (*port.PolicyResolution, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.resolution == nil {
		return &port.PolicyResolution{}, nil
	}
	return m.resolution, nil
}

// mockApprovers resolves direct_manager through the manager table and
// specific_user to the configured user
type mockApprovers struct {
	managers map[string]string
}

func (m *mockApprovers) ResolveApprover(ctx context.Context, rule, userID, requesterID string) (string, error) {
	switch rule {
	case entity.ApproverDirectManager:
		return m.managers[requesterID], nil
	case entity.ApproverSpecificUser:
		return userID, nil
	case entity.ApproverAccountingManager:
		return "acct-lead", nil
	case entity.ApproverOrgAdmin:
		return "org-admin", nil
	}
	return "", fmt.Errorf("unknown approver rule %q", rule)
}

type mockRateSource struct {
	rates map[string]float64
	err   error
}

func (m *mockRateSource) GetRates(ctx context.Context, base string) (map[string]float64, error) {
	return m.rates, m.err
}

type mockNotifier struct {
	mu      sync.Mutex
	sent    []string
	sendErr error
}

func (m *mockNotifier) Send(ctx context.Context, recipientID, message string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recipientID+": "+message)
	return nil
}

type mockExporter struct {
	exported []int64
	err      error
}

func (m *mockExporter) ExportReport(ctx context.Context, report *entity.Report, expenses []*entity.ExpenseRecord) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.exported = append(m.exported, report.ID)
	return []byte(fmt.Sprintf("report %d with %d lines", report.ID, len(expenses))), nil
}

type mockStorage struct {
	files map[string][]byte
}

func (m *mockStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[path] = content
	return nil
}

func (m *mockStorage) Read(ctx context.Context, path string) ([]byte, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, port.ErrNotFound
	}
	return content, nil
}

func (m *mockStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *mockStorage) Locate(key string) string {
	return "/exports/" + key
}

// harness wires both services over one in-memory store
type harness struct {
	store      *memStore
	dispatcher *recordingDispatcher
	observer   *recordingObserver
	logger     *mockLogger
	managers   map[string]string
	policy     *mockPolicy
	rates      *mockRateSource
	reports    ReportService
	requests   TravelRequestService
	tokens     int
	now        time.Time
}

func newHarness() *harness {
	h := &harness{
		store:      newMemStore(),
		dispatcher: &recordingDispatcher{},
		observer:   &recordingObserver{},
		logger:     &mockLogger{},
		managers:   map[string]string{"alice": "bob", "bob": "carol", "dave": "dave"},
		policy:     &mockPolicy{},
		rates:      &mockRateSource{rates: map[string]float64{"EUR": 0.8, "GBP": 0.5}},
		now:        time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	opts := []Option{
		WithClock(func() time.Time { return h.now }),
		WithTokenGenerator(func() string {
			h.tokens++
			return fmt.Sprintf("token-%d", h.tokens)
		}),
		WithTransitionObserver(h.observer),
	}

	currency := NewCurrencyService(h.rates, "usd", map[string]float64{"JPY": 150}, h.logger)
	h.reports = NewReportService(
		&memReportRepo{h.store}, &memExpenseRepo{h.store}, &memBudgetRepo{h.store}, &memHistoryRepo{h.store},
		&mockTxManager{}, currency, &mockManagers{h.managers}, h.dispatcher, h.logger, opts...)
	h.requests = NewTravelRequestService(
		&memRequestRepo{h.store}, &memStepRepo{h.store}, &memViolationRepo{h.store}, &memNotificationRepo{s: h.store},
		&memBudgetRepo{h.store}, &memReportRepo{h.store}, &memHistoryRepo{h.store},
		&mockTxManager{}, h.policy, &mockApprovers{h.managers}, h.dispatcher, h.logger, opts...)
	return h
}
