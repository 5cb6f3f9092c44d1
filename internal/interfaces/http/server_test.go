package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/application/service"
	"github.com/garyjia/travel-expense/internal/domain/budget"
	"github.com/garyjia/travel-expense/internal/domain/currency"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

var testAuth = AuthConfig{Secret: "test-secret", Issuer: "travel-expense"}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// fakeReports overrides the ReportService methods a test needs; others panic
type fakeReports struct {
	service.ReportService

	actors  []entity.Actor
	filter  entity.ReportFilter
	review  service.ReviewRequest
	expense service.ExpenseInput
	report  *entity.Report
	err     error
}

func (f *fakeReports) CreateReport(ctx context.Context, actor entity.Actor, input service.ReportInput) (*entity.Report, error) {
	f.actors = append(f.actors, actor)
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Report{ID: 1, OwnerID: actor.ID, Destination: input.Destination, StartDate: input.StartDate, EndDate: input.EndDate, Status: workflow.ReportDraft}, nil
}

func (f *fakeReports) GetReport(ctx context.Context, actor entity.Actor, id int64) (*entity.Report, error) {
	f.actors = append(f.actors, actor)
	return f.report, f.err
}

func (f *fakeReports) ListReports(ctx context.Context, actor entity.Actor, filter entity.ReportFilter) ([]*entity.Report, error) {
	f.filter = filter
	return []*entity.Report{}, f.err
}

func (f *fakeReports) AddExpense(ctx context.Context, actor entity.Actor, reportID int64, input service.ExpenseInput) (*entity.ExpenseRecord, error) {
	f.expense = input
	if f.err != nil {
		return nil, f.err
	}
	return &entity.ExpenseRecord{ID: 7, ReportID: reportID, Amount: input.Amount, Currency: input.Currency}, nil
}

func (f *fakeReports) Review(ctx context.Context, actor entity.Actor, req service.ReviewRequest) (*service.ReviewOutcome, error) {
	f.review = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.ReviewOutcome{Report: &entity.Report{ID: req.ReportID, Status: workflow.ReportClosed}, Outcome: service.ReviewOutcomeClosed}, nil
}

func (f *fakeReports) Reconcile(ctx context.Context, actor entity.Actor, reportID int64) (*budget.Reconciliation, error) {
	return nil, f.err
}

func (f *fakeReports) RemoveExpense(ctx context.Context, actor entity.Actor, reportID, expenseID int64) error {
	return f.err
}

type fakeRequests struct {
	service.TravelRequestService

	stepID  int64
	comment string
	budget  *entity.ApprovedBudget
	err     error
}

func (f *fakeRequests) Approve(ctx context.Context, actor entity.Actor, id, stepID int64, comment string) (*entity.TravelRequest, error) {
	f.stepID, f.comment = stepID, comment
	if f.err != nil {
		return nil, f.err
	}
	return &entity.TravelRequest{ID: id, Status: workflow.RequestApproved}, nil
}

func (f *fakeRequests) Reject(ctx context.Context, actor entity.Actor, id, stepID int64, comment string) (*entity.TravelRequest, error) {
	f.stepID, f.comment = stepID, comment
	if f.err != nil {
		return nil, f.err
	}
	return &entity.TravelRequest{ID: id, Status: workflow.RequestRejected}, nil
}

func (f *fakeRequests) AttachBudget(ctx context.Context, actor entity.Actor, id int64, envelope *entity.ApprovedBudget) (*entity.ApprovedBudget, error) {
	f.budget = envelope
	envelope.ID, envelope.TravelRequestID = 3, id
	return envelope, f.err
}

type fakeMetrics struct {
	routes []string
}

func (m *fakeMetrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.routes = append(m.routes, fmt.Sprintf("%s %s %d", method, route, status))
}

func (m *fakeMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
}

func newTestServer(reports *fakeReports, requests *fakeRequests, metrics Metrics) *Server {
	return NewServer(DefaultServerConfig(), testAuth, reports, requests, metrics, nopLogger{})
}

func bearer(t *testing.T, actor entity.Actor) string {
	t.Helper()
	token, err := IssueToken(testAuth, actor, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, s *Server, method, path, auth, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var resp Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func TestServer_HealthAndMetrics(t *testing.T) {
	metrics := &fakeMetrics{}
	s := newTestServer(&fakeReports{}, &fakeRequests{}, metrics)

	rec, resp := do(t, s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	s.Router().ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), "# metrics")

	assert.Contains(t, metrics.routes, "GET /health 200")
}

func TestServer_Authentication(t *testing.T) {
	s := newTestServer(&fakeReports{}, &fakeRequests{}, nil)

	tests := []struct {
		name string
		auth string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, s, http.MethodGet, "/api/reports", tt.auth, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", resp.Code)
		})
	}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := IssueToken(AuthConfig{Secret: "other", Issuer: testAuth.Issuer}, entity.Actor{ID: "alice"}, time.Hour)
		require.NoError(t, err)
		rec, _ := do(t, s, http.MethodGet, "/api/reports", "Bearer "+token, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := IssueToken(testAuth, entity.Actor{ID: "alice"}, -time.Minute)
		require.NoError(t, err)
		rec, _ := do(t, s, http.MethodGet, "/api/reports", "Bearer "+token, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestParseToken(t *testing.T) {
	token, err := IssueToken(testAuth, entity.Actor{ID: "acct", Role: entity.RoleAccounting}, time.Hour)
	require.NoError(t, err)
	actor, err := ParseToken(testAuth, token)
	require.NoError(t, err)
	assert.Equal(t, entity.Actor{ID: "acct", Role: entity.RoleAccounting}, actor)

	token, err = IssueToken(testAuth, entity.Actor{ID: "alice"}, time.Hour)
	require.NoError(t, err)
	actor, err = ParseToken(testAuth, token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleEmployee, actor.Role, "role defaults to employee")

	token, err = IssueToken(testAuth, entity.Actor{ID: "eve", Role: "superuser"}, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(testAuth, token)
	assert.Error(t, err)

	token, err = IssueToken(AuthConfig{Secret: testAuth.Secret, Issuer: "someone-else"}, entity.Actor{ID: "alice"}, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(testAuth, token)
	assert.Error(t, err, "issuer must match")
}

func TestHandlers_CreateReportPassesActor(t *testing.T) {
	reports := &fakeReports{}
	s := newTestServer(reports, &fakeRequests{}, nil)
	alice := entity.Actor{ID: "alice", Role: entity.RoleEmployee}

	rec, resp := do(t, s, http.MethodPost, "/api/reports", bearer(t, alice),
		`{"destination":"Berlin","start_date":"2024-03-01","end_date":"2024-03-05"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)
	require.Len(t, reports.actors, 1)
	assert.Equal(t, alice, reports.actors[0])

	rec, resp = do(t, s, http.MethodPost, "/api/reports", bearer(t, alice),
		`{"destination":"Berlin","start_date":"03/01/2024","end_date":"2024-03-05"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeBadRequest, resp.Code)
}

func TestHandlers_AddExpense(t *testing.T) {
	reports := &fakeReports{}
	s := newTestServer(reports, &fakeRequests{}, nil)
	alice := bearer(t, entity.Actor{ID: "alice"})

	rec, _ := do(t, s, http.MethodPost, "/api/reports/4/expenses", alice,
		`{"date":"2024-03-02","category":"food","amount":35.5,"currency":"EUR"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 35.5, reports.expense.Amount)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), reports.expense.Date)

	rec, _ = do(t, s, http.MethodPost, "/api/reports/abc/expenses", alice, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_ListReportsPaging(t *testing.T) {
	reports := &fakeReports{}
	s := newTestServer(reports, &fakeRequests{}, nil)

	rec, _ := do(t, s, http.MethodGet, "/api/reports?status=closed&limit=500&from=2024-03-01&to=2024-03-31", bearer(t, entity.Actor{ID: "acct", Role: entity.RoleAccounting}), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, workflow.ReportClosed, reports.filter.Status)
	assert.Equal(t, 20, reports.filter.Limit, "oversized page falls back to default")
	require.NotNil(t, reports.filter.From)
	require.NotNil(t, reports.filter.To)
	assert.True(t, reports.filter.To.After(time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)))
}

func TestHandlers_GetReportShowsTokenToReviewer(t *testing.T) {
	pending := &entity.Report{ID: 2, OwnerID: "alice", ReviewerID: "bob", Status: workflow.ReportPendingApproval, ApprovalToken: "tok-9"}
	s := newTestServer(&fakeReports{report: pending}, &fakeRequests{}, nil)

	rec, _ := do(t, s, http.MethodGet, "/api/reports/2", bearer(t, entity.Actor{ID: "bob", Role: entity.RoleManager}), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"approval_token":"tok-9"`)

	rec, _ = do(t, s, http.MethodGet, "/api/reports/2", bearer(t, entity.Actor{ID: "alice"}), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "tok-9")
}

func TestHandlers_ReviewReport(t *testing.T) {
	reports := &fakeReports{}
	s := newTestServer(reports, &fakeRequests{}, nil)
	bob := bearer(t, entity.Actor{ID: "bob", Role: entity.RoleManager})

	rec, resp := do(t, s, http.MethodPost, "/api/reports/2/review", bob,
		`{"token":"tok-1","decisions":[{"expense_id":5,"status":"approved"},{"expense_id":6,"status":"rejected","comment":"no receipt"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, int64(2), reports.review.ReportID)
	assert.Equal(t, "tok-1", reports.review.Token)
	require.Len(t, reports.review.Decisions, 2)
	assert.Equal(t, workflow.LineRejected, reports.review.Decisions[1].Status)
	assert.Equal(t, "no receipt", reports.review.Decisions[1].Comment)
	assert.Contains(t, rec.Body.String(), `"outcome":"closed"`)
}

func TestHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", fmt.Errorf("%w: amount must be positive", workflow.ErrInvalidInput), http.StatusUnprocessableEntity, CodeInvalidInput},
		{"missing justification", workflow.ErrMissingJustification, http.StatusUnprocessableEntity, CodeInvalidInput},
		{"unknown currency", fmt.Errorf("normalize: %w", currency.ErrRateUnavailable), http.StatusUnprocessableEntity, CodeInvalidInput},
		{"no manager configured", fmt.Errorf("resolve manager of dave: %w", port.ErrNoApprover), http.StatusUnprocessableEntity, CodeInvalidInput},
		{"forbidden", workflow.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{"not found", fmt.Errorf("report 9: %w", port.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"already pending", workflow.ErrAlreadyPending, http.StatusConflict, CodeInvalidState},
		{"token consumed", workflow.ErrTokenAlreadyConsumed, http.StatusConflict, CodeAlreadyActed},
		{"report not pending", workflow.ErrReportNotPending, http.StatusConflict, CodeAlreadyActed},
		{"stale decision", workflow.ErrStaleDecision, http.StatusConflict, CodeAlreadyActed},
		{"unexpected", fmt.Errorf("disk I/O error"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeReports{err: tt.err}, &fakeRequests{}, nil)
			rec, resp := do(t, s, http.MethodPost, "/api/reports/2/review", bearer(t, entity.Actor{ID: "bob"}),
				`{"token":"tok-1","decisions":[{"expense_id":5,"status":"approved"}]}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, resp.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestHandlers_InternalErrorNotEchoed(t *testing.T) {
	s := newTestServer(&fakeReports{err: fmt.Errorf("database is locked at /var/lib/engine.db")}, &fakeRequests{}, nil)
	rec, resp := do(t, s, http.MethodDelete, "/api/reports/2/expenses/3", bearer(t, entity.Actor{ID: "alice"}), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "remove expense failed", resp.Error)
}

func TestHandlers_StepDecisions(t *testing.T) {
	requests := &fakeRequests{}
	s := newTestServer(&fakeReports{}, requests, nil)
	carol := bearer(t, entity.Actor{ID: "carol", Role: entity.RoleManager})

	rec, _ := do(t, s, http.MethodPost, "/api/travel-requests/8/steps/21/approve", carol, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(21), requests.stepID)
	assert.Empty(t, requests.comment)

	rec, _ = do(t, s, http.MethodPost, "/api/travel-requests/8/steps/22/reject", carol, `{"comment":"over budget"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(22), requests.stepID)
	assert.Equal(t, "over budget", requests.comment)
	assert.Contains(t, rec.Body.String(), `"status":"rejected"`)

	requests.err = workflow.ErrStaleDecision
	rec, resp := do(t, s, http.MethodPost, "/api/travel-requests/8/steps/22/approve", carol, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeAlreadyActed, resp.Code)
}

func TestHandlers_AttachBudgetKeepsMissingCapsNil(t *testing.T) {
	requests := &fakeRequests{}
	s := newTestServer(&fakeReports{}, requests, nil)

	rec, _ := do(t, s, http.MethodPost, "/api/travel-requests/8/budget", bearer(t, entity.Actor{ID: "acct", Role: entity.RoleAccounting}),
		`{"flights":400,"meals_per_day":50,"days":4}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, requests.budget.Flights)
	assert.Equal(t, 400.0, *requests.budget.Flights)
	assert.Nil(t, requests.budget.Accommodation)
	assert.Nil(t, requests.budget.Transport)
	limit, ok := requests.budget.MealsCap()
	assert.True(t, ok)
	assert.Equal(t, 200.0, limit)
}

func TestHandlers_ReconcileWithoutBudget(t *testing.T) {
	s := newTestServer(&fakeReports{}, &fakeRequests{}, nil)
	rec, resp := do(t, s, http.MethodGet, "/api/reports/2/reconciliation", bearer(t, entity.Actor{ID: "alice"}), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Data)
}
