package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-expense/internal/application/service"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

// TripRequest is the trip metadata of a report
type TripRequest struct {
	Destination string `json:"destination" binding:"required"`
	Purpose     string `json:"purpose"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
}

// ExpenseRequest is one expense line
type ExpenseRequest struct {
	Date        string  `json:"date" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency" binding:"required"`
}

// CategoryRequest reclassifies a line
type CategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

// DecisionRequest is a verdict on one line
type DecisionRequest struct {
	ExpenseID int64  `json:"expense_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
	Comment   string `json:"comment"`
}

// ReviewRequest is one review batch
type ReviewRequest struct {
	Token     string            `json:"token" binding:"required"`
	Decisions []DecisionRequest `json:"decisions" binding:"required"`
}

// ReportView is a report as returned to one caller. Only the assigned
// reviewer sees the approval token of a pending report.
type ReportView struct {
	*entity.Report
	ApprovalToken string `json:"approval_token,omitempty"`
}

func reportView(actor entity.Actor, report *entity.Report) ReportView {
	view := ReportView{Report: report}
	if report.Status == workflow.ReportPendingApproval && report.ReviewerID == actor.ID {
		view.ApprovalToken = report.ApprovalToken
	}
	return view
}

func (r TripRequest) toInput() (service.ReportInput, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return service.ReportInput{}, err
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return service.ReportInput{}, err
	}
	return service.ReportInput{
		Destination: r.Destination,
		Purpose:     r.Purpose,
		StartDate:   start,
		EndDate:     end,
	}, nil
}

// CreateReport handles POST /api/reports
func (h *Handlers) CreateReport(c *gin.Context) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		badRequest(c, "dates must be YYYY-MM-DD")
		return
	}

	report, err := h.reports.CreateReport(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		h.respondError(c, "create report", err)
		return
	}
	ok(c, http.StatusCreated, report)
}

// ListReports handles GET /api/reports
func (h *Handlers) ListReports(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	from, to, err := q.period()
	if err != nil {
		badRequest(c, "dates must be YYYY-MM-DD")
		return
	}
	limit, offset := q.page()

	filter := entity.ReportFilter{
		OwnerID: c.Query("owner_id"),
		Status:  workflow.ReportState(q.Status),
		From:    from,
		To:      to,
		Limit:   limit,
		Offset:  offset,
	}

	reports, err := h.reports.ListReports(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		h.respondError(c, "list reports", err)
		return
	}
	ok(c, http.StatusOK, reports)
}

// GetReport handles GET /api/reports/:id
func (h *Handlers) GetReport(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	actor := actorFrom(c)
	report, err := h.reports.GetReport(c.Request.Context(), actor, id)
	if err != nil {
		h.respondError(c, "get report", err)
		return
	}
	ok(c, http.StatusOK, reportView(actor, report))
}

// UpdateTrip handles PUT /api/reports/:id
func (h *Handlers) UpdateTrip(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		badRequest(c, "dates must be YYYY-MM-DD")
		return
	}

	report, err := h.reports.UpdateTrip(c.Request.Context(), actorFrom(c), id, input)
	if err != nil {
		h.respondError(c, "update report", err)
		return
	}
	ok(c, http.StatusOK, report)
}

// AddExpense handles POST /api/reports/:id/expenses
func (h *Handlers) AddExpense(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}

	expense, err := h.reports.AddExpense(c.Request.Context(), actorFrom(c), id, service.ExpenseInput{
		Date:        date,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
	})
	if err != nil {
		h.respondError(c, "add expense", err)
		return
	}
	ok(c, http.StatusCreated, expense)
}

// RemoveExpense handles DELETE /api/reports/:id/expenses/:expenseId
func (h *Handlers) RemoveExpense(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	expenseID, valid := pathID(c, "expenseId")
	if !valid {
		return
	}

	if err := h.reports.RemoveExpense(c.Request.Context(), actorFrom(c), id, expenseID); err != nil {
		h.respondError(c, "remove expense", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CorrectCategory handles PATCH /api/reports/:id/expenses/:expenseId/category
func (h *Handlers) CorrectCategory(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	expenseID, valid := pathID(c, "expenseId")
	if !valid {
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	expense, err := h.reports.CorrectCategory(c.Request.Context(), actorFrom(c), id, expenseID, req.Category)
	if err != nil {
		h.respondError(c, "correct category", err)
		return
	}
	ok(c, http.StatusOK, expense)
}

// SubmitReport handles POST /api/reports/:id/submit
func (h *Handlers) SubmitReport(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	report, err := h.reports.Submit(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, "submit report", err)
		return
	}
	ok(c, http.StatusOK, report)
}

// ReviewReport handles POST /api/reports/:id/review
func (h *Handlers) ReviewReport(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	decisions := make([]service.LineDecision, 0, len(req.Decisions))
	for _, d := range req.Decisions {
		decisions = append(decisions, service.LineDecision{
			ExpenseID: d.ExpenseID,
			Status:    workflow.LineState(d.Status),
			Comment:   d.Comment,
		})
	}

	outcome, err := h.reports.Review(c.Request.Context(), actorFrom(c), service.ReviewRequest{
		ReportID:  id,
		Token:     req.Token,
		Decisions: decisions,
	})
	if err != nil {
		h.respondError(c, "review report", err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"outcome": outcome.Outcome,
		"report":  outcome.Report,
	})
}

// DetectDuplicates handles GET /api/reports/:id/duplicates
func (h *Handlers) DetectDuplicates(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	groups, err := h.reports.DetectDuplicates(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, "detect duplicates", err)
		return
	}
	if groups == nil {
		groups = []entity.DuplicateGroup{}
	}
	ok(c, http.StatusOK, groups)
}

// Reconcile handles GET /api/reports/:id/reconciliation
func (h *Handlers) Reconcile(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	result, err := h.reports.Reconcile(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, "reconcile report", err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, Response{Success: true})
		return
	}
	ok(c, http.StatusOK, result)
}

// ReportHistory handles GET /api/reports/:id/history
func (h *Handlers) ReportHistory(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	history, err := h.reports.History(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, "report history", err)
		return
	}
	ok(c, http.StatusOK, history)
}
