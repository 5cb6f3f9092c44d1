package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-expense/internal/application/service"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

// TravelRequestBody is a new travel request
type TravelRequestBody struct {
	OrganizationID string  `json:"organization_id"`
	Destination    string  `json:"destination" binding:"required"`
	Purpose        string  `json:"purpose"`
	StartDate      string  `json:"start_date" binding:"required"`
	EndDate        string  `json:"end_date" binding:"required"`
	EstimatedTotal float64 `json:"estimated_total"`
}

// DecisionBody carries an approver's comment
type DecisionBody struct {
	Comment string `json:"comment"`
}

// PartialApprovalBody carries the evaluator's explanation
type PartialApprovalBody struct {
	Detail string `json:"detail"`
}

// BudgetBody is an approved budget envelope. Omitted caps stay unset.
type BudgetBody struct {
	Flights               *float64 `json:"flights"`
	Accommodation         *float64 `json:"accommodation"`
	AccommodationPerNight *float64 `json:"accommodation_per_night"`
	Nights                int      `json:"nights"`
	Meals                 *float64 `json:"meals"`
	MealsPerDay           *float64 `json:"meals_per_day"`
	Days                  int      `json:"days"`
	Transport             *float64 `json:"transport"`
	GrandTotal            *float64 `json:"grand_total"`
}

// LinkBody names the report a budget is reconciled against
type LinkBody struct {
	ReportID int64 `json:"report_id" binding:"required"`
}

// CreateRequest handles POST /api/travel-requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body TravelRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	start, err := parseDate(body.StartDate)
	if err != nil {
		badRequest(c, "dates must be YYYY-MM-DD")
		return
	}
	end, err := parseDate(body.EndDate)
	if err != nil {
		badRequest(c, "dates must be YYYY-MM-DD")
		return
	}

	req, err := h.requests.CreateRequest(c.Request.Context(), actorFrom(c), service.RequestInput{
		OrganizationID: body.OrganizationID,
		Destination:    body.Destination,
		Purpose:        body.Purpose,
		StartDate:      start,
		EndDate:        end,
		EstimatedTotal: body.EstimatedTotal,
	})
	if err != nil {
		h.respondError(c, "create travel request", err)
		return
	}
	ok(c, http.StatusCreated, req)
}

// ListRequests handles GET /api/travel-requests
func (h *Handlers) ListRequests(c *gin.Context) {
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

	requests, err := h.requests.ListRequests(c.Request.Context(), actorFrom(c), entity.RequestFilter{
		RequesterID: c.Query("requester_id"),
		Status:      workflow.RequestState(q.Status),
		From:        from,
		To:          to,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		h.respondError(c, "list travel requests", err)
		return
	}
	ok(c, http.StatusOK, requests)
}

// GetRequest handles GET /api/travel-requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	req, err := h.requests.GetRequest(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, "get travel request", err)
		return
	}
	ok(c, http.StatusOK, req)
}

// SubmitRequest handles POST /api/travel-requests/:id/submit
func (h *Handlers) SubmitRequest(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	req, err := h.requests.Submit(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, "submit travel request", err)
		return
	}
	ok(c, http.StatusOK, req)
}

// ApproveStep handles POST /api/travel-requests/:id/steps/:stepId/approve
func (h *Handlers) ApproveStep(c *gin.Context) {
	h.decideStep(c, "approve step", h.requests.Approve)
}

// RejectStep handles POST /api/travel-requests/:id/steps/:stepId/reject
func (h *Handlers) RejectStep(c *gin.Context) {
	h.decideStep(c, "reject step", h.requests.Reject)
}

// stepDecision is TravelRequestService.Approve or Reject
type stepDecision func(ctx context.Context, actor entity.Actor, id, stepID int64, comment string) (*entity.TravelRequest, error)

func (h *Handlers) decideStep(c *gin.Context, op string, decide stepDecision) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	stepID, valid := pathID(c, "stepId")
	if !valid {
		return
	}
	var body DecisionBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	req, err := decide(c.Request.Context(), actorFrom(c), id, stepID, body.Comment)
	if err != nil {
		h.respondError(c, op, err)
		return
	}
	ok(c, http.StatusOK, req)
}

// CancelRequest handles POST /api/travel-requests/:id/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	req, err := h.requests.Cancel(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, "cancel travel request", err)
		return
	}
	ok(c, http.StatusOK, req)
}

// RecordPartialApproval handles POST /api/travel-requests/:id/partial-approval
func (h *Handlers) RecordPartialApproval(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var body PartialApprovalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	req, err := h.requests.RecordPartialApproval(c.Request.Context(), actorFrom(c), id, body.Detail)
	if err != nil {
		h.respondError(c, "record partial approval", err)
		return
	}
	ok(c, http.StatusOK, req)
}

// DeleteRequest handles DELETE /api/travel-requests/:id
func (h *Handlers) DeleteRequest(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	if err := h.requests.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.respondError(c, "delete travel request", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AttachBudget handles POST /api/travel-requests/:id/budget
func (h *Handlers) AttachBudget(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var body BudgetBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	budget, err := h.requests.AttachBudget(c.Request.Context(), actorFrom(c), id, &entity.ApprovedBudget{
		Flights:               body.Flights,
		Accommodation:         body.Accommodation,
		AccommodationPerNight: body.AccommodationPerNight,
		Nights:                body.Nights,
		Meals:                 body.Meals,
		MealsPerDay:           body.MealsPerDay,
		Days:                  body.Days,
		Transport:             body.Transport,
		GrandTotal:            body.GrandTotal,
	})
	if err != nil {
		h.respondError(c, "attach budget", err)
		return
	}
	ok(c, http.StatusCreated, budget)
}

// LinkBudget handles POST /api/budgets/:id/link
func (h *Handlers) LinkBudget(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var body LinkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	budget, err := h.requests.LinkBudgetToReport(c.Request.Context(), actorFrom(c), id, body.ReportID)
	if err != nil {
		h.respondError(c, "link budget", err)
		return
	}
	ok(c, http.StatusOK, budget)
}

// RequestHistory handles GET /api/travel-requests/:id/history
func (h *Handlers) RequestHistory(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	history, err := h.requests.History(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, "travel request history", err)
		return
	}
	ok(c, http.StatusOK, history)
}

// RequestViolations handles GET /api/travel-requests/:id/violations
func (h *Handlers) RequestViolations(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	violations, err := h.requests.Violations(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, "travel request violations", err)
		return
	}
	ok(c, http.StatusOK, violations)
}
