package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/currency"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

// Error codes returned in Response.Code
const (
	CodeBadRequest   = "bad_request"
	CodeInvalidInput = "invalid_input"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeInvalidState = "invalid_state"
	CodeAlreadyActed = "already_acted"
	CodeInternal     = "internal"
)

// classify maps an engine error to an HTTP status and error code
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, workflow.ErrInvalidInput),
		errors.Is(err, workflow.ErrMissingJustification),
		errors.Is(err, currency.ErrRateUnavailable),
		errors.Is(err, port.ErrNoApprover):
		return http.StatusUnprocessableEntity, CodeInvalidInput
	case errors.Is(err, workflow.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, port.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case workflow.IsConflict(err):
		return http.StatusConflict, CodeAlreadyActed
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrGuardFailed):
		return http.StatusConflict, CodeInvalidState
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// respondError writes the error response; internal errors are logged and not echoed
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	status, code := classify(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "path", c.Request.URL.Path, "error", err)
		message = op + " failed"
	}

	c.JSON(status, Response{
		Success: false,
		Code:    code,
		Error:   message,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Code:    CodeBadRequest,
		Error:   message,
	})
}
