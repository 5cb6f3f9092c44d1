package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-expense/internal/domain/event"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveTransition("report", "open", "pending_approval")
	m.ObserveTransition("report", "open", "pending_approval")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("report", "open", "pending_approval")))

	evt := event.NewEvent(event.TypeSubmitted, "report", 1, "bob", "review", nil)
	m.ObserveHandler(evt, "notification", nil)
	m.ObserveHandler(evt, "notification", errors.New("lark down"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.handlerRuns.WithLabelValues("submitted", "notification", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.handlerRuns.WithLabelValues("submitted", "notification", "error")))

	m.ObserveHTTP(http.MethodPost, "/api/reports", http.StatusCreated, 20*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/reports", "201")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveTransition("travel_request", "draft", "pending_approval")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `travel_expense_transitions_total{entity="travel_request",from="draft",to="pending_approval"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
