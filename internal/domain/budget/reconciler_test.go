package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

func ptr(v float64) *float64 {
	return &v
}

func line(category string, normalized float64, status workflow.LineState) *entity.ExpenseRecord {
	return &entity.ExpenseRecord{
		Date:             time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Category:         category,
		NormalizedAmount: normalized,
		Status:           status,
	}
}

func fullBudget() *entity.ApprovedBudget {
	return &entity.ApprovedBudget{
		ID:            9,
		Flights:       ptr(5000),
		Accommodation: ptr(1200),
		Meals:         ptr(300),
		Transport:     ptr(200),
		GrandTotal:    ptr(7000),
	}
}

func TestReconcile_OverBudgetFlights(t *testing.T) {
	result := Reconcile(fullBudget(), []*entity.ExpenseRecord{
		line(entity.CategoryFlights, 6000, workflow.LineApproved),
	})
	require.NotNil(t, result)

	flights, ok := result.Line(LineFlights)
	require.True(t, ok)
	assert.Equal(t, 5000.0, flights.Approved)
	assert.Equal(t, 6000.0, flights.Actual)
	assert.Equal(t, 120.0, flights.Percentage)
	assert.Equal(t, -1000.0, flights.Difference)
	assert.Equal(t, BandOverBudget, flights.Band)
	assert.NoError(t, result.Err())
}

func TestReconcile_ZeroApproved(t *testing.T) {
	b := fullBudget()
	b.Transport = ptr(0)

	result := Reconcile(b, []*entity.ExpenseRecord{
		line("taxi", 45, workflow.LinePending),
	})

	transport, ok := result.Line(LineTransport)
	require.True(t, ok)
	assert.Equal(t, 0.0, transport.Percentage)
	assert.Equal(t, 45.0, transport.Actual)
	assert.Equal(t, -45.0, transport.Difference)
}

func TestReconcile_NoBudget(t *testing.T) {
	assert.Nil(t, Reconcile(nil, []*entity.ExpenseRecord{line(entity.CategoryFood, 10, workflow.LinePending)}))
}

func TestReconcile_AliasingAndTotals(t *testing.T) {
	result := Reconcile(fullBudget(), []*entity.ExpenseRecord{
		line(entity.CategoryTransportation, 50, workflow.LineApproved),
		line("car_rental", 100, workflow.LinePending),
		line("Ground_Transport", 25, workflow.LinePending),
		line(entity.CategoryFood, 120, workflow.LineApproved),
		line(entity.CategoryMiscellaneous, 30, workflow.LineApproved),
		line(entity.CategoryAccommodation, 900, workflow.LineRejected),
	})

	transport, _ := result.Line(LineTransport)
	assert.Equal(t, 175.0, transport.Actual)
	assert.Equal(t, 87.5, transport.Percentage)
	assert.Equal(t, BandOnBudget, transport.Band)

	meals, _ := result.Line(LineMeals)
	assert.Equal(t, 120.0, meals.Actual)

	accommodation, _ := result.Line(LineAccommodation)
	assert.Equal(t, 0.0, accommodation.Actual, "rejected lines are excluded")

	assert.Equal(t, 325.0, result.Total.Actual, "miscellaneous counts toward the total only")
	assert.Equal(t, 7000.0, result.Total.Approved)
}

func TestReconcile_MissingCategories(t *testing.T) {
	b := &entity.ApprovedBudget{
		Flights:               ptr(1000),
		AccommodationPerNight: ptr(150),
		Nights:                3,
	}

	result := Reconcile(b, []*entity.ExpenseRecord{
		line(entity.CategoryFood, 80, workflow.LineApproved),
	})

	assert.Equal(t, []string{LineMeals, LineTransport}, result.MissingCategories)
	assert.ErrorIs(t, result.Err(), ErrMalformedEnvelope)

	meals, _ := result.Line(LineMeals)
	assert.True(t, meals.Missing)
	assert.Equal(t, 0.0, meals.Approved)

	accommodation, _ := result.Line(LineAccommodation)
	assert.Equal(t, 450.0, accommodation.Approved)

	assert.Equal(t, 1450.0, result.Total.Approved, "grand total falls back to the sum of line caps")
}

func TestBand(t *testing.T) {
	tests := []struct {
		percentage float64
		want       string
	}{
		{0, BandOnBudget},
		{100, BandOnBudget},
		{100.01, BandWarning},
		{115, BandWarning},
		{115.01, BandOverBudget},
		{120, BandOverBudget},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.percentage), "percentage %v", tt.percentage)
	}
}

func TestEnvelopeLine(t *testing.T) {
	got, ok := EnvelopeLine(" Hotel ")
	assert.True(t, ok)
	assert.Equal(t, LineAccommodation, got)

	_, ok = EnvelopeLine(entity.CategoryMiscellaneous)
	assert.False(t, ok)
}
