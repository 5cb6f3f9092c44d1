// Package budget compares an approved travel budget against actual report spend.
package budget

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

// ErrMalformedEnvelope marks a budget missing one or more category caps.
// Missing caps contribute zero; reconciliation still succeeds.
var ErrMalformedEnvelope = errors.New("approved budget is missing category caps")

// Envelope lines
const (
	LineFlights       = "flights"
	LineAccommodation = "accommodation"
	LineMeals         = "meals"
	LineTransport     = "transport"
	LineTotal         = "total"
)

// Utilization bands
const (
	BandOnBudget   = "on budget"
	BandWarning    = "warning"
	BandOverBudget = "over budget"
)

// EnvelopeLines is the order lines appear in a reconciliation
var EnvelopeLines = []string{LineFlights, LineAccommodation, LineMeals, LineTransport}

var aliases = map[string]string{
	"flights":          LineFlights,
	"flight":           LineFlights,
	"airfare":          LineFlights,
	"accommodation":    LineAccommodation,
	"hotel":            LineAccommodation,
	"lodging":          LineAccommodation,
	"food":             LineMeals,
	"meals":            LineMeals,
	"meal":             LineMeals,
	"transportation":   LineTransport,
	"transport":        LineTransport,
	"ground_transport": LineTransport,
	"car_rental":       LineTransport,
	"taxi":             LineTransport,
}

var (
	hundred         = decimal.NewFromInt(100)
	warningCeiling  = decimal.NewFromInt(115)
	onBudgetCeiling = hundred
)

// Line is the comparison for one envelope line or the total
type Line struct {
	Category   string  `json:"category"`
	Approved   float64 `json:"approved"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
	Percentage float64 `json:"percentage"`
	Band       string  `json:"band"`
	Missing    bool    `json:"missing,omitempty"`
}

// Reconciliation is the full budget-versus-actual comparison for a report
type Reconciliation struct {
	BudgetID          int64    `json:"budget_id"`
	Lines             []Line   `json:"lines"`
	Total             Line     `json:"total"`
	MissingCategories []string `json:"missing_categories,omitempty"`
}

// Err returns ErrMalformedEnvelope naming the missing caps, or nil
func (r *Reconciliation) Err() error {
	if len(r.MissingCategories) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMalformedEnvelope, strings.Join(r.MissingCategories, ", "))
}

// Line returns the named envelope line
func (r *Reconciliation) Line(category string) (Line, bool) {
	if category == LineTotal {
		return r.Total, true
	}
	for _, l := range r.Lines {
		if l.Category == category {
			return l, true
		}
	}
	return Line{}, false
}

// EnvelopeLine maps an expense category onto its envelope line. Categories
// outside the envelope return false and count toward the total only.
func EnvelopeLine(category string) (string, bool) {
	line, ok := aliases[strings.ToLower(strings.TrimSpace(category))]
	return line, ok
}

// Band classifies a utilization percentage
func Band(percentage float64) string {
	p := decimal.NewFromFloat(percentage)
	switch {
	case p.LessThanOrEqual(onBudgetCeiling):
		return BandOnBudget
	case p.LessThanOrEqual(warningCeiling):
		return BandWarning
	default:
		return BandOverBudget
	}
}

// Reconcile compares budget against the normalized amounts of expenses.
// Rejected lines are excluded. A nil budget yields a nil result: the report
// did not originate from a pre-approved request.
func Reconcile(b *entity.ApprovedBudget, expenses []*entity.ExpenseRecord) *Reconciliation {
	if b == nil {
		return nil
	}

	actual := make(map[string]decimal.Decimal, len(EnvelopeLines))
	total := decimal.Zero
	for _, e := range expenses {
		if e == nil || e.Status == workflow.LineRejected {
			continue
		}
		amount := decimal.NewFromFloat(e.NormalizedAmount)
		total = total.Add(amount)
		if line, ok := EnvelopeLine(e.Category); ok {
			actual[line] = actual[line].Add(amount)
		}
	}

	result := &Reconciliation{BudgetID: b.ID}
	approvedSum := decimal.Zero
	for _, category := range EnvelopeLines {
		limit, ok := envelopeCap(b, category)
		if !ok {
			result.MissingCategories = append(result.MissingCategories, category)
		}
		approved := decimal.NewFromFloat(limit)
		approvedSum = approvedSum.Add(approved)

		line := compare(category, approved, actual[category])
		line.Missing = !ok
		result.Lines = append(result.Lines, line)
	}

	approvedTotal := approvedSum
	if b.GrandTotal != nil {
		approvedTotal = decimal.NewFromFloat(*b.GrandTotal)
	}
	result.Total = compare(LineTotal, approvedTotal, total)

	return result
}

func envelopeCap(b *entity.ApprovedBudget, category string) (float64, bool) {
	switch category {
	case LineFlights:
		return deref(b.Flights)
	case LineAccommodation:
		return b.AccommodationCap()
	case LineMeals:
		return b.MealsCap()
	case LineTransport:
		return deref(b.Transport)
	}
	return 0, false
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func compare(category string, approved, actual decimal.Decimal) Line {
	percentage := decimal.Zero
	if !approved.IsZero() {
		percentage = actual.Div(approved).Mul(hundred).Round(2)
	}

	pct := percentage.InexactFloat64()
	return Line{
		Category:   category,
		Approved:   approved.Round(2).InexactFloat64(),
		Actual:     actual.Round(2).InexactFloat64(),
		Difference: approved.Sub(actual).Round(2).InexactFloat64(),
		Percentage: pct,
		Band:       Band(pct),
	}
}
