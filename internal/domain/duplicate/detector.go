// Package duplicate flags expense lines on one report that look like the same spend.
// Results are advisory and never block submission.
package duplicate

import (
	"math"
	"sort"
	"strings"

	"github.com/garyjia/travel-expense/internal/domain/currency"
	"github.com/garyjia/travel-expense/internal/domain/entity"
)

// Match reasons, in the order rules are evaluated
const (
	ReasonExact            = "identical date, amount, currency"
	ReasonSimilarAmount    = "same date and category, amounts within 5%"
	ReasonSameDescription  = "same description and amount"
	ReasonCrossCurrency    = "same date, normalized amounts within 1.0 across currencies"
	similarAmountTolerance = 0.05
	crossCurrencyTolerance = 1.0
	reasonSeparator        = "; "
)

type rule struct {
	reason string
	match  func(a, b *entity.ExpenseRecord) bool
}

var rules = []rule{
	{reason: ReasonExact, match: exactMatch},
	{reason: ReasonSimilarAmount, match: similarAmount},
	{reason: ReasonSameDescription, match: sameDescription},
	{reason: ReasonCrossCurrency, match: crossCurrency},
}

// Detect groups the expenses of one report. Records are considered in ID
// order; each ungrouped record seeds a group collecting every later ungrouped
// record that matches the seed. A grouped record never seeds nor joins another
// group, so chains linked through different rules may stay split.
func Detect(expenses []*entity.ExpenseRecord) []entity.DuplicateGroup {
	ordered := make([]*entity.ExpenseRecord, 0, len(expenses))
	for _, e := range expenses {
		if e != nil {
			ordered = append(ordered, e)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	grouped := make([]bool, len(ordered))
	groups := []entity.DuplicateGroup{}

	for i, seed := range ordered {
		if grouped[i] {
			continue
		}

		ids := []int64{seed.ID}
		var reasons []string
		for j := i + 1; j < len(ordered); j++ {
			if grouped[j] {
				continue
			}
			reason, ok := Compare(seed, ordered[j])
			if !ok {
				continue
			}
			grouped[j] = true
			ids = append(ids, ordered[j].ID)
			reasons = appendUnique(reasons, reason)
		}

		if len(ids) < 2 {
			continue
		}
		grouped[i] = true
		groups = append(groups, entity.DuplicateGroup{
			ExpenseIDs: ids,
			Reason:     strings.Join(reasons, reasonSeparator),
		})
	}

	return groups
}

// Compare returns the first rule two records satisfy
func Compare(a, b *entity.ExpenseRecord) (string, bool) {
	for _, r := range rules {
		if r.match(a, b) {
			return r.reason, true
		}
	}
	return "", false
}

func exactMatch(a, b *entity.ExpenseRecord) bool {
	return a.SameDay(b) &&
		a.Amount == b.Amount &&
		currency.Code(a.Currency) == currency.Code(b.Currency)
}

func similarAmount(a, b *entity.ExpenseRecord) bool {
	if !a.SameDay(b) || a.Category != b.Category {
		return false
	}
	x, y := math.Abs(a.NormalizedAmount), math.Abs(b.NormalizedAmount)
	larger := math.Max(x, y)
	if larger == 0 {
		return false
	}
	return math.Abs(x-y) < similarAmountTolerance*larger
}

func sameDescription(a, b *entity.ExpenseRecord) bool {
	da, db := strings.TrimSpace(a.Description), strings.TrimSpace(b.Description)
	return da != "" && strings.EqualFold(da, db) && a.Amount == b.Amount
}

func crossCurrency(a, b *entity.ExpenseRecord) bool {
	return a.SameDay(b) &&
		currency.Code(a.Currency) != currency.Code(b.Currency) &&
		math.Abs(a.NormalizedAmount-b.NormalizedAmount) < crossCurrencyTolerance
}

func appendUnique(reasons []string, reason string) []string {
	for _, r := range reasons {
		if r == reason {
			return reasons
		}
	}
	return append(reasons, reason)
}
