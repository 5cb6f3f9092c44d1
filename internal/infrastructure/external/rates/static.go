package rates

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/travel-expense/internal/application/port"
)

// StaticSource serves rates from configuration. Rates are foreign units per
// one unit of the base currency.
type StaticSource struct {
	base  string
	rates map[string]float64
}

// NewStaticSource creates a source for the given base currency
func NewStaticSource(base string, rates map[string]float64) *StaticSource {
	normalized := make(map[string]float64, len(rates))
	for code, rate := range rates {
		normalized[strings.ToUpper(code)] = rate
	}
	return &StaticSource{
		base:  strings.ToUpper(base),
		rates: normalized,
	}
}

// GetRates implements port.RateSource
func (s *StaticSource) GetRates(ctx context.Context, base string) (map[string]float64, error) {
	if !strings.EqualFold(base, s.base) {
		return nil, fmt.Errorf("no rates configured for base %s", base)
	}

	out := make(map[string]float64, len(s.rates))
	for code, rate := range s.rates {
		out[code] = rate
	}
	return out, nil
}

var _ port.RateSource = (*StaticSource)(nil)
