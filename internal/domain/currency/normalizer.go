// Package currency converts submitted amounts into the organization's base currency.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrRateUnavailable is returned when neither the rate table nor the fallback
// table has a usable rate for a currency
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Rates maps ISO currency codes to the number of foreign units per one unit of
// base currency. The base currency itself has rate 1.0.
type Rates map[string]float64

// Normalizer converts amounts over a fixed pair of rate tables. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	base     string
	rates    Rates
	fallback Rates
}

// NewNormalizer creates a normalizer for the given base currency. Either table may be nil.
func NewNormalizer(base string, rates, fallback Rates) *Normalizer {
	return &Normalizer{
		base:     Code(base),
		rates:    canonical(rates),
		fallback: canonical(fallback),
	}
}

// Base returns the canonical base currency code
func (n *Normalizer) Base() string {
	return n.base
}

// Rate returns the rate used for code, preferring the primary table
func (n *Normalizer) Rate(code string) (float64, error) {
	code = Code(code)
	if code == n.base {
		return 1.0, nil
	}
	if rate, ok := n.rates[code]; ok && rate > 0 {
		return rate, nil
	}
	if rate, ok := n.fallback[code]; ok && rate > 0 {
		return rate, nil
	}
	return 0, fmt.Errorf("%w: %s to %s", ErrRateUnavailable, code, n.base)
}

// Normalize converts amount in fromCurrency into the base currency, rounded to cents
func (n *Normalizer) Normalize(amount float64, fromCurrency string) (float64, error) {
	if Code(fromCurrency) == n.base {
		return decimal.NewFromFloat(amount).Round(2).InexactFloat64(), nil
	}

	rate, err := n.Rate(fromCurrency)
	if err != nil {
		return 0, err
	}

	converted := decimal.NewFromFloat(amount).
		DivRound(decimal.NewFromFloat(rate), 8).
		Round(2)
	return converted.InexactFloat64(), nil
}

// Code canonicalizes a currency code
func Code(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func canonical(rates Rates) Rates {
	out := make(Rates, len(rates))
	for code, rate := range rates {
		out[Code(code)] = rate
	}
	return out
}
