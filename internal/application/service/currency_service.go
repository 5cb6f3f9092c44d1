package service

import (
	"context"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/currency"
)

// CurrencyService builds normalizers from the current rate source
type CurrencyService interface {
	// Normalizer returns a normalizer over the latest rates and the configured
	// fallback table. A failing rate source degrades to the fallback.
	Normalizer(ctx context.Context) *currency.Normalizer
	BaseCurrency() string
}

type currencyServiceImpl struct {
	source   port.RateSource
	base     string
	fallback currency.Rates
	logger   Logger
}

// NewCurrencyService creates a new CurrencyService
func NewCurrencyService(source port.RateSource, base string, fallback map[string]float64, logger Logger) CurrencyService {
	return &currencyServiceImpl{
		source:   source,
		base:     currency.Code(base),
		fallback: currency.Rates(fallback),
		logger:   logger,
	}
}

// Normalizer fetches rates for the base currency
func (s *currencyServiceImpl) Normalizer(ctx context.Context) *currency.Normalizer {
	var rates currency.Rates
	if s.source != nil {
		fetched, err := s.source.GetRates(ctx, s.base)
		if err != nil {
			s.logger.Error("Rate source unavailable, using fallback rates", "error", err, "base", s.base)
		} else {
			rates = fetched
		}
	}
	return currency.NewNormalizer(s.base, rates, s.fallback)
}

// BaseCurrency returns the canonical base currency code
func (s *currencyServiceImpl) BaseCurrency() string {
	return s.base
}
