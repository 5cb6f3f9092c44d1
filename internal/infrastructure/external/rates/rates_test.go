package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStaticSource_GetRates(t *testing.T) {
	src := NewStaticSource("usd", map[string]float64{"eur": 0.92, "GBP": 0.79})

	got, err := src.GetRates(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"EUR": 0.92, "GBP": 0.79}, got)

	got["EUR"] = 1
	again, err := src.GetRates(context.Background(), "usd")
	require.NoError(t, err)
	assert.Equal(t, 0.92, again["EUR"], "callers get a copy")

	_, err = src.GetRates(context.Background(), "EUR")
	assert.Error(t, err)
}

type countingSource struct {
	calls int
	rates map[string]float64
	err   error
}

func (s *countingSource) GetRates(ctx context.Context, base string) (map[string]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rates, nil
}

func TestCachedSource(t *testing.T) {
	inner := &countingSource{rates: map[string]float64{"EUR": 0.9}}
	cache := NewCachedSource(inner, time.Hour, zap.NewNop())
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := cache.GetRates(ctx, "USD")
	require.NoError(t, err)
	_, err = cache.GetRates(ctx, "usd")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "second read served from cache")

	now = now.Add(2 * time.Hour)
	inner.err = errors.New("upstream down")
	got, err := cache.GetRates(ctx, "USD")
	require.NoError(t, err, "stale rates beat no rates")
	assert.Equal(t, 0.9, got["EUR"])
	assert.Equal(t, 2, inner.calls)

	_, err = cache.GetRates(ctx, "EUR")
	assert.Error(t, err, "nothing cached for this base")
}
