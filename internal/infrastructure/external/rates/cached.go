package rates

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/travel-expense/internal/application/port"
)

type cacheEntry struct {
	rates     map[string]float64
	fetchedAt time.Time
}

// CachedSource memoizes another source per base currency for a TTL.
// When a refresh fails it keeps serving the last good rates.
type CachedSource struct {
	source port.RateSource
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedSource wraps source with a TTL cache
func NewCachedSource(source port.RateSource, ttl time.Duration, logger *zap.Logger) *CachedSource {
	return &CachedSource{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		entries: make(map[string]cacheEntry),
	}
}

// GetRates implements port.RateSource
func (c *CachedSource) GetRates(ctx context.Context, base string) (map[string]float64, error) {
	key := strings.ToUpper(base)

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.rates, nil
	}

	fresh, err := c.source.GetRates(ctx, base)
	if err != nil {
		if ok {
			c.logger.Warn("Rate refresh failed, serving stale rates",
				zap.String("base", key),
				zap.Time("fetched_at", entry.fetchedAt),
				zap.Error(err))
			return entry.rates, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{rates: fresh, fetchedAt: c.now()}
	c.mu.Unlock()

	return fresh, nil
}

var _ port.RateSource = (*CachedSource)(nil)
