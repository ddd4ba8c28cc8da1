package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// ErrProviderUnavailable indicates the stats provider dependency is missing.
var ErrProviderUnavailable = errors.New("stats provider unavailable")

// StatsProvider computes dashboard aggregates for one channel.
type StatsProvider interface {
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

type cacheEntry struct {
	stats   models.ChannelStats
	expires time.Time
}

// CachingStatsProvider wraps another StatsProvider with a TTL-based in-memory
// cache. Channel stats tolerate a little staleness; the aggregate query does
// not need to run on every dashboard load.
type CachingStatsProvider struct {
	base StatsProvider
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingStatsProvider returns a provider that caches stats for the provided TTL.
func NewCachingStatsProvider(base StatsProvider, ttl time.Duration) *CachingStatsProvider {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachingStatsProvider{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// ChannelStats returns cached stats when fresh, otherwise it delegates to the
// underlying provider and stores the result.
func (c *CachingStatsProvider) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	if c == nil || c.base == nil {
		return models.ChannelStats{}, ErrProviderUnavailable
	}

	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[channelID]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.stats, nil
	}

	stats, err := c.base.ChannelStats(ctx, channelID)
	if err != nil {
		return models.ChannelStats{}, err
	}

	c.mu.Lock()
	c.items[channelID] = cacheEntry{stats: stats, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return stats, nil
}
