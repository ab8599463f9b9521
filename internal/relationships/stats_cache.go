package relationships

import (
	"context"
	"sync"
	"time"

	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/repositories"
)

type statsEntry struct {
	stats   models.RelationshipStats
	expires time.Time
}

// CachingStatsReader wraps a StatsReader with a TTL-based in-memory cache.
// Profile counters tolerate short staleness; the access resolver never reads
// through here.
type CachingStatsReader struct {
	base repositories.StatsReader
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]statsEntry
}

// NewCachingStatsReader returns a StatsReader that caches counts for the
// provided TTL.
func NewCachingStatsReader(base repositories.StatsReader, ttl time.Duration) *CachingStatsReader {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachingStatsReader{
		base:  base,
		ttl:   ttl,
		items: make(map[string]statsEntry),
	}
}

// Stats returns cached counters when fresh, otherwise it delegates to the
// underlying reader and stores the result.
func (c *CachingStatsReader) Stats(ctx context.Context, userID string) (models.RelationshipStats, error) {
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[userID]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.stats, nil
	}

	stats, err := c.base.Stats(ctx, userID)
	if err != nil {
		return models.RelationshipStats{}, err
	}

	c.mu.Lock()
	c.items[userID] = statsEntry{stats: stats, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return stats, nil
}

var _ repositories.StatsReader = (*CachingStatsReader)(nil)
