package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ledgerline/copytrade-analytics/internal/models"
)

// analysisEntry wraps a cached analysis with cache metadata.
type analysisEntry struct {
	Analysis  *models.LeaderPerformanceAnalysis `json:"analysis"`
	CachedAt  time.Time                         `json:"cached_at"`
	ExpiresAt time.Time                         `json:"expires_at"`
}

// CacheStats tracks cache performance counters.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// AnalysisCache caches leader performance analyses in Redis so repeated
// dashboard loads do not recompute the full metric pipeline.
type AnalysisCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *CacheStats
	prefix string
}

// NewAnalysisCache creates a Redis-backed analysis cache.
func NewAnalysisCache(redisClient *redis.Client, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &CacheStats{},
		prefix: "leader_analysis:",
	}
}

func (c *AnalysisCache) key(leaderAddress string, days int, withPrediction bool) string {
	return fmt.Sprintf("%s%s:%d:%t", c.prefix, leaderAddress, days, withPrediction)
}

// Get returns a cached analysis, or (nil, false) on any miss or error. Cache
// failures never surface to the caller.
func (c *AnalysisCache) Get(ctx context.Context, leaderAddress string, days int, withPrediction bool) (*models.LeaderPerformanceAnalysis, bool) {
	data, err := c.redis.Get(ctx, c.key(leaderAddress, days, withPrediction)).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		logrus.WithError(err).WithField("leader", leaderAddress).Warn("Redis error reading cached analysis")
		c.miss()
		return nil, false
	}

	var entry analysisEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		logrus.WithError(err).WithField("leader", leaderAddress).Warn("Failed to deserialize cached analysis")
		c.miss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()

	return entry.Analysis, true
}

// Set stores an analysis under the cache TTL. Errors are logged, not returned.
func (c *AnalysisCache) Set(ctx context.Context, analysis *models.LeaderPerformanceAnalysis, withPrediction bool) {
	now := time.Now()
	entry := analysisEntry{
		Analysis:  analysis,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		logrus.WithError(err).WithField("leader", analysis.LeaderAddress).Warn("Failed to serialize analysis for caching")
		return
	}

	key := c.key(analysis.LeaderAddress, analysis.AnalysisPeriodDays, withPrediction)
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("leader", analysis.LeaderAddress).Warn("Redis error caching analysis")
		return
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

func (c *AnalysisCache) miss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}

// Stats returns a snapshot of the cache counters.
func (c *AnalysisCache) Stats() CacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return CacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Sets:   c.stats.Sets,
	}
}

// Invalidate removes every cached analysis for a leader, across all window
// and prediction variants.
func (c *AnalysisCache) Invalidate(ctx context.Context, leaderAddress string) error {
	pattern := c.prefix + leaderAddress + ":*"

	var keys []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error invalidating cached analyses: %w", err)
	}
	return nil
}
