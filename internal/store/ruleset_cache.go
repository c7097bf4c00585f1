// internal/store/ruleset_cache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"migration-assessment/internal/common/logger"
	"migration-assessment/internal/common/metrics"
	"migration-assessment/internal/models"
	"migration-assessment/internal/policy"

	"github.com/redis/go-redis/v9"
)

const rulesetCachePrefix = "ruleset:"

// ErrCacheUnavailable is returned by cache maintenance calls. Lookups never
// return it; they fall through to the wrapped provider.
var ErrCacheUnavailable = errors.New("CACHE_UNAVAILABLE")

// RulesetCache is a cache-aside decorator over a ruleset provider, keyed by
// snapshot id.
type RulesetCache struct {
	next   policy.Provider
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRulesetCache(next policy.Provider, client *redis.Client, ttl time.Duration, log logger.Logger) *RulesetCache {
	return &RulesetCache{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "ruleset-cache"}),
	}
}

// Rulesets serves from Redis when it can. Redis failures and undecodable
// entries fall through to the wrapped provider.
func (c *RulesetCache) Rulesets(ctx context.Context, snapshotID string) ([]*models.Ruleset, error) {
	key := rulesetCachePrefix + snapshotID

	val, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		rulesets, decodeErr := decodeCachedRulesets(val)
		if decodeErr == nil {
			metrics.RulesetCacheRequests.WithLabelValues("hit").Inc()
			return rulesets, nil
		}
		metrics.RulesetCacheRequests.WithLabelValues("error").Inc()
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{
			"key":   key,
			"error": decodeErr,
		})
	case errors.Is(err, redis.Nil):
		metrics.RulesetCacheRequests.WithLabelValues("miss").Inc()
	default:
		metrics.RulesetCacheRequests.WithLabelValues("error").Inc()
		c.logger.Warn("ruleset cache unavailable", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}

	rulesets, err := c.next.Rulesets(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(rulesets)
	if err != nil {
		c.logger.Warn("failed to encode rulesets for cache", map[string]interface{}{"error": err})
		return rulesets, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache rulesets", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
	return rulesets, nil
}

// Invalidate drops the cached rulesets of a snapshot.
func (c *RulesetCache) Invalidate(ctx context.Context, snapshotID string) error {
	if err := c.redis.Del(ctx, rulesetCachePrefix+snapshotID).Err(); err != nil {
		return fmt.Errorf("%w: invalidate snapshot %s: %v", ErrCacheUnavailable, snapshotID, err)
	}
	return nil
}

// decodeCachedRulesets recompiles and validates every cached document.
func decodeCachedRulesets(data []byte) ([]*models.Ruleset, error) {
	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("empty ruleset list")
	}

	rulesets := make([]*models.Ruleset, 0, len(docs))
	for _, doc := range docs {
		rs, err := models.DecodeRuleset(doc)
		if err != nil {
			return nil, err
		}
		rulesets = append(rulesets, rs)
	}
	return rulesets, nil
}
