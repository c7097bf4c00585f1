package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"migration-assessment/internal/common/logger"
	"migration-assessment/internal/common/metrics"
	"migration-assessment/internal/models"
	"migration-assessment/internal/policy"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type countingProvider struct {
	next  policy.Provider
	calls int
}

func (p *countingProvider) Rulesets(ctx context.Context, snapshotID string) ([]*models.Ruleset, error) {
	p.calls++
	return p.next.Rulesets(ctx, snapshotID)
}

func newCountingProvider(t *testing.T) *countingProvider {
	static, err := policy.NewStatic(policy.Builtin())
	require.NoError(t, err)
	return &countingProvider{next: static}
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// ==========================
// RulesetCache Tests
// ==========================

func TestRulesetCache_MissThenHit(t *testing.T) {
	mr, client := setupRedis(t)
	provider := newCountingProvider(t)
	cache := NewRulesetCache(provider, client, 10*time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	hits := testutil.ToFloat64(metrics.RulesetCacheRequests.WithLabelValues("hit"))
	misses := testutil.ToFloat64(metrics.RulesetCacheRequests.WithLabelValues("miss"))

	first, err := cache.Rulesets(ctx, policy.BuiltinSnapshotID)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.True(t, mr.Exists("ruleset:"+policy.BuiltinSnapshotID))
	assert.Equal(t, 10*time.Minute, mr.TTL("ruleset:"+policy.BuiltinSnapshotID))

	second, err := cache.Rulesets(ctx, policy.BuiltinSnapshotID)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, first, second)

	assert.Equal(t, misses+1, testutil.ToFloat64(metrics.RulesetCacheRequests.WithLabelValues("miss")))
	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.RulesetCacheRequests.WithLabelValues("hit")))
}

func TestRulesetCache_ProviderErrorIsNotCached(t *testing.T) {
	mr, client := setupRedis(t)
	provider := newCountingProvider(t)
	cache := NewRulesetCache(provider, client, time.Minute, logger.NewTestLogger(t))

	_, err := cache.Rulesets(context.Background(), "unknown")
	assert.ErrorIs(t, err, models.ErrRulesetNotFound)
	assert.False(t, mr.Exists("ruleset:unknown"))
}

func TestRulesetCache_CorruptEntryFallsThrough(t *testing.T) {
	mr, client := setupRedis(t)
	provider := newCountingProvider(t)
	cache := NewRulesetCache(provider, client, time.Minute, logger.NewTestLogger(t))

	require.NoError(t, mr.Set("ruleset:"+policy.BuiltinSnapshotID, `[{"visa":"189","version":"1.0.0","criteria":[{"code":"X","severity":"hard","evaluate":"crystal_ball"}]}]`))

	rulesets, err := cache.Rulesets(context.Background(), policy.BuiltinSnapshotID)
	require.NoError(t, err)
	assert.Len(t, rulesets, 2)
	assert.Equal(t, 1, provider.calls)

	repaired, err := mr.Get("ruleset:" + policy.BuiltinSnapshotID)
	require.NoError(t, err)
	assert.Contains(t, repaired, `"visa":"190"`)
}

func TestRulesetCache_RedisDownFallsThrough(t *testing.T) {
	mr, client := setupRedis(t)
	provider := newCountingProvider(t)
	cache := NewRulesetCache(provider, client, time.Minute, logger.NewTestLogger(t))
	mr.Close()

	rulesets, err := cache.Rulesets(context.Background(), policy.BuiltinSnapshotID)
	require.NoError(t, err)
	assert.Len(t, rulesets, 2)
	assert.Equal(t, 1, provider.calls)
}

func TestRulesetCache_HitFromMock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	provider := newCountingProvider(t)
	cache := NewRulesetCache(provider, client, time.Minute, logger.NewTestLogger(t))

	data, err := json.Marshal(policy.Builtin().Rulesets)
	require.NoError(t, err)
	mock.ExpectGet("ruleset:" + policy.BuiltinSnapshotID).SetVal(string(data))

	rulesets, err := cache.Rulesets(context.Background(), policy.BuiltinSnapshotID)
	require.NoError(t, err)
	assert.Equal(t, policy.Builtin().Rulesets, rulesets)
	assert.Equal(t, 0, provider.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRulesetCache_Invalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRulesetCache(newCountingProvider(t), client, time.Minute, logger.NewTestLogger(t))

	mock.ExpectDel("ruleset:au-2026-01-01").SetVal(1)
	assert.NoError(t, cache.Invalidate(context.Background(), "au-2026-01-01"))

	mock.ExpectDel("ruleset:au-2026-01-01").SetErr(errors.New("connection refused"))
	err := cache.Invalidate(context.Background(), "au-2026-01-01")
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
