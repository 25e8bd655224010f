// internal/vendorquery/cache_test.go
package vendorquery

import (
	"context"
	"errors"
	"testing"
	"time"

	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/matching"
	"vendor-matching/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCachedSource_ServesRepeatedQueries(t *testing.T) {
	mr, rdb := newMiniredis(t)
	src := &stubSource{set: &CandidateSet{Vendors: []models.Vendor{{VendorID: "v1"}}}}
	cached := NewCachedSource(src, rdb, time.Minute, logger.NewTestLogger(t))

	q := Query{Term: "PARA-500", Preferences: matching.NewPreferenceSet("time")}
	first, err := cached.FetchCandidates(context.Background(), q)
	require.NoError(t, err)
	second, err := cached.FetchCandidates(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, vendorIDs(first.Vendors), vendorIDs(second.Vendors))
	assert.True(t, mr.Exists(cacheKeyPrefix+q.Key()))
	assert.Equal(t, time.Minute, mr.TTL(cacheKeyPrefix+q.Key()))
}

func TestCachedSource_PreferenceChangeIsANewQuery(t *testing.T) {
	_, rdb := newMiniredis(t)
	src := &stubSource{set: &CandidateSet{Vendors: []models.Vendor{{VendorID: "v1"}}}}
	cached := NewCachedSource(src, rdb, time.Minute, logger.NewTestLogger(t))

	_, err := cached.FetchCandidates(context.Background(), Query{Term: "PARA-500"})
	require.NoError(t, err)
	_, err = cached.FetchCandidates(context.Background(), Query{Term: "PARA-500", Preferences: matching.NewPreferenceSet("quality")})
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCachedSource_DoesNotCacheFailures(t *testing.T) {
	mr, rdb := newMiniredis(t)
	src := &stubSource{err: errors.New("boom")}
	cached := NewCachedSource(src, rdb, time.Minute, logger.NewTestLogger(t))

	_, err := cached.FetchCandidates(context.Background(), Query{Term: "PARA-500"})
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestCachedSource_FallsThroughWhenRedisIsDown(t *testing.T) {
	mr, rdb := newMiniredis(t)
	mr.Close()

	src := &stubSource{set: &CandidateSet{Vendors: []models.Vendor{{VendorID: "v1"}}}}
	cached := NewCachedSource(src, rdb, time.Minute, logger.NewTestLogger(t))

	set, err := cached.FetchCandidates(context.Background(), Query{Term: "PARA-500"})
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, vendorIDs(set.Vendors))
}
