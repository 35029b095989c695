package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainexchange "homekrypto/internal/domain/exchange"
	rediscache "homekrypto/internal/infra/cache/redis"
)

type stubFetcher struct {
	rate  domainexchange.Rate
	err   error
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context) (domainexchange.Rate, error) {
	s.calls++
	if s.err != nil {
		return domainexchange.Rate{}, s.err
	}
	return s.rate, nil
}

func testCache(t *testing.T) *rediscache.Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	return rediscache.NewWithClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
}

func TestProviderServesFreshRate(t *testing.T) {
	fetched := time.Now().UTC()
	feed := &stubFetcher{rate: domainexchange.Rate{HktPerUsd: 10.0, FetchedAt: fetched}}
	p := NewProvider(feed, testCache(t), time.Minute, 0, nil)

	rate, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10.0, rate.HktPerUsd)
	assert.False(t, rate.Stale)

	// Within maxAge the cached value answers without another fetch.
	rate, err = p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10.0, rate.HktPerUsd)
	assert.Equal(t, 1, feed.calls)
}

func TestProviderServesLastKnownGoodOnFailure(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, cacheKey, cachedRate{
		HktPerUsd: 9.5,
		FetchedAt: time.Now().UTC().Add(-time.Hour),
	}, 0))

	feed := &stubFetcher{err: errors.New("upstream down")}
	p := NewProvider(feed, cache, time.Minute, 10.0, nil)

	rate, err := p.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9.5, rate.HktPerUsd)
	assert.True(t, rate.Stale)
	assert.Equal(t, 1, feed.calls)
}

func TestProviderColdStartFallback(t *testing.T) {
	feed := &stubFetcher{err: errors.New("upstream down")}
	p := NewProvider(feed, testCache(t), time.Minute, 10.0, nil)

	rate, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10.0, rate.HktPerUsd)
	assert.True(t, rate.Stale)
}

func TestProviderColdStartWithoutFallback(t *testing.T) {
	feed := &stubFetcher{err: errors.New("upstream down")}
	p := NewProvider(feed, testCache(t), time.Minute, 0, nil)

	_, err := p.Current(context.Background())
	assert.ErrorIs(t, err, domainexchange.ErrRateUnavailable)
}

func TestProviderSurvivesWithoutRedis(t *testing.T) {
	feed := &stubFetcher{rate: domainexchange.Rate{HktPerUsd: 10.0, FetchedAt: time.Now().UTC().Add(-2 * time.Minute)}}
	p := NewProvider(feed, nil, time.Minute, 0, nil)

	rate, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10.0, rate.HktPerUsd)

	// The fetched value has already aged past maxAge, so the next failure
	// serves it from the in-process copy flagged stale.
	feed.err = errors.New("upstream down")
	rate, err = p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10.0, rate.HktPerUsd)
	assert.True(t, rate.Stale)
}
