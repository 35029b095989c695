package exchange

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainexchange "homekrypto/internal/domain/exchange"
	rediscache "homekrypto/internal/infra/cache/redis"
)

const cacheKey = "exchange:hkt_per_usd"

// cachedRate is the redis representation of the last known-good fetch.
type cachedRate struct {
	HktPerUsd float64   `json:"hkt_per_usd"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Fetcher is the upstream side of the provider; *Feed satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) (domainexchange.Rate, error)
}

// Provider serves the current HKT/USD rate. A fresh value comes from the
// feed; on upstream failure the last known-good value is served flagged
// stale, and when nothing was ever fetched a configured fallback applies so
// HKT pricing keeps working on a cold start.
type Provider struct {
	feed     Fetcher
	cache    *rediscache.Cache
	maxAge   time.Duration
	fallback float64
	logger   *slog.Logger

	mu   sync.Mutex
	last cachedRate
}

func NewProvider(feed Fetcher, cache *rediscache.Cache, maxAge time.Duration, fallbackHktPerUsd float64, logger *slog.Logger) *Provider {
	if maxAge <= 0 {
		maxAge = time.Minute
	}
	return &Provider{
		feed:     feed,
		cache:    cache,
		maxAge:   maxAge,
		fallback: fallbackHktPerUsd,
		logger:   logger,
	}
}

func (p *Provider) Current(ctx context.Context) (domainexchange.Rate, error) {
	if cached, ok := p.lookup(ctx); ok && time.Since(cached.FetchedAt) < p.maxAge {
		return domainexchange.Rate{HktPerUsd: cached.HktPerUsd, FetchedAt: cached.FetchedAt}, nil
	}

	if p.feed != nil {
		fresh, err := p.feed.Fetch(ctx)
		if err == nil {
			p.store(ctx, cachedRate{HktPerUsd: fresh.HktPerUsd, FetchedAt: fresh.FetchedAt})
			return fresh, nil
		}
		if p.logger != nil {
			p.logger.Warn("rate feed fetch failed, serving last known good", "error", err)
		}
	}

	if cached, ok := p.lookup(ctx); ok {
		return domainexchange.Rate{HktPerUsd: cached.HktPerUsd, FetchedAt: cached.FetchedAt, Stale: true}, nil
	}
	if p.fallback > 0 {
		return domainexchange.Rate{HktPerUsd: p.fallback, FetchedAt: time.Time{}, Stale: true}, nil
	}
	return domainexchange.Rate{}, domainexchange.ErrRateUnavailable
}

// lookup prefers redis so restarts keep the last known-good value; the
// in-process copy covers redis outages.
func (p *Provider) lookup(ctx context.Context) (cachedRate, bool) {
	if p.cache != nil {
		var rec cachedRate
		found, err := p.cache.Get(ctx, cacheKey, &rec)
		if err == nil && found && rec.HktPerUsd > 0 {
			return rec, true
		}
		if err != nil && p.logger != nil {
			p.logger.Warn("rate cache read failed", "error", err)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last.HktPerUsd > 0 {
		return p.last, true
	}
	return cachedRate{}, false
}

func (p *Provider) store(ctx context.Context, rec cachedRate) {
	p.mu.Lock()
	p.last = rec
	p.mu.Unlock()
	if p.cache == nil {
		return
	}
	// Unbounded TTL: a stale last-known-good beats no rate at all.
	if err := p.cache.Set(ctx, cacheKey, rec, 0); err != nil && p.logger != nil {
		p.logger.Warn("rate cache write failed", "error", err)
	}
}

var _ domainexchange.Source = (*Provider)(nil)
