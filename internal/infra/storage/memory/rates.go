package memory

import (
	"context"
	"sync"
	"time"

	domainexchange "homekrypto/internal/domain/exchange"
)

// FixedRateSource serves a constant HKT/USD rate; dev mode and tests use it
// in place of the live feed.
type FixedRateSource struct {
	mu   sync.RWMutex
	rate domainexchange.Rate
	err  error
}

func NewFixedRateSource(hktPerUsd float64) *FixedRateSource {
	return &FixedRateSource{rate: domainexchange.Rate{HktPerUsd: hktPerUsd, FetchedAt: time.Now().UTC()}}
}

func (s *FixedRateSource) Current(ctx context.Context) (domainexchange.Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return domainexchange.Rate{}, s.err
	}
	return s.rate, nil
}

// SetRate swaps the served rate.
func (s *FixedRateSource) SetRate(rate domainexchange.Rate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
	s.err = nil
}

// Fail makes Current return err until the next SetRate.
func (s *FixedRateSource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

var _ domainexchange.Source = (*FixedRateSource)(nil)
