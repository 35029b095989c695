package exchange

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRateUnavailable means no live rate and no cached rate exist.
	ErrRateUnavailable = errors.New("exchange: hkt/usd rate unavailable")
	// ErrRateInvalid guards against a zero or negative rate leaking into a
	// quote as a zero or infinite total.
	ErrRateInvalid = errors.New("exchange: rate must be positive")
)

// Rate is a snapshot of the HKT/USD conversion. HktPerUsd is the stored
// convention: how many HKT one USD buys. Stale marks a cached value served
// after an upstream failure.
type Rate struct {
	HktPerUsd float64
	FetchedAt time.Time
	Stale     bool
}

func NewRate(hktPerUsd float64, fetchedAt time.Time) (Rate, error) {
	if hktPerUsd <= 0 {
		return Rate{}, ErrRateInvalid
	}
	return Rate{HktPerUsd: hktPerUsd, FetchedAt: fetchedAt.UTC()}, nil
}

// ToHkt converts USD minor units to HKT minor units, rounding half up.
func (r Rate) ToHkt(usdCents int64) int64 {
	if r.HktPerUsd <= 0 {
		return 0
	}
	return int64(float64(usdCents)*r.HktPerUsd + 0.5)
}

// Source supplies the current rate. Implementations must never return a rate
// with HktPerUsd <= 0; on upstream failure they either serve the last
// known-good value flagged Stale or fail with ErrRateUnavailable.
type Source interface {
	Current(ctx context.Context) (Rate, error)
}
