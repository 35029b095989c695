package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	domainexchange "homekrypto/internal/domain/exchange"
)

const tokenSlug = "home-krypto-token"

var ErrFeedUnavailable = errors.New("exchange: price feed unavailable")

// Feed fetches the HKT/USD price from an upstream CoinGecko-compatible
// simple-price endpoint. Calls are rate limited client-side and retried on
// 429 and transient 5xx.
type Feed struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func NewFeed(base string, timeout time.Duration, rps int) *Feed {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if rps <= 0 {
		rps = 2
	}
	return &Feed{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Fetch returns a fresh rate. The upstream quotes the token's USD price;
// the stored convention is HKT per USD, hence the inversion.
func (f *Feed) Fetch(ctx context.Context) (domainexchange.Rate, error) {
	if err := f.rl.Wait(ctx); err != nil {
		return domainexchange.Rate{}, err
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", f.base, tokenSlug)
	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return domainexchange.Rate{}, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return domainexchange.Rate{}, ctx.Err()
			}
			lastErr = err
			if i < 2 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return domainexchange.Rate{}, fmt.Errorf("%w: %v", ErrFeedUnavailable, lastErr)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			var body map[string]map[string]float64
			err := json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			if err != nil {
				return domainexchange.Rate{}, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
			}
			usd := body[tokenSlug]["usd"]
			if usd <= 0 {
				return domainexchange.Rate{}, domainexchange.ErrRateInvalid
			}
			return domainexchange.NewRate(1/usd, time.Now())

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 2 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return domainexchange.Rate{}, fmt.Errorf("%w: %v", ErrFeedUnavailable, lastErr)

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			return domainexchange.Rate{}, fmt.Errorf("%w: status %d: %s",
				ErrFeedUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return domainexchange.Rate{}, fmt.Errorf("%w: %v", ErrFeedUnavailable, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func backoff(i int) time.Duration {
	return time.Duration(1<<i) * 200 * time.Millisecond
}
