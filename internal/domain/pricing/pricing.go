package pricing

import (
	"errors"
	"fmt"

	"homekrypto/internal/domain/exchange"
	"homekrypto/internal/domain/property"
	"homekrypto/internal/domain/shared/daterange"
	"homekrypto/internal/domain/shared/money"
	"homekrypto/internal/domain/shares"
)

var (
	ErrPropertyRequired    = errors.New("pricing: property is required")
	ErrPropertyUnavailable = errors.New("pricing: property is not accepting bookings")
	ErrGuestCountInvalid   = errors.New("pricing: guest count out of range")
)

// FreeWeekNights caps the one-time share-holder benefit: up to seven nights
// at a zero nightly rate, independent of the property's own minimum stay.
const FreeWeekNights = 7

// MinimumStayError carries both sides of the failed check so callers can
// render "Minimum 7-night stay required" style messages.
type MinimumStayError struct {
	Required  int
	Requested int
}

func (e MinimumStayError) Error() string {
	return fmt.Sprintf("pricing: minimum %d-night stay required, requested %d", e.Required, e.Requested)
}

// Quote is the ephemeral price breakdown returned to clients and re-derived
// server-side before any booking is persisted. It echoes eligibility flags so
// the caller never re-implements the free-week rules.
type Quote struct {
	Nights         int
	FreeNights     int
	BillableNights int
	PricePerNight  money.Money
	CleaningFee    money.Money
	SubtotalUsd    money.Money
	TotalUsd       money.Money
	TotalHkt       money.Money
	Currency       string
	HasShares      bool
	IsFreeWeek     bool
	RateStale      bool
}

// Input gathers everything Calculate needs. Rate may be the zero value when
// the provider failed; only HKT-currency quotes then fail.
type Input struct {
	Property  *property.Property
	Range     daterange.DateRange
	Currency  string
	Ownership shares.Ownership
	Rate      exchange.Rate
}

// Calculate is the pure pricing function. Deterministic for identical inputs
// and free of side effects, so clients may safely re-quote.
//
// Rule order is load-bearing: date validation, then the minimum-stay check,
// then property availability, and only after those the discount logic.
func Calculate(in Input) (Quote, error) {
	if in.Property == nil {
		return Quote{}, ErrPropertyRequired
	}
	if err := in.Range.Validate(); err != nil {
		return Quote{}, err
	}
	nights := in.Range.Nights()
	if nights < in.Property.MinNights {
		return Quote{}, MinimumStayError{Required: in.Property.MinNights, Requested: nights}
	}
	if !in.Property.IsActive {
		return Quote{}, ErrPropertyUnavailable
	}

	hasShares := in.Ownership.HasShares()
	isFreeWeek := hasShares && nights >= FreeWeekNights && !in.Ownership.HasUsedFreeWeek

	freeNights := 0
	if isFreeWeek {
		freeNights = FreeWeekNights
		if nights < freeNights {
			freeNights = nights
		}
	}
	billable := nights - freeNights

	subtotal := in.Property.PricePerNight.Multiply(int64(billable))
	total, err := subtotal.Add(in.Property.CleaningFee)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{
		Nights:         nights,
		FreeNights:     freeNights,
		BillableNights: billable,
		PricePerNight:  in.Property.PricePerNight,
		CleaningFee:    in.Property.CleaningFee,
		SubtotalUsd:    subtotal,
		TotalUsd:       total,
		TotalHkt:       money.Money{Amount: 0, Currency: money.HKT},
		Currency:       in.Currency,
		HasShares:      hasShares,
		IsFreeWeek:     isFreeWeek,
		RateStale:      in.Rate.Stale,
	}

	if in.Currency == money.HKT {
		if in.Rate.HktPerUsd <= 0 {
			return Quote{}, exchange.ErrRateUnavailable
		}
		q.TotalHkt = money.Money{Amount: in.Rate.ToHkt(total.Amount), Currency: money.HKT}
	}
	return q, nil
}

// ValidateGuests enforces the per-property occupancy bounds.
func ValidateGuests(p *property.Property, guests int) error {
	if p == nil {
		return ErrPropertyRequired
	}
	if guests < 1 || guests > p.MaxGuests {
		return ErrGuestCountInvalid
	}
	return nil
}

// ChargedTotal returns the amount the guest actually pays in the quote's
// settlement currency.
func (q Quote) ChargedTotal() money.Money {
	if q.Currency == money.HKT {
		return q.TotalHkt
	}
	return q.TotalUsd
}
