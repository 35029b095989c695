package booking

import (
	"context"
	"errors"

	domainexchange "homekrypto/internal/domain/exchange"
	domainpricing "homekrypto/internal/domain/pricing"
	domainproperty "homekrypto/internal/domain/property"
	domainrange "homekrypto/internal/domain/shared/daterange"
	"homekrypto/internal/domain/shared/money"
	domainshares "homekrypto/internal/domain/shares"
	domainuser "homekrypto/internal/domain/user"
)

// serverQuote recomputes the price from stored state. Client-submitted totals
// are never consulted; a tampered or outdated quote simply loses to this one.
func serverQuote(
	ctx context.Context,
	property *domainproperty.Property,
	ledger domainshares.Ledger,
	rates domainexchange.Source,
	userID domainuser.ID,
	dr domainrange.DateRange,
	currency string,
) (domainpricing.Quote, error) {
	var ownership domainshares.Ownership
	if ledger != nil && userID != "" {
		var err error
		ownership, err = ledger.Ownership(ctx, userID, property.ID)
		if err != nil {
			return domainpricing.Quote{}, err
		}
	}

	var rate domainexchange.Rate
	if rates != nil {
		var err error
		rate, err = rates.Current(ctx)
		if err != nil {
			if currency == money.HKT {
				return domainpricing.Quote{}, domainexchange.ErrRateUnavailable
			}
			if !errors.Is(err, domainexchange.ErrRateUnavailable) {
				return domainpricing.Quote{}, err
			}
			rate = domainexchange.Rate{}
		}
	}

	return domainpricing.Calculate(domainpricing.Input{
		Property:  property,
		Range:     dr,
		Currency:  currency,
		Ownership: ownership,
		Rate:      rate,
	})
}
