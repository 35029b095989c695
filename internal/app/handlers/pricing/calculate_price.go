package pricing

import (
	"context"
	"strings"
	"time"

	"homekrypto/internal/app/dto"
	handlersupport "homekrypto/internal/app/handlers/support"
	"homekrypto/internal/app/queries"
	"homekrypto/internal/app/uow"
	domainexchange "homekrypto/internal/domain/exchange"
	domainpricing "homekrypto/internal/domain/pricing"
	domainproperty "homekrypto/internal/domain/property"
	domainrange "homekrypto/internal/domain/shared/daterange"
	"homekrypto/internal/domain/shared/money"
	domainshares "homekrypto/internal/domain/shares"
	domainuser "homekrypto/internal/domain/user"
)

const calculatePriceKey = "pricing.calculate"

// CalculatePriceQuery produces a non-binding quote. UserID is optional:
// anonymous callers get share-less pricing.
type CalculatePriceQuery struct {
	PropertyID string
	UserID     string
	CheckIn    time.Time
	CheckOut   time.Time
	Currency   string
	Guests     int
}

func (q CalculatePriceQuery) Key() string { return calculatePriceKey }

type CalculatePriceHandler struct {
	UoWFactory uow.UoWFactory
	Rates      domainexchange.Source
}

func (h *CalculatePriceHandler) Handle(ctx context.Context, q CalculatePriceQuery) (dto.QuoteDTO, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.QuoteDTO{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.QuoteDTO{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(q.Currency))
	if currency == "" {
		currency = money.USD
	}

	prop, err := unit.Properties().ByID(execCtx, domainproperty.ID(q.PropertyID))
	if err != nil {
		return dto.QuoteDTO{}, err
	}
	if q.Guests > 0 {
		if err := domainpricing.ValidateGuests(prop, q.Guests); err != nil {
			return dto.QuoteDTO{}, err
		}
	}

	var ownership domainshares.Ownership
	if userID := strings.TrimSpace(q.UserID); userID != "" {
		ownership, err = unit.Shares().Ownership(execCtx, domainuser.ID(userID), prop.ID)
		if err != nil {
			return dto.QuoteDTO{}, err
		}
	}

	var rate domainexchange.Rate
	if h.Rates != nil {
		rate, err = h.Rates.Current(execCtx)
		if err != nil {
			if currency == money.HKT {
				return dto.QuoteDTO{}, domainexchange.ErrRateUnavailable
			}
			rate = domainexchange.Rate{}
		}
	}

	quote, err := domainpricing.Calculate(domainpricing.Input{
		Property:  prop,
		Range:     dr,
		Currency:  currency,
		Ownership: ownership,
		Rate:      rate,
	})
	if err != nil {
		return dto.QuoteDTO{}, err
	}
	return dto.MapQuote(quote), nil
}

var _ queries.Handler[CalculatePriceQuery, dto.QuoteDTO] = (*CalculatePriceHandler)(nil)
