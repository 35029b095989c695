package dto

import (
	domainpricing "homekrypto/internal/domain/pricing"
)

type QuoteDTO struct {
	Nights         int      `json:"nights"`
	FreeNights     int      `json:"freeNights"`
	BillableNights int      `json:"billableNights"`
	PricePerNight  MoneyDTO `json:"pricePerNight"`
	CleaningFee    MoneyDTO `json:"cleaningFee"`
	SubtotalUsd    MoneyDTO `json:"subtotalUsd"`
	TotalUsd       MoneyDTO `json:"totalUsd"`
	TotalHkt       MoneyDTO `json:"totalHkt,omitempty"`
	Currency       string   `json:"currency"`
	HasShares      bool     `json:"hasShares"`
	IsFreeWeek     bool     `json:"isFreeWeek"`
	RateStale      bool     `json:"rateStale,omitempty"`
}

func MapQuote(q domainpricing.Quote) QuoteDTO {
	out := QuoteDTO{
		Nights:         q.Nights,
		FreeNights:     q.FreeNights,
		BillableNights: q.BillableNights,
		PricePerNight:  MapMoney(q.PricePerNight),
		CleaningFee:    MapMoney(q.CleaningFee),
		SubtotalUsd:    MapMoney(q.SubtotalUsd),
		TotalUsd:       MapMoney(q.TotalUsd),
		Currency:       q.Currency,
		HasShares:      q.HasShares,
		IsFreeWeek:     q.IsFreeWeek,
		RateStale:      q.RateStale,
	}
	if !q.TotalHkt.IsZero() || q.Currency == "HKT" {
		out.TotalHkt = MapMoney(q.TotalHkt)
	}
	return out
}
