package dto

import (
	"time"

	domainbooking "homekrypto/internal/domain/booking"
	domainproperty "homekrypto/internal/domain/property"
	"homekrypto/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type BookingPropertySnapshot struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	City     string `json:"city"`
	Country  string `json:"country"`
	ImageURL string `json:"imageUrl"`
}

type BookingSummary struct {
	ID                  string                  `json:"id"`
	Property            BookingPropertySnapshot `json:"property"`
	CheckIn             time.Time               `json:"checkIn"`
	CheckOut            time.Time               `json:"checkOut"`
	Nights              int                     `json:"nights"`
	Guests              int                     `json:"guests"`
	Currency            string                  `json:"currency"`
	Total               MoneyDTO                `json:"total"`
	IsFreeWeek          bool                    `json:"isFreeWeek"`
	Status              string                  `json:"status"`
	PaymentReference    string                  `json:"paymentReference,omitempty"`
	NeedsReconciliation bool                    `json:"needsReconciliation,omitempty"`
	RefundAmount        *MoneyDTO               `json:"refundAmount,omitempty"`
	CreatedAt           time.Time               `json:"createdAt"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

func MapBookingSummary(booking *domainbooking.Booking, property *domainproperty.Property) BookingSummary {
	snapshot := BookingPropertySnapshot{
		ID: string(booking.PropertyID),
	}
	if property != nil {
		snapshot.Title = property.Title
		snapshot.City = property.City
		snapshot.Country = property.Country
		snapshot.ImageURL = property.ImageURL
	}
	out := BookingSummary{
		ID:                  string(booking.ID),
		Property:            snapshot,
		CheckIn:             booking.Range.CheckIn,
		CheckOut:            booking.Range.CheckOut,
		Nights:              booking.Nights,
		Guests:              booking.Guests,
		Currency:            booking.Currency,
		Total:               MapMoney(booking.ChargedTotal()),
		IsFreeWeek:          booking.IsFreeWeek,
		Status:              string(booking.Status),
		PaymentReference:    booking.PaymentReference,
		NeedsReconciliation: booking.NeedsReconciliation,
		CreatedAt:           booking.CreatedAt,
	}
	if booking.Status == domainbooking.StatusCanceled {
		refund := MapMoney(booking.RefundAmount)
		out.RefundAmount = &refund
	}
	return out
}
