package dto

import (
	"time"

	domainproperty "homekrypto/internal/domain/property"
)

type PropertyDTO struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	ImageURL      string    `json:"imageUrl"`
	PricePerNight MoneyDTO  `json:"pricePerNight"`
	CleaningFee   MoneyDTO  `json:"cleaningFee"`
	MinNights     int       `json:"minNights"`
	MaxGuests     int       `json:"maxGuests"`
	TotalShares   int       `json:"totalShares"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

type PropertyCollection struct {
	Items []PropertyDTO `json:"items"`
}

func MapProperty(p *domainproperty.Property) PropertyDTO {
	return PropertyDTO{
		ID:            string(p.ID),
		Title:         p.Title,
		City:          p.City,
		Country:       p.Country,
		ImageURL:      p.ImageURL,
		PricePerNight: MapMoney(p.PricePerNight),
		CleaningFee:   MapMoney(p.CleaningFee),
		MinNights:     p.MinNights,
		MaxGuests:     p.MaxGuests,
		TotalShares:   p.TotalShares,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}
}
