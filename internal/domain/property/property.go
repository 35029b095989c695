package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"homekrypto/internal/domain/shared/money"
)

var (
	ErrIDRequired       = errors.New("property: id is required")
	ErrTitleRequired    = errors.New("property: title is required")
	ErrRateInvalid      = errors.New("property: nightly rate must be positive")
	ErrMinNightsInvalid = errors.New("property: minimum nights must be positive")
	ErrMaxGuestsInvalid = errors.New("property: max guests must be positive")
	ErrNotFound         = errors.New("property: not found")
)

// Platform-wide defaults applied when the admin feed omits a value.
const (
	DefaultCleaningFeeCents = 9000
	DefaultMinNights        = 7
	DefaultMaxGuests        = 8
)

type ID string

// Property is the bookable unit. Records are owned by an external admin
// pipeline; the booking core only reads them.
type Property struct {
	ID            ID
	Title         string
	City          string
	Country       string
	ImageURL      string
	PricePerNight money.Money
	CleaningFee   money.Money
	MinNights     int
	MaxGuests     int
	TotalShares   int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	ListActive(ctx context.Context) ([]*Property, error)
	Save(ctx context.Context, p *Property) error
}

type CreateParams struct {
	ID                 ID
	Title              string
	City               string
	Country            string
	ImageURL           string
	PricePerNightCents int64
	CleaningFeeCents   int64
	MinNights          int
	MaxGuests          int
	TotalShares        int
	Active             bool
	Now                time.Time
}

func New(params CreateParams) (*Property, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if params.PricePerNightCents <= 0 {
		return nil, ErrRateInvalid
	}
	cleaning := params.CleaningFeeCents
	if cleaning == 0 {
		cleaning = DefaultCleaningFeeCents
	}
	if cleaning < 0 {
		return nil, ErrRateInvalid
	}
	minNights := params.MinNights
	if minNights == 0 {
		minNights = DefaultMinNights
	}
	if minNights < 0 {
		return nil, ErrMinNightsInvalid
	}
	maxGuests := params.MaxGuests
	if maxGuests == 0 {
		maxGuests = DefaultMaxGuests
	}
	if maxGuests < 0 {
		return nil, ErrMaxGuestsInvalid
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Property{
		ID:            ID(id),
		Title:         title,
		City:          strings.TrimSpace(params.City),
		Country:       strings.TrimSpace(params.Country),
		ImageURL:      strings.TrimSpace(params.ImageURL),
		PricePerNight: money.Must(params.PricePerNightCents, money.USD),
		CleaningFee:   money.Must(cleaning, money.USD),
		MinNights:     minNights,
		MaxGuests:     maxGuests,
		TotalShares:   params.TotalShares,
		IsActive:      params.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (p *Property) Activate(now time.Time) {
	p.IsActive = true
	p.touch(now)
}

func (p *Property) Deactivate(now time.Time) {
	p.IsActive = false
	p.touch(now)
}

func (p *Property) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	p.UpdatedAt = now.UTC()
}
