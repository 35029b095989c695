package booking

import (
	"time"

	"homekrypto/internal/domain/property"
	"homekrypto/internal/domain/shared/daterange"
	"homekrypto/internal/domain/shared/money"
	"homekrypto/internal/domain/user"
)

const (
	EventCreated              = "booking.created"
	EventConfirmed            = "booking.confirmed"
	EventCanceled             = "booking.canceled"
	EventReconciliationNeeded = "booking.freeweek_reconciliation"
)

type Created struct {
	BookingID  ID
	UserID     user.ID
	PropertyID property.ID
	Range      daterange.DateRange
	Currency   string
	Total      money.Money
	IsFreeWeek bool
	At         time.Time
}

func (e Created) EventName() string     { return EventCreated }
func (e Created) AggregateID() string   { return string(e.BookingID) }
func (e Created) OccurredAt() time.Time { return e.At }

type Confirmed struct {
	BookingID        ID
	UserID           user.ID
	PropertyID       property.ID
	PaymentReference string
	IsFreeWeek       bool
	At               time.Time
}

func (e Confirmed) EventName() string     { return EventConfirmed }
func (e Confirmed) AggregateID() string   { return string(e.BookingID) }
func (e Confirmed) OccurredAt() time.Time { return e.At }

type Canceled struct {
	BookingID  ID
	UserID     user.ID
	PropertyID property.ID
	Refund     money.Money
	At         time.Time
}

func (e Canceled) EventName() string     { return EventCanceled }
func (e Canceled) AggregateID() string   { return string(e.BookingID) }
func (e Canceled) OccurredAt() time.Time { return e.At }

type ReconciliationNeeded struct {
	BookingID  ID
	UserID     user.ID
	PropertyID property.ID
	Reason     string
	At         time.Time
}

func (e ReconciliationNeeded) EventName() string     { return EventReconciliationNeeded }
func (e ReconciliationNeeded) AggregateID() string   { return string(e.BookingID) }
func (e ReconciliationNeeded) OccurredAt() time.Time { return e.At }
