package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"homekrypto/internal/domain/pricing"
	"homekrypto/internal/domain/property"
	"homekrypto/internal/domain/shared/daterange"
	"homekrypto/internal/domain/shared/events"
	"homekrypto/internal/domain/shared/money"
	"homekrypto/internal/domain/user"
)

var (
	ErrNotFound                 = errors.New("booking: not found")
	ErrNotOwner                 = errors.New("booking: requester does not own this booking")
	ErrAlreadyConfirmed         = errors.New("booking: already confirmed")
	ErrAlreadyCanceled          = errors.New("booking: already canceled")
	ErrCancellationWindowClosed = errors.New("booking: cannot cancel on or after check-in date")
	ErrPaymentReferenceRequired = errors.New("booking: payment reference required")
	ErrUserRequired             = errors.New("booking: user id required")
)

// RefundPercent is the flat cancellation refund applied to any booking
// canceled strictly before check-in, regardless of lead time.
const RefundPercent = 50

type ID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

// Booking is the persisted reservation record. Price fields are snapshots
// taken at creation time and never recomputed, even if the property's pricing
// changes later. Canceled bookings are kept forever; cancellation is a status
// transition, not a delete.
type Booking struct {
	ID         ID
	UserID     user.ID
	PropertyID property.ID
	Range      daterange.DateRange
	Nights     int
	Guests     int
	Currency   string
	TotalUsd   money.Money
	TotalHkt   money.Money
	CleaningFee money.Money
	IsFreeWeek bool
	Status     Status

	// PaymentReference is the external settlement handle: a card payment
	// session id or an on-chain transaction hash. Required for confirmed.
	PaymentReference string

	// NeedsReconciliation marks a confirmed free-week booking whose ledger
	// claim was lost to a concurrent confirmation; billing must review it.
	NeedsReconciliation bool

	RefundAmount money.Money
	CanceledAt   time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByUser(ctx context.Context, userID user.ID) ([]*Booking, error)
}

type CreateParams struct {
	ID         ID
	UserID     user.ID
	PropertyID property.ID
	Range      daterange.DateRange
	Guests     int
	Quote      pricing.Quote
	CreatedAt  time.Time
}

// New creates a pending booking from a server-computed quote. Callers must
// have re-run the price calculation themselves; a client-supplied quote is
// never trusted.
func New(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.UserID)) == "" {
		return nil, ErrUserRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	b := &Booking{
		ID:          params.ID,
		UserID:      params.UserID,
		PropertyID:  params.PropertyID,
		Range:       params.Range,
		Nights:      params.Quote.Nights,
		Guests:      params.Guests,
		Currency:    params.Quote.Currency,
		TotalUsd:    params.Quote.TotalUsd,
		TotalHkt:    params.Quote.TotalHkt,
		CleaningFee: params.Quote.CleaningFee,
		IsFreeWeek:  params.Quote.IsFreeWeek,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(Created{
		BookingID:  b.ID,
		UserID:     b.UserID,
		PropertyID: b.PropertyID,
		Range:      b.Range,
		Currency:   b.Currency,
		Total:      b.ChargedTotal(),
		IsFreeWeek: b.IsFreeWeek,
		At:         now,
	})
	return b, nil
}

// Confirm moves pending to confirmed, attaching the payment reference.
func (b *Booking) Confirm(paymentReference string, now time.Time) error {
	switch b.Status {
	case StatusCanceled:
		return ErrAlreadyCanceled
	case StatusConfirmed:
		return ErrAlreadyConfirmed
	}
	if strings.TrimSpace(paymentReference) == "" {
		return ErrPaymentReferenceRequired
	}
	b.Status = StatusConfirmed
	b.PaymentReference = strings.TrimSpace(paymentReference)
	b.touch(now)
	b.Record(Confirmed{
		BookingID:        b.ID,
		UserID:           b.UserID,
		PropertyID:       b.PropertyID,
		PaymentReference: b.PaymentReference,
		IsFreeWeek:       b.IsFreeWeek,
		At:               b.UpdatedAt,
	})
	return nil
}

// Cancel transitions to canceled and computes the refund: exactly half of the
// charged total, in the charged currency. Allowed strictly before check-in.
// Moving the refunded money is the payment collaborator's job, not ours.
func (b *Booking) Cancel(requester user.ID, now time.Time) (money.Money, error) {
	if requester != b.UserID {
		return money.Money{}, ErrNotOwner
	}
	if b.Status == StatusCanceled {
		return money.Money{}, ErrAlreadyCanceled
	}
	now = now.UTC()
	if !now.Before(b.Range.CheckIn) {
		return money.Money{}, ErrCancellationWindowClosed
	}
	refund := b.ChargedTotal().Percent(RefundPercent)
	b.Status = StatusCanceled
	b.RefundAmount = refund
	b.CanceledAt = now
	b.touch(now)
	b.Record(Canceled{
		BookingID:  b.ID,
		UserID:     b.UserID,
		PropertyID: b.PropertyID,
		Refund:     refund,
		At:         b.UpdatedAt,
	})
	return refund, nil
}

// FlagReconciliation records that the free-week ledger claim was lost to a
// concurrent confirmation. The booking stays confirmed; the condition is
// surfaced for manual re-billing instead of being swallowed.
func (b *Booking) FlagReconciliation(now time.Time) {
	if b.NeedsReconciliation {
		return
	}
	b.NeedsReconciliation = true
	b.touch(now)
	b.Record(ReconciliationNeeded{
		BookingID:  b.ID,
		UserID:     b.UserID,
		PropertyID: b.PropertyID,
		Reason:     "free week already consumed at confirmation time",
		At:         b.UpdatedAt,
	})
}

// ChargedTotal returns the authoritative charged amount per the settlement
// currency; the other total is bookkeeping only.
func (b *Booking) ChargedTotal() money.Money {
	if b.Currency == money.HKT {
		return b.TotalHkt
	}
	return b.TotalUsd
}

func (b *Booking) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	b.UpdatedAt = now.UTC()
}
