package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homekrypto/internal/domain/pricing"
	"homekrypto/internal/domain/shared/daterange"
	"homekrypto/internal/domain/shared/money"
)

var checkIn = time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)

func testBooking(t *testing.T) *Booking {
	t.Helper()
	dr, err := daterange.New(checkIn, checkIn.AddDate(0, 0, 8))
	require.NoError(t, err)

	b, err := New(CreateParams{
		ID:         "bkg-1",
		UserID:     "user-1",
		PropertyID: "prop-1",
		Range:      dr,
		Guests:     2,
		Quote: pricing.Quote{
			Nights:         8,
			BillableNights: 8,
			PricePerNight:  money.Must(28571, money.USD),
			CleaningFee:    money.Must(9000, money.USD),
			SubtotalUsd:    money.Must(228568, money.USD),
			TotalUsd:       money.Must(237568, money.USD),
			Currency:       money.USD,
		},
		CreatedAt: checkIn.AddDate(0, 0, -30),
	})
	require.NoError(t, err)
	return b
}

func eventNames(b *Booking) []string {
	events := b.PendingEvents()
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.EventName()
	}
	return names
}

func TestNewRequiresUser(t *testing.T) {
	dr, err := daterange.New(checkIn, checkIn.AddDate(0, 0, 8))
	require.NoError(t, err)

	_, err = New(CreateParams{ID: "bkg-1", Range: dr})
	assert.ErrorIs(t, err, ErrUserRequired)
}

func TestNewStartsPendingWithSnapshot(t *testing.T) {
	b := testBooking(t)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, 8, b.Nights)
	assert.Equal(t, int64(237568), b.TotalUsd.Amount)
	assert.Equal(t, int64(237568), b.ChargedTotal().Amount)
	assert.Equal(t, []string{EventCreated}, eventNames(b))
}

func TestConfirm(t *testing.T) {
	b := testBooking(t)
	now := b.CreatedAt.Add(time.Hour)

	require.NoError(t, b.Confirm("  cs_123  ", now))
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, "cs_123", b.PaymentReference)
	assert.Equal(t, []string{EventCreated, EventConfirmed}, eventNames(b))

	assert.ErrorIs(t, b.Confirm("cs_456", now), ErrAlreadyConfirmed)
	assert.Equal(t, "cs_123", b.PaymentReference)
}

func TestConfirmRequiresPaymentReference(t *testing.T) {
	b := testBooking(t)
	assert.ErrorIs(t, b.Confirm("   ", time.Now()), ErrPaymentReferenceRequired)
	assert.Equal(t, StatusPending, b.Status)
}

func TestCancelRefundsHalf(t *testing.T) {
	b := testBooking(t)
	require.NoError(t, b.Confirm("cs_123", b.CreatedAt.Add(time.Hour)))

	refund, err := b.Cancel("user-1", checkIn.AddDate(0, 0, -1))
	require.NoError(t, err)

	assert.Equal(t, int64(118784), refund.Amount)
	assert.Equal(t, money.USD, refund.Currency)
	assert.Equal(t, StatusCanceled, b.Status)
	assert.Equal(t, refund, b.RefundAmount)
	assert.Equal(t, []string{EventCreated, EventConfirmed, EventCanceled}, eventNames(b))
}

func TestCancelClosedOnCheckInDay(t *testing.T) {
	b := testBooking(t)

	_, err := b.Cancel("user-1", checkIn)
	assert.ErrorIs(t, err, ErrCancellationWindowClosed)

	_, err = b.Cancel("user-1", checkIn.AddDate(0, 0, 2))
	assert.ErrorIs(t, err, ErrCancellationWindowClosed)

	// One second before midnight still cancels.
	_, err = b.Cancel("user-1", checkIn.Add(-time.Second))
	assert.NoError(t, err)
}

func TestCancelRejectsNonOwner(t *testing.T) {
	b := testBooking(t)

	_, err := b.Cancel("user-2", checkIn.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, StatusPending, b.Status)
}

func TestCancelTwice(t *testing.T) {
	b := testBooking(t)
	_, err := b.Cancel("user-1", checkIn.AddDate(0, 0, -1))
	require.NoError(t, err)

	_, err = b.Cancel("user-1", checkIn.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrAlreadyCanceled)
}

func TestConfirmCanceledBooking(t *testing.T) {
	b := testBooking(t)
	_, err := b.Cancel("user-1", checkIn.AddDate(0, 0, -1))
	require.NoError(t, err)

	assert.ErrorIs(t, b.Confirm("cs_123", time.Now()), ErrAlreadyCanceled)
}

func TestFlagReconciliationIsIdempotent(t *testing.T) {
	b := testBooking(t)
	require.NoError(t, b.Confirm("cs_123", b.CreatedAt.Add(time.Hour)))
	b.ClearEvents()

	now := b.CreatedAt.Add(2 * time.Hour)
	b.FlagReconciliation(now)
	b.FlagReconciliation(now)

	assert.True(t, b.NeedsReconciliation)
	assert.Equal(t, []string{EventReconciliationNeeded}, eventNames(b))
}

func TestChargedTotalFollowsSettlementCurrency(t *testing.T) {
	b := testBooking(t)
	b.Currency = money.HKT
	b.TotalHkt = money.Must(2375680, money.HKT)

	assert.Equal(t, int64(2375680), b.ChargedTotal().Amount)
}
