package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "homekrypto/internal/domain/booking"
)

func (e *testEnv) confirmHandler() *ConfirmBookingHandler {
	return &ConfirmBookingHandler{
		UoWFactory: e.factory,
		Outbox:     e.outbox,
		Logger:     e.logger,
	}
}

func TestConfirmPendingBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.createHandler().Handle(ctx, createCmd("bkg-1", 8, SettlementCard))
	require.NoError(t, err)

	result, err := env.confirmHandler().Handle(ctx, ConfirmBookingCommand{
		BookingID:        "bkg-1",
		PaymentReference: "cs_test_789",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusConfirmed), result.Status)

	stored, err := env.bookings.ByID(ctx, "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_789", stored.PaymentReference)
	assert.Contains(t, outboxNames(env), domainbooking.EventConfirmed)
}

func TestConfirmRedeliveryReportsAlreadyConfirmed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.createHandler().Handle(ctx, createCmd("bkg-1", 8, SettlementCard))
	require.NoError(t, err)

	cmd := ConfirmBookingCommand{BookingID: "bkg-1", PaymentReference: "cs_test_789"}
	_, err = env.confirmHandler().Handle(ctx, cmd)
	require.NoError(t, err)

	_, err = env.confirmHandler().Handle(ctx, cmd)
	assert.ErrorIs(t, err, domainbooking.ErrAlreadyConfirmed)
}

func TestConfirmUnknownBooking(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.confirmHandler().Handle(context.Background(), ConfirmBookingCommand{
		BookingID:        "bkg-missing",
		PaymentReference: "cs_test_789",
	})
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestConfirmClaimsFreeWeek(t *testing.T) {
	env := newTestEnv(t)
	env.grantShares(t, "user-1", 2)
	ctx := context.Background()
	_, err := env.createHandler().Handle(ctx, createCmd("bkg-1", 7, SettlementCard))
	require.NoError(t, err)

	_, err = env.confirmHandler().Handle(ctx, ConfirmBookingCommand{
		BookingID:        "bkg-1",
		PaymentReference: "cs_test_789",
	})
	require.NoError(t, err)

	ownership, err := env.ledger.Ownership(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	assert.True(t, ownership.HasUsedFreeWeek)

	stored, err := env.bookings.ByID(ctx, "bkg-1")
	require.NoError(t, err)
	assert.True(t, stored.IsFreeWeek)
	assert.False(t, stored.NeedsReconciliation)
}

func TestConfirmLostFreeWeekRaceFlagsReconciliation(t *testing.T) {
	env := newTestEnv(t)
	env.grantShares(t, "user-1", 2)
	ctx := context.Background()

	// Quoted while the benefit was still available.
	_, err := env.createHandler().Handle(ctx, createCmd("bkg-1", 7, SettlementCard))
	require.NoError(t, err)

	// A concurrent confirmation consumes the benefit first.
	require.NoError(t, env.ledger.MarkFreeWeekUsed(ctx, "user-1", "prop-1"))

	result, err := env.confirmHandler().Handle(ctx, ConfirmBookingCommand{
		BookingID:        "bkg-1",
		PaymentReference: "cs_test_789",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusConfirmed), result.Status)

	stored, err := env.bookings.ByID(ctx, "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, stored.Status)
	assert.True(t, stored.NeedsReconciliation)
	assert.Contains(t, outboxNames(env), domainbooking.EventReconciliationNeeded)
}

func TestConfirmCommandValidation(t *testing.T) {
	ctx := context.Background()

	err := ConfirmBookingCommand{PaymentReference: "cs_1"}.Validate(ctx)
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)

	err = ConfirmBookingCommand{BookingID: "bkg-1"}.Validate(ctx)
	assert.ErrorIs(t, err, domainbooking.ErrPaymentReferenceRequired)

	assert.NoError(t, ConfirmBookingCommand{BookingID: "bkg-1", PaymentReference: "cs_1"}.Validate(ctx))
}
