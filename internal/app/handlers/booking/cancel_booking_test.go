package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homekrypto/internal/app/commands"
	"homekrypto/internal/app/middleware"
	domainbooking "homekrypto/internal/domain/booking"
	"homekrypto/internal/domain/shared/money"
	"homekrypto/internal/infra/storage/memory"
)

func (e *testEnv) cancelHandler() *CancelBookingHandler {
	return &CancelBookingHandler{
		UoWFactory: e.factory,
		Payments:   e.payments,
		Outbox:     e.outbox,
		Logger:     e.logger,
	}
}

func TestCancelConfirmedCardBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.createHandler().Handle(ctx, createCmd("bkg-1", 8, SettlementCard))
	require.NoError(t, err)
	_, err = env.confirmHandler().Handle(ctx, ConfirmBookingCommand{
		BookingID:        "bkg-1",
		PaymentReference: "cs_test_789",
	})
	require.NoError(t, err)

	result, err := env.cancelHandler().Handle(ctx, CancelBookingCommand{BookingID: "bkg-1", UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, int64(118784), result.RefundAmount)
	assert.Equal(t, money.USD, result.Currency)

	stored, err := env.bookings.ByID(ctx, "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCanceled, stored.Status)
	assert.Equal(t, int64(118784), stored.RefundAmount.Amount)
	assert.Equal(t, int64(118784), env.payments.Refunds["cs_test_789"].Amount)
	assert.Contains(t, outboxNames(env), domainbooking.EventCanceled)
}

func TestCancelTokenBookingSkipsCardRefund(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.createHandler().Handle(ctx, createCmd("bkg-1", 8, SettlementToken))
	require.NoError(t, err)

	result, err := env.cancelHandler().Handle(ctx, CancelBookingCommand{BookingID: "bkg-1", UserID: "user-1"})
	require.NoError(t, err)

	// Half of 2375680 HKT cents; the token refund moves outside this service.
	assert.Equal(t, int64(1187840), result.RefundAmount)
	assert.Equal(t, money.HKT, result.Currency)
	assert.Empty(t, env.payments.Refunds)
}

func TestCancelPendingBookingDoesNotCallProvider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.createHandler().Handle(ctx, createCmd("bkg-1", 8, SettlementCard))
	require.NoError(t, err)

	_, err = env.cancelHandler().Handle(ctx, CancelBookingCommand{BookingID: "bkg-1", UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, env.payments.Refunds)
}

func TestCancelRejectsNonOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.createHandler().Handle(ctx, createCmd("bkg-1", 8, SettlementCard))
	require.NoError(t, err)

	_, err = env.cancelHandler().Handle(ctx, CancelBookingCommand{BookingID: "bkg-1", UserID: "user-2"})
	assert.ErrorIs(t, err, domainbooking.ErrNotOwner)

	stored, err := env.bookings.ByID(ctx, "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)
}

func TestCancelUnknownBooking(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.cancelHandler().Handle(context.Background(), CancelBookingCommand{BookingID: "bkg-missing", UserID: "user-1"})
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestCreateBookingIdempotentReplay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, CreateBookingCommand{}.Key(), env.createHandler())
	wrapped := middleware.ChainCommands(
		bus,
		middleware.Validation(middleware.SelfValidation{}),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.Transaction(env.factory, nil),
	)

	cmd := createCmd("bkg-1", 8, SettlementCard)
	first, err := commands.Dispatch[CreateBookingCommand, *CreateBookingResult](ctx, wrapped, cmd)
	require.NoError(t, err)

	// Same idempotency key, new command id: the stored result is replayed and
	// no second booking is created.
	replay := cmd
	replay.CommandID = "bkg-2"
	second, err := commands.Dispatch[CreateBookingCommand, *CreateBookingResult](ctx, wrapped, replay)
	require.NoError(t, err)

	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Equal(t, first.Total, second.Total)

	_, err = env.bookings.ByID(ctx, "bkg-2")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)

	listed, err := env.bookings.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
