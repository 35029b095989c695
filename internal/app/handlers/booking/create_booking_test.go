package booking

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homekrypto/internal/infra/storage/memory"

	domainbooking "homekrypto/internal/domain/booking"
	domainexchange "homekrypto/internal/domain/exchange"
	domainpricing "homekrypto/internal/domain/pricing"
	domainproperty "homekrypto/internal/domain/property"
	"homekrypto/internal/domain/shared/money"
	domainuser "homekrypto/internal/domain/user"
)

type testEnv struct {
	props    *memory.PropertyRepository
	bookings *memory.BookingRepository
	ledger   *memory.ShareLedger
	factory  memory.Factory
	payments *memory.PaymentsStub
	rates    *memory.FixedRateSource
	outbox   *memory.Outbox
	logger   *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		props:    memory.NewPropertyRepository(),
		bookings: memory.NewBookingRepository(),
		ledger:   memory.NewShareLedger(),
		payments: memory.NewPaymentsStub(),
		rates:    memory.NewFixedRateSource(10.0),
		outbox:   memory.NewOutbox(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	env.factory = memory.Factory{
		PropertiesRepo: env.props,
		BookingsRepo:   env.bookings,
		ShareLedger:    env.ledger,
	}

	prop, err := domainproperty.New(domainproperty.CreateParams{
		ID:                 "prop-1",
		Title:              "Marbella Beachfront Villa",
		City:               "Marbella",
		Country:            "ES",
		PricePerNightCents: 28571,
		CleaningFeeCents:   9000,
		MinNights:          7,
		MaxGuests:          8,
		TotalShares:        100,
		Active:             true,
	})
	require.NoError(t, err)
	require.NoError(t, env.props.Save(context.Background(), prop))
	return env
}

func (e *testEnv) createHandler() *CreateBookingHandler {
	return &CreateBookingHandler{
		UoWFactory: e.factory,
		Rates:      e.rates,
		Payments:   e.payments,
		Verifier:   memory.VerifierStub{},
		Outbox:     e.outbox,
		Logger:     e.logger,
	}
}

func (e *testEnv) grantShares(t *testing.T, userID string, count int) {
	t.Helper()
	require.NoError(t, e.ledger.SetPosition(context.Background(), domainuser.ID(userID), "prop-1", count))
}

func stayDates(nights int) (time.Time, time.Time) {
	checkIn := time.Now().UTC().AddDate(0, 0, 30).Truncate(24 * time.Hour)
	return checkIn, checkIn.AddDate(0, 0, nights)
}

func createCmd(id string, nights int, settlement string) CreateBookingCommand {
	checkIn, checkOut := stayDates(nights)
	return CreateBookingCommand{
		CommandID:       id,
		UserID:          "user-1",
		PropertyID:      "prop-1",
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          2,
		Settlement:      settlement,
		TxHash:          "0xabc123",
		IdempotencyKeyV: "idem-" + id,
	}
}

func outboxNames(e *testEnv) []string {
	records := e.outbox.Pending()
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.Name
	}
	return names
}

func TestCreateCardBookingStaysPending(t *testing.T) {
	env := newTestEnv(t)
	handler := env.createHandler()

	result, err := handler.Handle(context.Background(), createCmd("bkg-1", 8, SettlementCard))
	require.NoError(t, err)

	assert.Equal(t, string(domainbooking.StatusPending), result.Status)
	assert.Equal(t, int64(237568), result.Total)
	assert.Equal(t, money.USD, result.Currency)
	assert.NotEmpty(t, result.CheckoutURL)
	assert.Contains(t, env.payments.Sessions, result.SessionID)

	stored, err := env.bookings.ByID(context.Background(), "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)
	assert.Empty(t, stored.PaymentReference)
	assert.Equal(t, []string{domainbooking.EventCreated}, outboxNames(env))
}

func TestCreateTokenBookingConfirmsImmediately(t *testing.T) {
	env := newTestEnv(t)
	handler := env.createHandler()

	result, err := handler.Handle(context.Background(), createCmd("bkg-1", 8, SettlementToken))
	require.NoError(t, err)

	assert.Equal(t, string(domainbooking.StatusConfirmed), result.Status)
	assert.Equal(t, money.HKT, result.Currency)
	assert.Equal(t, int64(2375680), result.Total)

	stored, err := env.bookings.ByID(context.Background(), "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, "0xabc123", stored.PaymentReference)
	assert.Equal(t, []string{domainbooking.EventCreated, domainbooking.EventConfirmed}, outboxNames(env))
}

func TestCreateFreeWeekIsConsumedOnce(t *testing.T) {
	env := newTestEnv(t)
	env.grantShares(t, "user-1", 3)
	handler := env.createHandler()
	ctx := context.Background()

	first, err := handler.Handle(ctx, createCmd("bkg-1", 7, SettlementToken))
	require.NoError(t, err)
	// Seven free nights, cleaning fee only: 9000 cents at 10 HKT/USD.
	assert.Equal(t, int64(90000), first.Total)

	ownership, err := env.ledger.Ownership(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	assert.True(t, ownership.HasUsedFreeWeek)

	second, err := handler.Handle(ctx, createCmd("bkg-2", 7, SettlementToken))
	require.NoError(t, err)
	assert.Equal(t, int64(2089970), second.Total)

	stored, err := env.bookings.ByID(ctx, "bkg-2")
	require.NoError(t, err)
	assert.False(t, stored.IsFreeWeek)
	assert.False(t, stored.NeedsReconciliation)
}

func TestCreateRejectsShortStay(t *testing.T) {
	env := newTestEnv(t)
	handler := env.createHandler()

	_, err := handler.Handle(context.Background(), createCmd("bkg-1", 5, SettlementCard))

	var minStay domainpricing.MinimumStayError
	require.ErrorAs(t, err, &minStay)
	assert.Equal(t, 7, minStay.Required)

	_, err = env.bookings.ByID(context.Background(), "bkg-1")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestCreateUnknownProperty(t *testing.T) {
	env := newTestEnv(t)
	handler := env.createHandler()
	cmd := createCmd("bkg-1", 8, SettlementCard)
	cmd.PropertyID = "prop-missing"

	_, err := handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domainproperty.ErrNotFound)
}

func TestCreateValidatesSettlement(t *testing.T) {
	env := newTestEnv(t)
	handler := env.createHandler()

	cmd := createCmd("bkg-1", 8, "wire")
	_, err := handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrSettlementInvalid)

	cmd = createCmd("bkg-1", 8, SettlementToken)
	cmd.TxHash = "   "
	_, err = handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrTxHashRequired)

	cmd = createCmd("bkg-1", 8, SettlementCard)
	cmd.UserID = ""
	_, err = handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domainbooking.ErrUserRequired)
}

func TestCreateHktNeedsARate(t *testing.T) {
	env := newTestEnv(t)
	env.rates.Fail(domainexchange.ErrRateUnavailable)
	handler := env.createHandler()

	_, err := handler.Handle(context.Background(), createCmd("bkg-1", 8, SettlementToken))
	assert.ErrorIs(t, err, domainexchange.ErrRateUnavailable)

	// USD settlement keeps working without a rate.
	result, err := handler.Handle(context.Background(), createCmd("bkg-2", 8, SettlementCard))
	require.NoError(t, err)
	assert.Equal(t, int64(237568), result.Total)
}
