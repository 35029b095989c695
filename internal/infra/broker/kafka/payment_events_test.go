package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homekrypto/internal/app/commands"
	bookinghandlers "homekrypto/internal/app/handlers/booking"
	domainbooking "homekrypto/internal/domain/booking"
)

type memoryDedupe struct {
	seen map[string]bool
}

func (m *memoryDedupe) Seen(ctx context.Context, eventID string) (bool, error) {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[eventID] {
		return true, nil
	}
	m.seen[eventID] = true
	return false, nil
}

func paymentHandler(t *testing.T, confirm func(cmd bookinghandlers.ConfirmBookingCommand) error) (*PaymentEventsHandler, *int) {
	t.Helper()
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, bookinghandlers.ConfirmBookingCommand{}.Key(),
		commands.HandlerFunc[bookinghandlers.ConfirmBookingCommand, *bookinghandlers.ConfirmBookingResult](
			func(ctx context.Context, cmd bookinghandlers.ConfirmBookingCommand) (*bookinghandlers.ConfirmBookingResult, error) {
				calls++
				if err := confirm(cmd); err != nil {
					return nil, err
				}
				return &bookinghandlers.ConfirmBookingResult{BookingID: cmd.BookingID, Status: "confirmed"}, nil
			}))
	return &PaymentEventsHandler{Bus: bus, Inbox: &memoryDedupe{}}, &calls
}

func message(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "homekrypto.payment.events.v1", Value: []byte(value)}
}

func TestPaymentEventConfirmsBooking(t *testing.T) {
	var got bookinghandlers.ConfirmBookingCommand
	handler, calls := paymentHandler(t, func(cmd bookinghandlers.ConfirmBookingCommand) error {
		got = cmd
		return nil
	})

	err := handler.Handle(context.Background(), message(
		`{"id":"evt-1","type":"payment.completed.v1","data":{"booking_id":"bkg-1","payment_reference":"cs_test_789"}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, "bkg-1", got.BookingID)
	assert.Equal(t, "cs_test_789", got.PaymentReference)
}

func TestPaymentEventRedeliveryIsDropped(t *testing.T) {
	handler, calls := paymentHandler(t, func(bookinghandlers.ConfirmBookingCommand) error { return nil })
	evt := `{"id":"evt-1","type":"payment.completed.v1","data":{"booking_id":"bkg-1","payment_reference":"cs_1"}}`

	require.NoError(t, handler.Handle(context.Background(), message(evt)))
	require.NoError(t, handler.Handle(context.Background(), message(evt)))
	assert.Equal(t, 1, *calls)
}

func TestPaymentEventIgnoresOtherTypes(t *testing.T) {
	handler, calls := paymentHandler(t, func(bookinghandlers.ConfirmBookingCommand) error { return nil })

	require.NoError(t, handler.Handle(context.Background(), message(
		`{"id":"evt-2","type":"payment.refunded.v1","data":{"booking_id":"bkg-1","payment_reference":"cs_1"}}`)))
	assert.Equal(t, 0, *calls)
}

func TestPaymentEventDropsMalformedMessages(t *testing.T) {
	handler, calls := paymentHandler(t, func(bookinghandlers.ConfirmBookingCommand) error { return nil })

	require.NoError(t, handler.Handle(context.Background(), message(`not json`)))
	require.NoError(t, handler.Handle(context.Background(), message(
		`{"id":"evt-3","type":"payment.completed.v1","data":{}}`)))
	assert.Equal(t, 0, *calls)
}

func TestPaymentEventAlreadyConfirmedIsSuccess(t *testing.T) {
	handler, _ := paymentHandler(t, func(bookinghandlers.ConfirmBookingCommand) error {
		return domainbooking.ErrAlreadyConfirmed
	})

	err := handler.Handle(context.Background(), message(
		`{"id":"evt-4","type":"payment.completed.v1","data":{"booking_id":"bkg-1","payment_reference":"cs_1"}}`))
	assert.NoError(t, err)
}

func TestPaymentEventHandlerFailureIsRetried(t *testing.T) {
	handler, _ := paymentHandler(t, func(bookinghandlers.ConfirmBookingCommand) error {
		return errors.New("store down")
	})

	err := handler.Handle(context.Background(), message(
		`{"id":"evt-5","type":"payment.completed.v1","data":{"booking_id":"bkg-1","payment_reference":"cs_1"}}`))
	assert.Error(t, err)
}
