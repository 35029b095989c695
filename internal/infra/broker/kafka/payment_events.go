package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"homekrypto/internal/app/commands"
	bookinghandlers "homekrypto/internal/app/handlers/booking"
	domainbooking "homekrypto/internal/domain/booking"
)

// DedupeStore answers whether an event id was already processed; the first
// call for an id records it.
type DedupeStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// paymentCompletedEvent is the CloudEvents envelope published by the payment
// processor when a checkout session settles.
type paymentCompletedEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		BookingID        string `json:"booking_id"`
		PaymentReference string `json:"payment_reference"`
	} `json:"data"`
}

// PaymentEventsHandler confirms bookings from asynchronous payment
// completions. Redeliveries are dropped by the inbox store, and a booking
// already confirmed through the webhook path is treated as done.
type PaymentEventsHandler struct {
	Bus    commands.Bus
	Inbox  DedupeStore
	Logger *slog.Logger
}

func (h *PaymentEventsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt paymentCompletedEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("dropping malformed payment event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
		return nil
	}
	if !strings.HasPrefix(evt.Type, "payment.completed") {
		return nil
	}
	if evt.Data.BookingID == "" || evt.Data.PaymentReference == "" {
		if h.Logger != nil {
			h.Logger.Warn("dropping payment event without booking reference", "event_id", evt.ID)
		}
		return nil
	}

	if h.Inbox != nil && evt.ID != "" {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}

	_, err := commands.Dispatch[bookinghandlers.ConfirmBookingCommand, *bookinghandlers.ConfirmBookingResult](
		ctx, h.Bus, bookinghandlers.ConfirmBookingCommand{
			BookingID:        evt.Data.BookingID,
			PaymentReference: evt.Data.PaymentReference,
		})
	if err != nil {
		if errors.Is(err, domainbooking.ErrAlreadyConfirmed) {
			return nil
		}
		if h.Logger != nil {
			h.Logger.Error("payment event confirmation failed", "booking_id", evt.Data.BookingID, "error", err)
		}
		return err
	}
	return nil
}

var _ MessageHandler = (*PaymentEventsHandler)(nil)
