package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"homekrypto/internal/app/commands"
	"homekrypto/internal/app/outbox"
	"homekrypto/internal/app/policies"
	"homekrypto/internal/app/uow"
	domainbooking "homekrypto/internal/domain/booking"
	"homekrypto/internal/domain/shared/money"
	domainuser "homekrypto/internal/domain/user"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string
	UserID    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.BookingID) == "" {
		return domainbooking.ErrNotFound
	}
	if strings.TrimSpace(c.UserID) == "" {
		return domainbooking.ErrUserRequired
	}
	return nil
}

type CancelBookingResult struct {
	BookingID    string `json:"booking_id"`
	RefundAmount int64  `json:"refund_amount"`
	Currency     string `json:"currency"`
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

// Handle cancels a booking before check-in, recording a refund of exactly
// half the charged total. The refund submission to the card provider is
// best-effort: the cancellation stands even when the provider call fails,
// and the failure is logged for manual follow-up.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	bkg, err := unit.Bookings().ByID(ctx, domainbooking.ID(cmd.BookingID))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wasConfirmed := bkg.Status == domainbooking.StatusConfirmed
	paymentRef := bkg.PaymentReference

	refund, err := bkg.Cancel(domainuser.ID(cmd.UserID), now)
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, bkg); err != nil {
		return nil, err
	}

	pending := bkg.PendingEvents()
	bkg.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if wasConfirmed && h.Payments != nil && bkg.Currency != money.HKT {
		if err := h.Payments.Refund(ctx, paymentRef, refund); err != nil && h.Logger != nil {
			h.Logger.Error("refund submission failed",
				"booking_id", bkg.ID, "user_id", bkg.UserID, "amount", refund.Amount, "error", err)
		}
	}

	return &CancelBookingResult{
		BookingID:    string(bkg.ID),
		RefundAmount: refund.Amount,
		Currency:     refund.Currency,
	}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
