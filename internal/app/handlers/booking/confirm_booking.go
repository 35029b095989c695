package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"homekrypto/internal/app/commands"
	"homekrypto/internal/app/outbox"
	"homekrypto/internal/app/uow"
	domainbooking "homekrypto/internal/domain/booking"
)

const confirmBookingKey = "booking.confirm"

type ConfirmBookingCommand struct {
	BookingID        string
	PaymentReference string
}

func (c ConfirmBookingCommand) Key() string { return confirmBookingKey }

func (c ConfirmBookingCommand) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.BookingID) == "" {
		return domainbooking.ErrNotFound
	}
	if strings.TrimSpace(c.PaymentReference) == "" {
		return domainbooking.ErrPaymentReferenceRequired
	}
	return nil
}

type ConfirmBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// ConfirmBookingHandler settles a pending booking. It is fed by the payment
// webhook and by the payment-events consumer, both of which may redeliver;
// an already-confirmed booking surfaces as ErrAlreadyConfirmed and callers
// decide whether that is terminal.
type ConfirmBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBookingCommand) (*ConfirmBookingResult, error) {
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
	if err := bkg.Confirm(cmd.PaymentReference, now); err != nil {
		return nil, err
	}

	// The ledger claim runs after the state transition succeeds; its failure
	// modes never roll the confirmation back.
	claimFreeWeek(ctx, unit.Shares(), bkg, now, h.Logger)

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

	return &ConfirmBookingResult{BookingID: string(bkg.ID), Status: string(bkg.Status)}, nil
}

func (h *ConfirmBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[ConfirmBookingCommand, *ConfirmBookingResult] = (*ConfirmBookingHandler)(nil)
