package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"homekrypto/internal/app/commands"
	"homekrypto/internal/app/middleware"
	"homekrypto/internal/app/outbox"
	"homekrypto/internal/app/policies"
	"homekrypto/internal/app/uow"
	domainbooking "homekrypto/internal/domain/booking"
	domainexchange "homekrypto/internal/domain/exchange"
	domainpricing "homekrypto/internal/domain/pricing"
	domainproperty "homekrypto/internal/domain/property"
	domainrange "homekrypto/internal/domain/shared/daterange"
	"homekrypto/internal/domain/shared/money"
	domainuser "homekrypto/internal/domain/user"
)

const createBookingKey = "booking.create"

// Settlement selects how a booking is paid for.
const (
	SettlementCard  = "card"
	SettlementToken = "token"
)

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	ErrSettlementInvalid  = errors.New("booking: unknown settlement method")
	ErrTxHashRequired     = errors.New("booking: transaction hash required for token settlement")
)

type CreateBookingCommand struct {
	CommandID       string
	UserID          string
	PropertyID      string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	Currency        string
	Settlement      string
	TxHash          string
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.UserID) == "" {
		return domainbooking.ErrUserRequired
	}
	settlement := strings.ToLower(strings.TrimSpace(c.Settlement))
	if settlement != SettlementCard && settlement != SettlementToken {
		return ErrSettlementInvalid
	}
	if settlement == SettlementToken && strings.TrimSpace(c.TxHash) == "" {
		return ErrTxHashRequired
	}
	return nil
}

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

type CreateBookingResult struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	Total       int64  `json:"total"`
	Currency    string `json:"currency"`
}

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Rates      domainexchange.Source
	Payments   policies.PaymentsPort
	Verifier   policies.TransactionVerifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

// Handle creates a booking from a server-recomputed quote. Card settlements
// stay pending until the payment webhook confirms them; token settlements
// verify the transfer hash and confirm in the same transaction.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
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

	if err := cmd.Validate(ctx); err != nil {
		return nil, err
	}
	settlement := strings.ToLower(strings.TrimSpace(cmd.Settlement))
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if currency == "" {
		currency = money.USD
		if settlement == SettlementToken {
			currency = money.HKT
		}
	}

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}

	prop, err := unit.Properties().ByID(ctx, domainproperty.ID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	if err := domainpricing.ValidateGuests(prop, cmd.Guests); err != nil {
		return nil, err
	}

	quote, err := serverQuote(ctx, prop, unit.Shares(), h.Rates, domainuser.ID(cmd.UserID), dr, currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bkg, err := domainbooking.New(domainbooking.CreateParams{
		ID:         domainbooking.ID(cmd.CommandID),
		UserID:     domainuser.ID(cmd.UserID),
		PropertyID: prop.ID,
		Range:      dr,
		Guests:     cmd.Guests,
		Quote:      quote,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	result := &CreateBookingResult{
		BookingID: string(bkg.ID),
		Total:     bkg.ChargedTotal().Amount,
		Currency:  bkg.Currency,
	}

	switch settlement {
	case SettlementCard:
		session, err := h.Payments.CreateCheckout(ctx, string(bkg.ID), bkg.ChargedTotal())
		if err != nil {
			return nil, err
		}
		result.CheckoutURL = session.RedirectURL
		result.SessionID = session.ID
	case SettlementToken:
		txHash := strings.TrimSpace(cmd.TxHash)
		if err := h.Verifier.VerifyTransfer(ctx, txHash, bkg.ChargedTotal()); err != nil {
			return nil, err
		}
		if err := bkg.Confirm(txHash, now); err != nil {
			return nil, err
		}
		claimFreeWeek(ctx, unit.Shares(), bkg, now, h.Logger)
	}
	result.Status = string(bkg.Status)

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

	return result, nil
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
