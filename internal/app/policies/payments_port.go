package policies

import (
	"context"

	"homekrypto/internal/domain/shared/money"
)

// CheckoutSession is the external card-payment handle for a pending booking.
// Completion arrives later through the payment webhook.
type CheckoutSession struct {
	ID          string
	RedirectURL string
}

// PaymentsPort fronts the card payment provider. Only session creation and
// refund submission are modeled; gateway internals stay outside the service.
type PaymentsPort interface {
	CreateCheckout(ctx context.Context, bookingID string, amount money.Money) (CheckoutSession, error)
	Refund(ctx context.Context, paymentReference string, amount money.Money) error
}
