package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"homekrypto/internal/app/policies"
	"homekrypto/internal/domain/shared/money"
)

// PaymentsStub satisfies the payments port for dev mode: every checkout and
// refund succeeds immediately, with enough bookkeeping for tests to assert on.
type PaymentsStub struct {
	mu       sync.Mutex
	Sessions map[string]money.Money
	Refunds  map[string]money.Money
}

func NewPaymentsStub() *PaymentsStub {
	return &PaymentsStub{
		Sessions: make(map[string]money.Money),
		Refunds:  make(map[string]money.Money),
	}
}

func (p *PaymentsStub) CreateCheckout(ctx context.Context, bookingID string, amount money.Money) (policies.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := "cs_" + uuid.NewString()
	p.Sessions[id] = amount
	return policies.CheckoutSession{
		ID:          id,
		RedirectURL: "https://checkout.invalid/session/" + id,
	}, nil
}

func (p *PaymentsStub) Refund(ctx context.Context, paymentReference string, amount money.Money) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Refunds[paymentReference] = amount
	return nil
}

// VerifierStub accepts any hex-looking transaction hash.
type VerifierStub struct{}

func (VerifierStub) VerifyTransfer(ctx context.Context, txHash string, expected money.Money) error {
	if strings.TrimSpace(txHash) == "" {
		return policies.ErrTransferNotVerified
	}
	return nil
}

var (
	_ policies.PaymentsPort        = (*PaymentsStub)(nil)
	_ policies.TransactionVerifier = VerifierStub{}
)
