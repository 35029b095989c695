package policies

import (
	"context"
	"errors"

	"homekrypto/internal/domain/shared/money"
)

var ErrTransferNotVerified = errors.New("policies: token transfer not verified")

// TransactionVerifier checks that an HKT transfer referenced by its
// transaction hash settled the expected amount. Bookings paid in HKT confirm
// synchronously once the hash verifies.
type TransactionVerifier interface {
	VerifyTransfer(ctx context.Context, txHash string, expected money.Money) error
}
