package shares

import (
	"context"
	"errors"

	"homekrypto/internal/domain/property"
	"homekrypto/internal/domain/user"
)

var (
	// ErrFreeWeekAlreadyUsed reports a lost conditional claim: another
	// confirmation consumed the benefit first.
	ErrFreeWeekAlreadyUsed = errors.New("shares: free week already used")
)

// Ownership is the aggregate share position of one user in one property, as
// reported by the token ledger. The booking core never writes share counts;
// it only consumes them and claims the one-time free-week benefit.
type Ownership struct {
	UserID          user.ID
	PropertyID      property.ID
	SharesOwned     int
	HasUsedFreeWeek bool
}

func (o Ownership) HasShares() bool {
	return o.SharesOwned > 0
}

// Ledger is the collaborator holding share positions and the per
// (user, property) free-week flag.
//
// MarkFreeWeekUsed must be a conditional write: it flips the flag only when
// it is currently unset and returns ErrFreeWeekAlreadyUsed when another
// caller won the race. Calling it again after a successful flip reports the
// same error, which callers treat as "already consumed" rather than failure.
type Ledger interface {
	Ownership(ctx context.Context, userID user.ID, propertyID property.ID) (Ownership, error)
	MarkFreeWeekUsed(ctx context.Context, userID user.ID, propertyID property.ID) error
}
