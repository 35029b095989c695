package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainbooking "homekrypto/internal/domain/booking"
	domainshares "homekrypto/internal/domain/shares"
)

// claimFreeWeek consumes the one-time benefit after a booking is confirmed.
// A lost race flags the booking for reconciliation instead of failing the
// confirmation; ledger I/O errors are logged and the booking stays confirmed.
// Returns true when the booking was mutated and needs another save.
func claimFreeWeek(ctx context.Context, ledger domainshares.Ledger, b *domainbooking.Booking, now time.Time, logger *slog.Logger) bool {
	if !b.IsFreeWeek || ledger == nil {
		return false
	}
	err := ledger.MarkFreeWeekUsed(ctx, b.UserID, b.PropertyID)
	if err == nil {
		return false
	}
	if errors.Is(err, domainshares.ErrFreeWeekAlreadyUsed) {
		b.FlagReconciliation(now)
		return true
	}
	if logger != nil {
		logger.Error("free week ledger write failed",
			"booking_id", b.ID, "user_id", b.UserID, "property_id", b.PropertyID, "error", err)
	}
	return false
}
