package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainbooking "homekrypto/internal/domain/booking"
	domainexchange "homekrypto/internal/domain/exchange"
	domainpricing "homekrypto/internal/domain/pricing"
	domainproperty "homekrypto/internal/domain/property"
	domainrange "homekrypto/internal/domain/shared/daterange"
	bookingapp "homekrypto/internal/app/handlers/booking"
)

// renderError maps domain failures to HTTP responses with human-readable
// messages. Anything unmapped is a collaborator failure: logged with context,
// answered with a generic 500 that leaks nothing.
func renderError(c *gin.Context, logger *slog.Logger, err error, logCtx ...any) {
	var minStay domainpricing.MinimumStayError
	if errors.As(err, &minStay) {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Minimum %d-night stay required", minStay.Required)})
		return
	}

	switch {
	case errors.Is(err, domainrange.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date range"})
	case errors.Is(err, domainpricing.ErrGuestCountInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid guest count"})
	case errors.Is(err, domainpricing.ErrPropertyUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Property is not available for booking"})
	case errors.Is(err, bookingapp.ErrSettlementInvalid), errors.Is(err, bookingapp.ErrTxHashRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payment details"})
	case errors.Is(err, domainbooking.ErrPaymentReferenceRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payment details"})
	case errors.Is(err, domainbooking.ErrUserRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": "User is required"})
	case errors.Is(err, domainbooking.ErrAlreadyConfirmed):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Booking is already confirmed"})
	case errors.Is(err, domainbooking.ErrAlreadyCanceled):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Booking is already canceled"})
	case errors.Is(err, domainbooking.ErrCancellationWindowClosed):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot cancel booking after check-in date"})
	case errors.Is(err, domainbooking.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"message": "You do not own this booking"})
	case errors.Is(err, domainbooking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Booking not found"})
	case errors.Is(err, domainproperty.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Property not found"})
	case errors.Is(err, domainexchange.ErrRateUnavailable):
		if logger != nil {
			logger.Error("exchange rate unavailable", logCtx...)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Exchange rate is currently unavailable"})
	default:
		if logger != nil {
			logger.Error("request failed", append(logCtx, "error", err)...)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
	}
}
