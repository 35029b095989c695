package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homekrypto/internal/app/commands"
	bookingapp "homekrypto/internal/app/handlers/booking"
	"homekrypto/internal/domain/shared/money"
)

type BookingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	PropertyID string    `json:"propertyId"`
	CheckIn    time.Time `json:"checkIn"`
	CheckOut   time.Time `json:"checkOut"`
	Guests     int       `json:"guests"`
	Currency   string    `json:"currency"`
	TxHash     string    `json:"txHash"`
}

// CreateStripe opens a card checkout; the booking stays pending until the
// payment webhook confirms it.
func (h BookingHandler) CreateStripe(c *gin.Context) {
	h.create(c, bookingapp.SettlementCard)
}

// CreateHKT settles from an on-chain transfer; the booking confirms in the
// same request once the transaction hash verifies.
func (h BookingHandler) CreateHKT(c *gin.Context) {
	h.create(c, bookingapp.SettlementToken)
}

func (h BookingHandler) create(c *gin.Context, settlement string) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	currency := req.Currency
	if settlement == bookingapp.SettlementToken && currency == "" {
		currency = money.HKT
	}
	cmd := bookingapp.CreateBookingCommand{
		CommandID:       uuid.NewString(),
		UserID:          user.ID,
		PropertyID:      req.PropertyID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		Currency:        currency,
		Settlement:      settlement,
		TxHash:          req.TxHash,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, h.Logger, err, "user_id", user.ID, "property_id", req.PropertyID)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"booking": result,
		"message": "Booking created",
	})
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "commands unavailable"})
		return
	}
	bookingID := c.Param("id")
	cmd := bookingapp.CancelBookingCommand{
		BookingID: bookingID,
		UserID:    user.ID,
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, h.Logger, err, "user_id", user.ID, "booking_id", bookingID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Booking canceled",
		"refundAmount":  result.RefundAmount,
		"refundMessage": "50% refund will be processed",
		"currency":      result.Currency,
	})
}

var _ BookingHTTP = BookingHandler{}
