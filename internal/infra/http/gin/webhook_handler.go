package ginserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"homekrypto/internal/app/commands"
	bookingapp "homekrypto/internal/app/handlers/booking"
	domainbooking "homekrypto/internal/domain/booking"
)

const signatureHeader = "X-Payment-Signature"

// WebhookHandler consumes signed payment-completion callbacks. The signature
// is HMAC-SHA256 over the raw body with the shared secret; anything unsigned
// or mis-signed gets a 401 before the payload is even parsed.
type WebhookHandler struct {
	Commands commands.Bus
	Secret   string
	Logger   *slog.Logger
}

type paymentWebhookPayload struct {
	BookingID        string `json:"bookingId"`
	PaymentReference string `json:"paymentReference"`
}

func (h WebhookHandler) PaymentCompleted(c *gin.Context) {
	if h.Secret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "webhook not configured"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if !h.verifySignature(body, c.GetHeader(signatureHeader)) {
		if h.Logger != nil {
			h.Logger.Warn("rejected webhook with bad signature", "remote", c.ClientIP())
		}
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid signature"})
		return
	}

	var payload paymentWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.BookingID == "" || payload.PaymentReference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	cmd := bookingapp.ConfirmBookingCommand{
		BookingID:        payload.BookingID,
		PaymentReference: payload.PaymentReference,
	}
	result, err := commands.Dispatch[bookingapp.ConfirmBookingCommand, *bookingapp.ConfirmBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		// A redelivered completion for an already-confirmed booking is success
		// from the provider's point of view.
		if errors.Is(err, domainbooking.ErrAlreadyConfirmed) {
			c.JSON(http.StatusOK, gin.H{"message": "Booking already confirmed"})
			return
		}
		renderError(c, h.Logger, err, "booking_id", payload.BookingID)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h WebhookHandler) verifySignature(body []byte, header string) bool {
	header = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "sha256="))
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(header)))
}

var _ WebhookHTTP = WebhookHandler{}
