package ginserver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homekrypto/internal/app/commands"
	bookingapp "homekrypto/internal/app/handlers/booking"
	domainbooking "homekrypto/internal/domain/booking"
)

const webhookSecret = "test-secret"

func webhookRouter(t *testing.T, handle func(cmd bookingapp.ConfirmBookingCommand) (*bookingapp.ConfirmBookingResult, error)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, bookingapp.ConfirmBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.ConfirmBookingCommand, *bookingapp.ConfirmBookingResult](
			func(ctx context.Context, cmd bookingapp.ConfirmBookingCommand) (*bookingapp.ConfirmBookingResult, error) {
				return handle(cmd)
			}))

	router := gin.New()
	router.POST("/webhooks/payment", WebhookHandler{Commands: bus, Secret: webhookSecret}.PaymentCompleted)
	return router
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(router *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookConfirmsBooking(t *testing.T) {
	var received bookingapp.ConfirmBookingCommand
	router := webhookRouter(t, func(cmd bookingapp.ConfirmBookingCommand) (*bookingapp.ConfirmBookingResult, error) {
		received = cmd
		return &bookingapp.ConfirmBookingResult{BookingID: cmd.BookingID, Status: "confirmed"}, nil
	})

	body := `{"bookingId":"bkg-1","paymentReference":"cs_test_789"}`
	rec := postWebhook(router, body, sign(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bkg-1", received.BookingID)
	assert.Equal(t, "cs_test_789", received.PaymentReference)
}

func TestWebhookAcceptsPrefixedSignature(t *testing.T) {
	router := webhookRouter(t, func(cmd bookingapp.ConfirmBookingCommand) (*bookingapp.ConfirmBookingResult, error) {
		return &bookingapp.ConfirmBookingResult{BookingID: cmd.BookingID, Status: "confirmed"}, nil
	})

	body := `{"bookingId":"bkg-1","paymentReference":"cs_test_789"}`
	rec := postWebhook(router, body, "sha256="+sign(body))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	called := false
	router := webhookRouter(t, func(cmd bookingapp.ConfirmBookingCommand) (*bookingapp.ConfirmBookingResult, error) {
		called = true
		return nil, nil
	})

	body := `{"bookingId":"bkg-1","paymentReference":"cs_test_789"}`

	rec := postWebhook(router, body, sign(body+"tampered"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postWebhook(router, body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	router := webhookRouter(t, func(cmd bookingapp.ConfirmBookingCommand) (*bookingapp.ConfirmBookingResult, error) {
		return nil, nil
	})

	body := `{"bookingId":"","paymentReference":""}`
	rec := postWebhook(router, body, sign(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRedeliveryIsOk(t *testing.T) {
	router := webhookRouter(t, func(cmd bookingapp.ConfirmBookingCommand) (*bookingapp.ConfirmBookingResult, error) {
		return nil, domainbooking.ErrAlreadyConfirmed
	})

	body := `{"bookingId":"bkg-1","paymentReference":"cs_test_789"}`
	rec := postWebhook(router, body, sign(body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already confirmed")
}
