package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"homekrypto/internal/app/dto"
	pricingapp "homekrypto/internal/app/handlers/pricing"
	"homekrypto/internal/app/queries"
)

type PricingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type calculatePriceRequest struct {
	PropertyID string    `json:"propertyId"`
	CheckIn    time.Time `json:"checkIn"`
	CheckOut   time.Time `json:"checkOut"`
	Currency   string    `json:"currency"`
	Guests     int       `json:"guests"`
}

// CalculatePrice quotes a stay. Authentication is optional: a signed-in
// share holder sees their free-week discount applied, everyone else gets
// plain pricing.
func (h PricingHandler) CalculatePrice(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "queries unavailable"})
		return
	}
	var req calculatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	query := pricingapp.CalculatePriceQuery{
		PropertyID: req.PropertyID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Currency:   req.Currency,
		Guests:     req.Guests,
	}
	if user, ok := currentPrincipal(c); ok {
		query.UserID = user.ID
	}
	result, err := queries.Ask[pricingapp.CalculatePriceQuery, dto.QuoteDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		renderError(c, h.Logger, err, "property_id", req.PropertyID)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PricingHTTP = PricingHandler{}
