package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homekrypto/internal/app/dto"
	sharesapp "homekrypto/internal/app/handlers/shares"
	"homekrypto/internal/app/queries"
)

type SharesHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h SharesHandler) UserShares(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "queries unavailable"})
		return
	}
	query := sharesapp.UserSharesQuery{
		UserID:     user.ID,
		PropertyID: c.Param("propertyId"),
	}
	result, err := queries.Ask[sharesapp.UserSharesQuery, dto.UserSharesDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		renderError(c, h.Logger, err, "user_id", user.ID, "property_id", query.PropertyID)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ SharesHTTP = SharesHandler{}
