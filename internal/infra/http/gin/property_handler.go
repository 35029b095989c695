package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homekrypto/internal/app/dto"
	propertiesapp "homekrypto/internal/app/handlers/properties"
	"homekrypto/internal/app/queries"
)

type PropertyHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h PropertyHandler) List(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "queries unavailable"})
		return
	}
	result, err := queries.Ask[propertiesapp.ListPropertiesQuery, dto.PropertyCollection](c.Request.Context(), h.Queries, propertiesapp.ListPropertiesQuery{})
	if err != nil {
		renderError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "queries unavailable"})
		return
	}
	query := propertiesapp.GetPropertyQuery{PropertyID: c.Param("id")}
	result, err := queries.Ask[propertiesapp.GetPropertyQuery, dto.PropertyDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		renderError(c, h.Logger, err, "property_id", query.PropertyID)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PropertyHTTP = PropertyHandler{}
