package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"aqari/internal/app/dto"
	"aqari/internal/domain/property"
)

type PropertyHTTP interface {
	Get(c *gin.Context)
}

type PropertyHandler struct {
	Directory property.Directory
	Logger    *slog.Logger
}

func (h PropertyHandler) Get(c *gin.Context) {
	prop, err := h.Directory.ByID(c.Request.Context(), property.ID(c.Param("id")))
	if err != nil {
		if errors.Is(err, property.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		if h.Logger != nil {
			h.Logger.Error("property lookup failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, dto.MapProperty(prop))
}

var _ PropertyHTTP = (*PropertyHandler)(nil)
