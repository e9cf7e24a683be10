package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"aqari/internal/app/dto"
	domainuser "aqari/internal/domain/user"
)

type UserHTTP interface {
	Get(c *gin.Context)
}

type UserHandler struct {
	Users  domainuser.Repository
	Logger *slog.Logger
}

// Get returns the public profile of any registered user.
func (h UserHandler) Get(c *gin.Context) {
	if _, ok := requireAuth(c); !ok {
		return
	}
	user, err := h.Users.ByID(c.Request.Context(), domainuser.ID(c.Param("id")))
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if h.Logger != nil {
			h.Logger.Error("user lookup failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, dto.MapPublicProfile(user))
}

var _ UserHTTP = (*UserHandler)(nil)
