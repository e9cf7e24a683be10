package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"aqari/internal/app/dto"
	notifysvc "aqari/internal/app/services/notify"
	"aqari/internal/domain/notification"
	domainuser "aqari/internal/domain/user"
)

type NotificationHTTP interface {
	List(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkAllRead(c *gin.Context)
}

type NotificationHandler struct {
	Service *notifysvc.Service
	Logger  *slog.Logger
}

// List returns the caller's feed plus the unfiltered unread count.
func (h NotificationHandler) List(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	filter := notification.ListFilter{Limit: parsePositiveInt(c.Query("limit"), 20)}
	if raw := strings.TrimSpace(c.Query("is_read")); raw != "" {
		isRead := strings.EqualFold(raw, "true")
		filter.IsRead = &isRead
	}
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		typ, err := notification.ParseType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification type"})
			return
		}
		filter.Type = &typ
	}
	feed, err := h.Service.Feed(c.Request.Context(), domainuser.ID(p.ID), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h NotificationHandler) MarkRead(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	n, err := h.Service.MarkRead(c.Request.Context(), notification.ID(c.Param("id")), domainuser.ID(p.ID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapNotification(n))
}

func (h NotificationHandler) MarkAllRead(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if err := h.Service.MarkAllRead(c.Request.Context(), domainuser.ID(p.ID)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

func (h NotificationHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notification.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
	default:
		if h.Logger != nil {
			h.Logger.Error("notification operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ NotificationHTTP = (*NotificationHandler)(nil)
