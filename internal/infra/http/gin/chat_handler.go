package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"aqari/internal/app/dto"
	chatsvc "aqari/internal/app/services/chat"
	domainchat "aqari/internal/domain/chat"
	"aqari/internal/domain/property"
	domainuser "aqari/internal/domain/user"
)

// ChatHTTP exposes conversation directory and message ledger endpoints.
type ChatHTTP interface {
	StartConversation(c *gin.Context)
	ListMyConversations(c *gin.Context)
	GetConversation(c *gin.Context)
	ArchiveConversation(c *gin.Context)
	ListMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	MarkMessageRead(c *gin.Context)
}

type ChatHandler struct {
	Service *chatsvc.Service
	Logger  *slog.Logger
}

type startConversationRequest struct {
	PropertyID string `json:"property_id"`
}

// StartConversation gets or creates the thread between the caller and the
// property's owner. 200 when it already existed, 201 when freshly created.
func (h ChatHandler) StartConversation(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.PropertyID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property_id is required"})
		return
	}
	result, err := h.Service.Start(c.Request.Context(), domainuser.ID(p.ID), property.ID(strings.TrimSpace(req.PropertyID)))
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.MapConversation(result.Conversation))
}

func (h ChatHandler) ListMyConversations(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	filter := domainchat.ConversationFilter{
		PropertyID: property.ID(strings.TrimSpace(c.Query("property_id"))),
		IsArchived: strings.EqualFold(c.Query("is_archived"), "true"),
	}
	summaries, err := h.Service.ListConversations(c.Request.Context(), domainuser.ID(p.ID), filter)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

func (h ChatHandler) GetConversation(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	conversation, err := h.Service.Conversation(c.Request.Context(), domainchat.ConversationID(c.Param("id")), domainuser.ID(p.ID))
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapConversation(conversation))
}

type archiveRequest struct {
	IsArchived bool `json:"is_archived"`
}

func (h ChatHandler) ArchiveConversation(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	conversation, err := h.Service.SetArchived(c.Request.Context(), domainchat.ConversationID(c.Param("id")), domainuser.ID(p.ID), req.IsArchived)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapConversation(conversation))
}

// ListMessages returns a chronological page of the ledger.
func (h ChatHandler) ListMessages(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	limit := parsePositiveInt(c.Query("limit"), 50)
	if limit > 100 {
		limit = 100
	}
	offset := parseNonNegativeInt(c.Query("offset"), 0)
	page, err := h.Service.ListMessages(c.Request.Context(), domainchat.ConversationID(c.Param("id")), domainuser.ID(p.ID), limit, offset)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type sendMessageRequest struct {
	Content       string `json:"message_content"`
	Type          string `json:"message_type"`
	AttachmentURL string `json:"attachment_url"`
}

func (h ChatHandler) SendMessage(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	message, err := h.Service.Append(c.Request.Context(), chatsvc.AppendParams{
		ConversationID: domainchat.ConversationID(c.Param("id")),
		SenderID:       domainuser.ID(p.ID),
		Content:        req.Content,
		Type:           domainchat.MessageType(req.Type),
		AttachmentURL:  req.AttachmentURL,
	})
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h ChatHandler) MarkMessageRead(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	message, err := h.Service.MarkRead(c.Request.Context(), domainchat.MessageID(c.Param("id")), domainuser.ID(p.ID))
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, message)
}

func (h ChatHandler) respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, property.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
	case errors.Is(err, domainchat.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
	case errors.Is(err, domainchat.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
	case errors.Is(err, domainchat.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
	case errors.Is(err, domainchat.ErrSelfConversation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a conversation with yourself"})
	case errors.Is(err, domainchat.ErrContentRequired),
		errors.Is(err, domainchat.ErrContentTooLong),
		errors.Is(err, domainchat.ErrInvalidMessageType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("chat operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parsePositiveInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func parseNonNegativeInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

var _ ChatHTTP = (*ChatHandler)(nil)
