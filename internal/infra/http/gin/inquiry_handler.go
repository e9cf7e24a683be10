package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"aqari/internal/app/dto"
	inquirysvc "aqari/internal/app/services/inquiry"
	domaininquiry "aqari/internal/domain/inquiry"
	"aqari/internal/domain/property"
	domainuser "aqari/internal/domain/user"
)

type InquiryHTTP interface {
	Create(c *gin.Context)
	Respond(c *gin.Context)
	ListMine(c *gin.Context)
	ListForProperty(c *gin.Context)
}

type InquiryHandler struct {
	Service *inquirysvc.Service
	Logger  *slog.Logger
}

type createInquiryRequest struct {
	PropertyID        string `json:"property_id"`
	InquiryType       string `json:"inquiry_type"`
	Message           string `json:"message"`
	ContactPreference string `json:"contact_preference"`
	PreferredDate     string `json:"preferred_date"`
}

func (h InquiryHandler) Create(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req createInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	inq, err := h.Service.Create(c.Request.Context(), inquirysvc.CreateParams{
		PropertyID:        property.ID(strings.TrimSpace(req.PropertyID)),
		InquirerID:        domainuser.ID(p.ID),
		Type:              domaininquiry.Type(req.InquiryType),
		Message:           req.Message,
		ContactPreference: domaininquiry.ContactPreference(req.ContactPreference),
		PreferredDate:     req.PreferredDate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapInquiry(inq))
}

type respondInquiryRequest struct {
	Status          *string `json:"status"`
	ResponseMessage *string `json:"response_message"`
}

func (h InquiryHandler) Respond(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req respondInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	params := inquirysvc.RespondParams{
		InquiryID:       domaininquiry.ID(c.Param("id")),
		CallerID:        domainuser.ID(p.ID),
		ResponseMessage: req.ResponseMessage,
	}
	if req.Status != nil {
		status := domaininquiry.Status(*req.Status)
		params.Status = &status
	}
	inq, err := h.Service.Respond(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapInquiry(inq))
}

func (h InquiryHandler) ListMine(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	list, err := h.Service.ListForInquirer(c.Request.Context(), domainuser.ID(p.ID), inquiryFilterFromQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": list})
}

func (h InquiryHandler) ListForProperty(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	list, err := h.Service.ListForProperty(c.Request.Context(), property.ID(c.Param("id")), domainuser.ID(p.ID), inquiryFilterFromQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": list})
}

func inquiryFilterFromQuery(c *gin.Context) inquirysvc.ListFilter {
	var filter inquirysvc.ListFilter
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domaininquiry.Status(raw)
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("inquiry_type")); raw != "" {
		typ := domaininquiry.Type(raw)
		filter.Type = &typ
	}
	return filter
}

func (h InquiryHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, property.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
	case errors.Is(err, domaininquiry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
	case errors.Is(err, domaininquiry.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the property owner"})
	case errors.Is(err, domaininquiry.ErrNoFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
	case errors.Is(err, domaininquiry.ErrMessageRequired),
		errors.Is(err, domaininquiry.ErrInvalidType),
		errors.Is(err, domaininquiry.ErrInvalidStatus),
		errors.Is(err, domaininquiry.ErrInvalidContactChannel):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("inquiry operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ InquiryHTTP = (*InquiryHandler)(nil)
