package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"aqari/internal/infra/storage/s3"
)

const maxUploadBytes = 10 << 20

type UploadHTTP interface {
	Upload(c *gin.Context)
}

// UploadHandler stores chat attachments and profile photos, returning the
// public URL to embed in messages.
type UploadHandler struct {
	Uploader s3.Uploader
	Logger   *slog.Logger
}

func (h UploadHandler) Upload(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads unavailable"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds 10MB"})
		return
	}

	ext := strings.ToLower(path.Ext(header.Filename))
	key := fmt.Sprintf("attachments/%s/%d-%s%s", p.ID, time.Now().UnixNano(), uuid.NewString(), ext)
	contentType := header.Header.Get("Content-Type")

	url, err := h.Uploader.Upload(c.Request.Context(), key, file, contentType)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("attachment upload failed", "user_id", p.ID, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

var _ UploadHTTP = (*UploadHandler)(nil)
