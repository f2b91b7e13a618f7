package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatroom-service/internal/blobstore"
	"chatroom-service/internal/media"
	"chatroom-service/internal/middleware"
	"chatroom-service/internal/observability"
	"chatroom-service/internal/telemetry"
)

// MediaHandler manages media upload and retrieval endpoints.
type MediaHandler struct {
	pipeline *media.Pipeline
	store    blobstore.Store
	audit    *telemetry.AuditEmitter
}

// NewMediaHandler constructs a MediaHandler.
func NewMediaHandler(pipeline *media.Pipeline, store blobstore.Store, audit *telemetry.AuditEmitter) *MediaHandler {
	return &MediaHandler{pipeline: pipeline, store: store, audit: audit}
}

// Upload handles POST /chats/:chat_id/media. The multipart field is "img".
func (h *MediaHandler) Upload(c *gin.Context) {
	proof, ok := middleware.ProofFromContext(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "missing membership proof"})
		return
	}

	fileHeader, err := c.FormFile("img")
	if err != nil {
		observability.IncMediaUpload("rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "you must specify a file to upload"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		observability.IncMediaUpload("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		observability.IncMediaUpload("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read upload"})
		return
	}

	key, err := h.pipeline.Ingest(c.Request.Context(), proof.ChatID, data, fileHeader.Header.Get("Content-Type"))
	switch {
	case err == nil:
	case errors.Is(err, media.ErrMissingFile):
		observability.IncMediaUpload("rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "you must specify a file to upload"})
		return
	case errors.Is(err, media.ErrUnsupportedType):
		observability.IncMediaUpload("rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an image"})
		return
	default:
		observability.IncMediaUpload("error")
		h.emitAudit(c, "chat.media_upload_failed", "ERROR", "blob store failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	observability.IncMediaUpload("accepted")
	h.emitAudit(c, "chat.media_uploaded", "INFO", "media stored under "+key)
	c.JSON(http.StatusCreated, gin.H{"file_name": key})
}

// Serve handles GET /media/:key for public-read blobs.
func (h *MediaHandler) Serve(c *gin.Context) {
	key := c.Param("key")

	data, meta, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load media"})
		return
	}
	if !meta.PublicRead {
		c.JSON(http.StatusForbidden, gin.H{"error": "media is not public"})
		return
	}

	c.Data(http.StatusOK, meta.ContentType, data)
}

func (h *MediaHandler) emitAudit(c *gin.Context, eventType, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), eventType, level, text, requestIDFromContext(c), usernameFromContext(c))
}
