package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notevault/notevault/internal/notes"
	"github.com/notevault/notevault/internal/storage"
	"github.com/notevault/notevault/pkg/logger"
	"github.com/notevault/notevault/pkg/middleware"
)

const maxAttachmentSize = 10 << 20 // 10 MiB

type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// NoteHandler exposes the note CRUD plus attachment endpoints. storage
// may be nil, in which case attachment routes answer 503.
type NoteHandler struct {
	notes   *notes.Service
	storage *storage.AttachmentStore
}

func NewNoteHandler(n *notes.Service, s *storage.AttachmentStore) *NoteHandler {
	return &NoteHandler{notes: n, storage: s}
}

func (h *NoteHandler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	n := rg.Group("/notes", requireAuth)
	n.POST("", h.Create)
	n.GET("", h.List)
	n.GET("/:id", h.Get)
	n.PATCH("/:id", h.Update)
	n.DELETE("/:id", h.Delete)
	n.POST("/:id/attachment", h.UploadAttachment)
	n.GET("/:id/attachment", h.AttachmentURL)
	n.GET("/:id/attachment/content", h.DownloadAttachment)
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authCtx := middleware.FromContext(c)
	n, err := h.notes.Create(c.Request.Context(), authCtx.User.ID, req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NoteHandler) List(c *gin.Context) {
	authCtx := middleware.FromContext(c)
	page, limit := pageQuery(c)
	result, err := h.notes.List(c.Request.Context(), authCtx.User.ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *NoteHandler) Get(c *gin.Context) {
	authCtx := middleware.FromContext(c)
	n, err := h.notes.Get(c.Request.Context(), authCtx.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NoteHandler) Update(c *gin.Context) {
	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authCtx := middleware.FromContext(c)
	n, err := h.notes.Update(c.Request.Context(), authCtx.User.ID, c.Param("id"), req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	authCtx := middleware.FromContext(c)
	key, err := h.notes.Delete(c.Request.Context(), authCtx.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if key != "" && h.storage != nil {
		if err := h.storage.Remove(c.Request.Context(), key); err != nil {
			logger.Warnf("failed to remove attachment %s: %v", key, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "note deleted"})
}

// UploadAttachment accepts a multipart file and stores it under a
// per-user key, replacing any previous attachment on the note.
func (h *NoteHandler) UploadAttachment(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attachment storage not configured"})
		return
	}
	authCtx := middleware.FromContext(c)
	noteID := c.Param("id")

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	if file.Size > maxAttachmentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "attachment too large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	defer src.Close()

	key := fmt.Sprintf("%s/%s/%d%s", authCtx.User.ID, noteID, time.Now().UnixNano(), filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")
	if err := h.storage.Upload(c.Request.Context(), key, src, file.Size, contentType); err != nil {
		logger.Errorf("attachment upload failed for note %s: %v", noteID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	n, prevKey, err := h.notes.SetAttachment(c.Request.Context(), authCtx.User.ID, noteID, key)
	if err != nil {
		// the note refused the attachment; don't leave the object behind
		if rmErr := h.storage.Remove(c.Request.Context(), key); rmErr != nil {
			logger.Warnf("failed to clean up orphaned attachment %s: %v", key, rmErr)
		}
		respondError(c, err)
		return
	}
	if prevKey != "" {
		if err := h.storage.Remove(c.Request.Context(), prevKey); err != nil {
			logger.Warnf("failed to remove replaced attachment %s: %v", prevKey, err)
		}
	}
	c.JSON(http.StatusOK, n)
}

// AttachmentURL returns a short-lived presigned download URL.
func (h *NoteHandler) AttachmentURL(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attachment storage not configured"})
		return
	}
	authCtx := middleware.FromContext(c)
	n, err := h.notes.Get(c.Request.Context(), authCtx.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if n.AttachmentKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "note has no attachment"})
		return
	}
	url, err := h.storage.PresignedURL(c.Request.Context(), n.AttachmentKey, 15*time.Minute)
	if err != nil {
		logger.Errorf("presign failed for %s: %v", n.AttachmentKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create download link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": 900})
}

// DownloadAttachment streams the attachment through the service, for
// clients that cannot follow a presigned URL.
func (h *NoteHandler) DownloadAttachment(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attachment storage not configured"})
		return
	}
	authCtx := middleware.FromContext(c)
	n, err := h.notes.Get(c.Request.Context(), authCtx.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if n.AttachmentKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "note has no attachment"})
		return
	}
	reader, size, contentType, err := h.storage.Download(c.Request.Context(), n.AttachmentKey)
	if err != nil {
		logger.Errorf("download failed for %s: %v", n.AttachmentKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read attachment"})
		return
	}
	defer reader.Close()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, size, contentType, reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filepath.Base(n.AttachmentKey)),
	})
}
