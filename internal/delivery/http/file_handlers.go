package http

import (
	"io"
	"net/http"
	"strconv"

	"coursehub-backend/internal/domain"
	"coursehub-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ========== FILE HANDLERS ==========

// UploadFile stores a content asset (slide, document, cover image) in the
// file store and returns its serving URL.
func (h *Handler) UploadFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	var courseID uint
	if raw := c.PostForm("course_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course_id"})
			return
		}
		courseID = uint(v)
	}

	stored, err := h.FileStore.Save(c.Request.Context(), file, header, domain.FileMeta{
		UploadedBy: getUserID(c),
		CourseID:   courseID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, stored)
}

// ServeFile streams a stored file back to the client.
func (h *Handler) ServeFile(c *gin.Context) {
	stream, info, err := h.FileStore.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", info.ContentType)
	c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	c.Header("Content-Disposition", `inline; filename="`+info.OriginalName+`"`)

	if _, err := io.Copy(c.Writer, stream); err != nil {
		logger.Log.Warn("file stream interrupted", zap.String("file_id", c.Param("id")), zap.Error(err))
	}
}

// DeleteFile removes a stored file. Only the uploader or an admin may delete.
func (h *Handler) DeleteFile(c *gin.Context) {
	info, err := h.FileStore.Stat(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if getUserRole(c) != domain.RoleAdmin && info.UploadedBy != getUserID(c) {
		respondError(c, domain.Forbiddenf("file %s was uploaded by another user", c.Param("id")))
		return
	}

	if err := h.FileStore.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}
