// internal/handlers/upload.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/depot-app/depot-backend/internal/middleware"
	"github.com/depot-app/depot-backend/internal/services"
	"github.com/depot-app/depot-backend/internal/utils"
)

// multipartOverhead is the slack allowed on top of the file cap for the
// multipart framing and other form fields.
const multipartOverhead = 64 * 1024

type UploadHandler struct {
	uploadService *services.UploadService
	maxSizeBytes  int64
}

func NewUploadHandler(uploadService *services.UploadService, maxSizeBytes int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxSizeBytes: maxSizeBytes}
}

// GET /uploads
func (h *UploadHandler) ListUploads(c *gin.Context) {
	actor := middleware.GetActor(c)

	uploads, err := h.uploadService.List(actor)
	if err != nil {
		respondServiceError(c, err, "Upload")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count":   len(uploads),
		"uploads": uploads,
	})
}

// POST /uploads
func (h *UploadHandler) UploadFile(c *gin.Context) {
	actor := middleware.GetActor(c)

	// Bound the request before parsing the form so an oversized body is
	// refused instead of buffered.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSizeBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				"File exceeds the maximum allowed size", nil)
			return
		}
		utils.BadRequestResponse(c, "No file provided", err.Error())
		return
	}

	if fileHeader.Size > h.maxSizeBytes {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			"File exceeds the maximum allowed size", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Unreadable file", err.Error())
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		utils.BadRequestResponse(c, "Unreadable file", err.Error())
		return
	}

	upload, err := h.uploadService.Upload(actor, fileHeader.Filename, content,
		fileHeader.Header.Get("Content-Type"), c.ClientIP())
	if err != nil {
		respondServiceError(c, err, "Upload")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "File uploaded",
		"upload":  upload,
	})
}

// GET /uploads/:id/download
//
// The path id is the metadata row; the stored blob name is resolved from
// the database, never from client input. The original filename is only the
// suggested display name.
func (h *UploadHandler) DownloadFile(c *gin.Context) {
	actor := middleware.GetActor(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid upload ID", nil)
		return
	}

	upload, content, err := h.uploadService.Download(actor, id)
	if err != nil {
		respondServiceError(c, err, "Upload")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", upload.OriginalFilename))
	contentType := upload.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, content)
}

// DELETE /uploads/:id
func (h *UploadHandler) DeleteFile(c *gin.Context) {
	actor := middleware.GetActor(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid upload ID", nil)
		return
	}

	warning, err := h.uploadService.Delete(actor, id, c.ClientIP())
	if err != nil {
		respondServiceError(c, err, "Upload")
		return
	}

	if warning != "" {
		utils.SuccessResponseWithWarning(c, gin.H{"message": "File deleted"}, warning)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "File deleted",
	})
}
