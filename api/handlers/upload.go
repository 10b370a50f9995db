package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/internal/service/ingest"
	"github.com/edustack/content-engine/pkg/logger"
	"github.com/edustack/content-engine/pkg/queue"
)

type UploadHandler struct {
	service ingest.Service
	logger  logger.Logger
}

func NewUploadHandler(service ingest.Service, logger logger.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger,
	}
}

// IngestResponse acknowledges an accepted submission. The upload is in
// its processing state; poll the task or the upload status to follow it.
type IngestResponse struct {
	Upload *models.Upload `json:"upload"`
	TaskID string         `json:"task_id"`
}

// ReprocessRequest is the optional body of a reprocess call.
type ReprocessRequest struct {
	Force bool `json:"force"`
}

// Upload accepts one multipart file and schedules its processing.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	var subjectID *uuid.UUID
	if raw := c.PostForm("subject_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			handleError(c, h.logger, http.StatusBadRequest, "Invalid subject ID", err)
			return
		}
		subjectID = &id
	}

	receipt, err := h.service.Ingest(c.Request.Context(), &ingest.Request{
		UserID:       userID,
		SubjectID:    subjectID,
		Filename:     header.Filename,
		DeclaredKind: c.PostForm("kind"),
		SizeBytes:    header.Size,
		Body:         file,
	})
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to accept upload", err)
		return
	}

	c.JSON(http.StatusAccepted, IngestResponse{
		Upload: receipt.Upload,
		TaskID: receipt.TaskID,
	})
}

// List returns the caller's uploads, optionally scoped to a subject.
func (h *UploadHandler) List(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	subjectID, ok := querySubjectID(c, h.logger)
	if !ok {
		return
	}

	uploads, err := h.service.List(c.Request.Context(), userID, subjectID)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to list uploads", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploads": uploads,
		"count":   len(uploads),
	})
}

// Get returns one upload with its full processing result.
func (h *UploadHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	uploadID, ok := pathID(c, h.logger, "upload")
	if !ok {
		return
	}

	upload, err := h.service.Get(c.Request.Context(), uploadID, userID)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to get upload", err)
		return
	}

	c.JSON(http.StatusOK, upload)
}

// Status returns the polling view of one upload.
func (h *UploadHandler) Status(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	uploadID, ok := pathID(c, h.logger, "upload")
	if !ok {
		return
	}

	status, err := h.service.Status(c.Request.Context(), uploadID, userID)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to get upload status", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Reprocess schedules another processing attempt. Without force only
// failed uploads qualify; force re-runs any upload from scratch.
func (h *UploadHandler) Reprocess(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	uploadID, ok := pathID(c, h.logger, "upload")
	if !ok {
		return
	}

	var req ReprocessRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	receipt, err := h.service.Reprocess(c.Request.Context(), uploadID, userID, req.Force)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to reprocess upload", err)
		return
	}

	c.JSON(http.StatusAccepted, IngestResponse{
		Upload: receipt.Upload,
		TaskID: receipt.TaskID,
	})
}

// Delete removes the upload record and its stored file.
func (h *UploadHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	uploadID, ok := pathID(c, h.logger, "upload")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), uploadID, userID); err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to delete upload", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Upload deleted successfully",
		"id":      uploadID,
	})
}

// TaskStatus reports queue-level progress for one processing task.
func (h *UploadHandler) TaskStatus(c *gin.Context) {
	if _, ok := currentUser(c, h.logger); !ok {
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		handleError(c, h.logger, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	status, err := h.service.TaskStatus(c.Request.Context(), taskID)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, queue.ErrTaskNotFound) {
			code = http.StatusNotFound
		}
		handleError(c, h.logger, code, "Failed to get task status", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// CancelTask removes a task that has not started running yet.
func (h *UploadHandler) CancelTask(c *gin.Context) {
	if _, ok := currentUser(c, h.logger); !ok {
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		handleError(c, h.logger, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	if err := h.service.CancelTask(c.Request.Context(), taskID); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, queue.ErrTaskNotFound) {
			code = http.StatusNotFound
		}
		handleError(c, h.logger, code, "Failed to cancel task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task cancelled successfully",
		"task_id": taskID,
	})
}
