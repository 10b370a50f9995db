package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edustack/content-engine/api/middleware"
	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/internal/service/ingest"
	"github.com/edustack/content-engine/internal/service/study"
	"github.com/edustack/content-engine/pkg/logger"
)

type Handlers struct {
	Upload *UploadHandler
	Study  *StudyHandler
}

func NewHandlers(
	ingestService ingest.Service,
	studyService study.Service,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Upload: NewUploadHandler(ingestService, logger),
		Study:  NewStudyHandler(studyService, logger),
	}
}

// Health reports liveness for load balancers and deploy probes.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ErrorResponse is the uniform error body for every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleError logs the failure and writes the uniform error body.
func handleError(c *gin.Context, log logger.Logger, status int, message string, err error) {
	log.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}

// statusFor maps service errors onto HTTP statuses: input rejections
// become 422, missing rows 404, everything else 500.
func statusFor(err error) int {
	switch {
	case models.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// currentUser pulls the authenticated user out of the request context,
// answering 401 itself when the middleware never ran.
func currentUser(c *gin.Context, log logger.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, log, http.StatusUnauthorized, "Authentication required", nil)
	}
	return userID, ok
}

// pathID parses the :id route parameter, answering 400 on garbage.
func pathID(c *gin.Context, log logger.Logger, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, log, http.StatusBadRequest, "Invalid "+what+" ID", err)
		return uuid.Nil, false
	}
	return id, true
}
