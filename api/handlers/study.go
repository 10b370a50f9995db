package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edustack/content-engine/internal/service/study"
	"github.com/edustack/content-engine/pkg/logger"
)

type StudyHandler struct {
	service study.Service
	logger  logger.Logger
}

func NewStudyHandler(service study.Service, logger logger.Logger) *StudyHandler {
	return &StudyHandler{
		service: service,
		logger:  logger,
	}
}

// GenerateQuiz builds a quiz from the caller's processed uploads.
func (h *StudyHandler) GenerateQuiz(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	var req study.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	quiz, err := h.service.GenerateQuiz(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to generate quiz", err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz returns one quiz with its questions.
func (h *StudyHandler) GetQuiz(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	quizID, ok := pathID(c, h.logger, "quiz")
	if !ok {
		return
	}

	quiz, err := h.service.GetQuiz(c.Request.Context(), quizID, userID)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to get quiz", err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// ListQuizzes returns the caller's quizzes, optionally by subject.
func (h *StudyHandler) ListQuizzes(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	subjectID, ok := querySubjectID(c, h.logger)
	if !ok {
		return
	}

	quizzes, err := h.service.ListQuizzes(c.Request.Context(), userID, subjectID)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to list quizzes", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quizzes": quizzes,
		"count":   len(quizzes),
	})
}

// DeleteQuiz removes a quiz and its questions.
func (h *StudyHandler) DeleteQuiz(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	quizID, ok := pathID(c, h.logger, "quiz")
	if !ok {
		return
	}

	if err := h.service.DeleteQuiz(c.Request.Context(), quizID, userID); err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to delete quiz", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quiz deleted successfully",
		"id":      quizID,
	})
}

// GenerateExam builds an exam from the caller's processed uploads.
func (h *StudyHandler) GenerateExam(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	var req study.ExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	exam, err := h.service.GenerateExam(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to generate exam", err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// GetExam returns one exam with its questions.
func (h *StudyHandler) GetExam(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	examID, ok := pathID(c, h.logger, "exam")
	if !ok {
		return
	}

	exam, err := h.service.GetExam(c.Request.Context(), examID, userID)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to get exam", err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// ListExams returns the caller's exams, optionally by subject.
func (h *StudyHandler) ListExams(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	subjectID, ok := querySubjectID(c, h.logger)
	if !ok {
		return
	}

	exams, err := h.service.ListExams(c.Request.Context(), userID, subjectID)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to list exams", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exams": exams,
		"count": len(exams),
	})
}

// DeleteExam removes an exam and its questions.
func (h *StudyHandler) DeleteExam(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	examID, ok := pathID(c, h.logger, "exam")
	if !ok {
		return
	}

	if err := h.service.DeleteExam(c.Request.Context(), examID, userID); err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to delete exam", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Exam deleted successfully",
		"id":      examID,
	})
}

// GenerateConceptMap builds a concept graph from the caller's uploads.
func (h *StudyHandler) GenerateConceptMap(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	var req study.ConceptMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	conceptMap, err := h.service.GenerateConceptMap(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to generate concept map", err)
		return
	}

	c.JSON(http.StatusCreated, conceptMap)
}

// GetConceptMap returns one concept map with its nodes and edges.
func (h *StudyHandler) GetConceptMap(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	mapID, ok := pathID(c, h.logger, "concept map")
	if !ok {
		return
	}

	conceptMap, err := h.service.GetConceptMap(c.Request.Context(), mapID, userID)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to get concept map", err)
		return
	}

	c.JSON(http.StatusOK, conceptMap)
}

// ListConceptMaps returns the caller's concept maps, optionally by
// subject.
func (h *StudyHandler) ListConceptMaps(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	subjectID, ok := querySubjectID(c, h.logger)
	if !ok {
		return
	}

	maps, err := h.service.ListConceptMaps(c.Request.Context(), userID, subjectID)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to list concept maps", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"concept_maps": maps,
		"count":        len(maps),
	})
}

// DeleteConceptMap removes a concept map with its nodes and edges.
func (h *StudyHandler) DeleteConceptMap(c *gin.Context) {
	userID, ok := currentUser(c, h.logger)
	if !ok {
		return
	}
	mapID, ok := pathID(c, h.logger, "concept map")
	if !ok {
		return
	}

	if err := h.service.DeleteConceptMap(c.Request.Context(), mapID, userID); err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to delete concept map", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Concept map deleted successfully",
		"id":      mapID,
	})
}

// querySubjectID parses the optional subject_id query parameter.
func querySubjectID(c *gin.Context, log logger.Logger) (*uuid.UUID, bool) {
	raw := c.Query("subject_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		handleError(c, log, http.StatusBadRequest, "Invalid subject ID", err)
		return nil, false
	}
	return &id, true
}
