package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/edustack/content-engine/api/handlers"
	"github.com/edustack/content-engine/api/middleware"
)

// SetupRoutes wires every endpoint. The health probe stays open;
// everything under /api/v1 requires a bearer token.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, auth *middleware.AuthMiddleware) {
	r.Use(middleware.CORS())

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	v1.Use(auth.RequireAuth())

	uploads := v1.Group("/uploads")
	{
		uploads.POST("", h.Upload.Upload)
		uploads.GET("", h.Upload.List)
		uploads.GET("/:id", h.Upload.Get)
		uploads.GET("/:id/status", h.Upload.Status)
		uploads.POST("/:id/reprocess", h.Upload.Reprocess)
		uploads.DELETE("/:id", h.Upload.Delete)
	}

	tasks := v1.Group("/tasks")
	{
		tasks.GET("/:id", h.Upload.TaskStatus)
		tasks.DELETE("/:id", h.Upload.CancelTask)
	}

	quizzes := v1.Group("/quizzes")
	{
		quizzes.POST("/generate", h.Study.GenerateQuiz)
		quizzes.GET("", h.Study.ListQuizzes)
		quizzes.GET("/:id", h.Study.GetQuiz)
		quizzes.DELETE("/:id", h.Study.DeleteQuiz)
	}

	exams := v1.Group("/exams")
	{
		exams.POST("/generate", h.Study.GenerateExam)
		exams.GET("", h.Study.ListExams)
		exams.GET("/:id", h.Study.GetExam)
		exams.DELETE("/:id", h.Study.DeleteExam)
	}

	conceptMaps := v1.Group("/concept-maps")
	{
		conceptMaps.POST("/generate", h.Study.GenerateConceptMap)
		conceptMaps.GET("", h.Study.ListConceptMaps)
		conceptMaps.GET("/:id", h.Study.GetConceptMap)
		conceptMaps.DELETE("/:id", h.Study.DeleteConceptMap)
	}
}
