// Package study generates and persists study artifacts (quizzes, exams,
// concept maps) from the extracted text of completed uploads.
package study

import (
	"context"

	"github.com/google/uuid"

	"github.com/edustack/content-engine/internal/models"
)

// Defaults applied to generation requests that leave fields unset.
const (
	DefaultQuizQuestionCount = 5
	DefaultExamQuestionCount = 10
	DefaultExamTimeLimit     = 60 // minutes
	DefaultExamPassingScore  = 60 // percent
)

// QuizRequest describes one quiz generation call.
type QuizRequest struct {
	SubjectID       *uuid.UUID        `json:"subject_id,omitempty"`
	Title           string            `json:"title"`
	Difficulty      models.Difficulty `json:"difficulty,omitempty"`
	QuestionCount   int               `json:"num_questions,omitempty"`
	TimeLimit       *int              `json:"time_limit,omitempty"`
	SourceUploadIDs []uuid.UUID       `json:"source_upload_ids,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
}

// ExamRequest describes one exam generation call.
type ExamRequest struct {
	SubjectID       *uuid.UUID        `json:"subject_id,omitempty"`
	Title           string            `json:"title"`
	Difficulty      models.Difficulty `json:"difficulty,omitempty"`
	QuestionCount   int               `json:"num_questions,omitempty"`
	TimeLimit       int               `json:"time_limit,omitempty"`
	PassingScore    int               `json:"passing_score,omitempty"`
	SourceUploadIDs []uuid.UUID       `json:"source_upload_ids,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
}

// ConceptMapRequest describes one concept map generation call.
type ConceptMapRequest struct {
	SubjectID       *uuid.UUID  `json:"subject_id,omitempty"`
	Title           string      `json:"title"`
	Description     *string     `json:"description,omitempty"`
	SourceUploadIDs []uuid.UUID `json:"source_upload_ids,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
}

type Service interface {
	// GenerateQuiz assembles content from the caller's completed
	// uploads, generates questions and persists the quiz with them.
	GenerateQuiz(ctx context.Context, userID uuid.UUID, req *QuizRequest) (*models.Quiz, error)
	GetQuiz(ctx context.Context, id, userID uuid.UUID) (*models.Quiz, error)
	ListQuizzes(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Quiz, error)
	DeleteQuiz(ctx context.Context, id, userID uuid.UUID) error

	// GenerateExam works like GenerateQuiz; TotalPoints is recomputed
	// here as the sum of question points.
	GenerateExam(ctx context.Context, userID uuid.UUID, req *ExamRequest) (*models.Exam, error)
	GetExam(ctx context.Context, id, userID uuid.UUID) (*models.Exam, error)
	ListExams(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Exam, error)
	DeleteExam(ctx context.Context, id, userID uuid.UUID) error

	// GenerateConceptMap generates a graph and persists it in two
	// phases: nodes first, then edges resolved through the temp-id map.
	// Edges with an unresolved endpoint are dropped, never stored.
	GenerateConceptMap(ctx context.Context, userID uuid.UUID, req *ConceptMapRequest) (*models.ConceptMap, error)
	GetConceptMap(ctx context.Context, id, userID uuid.UUID) (*models.ConceptMap, error)
	ListConceptMaps(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.ConceptMap, error)
	DeleteConceptMap(ctx context.Context, id, userID uuid.UUID) error
}
