package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionType tags the correct-answer encoding of a question.
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"   // CorrectIndex
	QuestionMultipleChoice QuestionType = "multiple_choice" // CorrectIndices
	QuestionOpen           QuestionType = "open"            // CorrectText
)

// Difficulty of generated questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// GeneratedQuestion is the generator's in-memory output, before any
// persistence. Exactly one of the correct-answer fields is meaningful,
// selected by Type.
type GeneratedQuestion struct {
	Type           QuestionType `json:"type"`
	Prompt         string       `json:"question"`
	Options        []string     `json:"options,omitempty"`
	CorrectIndex   int          `json:"correct_answer,omitempty"`
	CorrectIndices []int        `json:"correct_answers,omitempty"`
	CorrectText    string       `json:"correct_text,omitempty"`
	Explanation    string       `json:"explanation,omitempty"`
	Difficulty     Difficulty   `json:"difficulty"`
	Points         int          `json:"points"`
	AIGenerated    bool         `json:"ai_generated"`
}

// CorrectAnswerJSON encodes the type-tagged correct answer for storage.
func (q *GeneratedQuestion) CorrectAnswerJSON() (datatypes.JSON, error) {
	var v any
	switch q.Type {
	case QuestionSingleChoice:
		v = q.CorrectIndex
	case QuestionMultipleChoice:
		v = q.CorrectIndices
	case QuestionOpen:
		v = q.CorrectText
	default:
		return nil, fmt.Errorf("unknown question type: %s", q.Type)
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode correct answer: %w", err)
	}
	return datatypes.JSON(encoded), nil
}

// Quiz groups generated questions for practice.
type Quiz struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_quiz_user" json:"user_id"`
	SubjectID *uuid.UUID `gorm:"type:uuid" json:"subject_id,omitempty"`

	Title       string         `gorm:"column:title;size:255;not null" json:"title"`
	Difficulty  Difficulty     `gorm:"column:difficulty;size:50;default:medium" json:"difficulty"`
	TimeLimit   *int           `gorm:"column:time_limit" json:"time_limit,omitempty"` // minutes
	IsActive    bool           `gorm:"column:is_active;default:true" json:"is_active"`
	Description *string        `gorm:"column:description" json:"description,omitempty"`
	Tags        datatypes.JSON `gorm:"column:tags" json:"tags,omitempty"`

	Questions []QuizQuestion `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID" json:"questions,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Quiz) TableName() string { return "quizzes" }

// QuizQuestion is one persisted question. CorrectAnswer holds the
// type-tagged encoding as JSON: an index, a list of indices, or text.
type QuizQuestion struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID uuid.UUID `gorm:"type:uuid;not null;index:idx_quiz_question_quiz" json:"quiz_id"`

	Type          QuestionType   `gorm:"column:type;size:50;not null" json:"type"`
	Question      string         `gorm:"column:question;not null" json:"question"`
	Options       datatypes.JSON `gorm:"column:options" json:"options"`
	CorrectAnswer datatypes.JSON `gorm:"column:correct_answer" json:"correct_answer"`
	Explanation   *string        `gorm:"column:explanation" json:"explanation,omitempty"`
	Difficulty    Difficulty     `gorm:"column:difficulty;size:50;default:medium" json:"difficulty"`
	Points        int            `gorm:"column:points;default:1" json:"points"`

	SourceUploadID *uuid.UUID `gorm:"type:uuid;index:idx_quiz_question_upload" json:"source_upload_id,omitempty"`

	AIGenerated bool `gorm:"column:ai_generated;default:false" json:"ai_generated"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (QuizQuestion) TableName() string { return "quiz_questions" }

// Exam is a graded question set; TotalPoints is the sum of question
// points, recomputed by the caller whenever the set changes.
type Exam struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_exam_user" json:"user_id"`
	SubjectID *uuid.UUID `gorm:"type:uuid" json:"subject_id,omitempty"`

	Title        string         `gorm:"column:title;size:255;not null" json:"title"`
	Difficulty   Difficulty     `gorm:"column:difficulty;size:50;default:medium" json:"difficulty"`
	TimeLimit    int            `gorm:"column:time_limit;not null;default:60" json:"time_limit"` // minutes
	TotalPoints  int            `gorm:"column:total_points;default:0" json:"total_points"`
	PassingScore int            `gorm:"column:passing_score;default:60" json:"passing_score"` // percent
	IsActive     bool           `gorm:"column:is_active;default:true" json:"is_active"`
	Description  *string        `gorm:"column:description" json:"description,omitempty"`
	Instructions *string        `gorm:"column:instructions" json:"instructions,omitempty"`
	Tags         datatypes.JSON `gorm:"column:tags" json:"tags,omitempty"`

	Questions []ExamQuestion `gorm:"constraint:OnDelete:CASCADE;foreignKey:ExamID" json:"questions,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Exam) TableName() string { return "exams" }

// ExamQuestion mirrors QuizQuestion but allows open questions, where
// Options stays null and CorrectAnswer holds free text.
type ExamQuestion struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExamID uuid.UUID `gorm:"type:uuid;not null;index:idx_exam_question_exam" json:"exam_id"`

	Type          QuestionType   `gorm:"column:type;size:50;not null" json:"type"`
	Question      string         `gorm:"column:question;not null" json:"question"`
	Options       datatypes.JSON `gorm:"column:options" json:"options,omitempty"`
	CorrectAnswer datatypes.JSON `gorm:"column:correct_answer" json:"correct_answer,omitempty"`
	Explanation   *string        `gorm:"column:explanation" json:"explanation,omitempty"`
	Difficulty    Difficulty     `gorm:"column:difficulty;size:50;default:medium" json:"difficulty"`
	Points        int            `gorm:"column:points;default:1" json:"points"`

	SourceUploadID *uuid.UUID `gorm:"type:uuid;index:idx_exam_question_upload" json:"source_upload_id,omitempty"`

	AIGenerated bool `gorm:"column:ai_generated;default:false" json:"ai_generated"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ExamQuestion) TableName() string { return "exam_questions" }
