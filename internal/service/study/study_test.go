package study

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/edustack/content-engine/internal/ai"
	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/internal/repository"
	"github.com/edustack/content-engine/internal/repository/testutil"
	"github.com/edustack/content-engine/pkg/logger"
)

const sourceText = "Photosynthesis converts light energy into chemical energy. " +
	"Chlorophyll absorbs light inside the chloroplasts of plant cells. " +
	"Glucose is produced during the process and stored for later use."

// newStudyService runs the service against a transaction-scoped
// database with a client-less generator, so every question and graph
// comes from the deterministic path.
func newStudyService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	tx := testutil.Tx(t, testutil.DB(t))
	log := logger.NewTestLogger()
	return NewService(tx, ai.NewGenerator(nil, log), log), tx
}

// seedSource persists a completed upload whose extracted text feeds
// generation.
func seedSource(t *testing.T, tx *gorm.DB, userID uuid.UUID, text string) *models.Upload {
	t.Helper()
	repo := repository.NewUploadRepo(tx, logger.NewTestLogger())
	ctx := context.Background()

	u := &models.Upload{
		UserID:     userID,
		Filename:   "bio.txt",
		Kind:       models.KindText,
		StorageKey: "uploads/" + uuid.NewString() + ".txt",
		SizeBytes:  int64(len(text)),
		Status:     models.StatusProcessing,
	}
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.ReplaceProcessingResult(ctx, u.ID,
		&models.ExtractionResult{Text: text},
		&models.ContentMetadata{Summary: "photosynthesis notes", Language: "en"},
	))
	return u
}

func TestGenerateQuiz_PersistsQuizWithQuestions(t *testing.T) {
	svc, tx := newStudyService(t)
	ctx := context.Background()
	userID := uuid.New()
	src := seedSource(t, tx, userID, sourceText)

	timeLimit := 30
	quiz, err := svc.GenerateQuiz(ctx, userID, &QuizRequest{
		Title:           "Photosynthesis check",
		TimeLimit:       &timeLimit,
		SourceUploadIDs: []uuid.UUID{src.ID},
		Tags:            []string{"biology", "plants"},
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, quiz.ID)
	assert.Equal(t, models.DifficultyMedium, quiz.Difficulty, "difficulty defaults")
	assert.True(t, quiz.IsActive)
	require.NotNil(t, quiz.TimeLimit)
	assert.Equal(t, 30, *quiz.TimeLimit)
	assert.JSONEq(t, `["biology","plants"]`, string(quiz.Tags))

	// Three source sentences qualify, so the deterministic path yields
	// three questions even though the default count is five.
	require.Len(t, quiz.Questions, 3)
	for _, q := range quiz.Questions {
		assert.Equal(t, models.QuestionSingleChoice, q.Type)
		assert.Equal(t, 1, q.Points)
		assert.False(t, q.AIGenerated)
		assert.JSONEq(t, `0`, string(q.CorrectAnswer))
		var options []string
		require.NoError(t, json.Unmarshal(q.Options, &options))
		assert.Len(t, options, 4)
	}
	assert.Contains(t, quiz.Questions[0].Question, "Photosynthesis")

	reloaded, err := svc.GetQuiz(ctx, quiz.ID, userID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Questions, 3)
}

func TestGenerateQuiz_TitleRequired(t *testing.T) {
	svc, tx := newStudyService(t)
	userID := uuid.New()
	src := seedSource(t, tx, userID, sourceText)

	_, err := svc.GenerateQuiz(context.Background(), userID, &QuizRequest{
		Title:           "   ",
		SourceUploadIDs: []uuid.UUID{src.ID},
	})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	assert.Contains(t, err.Error(), "title is required")
}

func TestGenerateQuiz_CountOutOfRange(t *testing.T) {
	svc, tx := newStudyService(t)
	userID := uuid.New()
	src := seedSource(t, tx, userID, sourceText)

	_, err := svc.GenerateQuiz(context.Background(), userID, &QuizRequest{
		Title:           "Too big",
		QuestionCount:   80,
		SourceUploadIDs: []uuid.UUID{src.ID},
	})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	assert.Contains(t, err.Error(), "between 1 and 50")
}

func TestGenerateQuiz_NoUsableContent(t *testing.T) {
	svc, tx := newStudyService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.GenerateQuiz(ctx, userID, &QuizRequest{Title: "Empty"})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	assert.Contains(t, err.Error(), "No content available for quiz generation")

	// A still-processing upload contributes nothing.
	repo := repository.NewUploadRepo(tx, logger.NewTestLogger())
	pending := &models.Upload{
		UserID:     userID,
		Filename:   "pending.txt",
		Kind:       models.KindText,
		StorageKey: "uploads/" + uuid.NewString() + ".txt",
		SizeBytes:  10,
		Status:     models.StatusProcessing,
	}
	require.NoError(t, repo.Create(ctx, pending))

	_, err = svc.GenerateQuiz(ctx, userID, &QuizRequest{
		Title:           "Pending only",
		SourceUploadIDs: []uuid.UUID{pending.ID},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No content available for quiz generation")
}

func TestGenerateQuiz_SkipsForeignUploads(t *testing.T) {
	svc, tx := newStudyService(t)
	ctx := context.Background()
	userID := uuid.New()

	foreign := seedSource(t, tx, uuid.New(), sourceText)

	_, err := svc.GenerateQuiz(ctx, userID, &QuizRequest{
		Title:           "Not mine",
		SourceUploadIDs: []uuid.UUID{foreign.ID},
	})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}

func TestGenerateExam_AppliesDefaultsAndTotalPoints(t *testing.T) {
	svc, tx := newStudyService(t)
	ctx := context.Background()
	userID := uuid.New()
	src := seedSource(t, tx, userID, sourceText)

	exam, err := svc.GenerateExam(ctx, userID, &ExamRequest{
		Title:           "Photosynthesis exam",
		SourceUploadIDs: []uuid.UUID{src.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, models.DifficultyMedium, exam.Difficulty)
	assert.Equal(t, DefaultExamTimeLimit, exam.TimeLimit)
	assert.Equal(t, DefaultExamPassingScore, exam.PassingScore)
	require.Len(t, exam.Questions, 3)
	assert.Equal(t, 3, exam.TotalPoints, "one point per deterministic question")

	reloaded, err := svc.GetExam(ctx, exam.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.TotalPoints)
	assert.Len(t, reloaded.Questions, 3)
}

func TestGenerateExam_NoUsableContent(t *testing.T) {
	svc, _ := newStudyService(t)

	_, err := svc.GenerateExam(context.Background(), uuid.New(), &ExamRequest{Title: "Empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No content available for exam generation")
}

func TestGenerateConceptMap_PersistsGraph(t *testing.T) {
	svc, tx := newStudyService(t)
	ctx := context.Background()
	userID := uuid.New()
	src := seedSource(t, tx, userID, sourceText)

	desc := "map of the photosynthesis chapter"
	cm, err := svc.GenerateConceptMap(ctx, userID, &ConceptMapRequest{
		Title:           "Photosynthesis map",
		Description:     &desc,
		SourceUploadIDs: []uuid.UUID{src.ID},
	})
	require.NoError(t, err)

	require.Len(t, cm.Nodes, 10, "deterministic graph caps at ten concepts")
	require.Len(t, cm.Edges, 9)

	for i, n := range cm.Nodes {
		assert.Equal(t, cm.ID, n.ConceptMapID)
		assert.NotEqual(t, uuid.Nil, n.ID)
		if i < 3 {
			assert.Equal(t, models.NodeTypeMain, n.Type)
		} else {
			assert.Equal(t, models.NodeTypeSub, n.Type)
		}
	}
	assert.InDelta(t, 0.0, cm.Nodes[0].X, 1e-9)
	assert.InDelta(t, 100.0, cm.Nodes[4].X, 1e-9)
	assert.InDelta(t, 100.0, cm.Nodes[4].Y, 1e-9)

	for _, e := range cm.Edges {
		assert.Equal(t, models.RelationDirect, e.Type)
		assert.InDelta(t, 0.5, e.Strength, 1e-9)
		require.NotNil(t, e.Label)
		assert.Equal(t, "related to", *e.Label)
	}

	reloaded, err := svc.GetConceptMap(ctx, cm.ID, userID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Nodes, 10)
	assert.Len(t, reloaded.Edges, 9)
	require.NotNil(t, reloaded.Description)
	assert.Equal(t, desc, *reloaded.Description)
}

func TestGenerateConceptMap_TitleRequired(t *testing.T) {
	svc, _ := newStudyService(t)

	_, err := svc.GenerateConceptMap(context.Background(), uuid.New(), &ConceptMapRequest{})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}

func TestDeleteQuiz_ScopesByOwner(t *testing.T) {
	svc, tx := newStudyService(t)
	ctx := context.Background()
	userID := uuid.New()
	src := seedSource(t, tx, userID, sourceText)

	quiz, err := svc.GenerateQuiz(ctx, userID, &QuizRequest{
		Title:           "Mine",
		SourceUploadIDs: []uuid.UUID{src.ID},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteQuiz(ctx, quiz.ID, uuid.New()), gorm.ErrRecordNotFound)
	require.NoError(t, svc.DeleteQuiz(ctx, quiz.ID, userID))

	_, err = svc.GetQuiz(ctx, quiz.ID, userID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestToExamQuestions_SumsPoints(t *testing.T) {
	questions, total, err := toExamQuestions([]models.GeneratedQuestion{
		{Type: models.QuestionSingleChoice, Prompt: "A?", Options: []string{"a", "b"}, CorrectIndex: 1, Difficulty: models.DifficultyEasy, Points: 2},
		{Type: models.QuestionOpen, Prompt: "B?", CorrectText: "answer", Difficulty: models.DifficultyHard, Points: 3},
	})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, 5, total)
	assert.JSONEq(t, `1`, string(questions[0].CorrectAnswer))
	assert.JSONEq(t, `"answer"`, string(questions[1].CorrectAnswer))
	assert.Empty(t, questions[1].Options)
}

func TestToQuizQuestions_RejectsUnknownType(t *testing.T) {
	_, err := toQuizQuestions([]models.GeneratedQuestion{
		{Type: "essay", Prompt: "?", Difficulty: models.DifficultyEasy, Points: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown question type")
}

func TestBuildGraphRows_RemapsTempIDsAndDropsDangling(t *testing.T) {
	mapID := uuid.New()
	graph := &models.ConceptGraph{
		Nodes: []models.GraphNode{
			{TempID: "a", Label: "Energy", Type: models.NodeTypeMain, X: 1, Y: 2},
			{TempID: "b", Label: "Glucose", Type: models.NodeTypeSub, Color: "#FF0000", Description: "sugar"},
		},
		Edges: []models.GraphEdge{
			{FromTempID: "a", ToTempID: "b", Relation: models.RelationCausal, Strength: 0.7, Label: "produces"},
			{FromTempID: "a", ToTempID: "ghost", Relation: models.RelationDirect, Strength: 1},
		},
	}

	nodes, connections, dropped := buildGraphRows(mapID, graph)
	require.Len(t, nodes, 2)
	require.Len(t, connections, 1)
	assert.Equal(t, 1, dropped)

	assert.Equal(t, models.DefaultNodeColor, nodes[0].Color, "empty color falls back")
	assert.Equal(t, "#FF0000", nodes[1].Color)
	assert.Nil(t, nodes[0].Description)
	require.NotNil(t, nodes[1].Description)

	conn := connections[0]
	assert.Equal(t, mapID, conn.ConceptMapID)
	assert.Equal(t, nodes[0].ID, conn.FromNodeID)
	assert.Equal(t, nodes[1].ID, conn.ToNodeID)
	assert.Equal(t, models.RelationCausal, conn.Type)
}

func TestEncodeTags(t *testing.T) {
	assert.Nil(t, encodeTags(nil))
	assert.Nil(t, encodeTags([]string{}))
	assert.JSONEq(t, `["a","b"]`, string(encodeTags([]string{"a", "b"})))
}
