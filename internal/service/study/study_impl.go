package study

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/edustack/content-engine/config"
	"github.com/edustack/content-engine/internal/ai"
	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/internal/repository"
	"github.com/edustack/content-engine/internal/utils/validator"
	"github.com/edustack/content-engine/pkg/logger"
)

type studyService struct {
	db        *gorm.DB
	uploads   repository.UploadRepo
	quizzes   repository.QuizRepo
	exams     repository.ExamRepo
	maps      repository.ConceptMapRepo
	generator *ai.Generator
	logger    logger.Logger
}

func NewService(db *gorm.DB, generator *ai.Generator, log logger.Logger) Service {
	return &studyService{
		db:        db,
		uploads:   repository.NewUploadRepo(db, log),
		quizzes:   repository.NewQuizRepo(db, log),
		exams:     repository.NewExamRepo(db, log),
		maps:      repository.NewConceptMapRepo(db, log),
		generator: generator,
		logger:    log.Named("study"),
	}
}

// GetService wires the service from process configuration.
func GetService(db *gorm.DB, log logger.Logger) (Service, error) {
	client, err := ai.NewClient(context.Background(), config.GetAIConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("initialize ai client: %w", err)
	}
	return NewService(db, ai.NewGenerator(client, log), log), nil
}

func (s *studyService) GenerateQuiz(ctx context.Context, userID uuid.UUID, req *QuizRequest) (*models.Quiz, error) {
	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyMedium
	}
	if req.QuestionCount == 0 {
		req.QuestionCount = DefaultQuizQuestionCount
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, models.NewValidationError("title is required")
	}
	if err := validator.ValidateGeneration(req.QuestionCount, req.Difficulty); err != nil {
		return nil, err
	}

	content, err := s.sourceContent(ctx, userID, req.SourceUploadIDs, "quiz")
	if err != nil {
		return nil, err
	}

	generated, err := s.generator.GenerateQuestions(ctx, content, req.Difficulty, req.QuestionCount)
	if err != nil {
		return nil, err
	}

	questions, err := toQuizQuestions(generated)
	if err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		UserID:     userID,
		SubjectID:  req.SubjectID,
		Title:      req.Title,
		Difficulty: req.Difficulty,
		TimeLimit:  req.TimeLimit,
		IsActive:   true,
		Tags:       encodeTags(req.Tags),
		Questions:  questions,
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("persist quiz: %w", err)
	}

	s.logger.Info("quiz generated",
		logger.String("quiz_id", quiz.ID.String()),
		logger.Int("questions", len(quiz.Questions)),
		logger.String("difficulty", string(req.Difficulty)),
	)
	return quiz, nil
}

func (s *studyService) GetQuiz(ctx context.Context, id, userID uuid.UUID) (*models.Quiz, error) {
	return s.quizzes.GetForUser(ctx, id, userID)
}

func (s *studyService) ListQuizzes(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Quiz, error) {
	return s.quizzes.ListForUser(ctx, userID, subjectID)
}

func (s *studyService) DeleteQuiz(ctx context.Context, id, userID uuid.UUID) error {
	return s.quizzes.Delete(ctx, id, userID)
}

func (s *studyService) GenerateExam(ctx context.Context, userID uuid.UUID, req *ExamRequest) (*models.Exam, error) {
	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyMedium
	}
	if req.QuestionCount == 0 {
		req.QuestionCount = DefaultExamQuestionCount
	}
	if req.TimeLimit == 0 {
		req.TimeLimit = DefaultExamTimeLimit
	}
	if req.PassingScore == 0 {
		req.PassingScore = DefaultExamPassingScore
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, models.NewValidationError("title is required")
	}
	if err := validator.ValidateGeneration(req.QuestionCount, req.Difficulty); err != nil {
		return nil, err
	}

	content, err := s.sourceContent(ctx, userID, req.SourceUploadIDs, "exam")
	if err != nil {
		return nil, err
	}

	generated, err := s.generator.GenerateQuestions(ctx, content, req.Difficulty, req.QuestionCount)
	if err != nil {
		return nil, err
	}

	questions, totalPoints, err := toExamQuestions(generated)
	if err != nil {
		return nil, err
	}

	exam := &models.Exam{
		UserID:       userID,
		SubjectID:    req.SubjectID,
		Title:        req.Title,
		Difficulty:   req.Difficulty,
		TimeLimit:    req.TimeLimit,
		TotalPoints:  totalPoints,
		PassingScore: req.PassingScore,
		IsActive:     true,
		Tags:         encodeTags(req.Tags),
		Questions:    questions,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("persist exam: %w", err)
	}

	s.logger.Info("exam generated",
		logger.String("exam_id", exam.ID.String()),
		logger.Int("questions", len(exam.Questions)),
		logger.Int("total_points", totalPoints),
	)
	return exam, nil
}

func (s *studyService) GetExam(ctx context.Context, id, userID uuid.UUID) (*models.Exam, error) {
	return s.exams.GetForUser(ctx, id, userID)
}

func (s *studyService) ListExams(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Exam, error) {
	return s.exams.ListForUser(ctx, userID, subjectID)
}

func (s *studyService) DeleteExam(ctx context.Context, id, userID uuid.UUID) error {
	return s.exams.Delete(ctx, id, userID)
}

func (s *studyService) GenerateConceptMap(ctx context.Context, userID uuid.UUID, req *ConceptMapRequest) (*models.ConceptMap, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, models.NewValidationError("title is required")
	}

	content, err := s.sourceContent(ctx, userID, req.SourceUploadIDs, "concept map")
	if err != nil {
		return nil, err
	}

	graph, err := s.generator.GenerateConceptGraph(ctx, content)
	if err != nil {
		return nil, err
	}

	conceptMap := &models.ConceptMap{
		ID:          uuid.New(),
		UserID:      userID,
		SubjectID:   req.SubjectID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        encodeTags(req.Tags),
	}

	nodes, connections, dropped := buildGraphRows(conceptMap.ID, graph)
	if dropped > 0 {
		s.logger.Warn("dropped edges with unresolved endpoints",
			logger.String("concept_map_id", conceptMap.ID.String()),
			logger.Int("dropped", dropped),
		)
	}

	// Nodes must exist before edges reference them; both phases commit
	// together or not at all.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewConceptMapRepo(tx, s.logger)
		if err := repo.Create(ctx, conceptMap); err != nil {
			return err
		}
		if err := repo.CreateNodes(ctx, nodes); err != nil {
			return err
		}
		return repo.CreateConnections(ctx, connections)
	})
	if err != nil {
		return nil, fmt.Errorf("persist concept map: %w", err)
	}

	conceptMap.Nodes = make([]models.ConceptNode, len(nodes))
	for i, n := range nodes {
		conceptMap.Nodes[i] = *n
	}
	conceptMap.Edges = make([]models.ConceptConnection, len(connections))
	for i, c := range connections {
		conceptMap.Edges[i] = *c
	}

	s.logger.Info("concept map generated",
		logger.String("concept_map_id", conceptMap.ID.String()),
		logger.Int("nodes", len(conceptMap.Nodes)),
		logger.Int("edges", len(conceptMap.Edges)),
	)
	return conceptMap, nil
}

func (s *studyService) GetConceptMap(ctx context.Context, id, userID uuid.UUID) (*models.ConceptMap, error) {
	return s.maps.GetForUser(ctx, id, userID)
}

func (s *studyService) ListConceptMaps(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.ConceptMap, error) {
	return s.maps.ListForUser(ctx, userID, subjectID)
}

func (s *studyService) DeleteConceptMap(ctx context.Context, id, userID uuid.UUID) error {
	return s.maps.Delete(ctx, id, userID)
}

// sourceContent concatenates the extracted text of the caller's
// completed uploads. Only completed uploads with non-empty text
// contribute; nothing usable is a ValidationError.
func (s *studyService) sourceContent(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, artifact string) (string, error) {
	uploads, err := s.uploads.ListByIDsForUser(ctx, ids, userID)
	if err != nil {
		return "", fmt.Errorf("load source uploads: %w", err)
	}

	var b strings.Builder
	for _, u := range uploads {
		if u.Status != models.StatusCompleted || u.ExtractedText == nil {
			continue
		}
		if strings.TrimSpace(*u.ExtractedText) == "" {
			continue
		}
		b.WriteString(*u.ExtractedText)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "", models.NewValidationError("No content available for %s generation", artifact)
	}
	return b.String(), nil
}

func toQuizQuestions(generated []models.GeneratedQuestion) ([]models.QuizQuestion, error) {
	questions := make([]models.QuizQuestion, 0, len(generated))
	for _, g := range generated {
		answer, err := g.CorrectAnswerJSON()
		if err != nil {
			return nil, err
		}
		questions = append(questions, models.QuizQuestion{
			Type:          g.Type,
			Question:      g.Prompt,
			Options:       encodeOptions(g.Options),
			CorrectAnswer: answer,
			Explanation:   optionalString(g.Explanation),
			Difficulty:    g.Difficulty,
			Points:        g.Points,
			AIGenerated:   g.AIGenerated,
		})
	}
	return questions, nil
}

func toExamQuestions(generated []models.GeneratedQuestion) ([]models.ExamQuestion, int, error) {
	questions := make([]models.ExamQuestion, 0, len(generated))
	totalPoints := 0
	for _, g := range generated {
		answer, err := g.CorrectAnswerJSON()
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, models.ExamQuestion{
			Type:          g.Type,
			Question:      g.Prompt,
			Options:       encodeOptions(g.Options),
			CorrectAnswer: answer,
			Explanation:   optionalString(g.Explanation),
			Difficulty:    g.Difficulty,
			Points:        g.Points,
			AIGenerated:   g.AIGenerated,
		})
		totalPoints += g.Points
	}
	return questions, totalPoints, nil
}

// buildGraphRows turns a generated graph into persisted rows scoped to
// one map, remapping temp ids to fresh uuids. Edges whose endpoints do
// not resolve are dropped; the count of dropped edges is returned.
func buildGraphRows(mapID uuid.UUID, graph *models.ConceptGraph) ([]*models.ConceptNode, []*models.ConceptConnection, int) {
	nodes := make([]*models.ConceptNode, 0, len(graph.Nodes))
	idByTemp := make(map[string]uuid.UUID, len(graph.Nodes))
	for _, n := range graph.Nodes {
		color := n.Color
		if color == "" {
			color = models.DefaultNodeColor
		}
		node := &models.ConceptNode{
			ID:           uuid.New(),
			ConceptMapID: mapID,
			Label:        n.Label,
			X:            n.X,
			Y:            n.Y,
			Type:         n.Type,
			Color:        color,
			Description:  optionalString(n.Description),
			Examples:     encodeOptions(n.Examples),
			AIGenerated:  n.AIGenerated,
		}
		idByTemp[n.TempID] = node.ID
		nodes = append(nodes, node)
	}

	connections := make([]*models.ConceptConnection, 0, len(graph.Edges))
	dropped := 0
	for _, e := range graph.Edges {
		from, okFrom := idByTemp[e.FromTempID]
		to, okTo := idByTemp[e.ToTempID]
		if !okFrom || !okTo {
			dropped++
			continue
		}
		connections = append(connections, &models.ConceptConnection{
			ID:           uuid.New(),
			ConceptMapID: mapID,
			FromNodeID:   from,
			ToNodeID:     to,
			Label:        optionalString(e.Label),
			Type:         e.Relation,
			Strength:     e.Strength,
		})
	}
	return nodes, connections, dropped
}

func encodeTags(tags []string) datatypes.JSON {
	if len(tags) == 0 {
		return nil
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return datatypes.JSON(encoded)
}

func encodeOptions(options []string) datatypes.JSON {
	if len(options) == 0 {
		return nil
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return nil
	}
	return datatypes.JSON(encoded)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
