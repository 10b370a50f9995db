package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/converters"
	"github.com/edustack/content-engine/pkg/logger"
)

// generateInputLimit bounds prompt payloads for generation calls.
const generateInputLimit = 3000

// minSentenceLength is the qualification threshold for placeholder
// questions built from raw sentences.
const minSentenceLength = 20

const (
	questionsSystemPrompt = "You are an expert educator creating quiz questions. Always return valid JSON format."
	graphSystemPrompt     = "You are an expert educator creating concept maps. Always return valid JSON format."
)

// Generator turns extracted text into question sets or concept graphs.
// AI replies that fail strict validation are discarded whole; the
// deterministic path then produces the result.
type Generator struct {
	client Client
	logger logger.Logger
}

func NewGenerator(client Client, log logger.Logger) *Generator {
	return &Generator{client: client, logger: log}
}

// GenerateQuestions returns at most count questions. Fewer qualifying
// sentences on the fallback path mean fewer questions, never padding.
func (g *Generator) GenerateQuestions(ctx context.Context, text string, difficulty models.Difficulty, count int) ([]models.GeneratedQuestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("no content available for question generation")
	}
	if count < 1 {
		return nil, models.NewValidationError("question count must be at least 1")
	}

	if g.client != nil {
		out, err := g.client.Complete(ctx, questionsSystemPrompt, questionsPrompt(text, difficulty, count), 2000, 0.7)
		if err != nil {
			g.logger.Warn("ai question generation failed, using fallback", logger.Error(err))
		} else {
			questions, convErr := converters.QuestionsFromJSON(out, difficulty)
			if convErr == nil {
				return questions, nil
			}
			g.logger.Warn("discarding malformed ai question reply", logger.Error(convErr))
		}
	}

	return FallbackQuestions(text, difficulty, count), nil
}

// GenerateConceptGraph returns a temp-id graph; persisting callers remap
// temp ids to storage ids.
func (g *Generator) GenerateConceptGraph(ctx context.Context, text string) (*models.ConceptGraph, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("no content available for concept map generation")
	}

	if g.client != nil {
		out, err := g.client.Complete(ctx, graphSystemPrompt, graphPrompt(text), 2500, 0.7)
		if err != nil {
			g.logger.Warn("ai concept map generation failed, using fallback", logger.Error(err))
		} else {
			graph, convErr := converters.ConceptGraphFromJSON(out)
			if convErr == nil {
				return graph, nil
			}
			g.logger.Warn("discarding malformed ai concept map reply", logger.Error(convErr))
		}
	}

	return FallbackConceptGraph(text), nil
}

func questionsPrompt(text string, difficulty models.Difficulty, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d quiz questions from the following content.\n", count)
	fmt.Fprintf(&sb, "Difficulty level: %s\n", difficulty)
	sb.WriteString("Return the questions in JSON format with this structure:\n")
	fmt.Fprintf(&sb, `[
  {
    "question": "Question text",
    "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
    "correct_answer": 0,
    "explanation": "Explanation of the correct answer",
    "difficulty": %q
  }
]`, difficulty)
	sb.WriteString("\n\nContent:\n")
	sb.WriteString(truncate(text, generateInputLimit))
	return sb.String()
}

func graphPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Create a concept map from the following content.\n")
	sb.WriteString("Return in JSON format with this structure:\n")
	sb.WriteString(`{
  "nodes": [
    {"id": "1", "label": "Main Concept", "type": "main", "x": 0, "y": 0, "description": "Description"},
    {"id": "2", "label": "Sub Concept", "type": "sub", "x": 100, "y": 100, "description": "Description"}
  ],
  "connections": [
    {"from": "1", "to": "2", "label": "relationship", "type": "hierarchical"}
  ]
}`)
	sb.WriteString("\n\nContent:\n")
	sb.WriteString(truncate(text, generateInputLimit))
	return sb.String()
}

// FallbackQuestions emits one single-choice placeholder per sentence
// longer than minSentenceLength, up to count.
func FallbackQuestions(text string, difficulty models.Difficulty, count int) []models.GeneratedQuestion {
	var questions []models.GeneratedQuestion
	for _, sentence := range strings.Split(text, ".") {
		if len(questions) == count {
			break
		}
		sentence = strings.TrimSpace(sentence)
		if utf8.RuneCountInString(sentence) <= minSentenceLength {
			continue
		}
		questions = append(questions, models.GeneratedQuestion{
			Type:         models.QuestionSingleChoice,
			Prompt:       fmt.Sprintf("What is mentioned in: '%s...'?", firstRunes(sentence, 50)),
			Options:      []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectIndex: 0,
			Explanation:  "This is a placeholder explanation.",
			Difficulty:   difficulty,
			Points:       1,
			AIGenerated:  false,
		})
	}
	return questions
}

// FallbackConceptGraph lays the first ten unique longer words on a
// grid and chains them in order. Every edge references emitted nodes.
func FallbackConceptGraph(text string) *models.ConceptGraph {
	graph := &models.ConceptGraph{}
	for i, word := range uniqueWords(text, 4, 10) {
		nodeType := models.NodeTypeMain
		if i >= 3 {
			nodeType = models.NodeTypeSub
		}
		graph.Nodes = append(graph.Nodes, models.GraphNode{
			TempID:      strconv.Itoa(i),
			Label:       capitalize(word),
			Type:        nodeType,
			X:           float64((i % 3) * 100),
			Y:           float64((i / 3) * 100),
			Color:       models.DefaultNodeColor,
			Description: fmt.Sprintf("Concept related to %s", word),
			AIGenerated: false,
		})
	}
	for i := 0; i+1 < len(graph.Nodes); i++ {
		graph.Edges = append(graph.Edges, models.GraphEdge{
			FromTempID: strconv.Itoa(i),
			ToTempID:   strconv.Itoa(i + 1),
			Label:      "related to",
			Relation:   models.RelationDirect,
			Strength:   0.5,
		})
	}
	return graph
}

// uniqueWords returns case-folded tokens longer than minLen runes in
// first-seen order, capped at max.
func uniqueWords(text string, minLen, max int) []string {
	seen := make(map[string]bool)
	var words []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(w) <= minLen || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
		if len(words) == max {
			break
		}
	}
	return words
}

func firstRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}
