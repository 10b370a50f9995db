// Package converters validates raw AI chat replies into typed study
// structures. Validation is all-or-nothing: any malformed entry
// discards the entire reply so callers fall back to deterministic
// generation instead of persisting a partially valid structure.
package converters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edustack/content-engine/internal/models"
)

type wireQuestion struct {
	Type          *string  `json:"type"`
	Question      *string  `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer"`
	Explanation   *string  `json:"explanation"`
	Difficulty    *string  `json:"difficulty"`
	Points        *int     `json:"points"`
}

// QuestionsFromJSON parses a model reply into question records. The
// requested difficulty fills entries that omit their own. Every
// returned question carries AIGenerated=true.
func QuestionsFromJSON(raw string, difficulty models.Difficulty) ([]models.GeneratedQuestion, error) {
	var wire []wireQuestion
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	if len(wire) == 0 {
		return nil, fmt.Errorf("parse questions: empty array")
	}

	questions := make([]models.GeneratedQuestion, 0, len(wire))
	for i, wq := range wire {
		q, err := convertQuestion(wq, difficulty)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func convertQuestion(wq wireQuestion, difficulty models.Difficulty) (models.GeneratedQuestion, error) {
	var q models.GeneratedQuestion

	if wq.Question == nil || strings.TrimSpace(*wq.Question) == "" {
		return q, fmt.Errorf("missing question text")
	}
	if len(wq.Options) < 2 {
		return q, fmt.Errorf("needs at least 2 options, got %d", len(wq.Options))
	}
	for _, opt := range wq.Options {
		if strings.TrimSpace(opt) == "" {
			return q, fmt.Errorf("blank option")
		}
	}
	if wq.CorrectAnswer == nil {
		return q, fmt.Errorf("missing correct_answer")
	}
	if *wq.CorrectAnswer < 0 || *wq.CorrectAnswer >= len(wq.Options) {
		return q, fmt.Errorf("correct_answer %d out of range", *wq.CorrectAnswer)
	}
	if wq.Type != nil && models.QuestionType(*wq.Type) != models.QuestionSingleChoice {
		return q, fmt.Errorf("unexpected question type %q", *wq.Type)
	}

	q.Type = models.QuestionSingleChoice
	q.Prompt = strings.TrimSpace(*wq.Question)
	q.Options = wq.Options
	q.CorrectIndex = *wq.CorrectAnswer
	q.Difficulty = difficulty
	q.Points = 1
	q.AIGenerated = true

	if wq.Explanation != nil {
		q.Explanation = strings.TrimSpace(*wq.Explanation)
	}
	if wq.Difficulty != nil {
		d := models.Difficulty(*wq.Difficulty)
		if !models.ValidDifficulty(d) {
			return q, fmt.Errorf("unknown difficulty %q", *wq.Difficulty)
		}
		q.Difficulty = d
	}
	if wq.Points != nil {
		if *wq.Points < 1 {
			return q, fmt.Errorf("points must be >= 1, got %d", *wq.Points)
		}
		q.Points = *wq.Points
	}

	return q, nil
}

type wireNode struct {
	ID          *string  `json:"id"`
	Label       *string  `json:"label"`
	Type        *string  `json:"type"`
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Color       *string  `json:"color"`
	Description *string  `json:"description"`
	Examples    []string `json:"examples"`
}

type wireEdge struct {
	From     *string  `json:"from"`
	To       *string  `json:"to"`
	Label    *string  `json:"label"`
	Type     *string  `json:"type"`
	Strength *float64 `json:"strength"`
}

type wireGraph struct {
	Nodes       []wireNode `json:"nodes"`
	Connections []wireEdge `json:"connections"`
}

// ConceptGraphFromJSON parses a model reply into a temp-id concept
// graph. Connections referencing ids outside the node set are dropped,
// matching the persist-time rule for unresolved ids.
func ConceptGraphFromJSON(raw string) (*models.ConceptGraph, error) {
	var wire wireGraph
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err != nil {
		return nil, fmt.Errorf("parse concept graph: %w", err)
	}
	if len(wire.Nodes) == 0 {
		return nil, fmt.Errorf("parse concept graph: no nodes")
	}

	graph := &models.ConceptGraph{}
	ids := make(map[string]bool, len(wire.Nodes))

	for i, wn := range wire.Nodes {
		node, err := convertNode(wn, i)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		if ids[node.TempID] {
			return nil, fmt.Errorf("node %d: duplicate id %q", i, node.TempID)
		}
		ids[node.TempID] = true
		graph.Nodes = append(graph.Nodes, node)
	}

	for i, we := range wire.Connections {
		edge, ok, err := convertEdge(we, ids)
		if err != nil {
			return nil, fmt.Errorf("connection %d: %w", i, err)
		}
		if ok {
			graph.Edges = append(graph.Edges, edge)
		}
	}

	return graph, nil
}

func convertNode(wn wireNode, index int) (models.GraphNode, error) {
	var node models.GraphNode

	if wn.ID == nil || *wn.ID == "" {
		return node, fmt.Errorf("missing id")
	}
	if wn.Label == nil || strings.TrimSpace(*wn.Label) == "" {
		return node, fmt.Errorf("missing label")
	}

	node.TempID = *wn.ID
	node.Label = strings.TrimSpace(*wn.Label)
	node.Type = models.NodeTypeMain
	node.X = float64(index * 100)
	node.Y = float64(index * 100)
	node.Color = models.DefaultNodeColor
	node.Examples = wn.Examples
	node.AIGenerated = true

	if wn.Type != nil {
		t := models.NodeType(*wn.Type)
		switch t {
		case models.NodeTypeMain, models.NodeTypeSub, models.NodeTypeDetail:
			node.Type = t
		default:
			return node, fmt.Errorf("unknown node type %q", *wn.Type)
		}
	}
	if wn.X != nil {
		node.X = *wn.X
	}
	if wn.Y != nil {
		node.Y = *wn.Y
	}
	if wn.Color != nil && *wn.Color != "" {
		node.Color = *wn.Color
	}
	if wn.Description != nil {
		node.Description = *wn.Description
	}

	return node, nil
}

func convertEdge(we wireEdge, ids map[string]bool) (models.GraphEdge, bool, error) {
	var edge models.GraphEdge

	if we.From == nil || *we.From == "" {
		return edge, false, fmt.Errorf("missing from")
	}
	if we.To == nil || *we.To == "" {
		return edge, false, fmt.Errorf("missing to")
	}
	// Dangling endpoints drop the edge, not the reply.
	if !ids[*we.From] || !ids[*we.To] {
		return edge, false, nil
	}

	edge.FromTempID = *we.From
	edge.ToTempID = *we.To
	edge.Relation = models.RelationDirect
	edge.Strength = 1.0

	if we.Label != nil {
		edge.Label = *we.Label
	}
	if we.Type != nil {
		t := models.RelationType(*we.Type)
		switch t {
		case models.RelationDirect, models.RelationHierarchical, models.RelationCausal:
			edge.Relation = t
		default:
			return edge, false, fmt.Errorf("unknown connection type %q", *we.Type)
		}
	}
	if we.Strength != nil {
		if *we.Strength < 0 || *we.Strength > 1 {
			return edge, false, fmt.Errorf("strength %v out of range", *we.Strength)
		}
		edge.Strength = *we.Strength
	}

	return edge, true, nil
}

// stripFences removes a surrounding markdown code block if the model
// added one.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
