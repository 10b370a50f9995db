package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NodeType positions a concept in the map hierarchy.
type NodeType string

const (
	NodeTypeMain   NodeType = "main"
	NodeTypeSub    NodeType = "sub"
	NodeTypeDetail NodeType = "detail"
)

// RelationType labels the nature of a concept edge.
type RelationType string

const (
	RelationDirect       RelationType = "direct"
	RelationHierarchical RelationType = "hierarchical"
	RelationCausal       RelationType = "causal"
)

// DefaultNodeColor is applied when the generator supplies none.
const DefaultNodeColor = "#3B82F6"

// GraphNode is a generated concept before persistence. TempID is local
// to the graph; the study service remaps it to a stored uuid.
type GraphNode struct {
	TempID      string   `json:"id"`
	Label       string   `json:"label"`
	Type        NodeType `json:"type"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Color       string   `json:"color,omitempty"`
	Description string   `json:"description,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	AIGenerated bool     `json:"ai_generated"`
}

// GraphEdge connects two nodes by their temp ids.
type GraphEdge struct {
	FromTempID string       `json:"from"`
	ToTempID   string       `json:"to"`
	Label      string       `json:"label,omitempty"`
	Relation   RelationType `json:"type"`
	Strength   float64      `json:"strength"` // 0..1
}

// ConceptGraph is the generator's output. Every edge endpoint must
// reference a TempID present in Nodes; the persistence path drops any
// edge that does not resolve.
type ConceptGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// HasNode reports whether tempID names a node in the graph.
func (g *ConceptGraph) HasNode(tempID string) bool {
	for _, n := range g.Nodes {
		if n.TempID == tempID {
			return true
		}
	}
	return false
}

// ConceptMap is the persisted graph container.
type ConceptMap struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_concept_map_user" json:"user_id"`
	SubjectID *uuid.UUID `gorm:"type:uuid" json:"subject_id,omitempty"`

	Title       string         `gorm:"column:title;size:255;not null" json:"title"`
	IsPublic    bool           `gorm:"column:is_public;default:false" json:"is_public"`
	Description *string        `gorm:"column:description" json:"description,omitempty"`
	Tags        datatypes.JSON `gorm:"column:tags" json:"tags,omitempty"`

	Nodes []ConceptNode       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConceptMapID" json:"nodes,omitempty"`
	Edges []ConceptConnection `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConceptMapID" json:"edges,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ConceptMap) TableName() string { return "concept_maps" }

// ConceptNode is one persisted node.
type ConceptNode struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConceptMapID uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_node_map" json:"concept_map_id"`

	Label       string         `gorm:"column:label;size:255;not null" json:"label"`
	X           float64        `gorm:"column:x;not null" json:"x"`
	Y           float64        `gorm:"column:y;not null" json:"y"`
	Type        NodeType       `gorm:"column:type;size:50;default:main" json:"type"`
	Color       string         `gorm:"column:color;size:7;default:#3B82F6" json:"color"`
	Description *string        `gorm:"column:description" json:"description,omitempty"`
	Examples    datatypes.JSON `gorm:"column:examples" json:"examples,omitempty"`

	SourceUploadID *uuid.UUID `gorm:"type:uuid;index:idx_concept_node_upload" json:"source_upload_id,omitempty"`

	AIGenerated bool `gorm:"column:ai_generated;default:false" json:"ai_generated"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ConceptNode) TableName() string { return "concept_nodes" }

// ConceptConnection is one persisted edge; endpoints are real node
// uuids, never temp ids.
type ConceptConnection struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConceptMapID uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_conn_map" json:"concept_map_id"`

	FromNodeID uuid.UUID `gorm:"type:uuid;not null" json:"from_node_id"`
	ToNodeID   uuid.UUID `gorm:"type:uuid;not null" json:"to_node_id"`

	Label    *string      `gorm:"column:label;size:255" json:"label,omitempty"`
	Type     RelationType `gorm:"column:type;size:50;default:direct" json:"type"`
	Strength float64      `gorm:"column:strength;default:1" json:"strength"` // 0..1

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ConceptConnection) TableName() string { return "concept_connections" }
