package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UploadKind is the declared media type of an upload.
type UploadKind string

const (
	KindPDF   UploadKind = "pdf"
	KindImage UploadKind = "image"
	KindText  UploadKind = "text"
	KindVideo UploadKind = "video"
	KindLink  UploadKind = "link"
)

// ProcessingStatus is the per-upload lifecycle state. Exactly one
// transition out of processing happens per attempt.
type ProcessingStatus string

const (
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Upload is the persisted source document record. Extraction and
// analysis columns are pointers: nil means the field was never produced
// for this attempt, which is different from an empty value.
type Upload struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_upload_user" json:"user_id"`

	// SubjectID points at the platform's subject resource, owned by
	// another service; stored opaque, no constraint here.
	SubjectID *uuid.UUID `gorm:"type:uuid;index:idx_upload_subject" json:"subject_id,omitempty"`

	Filename   string     `gorm:"column:filename;size:255;not null" json:"filename"`
	Kind       UploadKind `gorm:"column:kind;size:50;not null" json:"kind"`
	StorageKey string     `gorm:"column:storage_key;size:1000;not null" json:"storage_key"`
	SizeBytes  int64      `gorm:"column:size_bytes;not null" json:"size_bytes"`

	// Cloud import placeholders (google-drive, dropbox, onedrive).
	CloudService *string `gorm:"column:cloud_service;size:50" json:"cloud_service,omitempty"`
	CloudFileID  *string `gorm:"column:cloud_file_id;size:255" json:"cloud_file_id,omitempty"`

	Status ProcessingStatus `gorm:"column:status;size:50;not null;default:processing;index:idx_upload_status" json:"status"`
	Error  *string          `gorm:"column:error" json:"error,omitempty"`

	ExtractedText   *string        `gorm:"column:extracted_text" json:"extracted_text,omitempty"`
	PageCount       *int           `gorm:"column:page_count" json:"page_count,omitempty"`
	DurationSeconds *float64       `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`
	Width           *int           `gorm:"column:width" json:"width,omitempty"`
	Height          *int           `gorm:"column:height" json:"height,omitempty"`
	Summary         *string        `gorm:"column:summary" json:"summary,omitempty"`
	Keywords        datatypes.JSON `gorm:"column:keywords" json:"keywords,omitempty"` // []string
	Language        *string        `gorm:"column:language;size:8" json:"language,omitempty"`
	ProcessedAt     *time.Time     `gorm:"column:processed_at" json:"processed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Upload) TableName() string { return "uploads" }

// PixelDimensions of a decoded image.
type PixelDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ExtractionResult is what one extraction attempt produced. Fields not
// applicable to the kind stay nil; the whole result is absent when
// extraction failed.
type ExtractionResult struct {
	Text            string           `json:"text"`
	PageCount       *int             `json:"page_count,omitempty"`
	DurationSeconds *float64         `json:"duration_seconds,omitempty"`
	Dimensions      *PixelDimensions `json:"dimensions,omitempty"`
}

// ContentMetadata is the analyzer's output over extracted text.
type ContentMetadata struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Language string   `json:"language"`
}

// UploadMetadata is the read view served by status polling; nil until
// the upload completed.
type UploadMetadata struct {
	ExtractedText   string           `json:"extracted_text"`
	PageCount       *int             `json:"page_count,omitempty"`
	DurationSeconds *float64         `json:"duration_seconds,omitempty"`
	Dimensions      *PixelDimensions `json:"dimensions,omitempty"`
	Summary         string           `json:"summary,omitempty"`
	Keywords        []string         `json:"keywords,omitempty"`
	Language        string           `json:"language,omitempty"`
}

// Metadata assembles the typed view of the stored results. Returns nil
// unless the upload completed.
func (u *Upload) Metadata() *UploadMetadata {
	if u.Status != StatusCompleted {
		return nil
	}
	m := &UploadMetadata{
		PageCount:       u.PageCount,
		DurationSeconds: u.DurationSeconds,
	}
	if u.ExtractedText != nil {
		m.ExtractedText = *u.ExtractedText
	}
	if u.Width != nil && u.Height != nil {
		m.Dimensions = &PixelDimensions{Width: *u.Width, Height: *u.Height}
	}
	if u.Summary != nil {
		m.Summary = *u.Summary
	}
	if u.Language != nil {
		m.Language = *u.Language
	}
	if len(u.Keywords) > 0 {
		_ = json.Unmarshal(u.Keywords, &m.Keywords)
	}
	return m
}
