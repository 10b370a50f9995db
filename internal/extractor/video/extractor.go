package video

import (
	"context"

	"github.com/edustack/content-engine/internal/models"
)

// Extractor is a documented stub: audio transcription is deferred, so
// video uploads complete with empty text and zero duration.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Kind() models.UploadKind { return models.KindVideo }

func (e *Extractor) Extract(_ context.Context, _ []byte) (*models.ExtractionResult, error) {
	duration := 0.0
	return &models.ExtractionResult{
		Text:            "",
		DurationSeconds: &duration,
	}, nil
}
