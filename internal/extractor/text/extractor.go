package text

import (
	"context"
	"unicode/utf8"

	"github.com/edustack/content-engine/internal/models"
)

// Extractor treats the byte stream as UTF-8 text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Kind() models.UploadKind { return models.KindText }

// Extract returns the input unchanged. Invalid UTF-8 fails with an
// ExtractionError rather than silently substituting replacement
// characters.
func (e *Extractor) Extract(_ context.Context, data []byte) (*models.ExtractionResult, error) {
	if !utf8.Valid(data) {
		return nil, models.NewExtractionError(models.KindText, "content is not valid UTF-8")
	}
	return &models.ExtractionResult{Text: string(data)}, nil
}
