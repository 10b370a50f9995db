package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/edustack/content-engine/internal/extractor/image"
	"github.com/edustack/content-engine/internal/extractor/pdf"
	"github.com/edustack/content-engine/internal/extractor/text"
	"github.com/edustack/content-engine/internal/extractor/video"
	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"

	cfg "github.com/edustack/content-engine/config"
)

// Extractor converts raw bytes into text plus structural metadata for
// one declared kind. Implementations are pure functions of their input:
// no I/O beyond the bytes passed in.
type Extractor interface {
	Kind() models.UploadKind
	Extract(ctx context.Context, data []byte) (*models.ExtractionResult, error)
}

var extToKind = map[string]models.UploadKind{
	".pdf":  models.KindPDF,
	".jpg":  models.KindImage,
	".jpeg": models.KindImage,
	".png":  models.KindImage,
	".tiff": models.KindImage,
	".txt":  models.KindText,
	".md":   models.KindText,
	".csv":  models.KindText,
	".mp4":  models.KindVideo,
	".mov":  models.KindVideo,
	".webm": models.KindVideo,
}

// KindForFilename maps a filename extension to the declared kind.
func KindForFilename(name string) (models.UploadKind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	kind, ok := extToKind[ext]
	if !ok {
		return "", models.NewValidationError("unsupported file extension: %s", ext)
	}
	return kind, nil
}

// Registry holds one extractor per supported kind. Link uploads carry
// no local bytes and are rejected at validation, so no extractor is
// registered for them.
type Registry struct {
	extractors map[models.UploadKind]Extractor
	logger     logger.Logger
}

// NewRegistry wires the per-kind extractors. The image engine is picked
// by OCR configuration: local tesseract by default, AWS Textract when
// configured.
func NewRegistry(log logger.Logger) (*Registry, error) {
	r := &Registry{
		extractors: make(map[models.UploadKind]Extractor),
		logger:     log,
	}

	r.extractors[models.KindPDF] = pdf.NewExtractor(log)
	r.extractors[models.KindText] = text.NewExtractor()
	r.extractors[models.KindVideo] = video.NewExtractor()

	ocrCfg := cfg.GetOCRConfig()
	switch ocrCfg.Provider {
	case cfg.OCRProviderTextract:
		textractCfg := cfg.GetTextractConfig()
		tex, err := image.NewTextractExtractor(context.Background(), &image.TextractConfig{
			Region:        textractCfg.Region,
			AccessKey:     textractCfg.AccessKey,
			SecretKey:     textractCfg.SecretKey,
			MinConfidence: float32(textractCfg.MinConfidence),
		}, log)
		if err != nil {
			return nil, err
		}
		r.extractors[models.KindImage] = tex
	default:
		r.extractors[models.KindImage] = image.NewExtractor(log, ocrCfg.Languages)
	}

	return r, nil
}

// ForKind returns the extractor for a declared kind, or a
// ValidationError when the kind is not extractable here.
func (r *Registry) ForKind(kind models.UploadKind) (Extractor, error) {
	ex, ok := r.extractors[kind]
	if !ok {
		r.logger.Warn("no extractor for kind", logger.String("kind", string(kind)))
		return nil, models.NewValidationError("unsupported upload kind: %s", kind)
	}
	return ex, nil
}
