package image

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
	_ "golang.org/x/image/tiff"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"
)

// DefaultLanguages are the platform's configured recognition languages.
var DefaultLanguages = []string{"ita", "eng"}

// Extractor runs multilingual OCR over decoded bitmaps with a local
// tesseract engine.
type Extractor struct {
	logger        logger.Logger
	languages     []string
	preprocessors []Preprocessor
}

func NewExtractor(log logger.Logger, languages []string) *Extractor {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &Extractor{
		logger:    log,
		languages: languages,
		preprocessors: []Preprocessor{
			NewGrayscaleProcessor(),
			NewDenoiseProcessor(0.5),
			NewContrastNormalizationProcessor(),
			NewSharpenProcessor(0.5),
		},
	}
}

func (e *Extractor) Kind() models.UploadKind { return models.KindImage }

// Extract reads pixel dimensions from the image header, preprocesses
// the bitmap for recognition and OCRs it with every configured
// language enabled.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*models.ExtractionResult, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewExtractionError(models.KindImage, "undecodable image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewExtractionError(models.KindImage, "undecodable image: %v", err)
	}

	processed, err := e.applyPreprocessing(img)
	if err != nil {
		return nil, models.NewExtractionError(models.KindImage, "preprocessing failed: %v", err)
	}

	text, err := e.runOCR(ctx, processed)
	if err != nil {
		return nil, models.NewExtractionError(models.KindImage, "ocr failed: %v", err)
	}

	return &models.ExtractionResult{
		Text:       strings.TrimSpace(text),
		Dimensions: &models.PixelDimensions{Width: cfg.Width, Height: cfg.Height},
	}, nil
}

func (e *Extractor) applyPreprocessing(img image.Image) (image.Image, error) {
	result := img
	var err error
	for _, p := range e.preprocessors {
		result, err = p.Process(result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// runOCR uses a fresh tesseract client per call; gosseract clients are
// not safe for concurrent reuse.
func (e *Extractor) runOCR(ctx context.Context, img image.Image) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Join(e.languages, "+")); err != nil {
		return "", err
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 100}); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return client.Text()
}
