package image

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocessor transforms a bitmap before it is handed to the OCR
// engine. Processors run in order and must not mutate their input.
type Preprocessor interface {
	Process(img image.Image) (image.Image, error)
	Name() string
}

type GrayscaleProcessor struct{}

func NewGrayscaleProcessor() *GrayscaleProcessor { return &GrayscaleProcessor{} }

func (p *GrayscaleProcessor) Name() string { return "grayscale" }

func (p *GrayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

// DenoiseProcessor smooths scanner speckle with a mild gaussian blur.
type DenoiseProcessor struct {
	sigma float64
}

func NewDenoiseProcessor(sigma float64) *DenoiseProcessor {
	if sigma <= 0 {
		sigma = 0.5
	}
	return &DenoiseProcessor{sigma: sigma}
}

func (p *DenoiseProcessor) Name() string { return "denoise" }

func (p *DenoiseProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Blur(img, p.sigma), nil
}

// ContrastNormalizationProcessor lifts low-contrast scans into a range
// tesseract segments reliably.
type ContrastNormalizationProcessor struct{}

func NewContrastNormalizationProcessor() *ContrastNormalizationProcessor {
	return &ContrastNormalizationProcessor{}
}

func (p *ContrastNormalizationProcessor) Name() string { return "contrast_normalization" }

func (p *ContrastNormalizationProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.AdjustContrast(img, 20), nil
}

type SharpenProcessor struct {
	sigma float64
}

func NewSharpenProcessor(sigma float64) *SharpenProcessor {
	if sigma <= 0 {
		sigma = 0.5
	}
	return &SharpenProcessor{sigma: sigma}
}

func (p *SharpenProcessor) Name() string { return "sharpen" }

func (p *SharpenProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Sharpen(img, p.sigma), nil
}
