package config

import "sync"

const (
	OCRProviderTesseract = "tesseract"
	OCRProviderTextract  = "textract"
)

var (
	ocrOnce   sync.Once
	ocrConfig *OCRConfig
)

type OCRConfig struct {
	Provider  string
	Languages []string
}

// GetOCRConfig picks the OCR engine for image uploads. The language
// list is what tesseract receives joined with "+"; the platform serves
// Italian course material first, so Italian leads the default.
func GetOCRConfig() *OCRConfig {
	ocrOnce.Do(func() {
		loadEnv()
		ocrConfig = &OCRConfig{
			Provider:  getenv("OCR_PROVIDER", OCRProviderTesseract),
			Languages: getenvList("OCR_LANGUAGES", []string{"ita", "eng"}),
		}
	})
	return ocrConfig
}
