// Package validator bounds caller input before any processing starts.
// Violations are models.ValidationError so the API layer can map them
// to 4xx responses.
package validator

import (
	"net/http"
	"strings"

	"github.com/edustack/content-engine/internal/extractor"
	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"
)

const (
	MinQuestionCount = 1
	MaxQuestionCount = 50
)

// UploadRules caps incoming files.
type UploadRules struct {
	MaxSizeBytes int64
}

type UploadValidator struct {
	rules  *UploadRules
	logger logger.Logger
}

func NewUploadValidator(log logger.Logger, rules *UploadRules) *UploadValidator {
	if rules == nil {
		rules = &UploadRules{MaxSizeBytes: 50 * 1024 * 1024}
	}
	return &UploadValidator{rules: rules, logger: log.Named("validator")}
}

// ValidateUpload checks filename, size and the declared kind, returning
// the kind derived from the file extension. A declared kind, when
// present, must agree with the derived one; link uploads carry no local
// bytes and are rejected here.
func (v *UploadValidator) ValidateUpload(filename string, size int64, declaredKind string) (models.UploadKind, error) {
	if strings.TrimSpace(filename) == "" {
		return "", models.NewValidationError("filename is required")
	}
	if size <= 0 {
		return "", models.NewValidationError("file is empty")
	}
	if size > v.rules.MaxSizeBytes {
		return "", models.NewValidationError(
			"file size %d exceeds maximum of %d bytes", size, v.rules.MaxSizeBytes)
	}

	kind, err := extractor.KindForFilename(filename)
	if err != nil {
		return "", err
	}

	if declaredKind != "" {
		if models.UploadKind(declaredKind) == models.KindLink {
			return "", models.NewValidationError("link uploads are not ingestible")
		}
		if models.UploadKind(declaredKind) != kind {
			return "", models.NewValidationError(
				"declared kind %s does not match file extension", declaredKind)
		}
	}

	return kind, nil
}

// mimePrefixes maps each kind to the sniffed content-type prefixes it
// accepts. Sniffing is advisory: an unrecognized stream passes and the
// extractor decides.
var mimePrefixes = map[models.UploadKind][]string{
	models.KindPDF:   {"application/pdf"},
	models.KindImage: {"image/"},
	models.KindText:  {"text/"},
	models.KindVideo: {"video/"},
}

// CheckContentType cross-checks the sniffed type of the first bytes
// against the declared kind. Only definite mismatches are rejected;
// application/octet-stream means the sniffer gave up.
func (v *UploadValidator) CheckContentType(head []byte, kind models.UploadKind) error {
	if len(head) == 0 {
		return nil
	}
	detected := http.DetectContentType(head)
	if strings.HasPrefix(detected, "application/octet-stream") {
		return nil
	}

	prefixes, ok := mimePrefixes[kind]
	if !ok {
		return nil
	}
	for _, p := range prefixes {
		if strings.HasPrefix(detected, p) {
			return nil
		}
	}

	v.logger.Warn("content type mismatch",
		logger.String("kind", string(kind)),
		logger.String("detected", detected),
	)
	return models.NewValidationError("content type %s does not match kind %s", detected, kind)
}

// ValidateGeneration bounds a question generation request.
func ValidateGeneration(count int, difficulty models.Difficulty) error {
	if count < MinQuestionCount || count > MaxQuestionCount {
		return models.NewValidationError(
			"question count must be between %d and %d", MinQuestionCount, MaxQuestionCount)
	}
	if !models.ValidDifficulty(difficulty) {
		return models.NewValidationError("invalid difficulty: %s", difficulty)
	}
	return nil
}
