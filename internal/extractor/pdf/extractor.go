package pdf

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"
)

const maxPageWorkers = 4

// Extractor parses PDF byte streams into concatenated page text.
type Extractor struct {
	logger logger.Logger
}

func NewExtractor(log logger.Logger) *Extractor {
	return &Extractor{logger: log}
}

func (e *Extractor) Kind() models.UploadKind { return models.KindPDF }

// Extract concatenates per-page text joined by newlines, in page order,
// and reports the page count. A byte stream that is not a valid PDF
// container fails with an ExtractionError.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*models.ExtractionResult, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, models.NewExtractionError(models.KindPDF, "invalid pdf container: %v", err)
	}

	numPages := pdfReader.NumPage()
	pages := make([]string, numPages)

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxPageWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ctx.Err()
			}

			page := pdfReader.Page(pageNum)
			if page.V.IsNull() {
				return nil
			}

			text, err := page.GetPlainText(nil)
			if err != nil {
				return models.NewExtractionError(models.KindPDF, "page %d: %v", pageNum, err)
			}
			pages[pageNum-1] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if models.IsExtraction(err) {
			return nil, err
		}
		return nil, models.NewExtractionError(models.KindPDF, "%v", err)
	}

	pageCount := numPages
	return &models.ExtractionResult{
		Text:      strings.TrimSpace(strings.Join(pages, "\n")),
		PageCount: &pageCount,
	}, nil
}
