package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"
)

// TextractExtractor is the managed OCR alternative to the local
// tesseract engine, selected through OCR_PROVIDER=textract.
type TextractExtractor struct {
	client *textract.Client
	logger logger.Logger
	config *TextractConfig
}

type TextractConfig struct {
	Region        string
	AccessKey     string
	SecretKey     string
	MinConfidence float32
}

func NewTextractExtractor(ctx context.Context, cfg *TextractConfig, log logger.Logger) (*TextractExtractor, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &TextractExtractor{
		client: textract.NewFromConfig(awsCfg),
		logger: log,
		config: cfg,
	}, nil
}

func (e *TextractExtractor) Kind() models.UploadKind { return models.KindImage }

func (e *TextractExtractor) Extract(ctx context.Context, data []byte) (*models.ExtractionResult, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewExtractionError(models.KindImage, "undecodable image: %v", err)
	}

	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: data},
	})
	if err != nil {
		return nil, models.NewExtractionError(models.KindImage, "textract: %v", err)
	}

	return &models.ExtractionResult{
		Text:       strings.Join(e.lines(out.Blocks), "\n"),
		Dimensions: &models.PixelDimensions{Width: cfg.Width, Height: cfg.Height},
	}, nil
}

// lines keeps LINE blocks whose confidence clears the configured floor,
// in the order textract returned them.
func (e *TextractExtractor) lines(blocks []types.Block) []string {
	var texts []string
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		if block.Confidence != nil && *block.Confidence < e.config.MinConfidence {
			continue
		}
		texts = append(texts, *block.Text)
	}
	return texts
}
