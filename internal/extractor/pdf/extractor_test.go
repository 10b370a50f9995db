package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"
)

func TestKind(t *testing.T) {
	assert.Equal(t, models.KindPDF, NewExtractor(logger.NewTestLogger()).Kind())
}

func TestExtract_CorruptContainer(t *testing.T) {
	e := NewExtractor(logger.NewTestLogger())

	result, err := e.Extract(context.Background(), []byte("this is not a pdf"))
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, models.IsExtraction(err))
	assert.Contains(t, err.Error(), "invalid pdf container")
}

func TestExtract_TruncatedHeader(t *testing.T) {
	e := NewExtractor(logger.NewTestLogger())

	// A correct magic number with nothing behind it is still invalid.
	result, err := e.Extract(context.Background(), []byte("%PDF-1.7\n"))
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, models.IsExtraction(err))
}

func TestExtract_EmptyInput(t *testing.T) {
	e := NewExtractor(logger.NewTestLogger())

	result, err := e.Extract(context.Background(), nil)
	assert.Nil(t, result)
	assert.True(t, models.IsExtraction(err))
}
