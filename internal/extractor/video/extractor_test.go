package video

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/content-engine/internal/models"
)

func TestKind(t *testing.T) {
	assert.Equal(t, models.KindVideo, NewExtractor().Kind())
}

func TestExtract_ReturnsEmptyTranscript(t *testing.T) {
	e := NewExtractor()

	result, err := e.Extract(context.Background(), []byte{0x00, 0x01, 0x02})
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	require.NotNil(t, result.DurationSeconds)
	assert.Equal(t, 0.0, *result.DurationSeconds)
	assert.Nil(t, result.PageCount)
}
