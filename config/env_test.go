package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetenv(t *testing.T) {
	t.Setenv("X_TEST_STRING", "value")
	assert.Equal(t, "value", getenv("X_TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", getenv("X_TEST_STRING_UNSET", "fallback"))
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("X_TEST_INT", "42")
	assert.Equal(t, 42, getenvInt("X_TEST_INT", 7))

	t.Setenv("X_TEST_INT_BAD", "forty-two")
	assert.Equal(t, 7, getenvInt("X_TEST_INT_BAD", 7))
	assert.Equal(t, 7, getenvInt("X_TEST_INT_UNSET", 7))
}

func TestGetenvFloat(t *testing.T) {
	t.Setenv("X_TEST_FLOAT", "0.25")
	assert.InDelta(t, 0.25, getenvFloat("X_TEST_FLOAT", 1.0), 1e-9)

	t.Setenv("X_TEST_FLOAT_BAD", "a quarter")
	assert.InDelta(t, 1.0, getenvFloat("X_TEST_FLOAT_BAD", 1.0), 1e-9)
}

func TestGetenvBool(t *testing.T) {
	t.Setenv("X_TEST_BOOL", "true")
	assert.True(t, getenvBool("X_TEST_BOOL", false))

	t.Setenv("X_TEST_BOOL_ZERO", "0")
	assert.False(t, getenvBool("X_TEST_BOOL_ZERO", true))

	t.Setenv("X_TEST_BOOL_BAD", "maybe")
	assert.True(t, getenvBool("X_TEST_BOOL_BAD", true))
}

func TestGetenvList(t *testing.T) {
	t.Setenv("X_TEST_LIST", "ita, eng ,,fra")
	assert.Equal(t, []string{"ita", "eng", "fra"}, getenvList("X_TEST_LIST", []string{"x"}))

	assert.Equal(t, []string{"x"}, getenvList("X_TEST_LIST_UNSET", []string{"x"}))

	t.Setenv("X_TEST_LIST_BLANK", " , ,")
	assert.Equal(t, []string{"x"}, getenvList("X_TEST_LIST_BLANK", []string{"x"}))
}

func TestMaxUploadSizeBytes(t *testing.T) {
	cfg := &StorageConfig{MaxUploadSizeMB: 50}
	assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadSizeBytes())
}
