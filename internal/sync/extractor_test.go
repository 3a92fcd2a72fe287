package sync

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestExtractMetadata_DecodesPNGDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, 40, 20)

	meta, err := ExtractMetadata(path)
	require.NoError(t, err)

	require.NotNil(t, meta.Width)
	require.NotNil(t, meta.Height)
	assert.Equal(t, 40, *meta.Width)
	assert.Equal(t, 20, *meta.Height)
	assert.Positive(t, meta.FileSize)
}

func TestExtractMetadata_NilDimensionsForUndecodablePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw.cr2")
	require.NoError(t, os.WriteFile(path, []byte("not a real raw file"), 0o600))

	meta, err := ExtractMetadata(path)
	require.NoError(t, err)

	assert.Nil(t, meta.Width)
	assert.Nil(t, meta.Height)
	assert.Positive(t, meta.FileSize)
}

func TestExtractMetadata_ErrorsWhenFileMissing(t *testing.T) {
	_, err := ExtractMetadata(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}

func TestNormalizeModTime_TruncatesToMicroseconds(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	got := normalizeModTime(t1)
	assert.Equal(t, 123456000, got.Nanosecond())
	assert.Equal(t, time.UTC, got.Location())
}
