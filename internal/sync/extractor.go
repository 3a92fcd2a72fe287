package sync

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder for DecodeConfig
	_ "image/jpeg" // register JPEG decoder for DecodeConfig
	_ "image/png"  // register PNG decoder for DecodeConfig
	"os"
	"time"

	_ "golang.org/x/image/bmp"  // register BMP decoder for DecodeConfig
	_ "golang.org/x/image/tiff" // register TIFF decoder for DecodeConfig
	_ "golang.org/x/image/webp" // register WebP decoder for DecodeConfig
)

// ExtractMetadata stats path and attempts to decode its pixel dimensions.
// Stat failure (file gone, permission denied) propagates as an error; a
// decode failure does not — width/height are left nil and the file is
// still catalogued. RAW extensions (.cr2, .nef, .arw, .dng, .orf, .rw2,
// .pef, .srw) are not treated specially: the decoder is chosen from the
// file's leading bytes, so a RAW file with a TIFF header may yield the
// dimensions of its first TIFF image directory, and any other RAW file
// has no registered decoder and gets nil dimensions.
func ExtractMetadata(path string) (ImageMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ImageMetadata{}, fmt.Errorf("sync: stat %s: %w", path, err)
	}

	meta := ImageMetadata{
		FileSize:       uint64(info.Size()), //nolint:gosec // file sizes are never negative
		FileModifiedAt: normalizeModTime(info.ModTime()),
	}

	if w, h, ok := decodeDimensions(path); ok {
		meta.Width = &w
		meta.Height = &h
	}

	return meta, nil
}

// decodeDimensions opens path and reads its image dimensions via
// image.DecodeConfig, without decoding full pixel data. Any failure
// (unsupported format, truncated file, permission denied after the stat
// above succeeded) is swallowed — ok is false.
func decodeDimensions(path string) (width, height int, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}

	return cfg.Width, cfg.Height, true
}

// normalizeModTime truncates a timestamp to microsecond precision.
// SQLite round-trips timestamps as RFC3339Nano text; truncating before
// storage keeps file_modified_at comparisons stable across a
// store-then-reload cycle regardless of host filesystem's native
// mtime resolution.
func normalizeModTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
