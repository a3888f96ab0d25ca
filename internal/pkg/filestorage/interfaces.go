package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrNotImage is returned when an upload does not sniff as an accepted image.
var ErrNotImage = errors.New("file is not an image")

// rasterImageTypes are the image types accepted for upload. Vector formats are
// left out since SVG can carry script and uploads may be served from the API origin.
var rasterImageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/avif",
}

// ObjectStore stores opaque objects under caller-chosen keys and exposes them at
// public URLs. Keys are flat, slash-separated paths relative to the bucket.
type ObjectStore interface {
	// Upload writes size bytes from r under key with the given content type.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// PublicURL resolves the externally fetchable address of key.
	PublicURL(key string) string
}

// ObjectKey builds a unique object key for an uploaded file: a millisecond
// timestamp plus a short random suffix, keeping the original extension.
func ObjectKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString()[:8], ext)
}

// ImageContentType sniffs data and returns the content type to store it with.
// The client's declared type is never trusted. Anything other than a raster
// image yields ErrNotImage.
func ImageContentType(data []byte) (string, error) {
	detected := mimetype.Detect(data)
	for _, allowed := range rasterImageTypes {
		if detected.Is(allowed) {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%w: detected %s", ErrNotImage, detected.String())
}
