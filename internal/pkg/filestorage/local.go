package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yigit/roster/internal/pkg/logger"
)

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // Prefix of the public URL, e.g. http://localhost:3014/uploads
}

// NewLocalStorage creates a new LocalStorage instance, creating basePath if needed.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// BasePath is the directory served as static files.
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// resolve maps key onto a path under basePath, refusing keys that escape it.
func (ls *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(ls.basePath, clean), nil
}

// Upload implements ObjectStore.
func (ls *LocalStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dstPath, err := ls.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create subdirectory: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, r)
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("short write: %d of %d bytes", written, size)
	}
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return fmt.Errorf("failed to save file content: %w", err)
	}

	logger.Info().Str("key", key).Str("contentType", contentType).Int64("size", written).Msg("File saved successfully")
	return nil
}

// PublicURL implements ObjectStore.
func (ls *LocalStorage) PublicURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if ls.baseURL == "" {
		return "/uploads/" + key
	}
	return ls.baseURL + "/" + key
}
