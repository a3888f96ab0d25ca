package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/yigit/roster/internal/pkg/logger"
)

// OSSConfig addresses an Aliyun OSS bucket.
type OSSConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	SecurityToken string // optional STS token
	Bucket        string
	PublicBaseURL string // optional CDN/custom domain in front of the bucket
}

// ossBucket is the subset of *oss.Bucket the store uses.
type ossBucket interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
}

// OSSStorage stores objects in an Aliyun OSS bucket.
type OSSStorage struct {
	bucket        ossBucket
	endpoint      string
	bucketName    string
	publicBaseURL string
}

// NewOSSStorage connects to OSS and opens the configured bucket.
func NewOSSStorage(cfg OSSConfig) (*OSSStorage, error) {
	var opts []oss.ClientOption
	if cfg.SecurityToken != "" {
		opts = append(opts, oss.SecurityToken(cfg.SecurityToken))
	}

	client, err := oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create oss client: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", cfg.Bucket, err)
	}

	if loc, err := client.GetBucketLocation(cfg.Bucket); err != nil {
		var se oss.ServiceError
		if errors.As(err, &se) && se.StatusCode == 403 {
			logger.Warn().Str("bucket", cfg.Bucket).Msg("Skipping bucket location check, access denied")
		} else {
			return nil, fmt.Errorf("failed to verify bucket %s: %w", cfg.Bucket, err)
		}
	} else {
		logger.Info().Str("bucket", cfg.Bucket).Str("location", loc).Msg("OSS bucket verified")
	}

	return newOSSStorage(bucket, cfg), nil
}

func newOSSStorage(bucket ossBucket, cfg OSSConfig) *OSSStorage {
	return &OSSStorage{
		bucket:        bucket,
		endpoint:      cfg.Endpoint,
		bucketName:    cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// Upload implements ObjectStore.
func (s *OSSStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if key == "" {
		return fmt.Errorf("empty object key")
	}

	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if size >= 0 {
		opts = append(opts, oss.ContentLength(size))
	}

	if err := s.bucket.PutObject(key, r, opts...); err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	logger.Info().Str("bucket", s.bucketName).Str("key", key).Msg("Object uploaded")
	return nil
}

// PublicURL implements ObjectStore.
func (s *OSSStorage) PublicURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	host := strings.TrimPrefix(strings.TrimPrefix(s.endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.bucketName, host, key)
}
