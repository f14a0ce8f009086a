package filestorage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ojtetr/tracker/internal/pkg/logger"
)

// MinioConfig holds connection settings for an S3-compatible bucket
type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
}

// MinioStorage stores files in an S3-compatible bucket
type MinioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStorage connects to the bucket, creating it when missing
func NewMinioStorage(ctx context.Context, cfg MinioConfig, baseURL string) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.BucketName, err)
		}
		logger.Info().Str("bucket", cfg.BucketName).Msg("Created storage bucket")
	}

	return &MinioStorage{client: client, bucket: cfg.BucketName, baseURL: baseURL}, nil
}

// Save uploads r as a new object
func (s *MinioStorage) Save(ctx context.Context, r io.Reader, size int64, originalName, contentType, prefix string) (Object, error) {
	key := newKey(prefix, originalName)

	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"original-name": originalName},
	})
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to upload object")
		return Object{}, fmt.Errorf("failed to upload object: %w", err)
	}

	logger.Info().Str("filename", originalName).Str("key", key).Int64("size", info.Size).Msg("File saved successfully")
	return Object{Key: key, URL: publicURL(s.baseURL, key), Size: info.Size, ContentType: contentType}, nil
}

// Open streams an object from the bucket
func (s *MinioStorage) Open(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, cleaned, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get object: %w", err)
	}

	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to stat object: %w", err)
	}

	return obj, &Object{Key: cleaned, URL: publicURL(s.baseURL, cleaned), Size: stat.Size, ContentType: stat.ContentType}, nil
}

// Delete removes an object; a missing object is not an error
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucket, cleaned, minio.RemoveObjectOptions{}); err != nil {
		logger.Error().Err(err).Str("key", cleaned).Msg("Failed to delete object")
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
