package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/config"
)

// MinIOStorage is a thin wrapper around the minio client used for durable
// document storage.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage creates a new MinIO storage client and ensures the bucket exists.
func NewMinIOStorage(cfg *config.MinIOConfig) (*MinIOStorage, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOStorage{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// Upload stores data under key and returns the object's durable location.
func (s *MinIOStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucket, info.Key), nil
}

// Download returns a ReadCloser for the stored object.
func (s *MinIOStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// stat to surface missing objects as an error here, not at first read
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// PresignedURL returns a presigned GET URL valid for the given duration.
// Used by the review tooling to hand out short-lived document links.
func (s *MinIOStorage) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, make(url.Values))
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
