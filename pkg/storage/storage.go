// Package storage uploads blobs to an S3-compatible object store and hands
// back publicly addressable URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"reforma-budgets/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ErrObjectExists is returned when an upload would overwrite an object.
var ErrObjectExists = errors.New("object already exists")

// ObjectStore is the uploader used by the budget pipeline and the settings
// and portfolio services.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
	PublicURL(bucket, path string) string
	Remove(ctx context.Context, bucket, path string) error
}

const publicReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"]
  }]
}`

type MinIOStore struct {
	client        *minio.Client
	region        string
	publicBaseURL string
	ensured       sync.Map
	logger        *zap.Logger
}

func NewMinIOStore(cfg *config.StorageConfig, logger *zap.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}

	return &MinIOStore{
		client:        client,
		region:        cfg.Region,
		publicBaseURL: strings.TrimRight(base, "/"),
		logger:        logger,
	}, nil
}

// Upload stores data under bucket/path without overwriting and returns the
// public URL of the new object.
func (s *MinIOStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	if err := s.ensureBucket(ctx, bucket); err != nil {
		return "", err
	}

	if _, err := s.client.StatObject(ctx, bucket, path, minio.StatObjectOptions{}); err == nil {
		return "", fmt.Errorf("%w: %s/%s", ErrObjectExists, bucket, path)
	} else if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return "", fmt.Errorf("failed to stat object %s/%s: %w", bucket, path, err)
	}

	info, err := s.client.PutObject(ctx, bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "max-age=3600",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, path, err)
	}

	s.logger.Debug("Object uploaded",
		zap.String("bucket", bucket),
		zap.String("path", path),
		zap.Int64("size", info.Size),
	)

	return s.PublicURL(bucket, path), nil
}

func (s *MinIOStore) PublicURL(bucket, path string) string {
	return s.publicBaseURL + "/" + bucket + "/" + strings.TrimLeft(path, "/")
}

func (s *MinIOStore) Remove(ctx context.Context, bucket, path string) error {
	if err := s.client.RemoveObject(ctx, bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s/%s: %w", bucket, path, err)
	}
	return nil
}

// PathFromURL recovers the object path of a URL produced by PublicURL.
func (s *MinIOStore) PathFromURL(bucket, url string) (string, bool) {
	prefix := s.publicBaseURL + "/" + bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (s *MinIOStore) ensureBucket(ctx context.Context, bucket string) error {
	if _, ok := s.ensured.Load(bucket); ok {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		if err := s.client.SetBucketPolicy(ctx, bucket, fmt.Sprintf(publicReadPolicy, bucket)); err != nil {
			return fmt.Errorf("failed to set public policy on %s: %w", bucket, err)
		}
		s.logger.Info("Bucket created", zap.String("bucket", bucket))
	}

	s.ensured.Store(bucket, struct{}{})
	return nil
}
