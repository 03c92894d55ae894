package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aora/backend/internal/config"
)

// MinioStorage implements ObjectStore for a MinIO server.
type MinioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStorage connects to MinIO and ensures the bucket exists.
func NewMinioStorage(ctx context.Context, cfg config.ObjectStoreConfig) (*MinioStorage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("minio storage: bucket is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	if endpoint == "" {
		return nil, fmt.Errorf("minio storage: endpoint is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	baseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(client.EndpointURL().String(), "/"), cfg.Bucket)
	}

	return &MinioStorage{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// Put uploads an object. A size of zero or less streams until EOF.
func (m *MinioStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return fmt.Errorf("minio storage: empty key")
	}
	if size <= 0 {
		size = -1
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// URL returns the public location of key.
func (m *MinioStorage) URL(key string) string {
	return publicURL(m.baseURL, strings.TrimLeft(key, "/"))
}

var _ ObjectStore = (*MinioStorage)(nil)
