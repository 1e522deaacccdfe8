// Package documents renders rental contract PDFs through an external
// rendering service and stores them in S3-compatible object storage. When
// object storage is not configured (empty bucket), the NoopStorage is used
// and document generation is unavailable for the deployment.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/locauto/locauto/internal/config"
)

// ErrNotConfigured is returned when document storage is not configured.
var ErrNotConfigured = errors.New("document storage not configured")

// Storage stores rendered documents and generates pre-signed download URLs.
type Storage interface {
	// Put stores a rendered document under the given object key.
	Put(ctx context.Context, objectKey string, body io.Reader, size int64) error

	// PresignedURL returns a time-limited GET URL for a stored document.
	// Returns ErrNotConfigured when object storage is not configured.
	PresignedURL(ctx context.Context, objectKey string) (url string, expiry time.Time, err error)
}

// s3Client defines the minimal minio.Client operations used by S3Storage.
// This interface enables testing with mock implementations.
type s3Client interface {
	PutObject(ctx context.Context, bucket, objectName string, body io.Reader, size int64) error
	PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error)
}

// minioClientWrapper wraps *minio.Client to satisfy the s3Client interface.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) PutObject(ctx context.Context, bucket, objectName string, body io.Reader, size int64) error {
	putOpts := minio.PutObjectOptions{
		ContentType: "application/pdf",
	}
	_, err := w.client.PutObject(ctx, bucket, objectName, body, size, putOpts)
	return err
}

func (w *minioClientWrapper) PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error) {
	return w.client.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
}

// S3Storage stores documents in S3-compatible object storage.
type S3Storage struct {
	client    s3Client
	bucket    string
	urlExpiry time.Duration
}

// Put uploads the rendered document body under the given key.
func (s *S3Storage) Put(ctx context.Context, objectKey string, body io.Reader, size int64) error {
	if err := s.client.PutObject(ctx, s.bucket, objectKey, body, size); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	return nil
}

// PresignedURL returns a pre-signed GET URL for a stored document.
func (s *S3Storage) PresignedURL(ctx context.Context, objectKey string) (string, time.Time, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, s.urlExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate pre-signed URL: %w", err)
	}
	expiry := time.Now().Add(s.urlExpiry)
	return presigned.String(), expiry, nil
}

// NoopStorage is used when object storage is not configured.
type NoopStorage struct{}

// Put returns ErrNotConfigured: documents cannot be stored.
func (s *NoopStorage) Put(ctx context.Context, objectKey string, body io.Reader, size int64) error {
	return ErrNotConfigured
}

// PresignedURL returns ErrNotConfigured when object storage is not configured.
func (s *NoopStorage) PresignedURL(ctx context.Context, objectKey string) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// NewStorage creates the appropriate Storage based on configuration.
// Returns NoopStorage when bucket is empty, S3Storage otherwise.
func NewStorage(cfg config.DocumentsConfig) (Storage, error) {
	if cfg.Bucket == "" {
		return &NoopStorage{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Storage{
		client:    &minioClientWrapper{client: client},
		bucket:    cfg.Bucket,
		urlExpiry: time.Duration(cfg.URLExpiry),
	}, nil
}

// ObjectKey returns the object key for a tenant's rendered document.
// Convention: {tenant_id}/documents/{document_id}.pdf
func ObjectKey(tenantID, documentID string) string {
	return tenantID + "/documents/" + documentID + ".pdf"
}
