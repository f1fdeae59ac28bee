// Package storage wraps S3-compatible object storage for offer attachments.
// Uploads and downloads happen through presigned URLs so file bytes never
// pass through the API process.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is how long presigned upload and download URLs stay valid.
const PresignedURLTTL = 15 * time.Minute

// PresignedURL carries a presigned operation back to the caller.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ObjectStore is the storage surface the attachments module depends on.
type ObjectStore interface {
	PresignUpload(ctx context.Context, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error)
	PresignDownload(ctx context.Context, fileKey string) (*PresignedURL, error)
	Download(ctx context.Context, fileKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, fileKey string) error
	EnsureBucket(ctx context.Context) error
}

// allowedContentTypes lists the MIME types accepted for offer attachments.
// Offers carry documents and images, not media files.
var allowedContentTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/webp":    true,
	"application/pdf": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"text/plain": true,
	"text/csv":   true,
}

// MinIO implements ObjectStore against a MinIO (or S3-compatible) endpoint.
type MinIO struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
}

// NewMinIO creates the object store from configuration.
func NewMinIO(cfg config.StorageConfig) (*MinIO, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("object storage is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &MinIO{
		client:      client,
		bucket:      cfg.GetAttachmentsBucket(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
	}, nil
}

var _ ObjectStore = (*MinIO)(nil)

// EnsureBucket creates the attachments bucket if it does not exist yet.
func (s *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// PresignUpload validates the file and returns a presigned PUT URL. The file
// key gets a random suffix so repeated uploads of the same name never
// overwrite each other.
func (s *MinIO) PresignUpload(ctx context.Context, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error) {
	if err := s.validateContentType(contentType); err != nil {
		return nil, err
	}
	if err := s.validateFileSize(sizeBytes); err != nil {
		return nil, err
	}

	fileKey := path.Join(folder, uniqueName(fileName))
	expiresAt := time.Now().Add(PresignedURLTTL)

	presigned, err := s.client.PresignedPutObject(ctx, s.bucket, fileKey, PresignedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload for %s: %w", fileKey, err)
	}

	return &PresignedURL{URL: presigned.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// PresignDownload returns a presigned GET URL for the stored object.
func (s *MinIO) PresignDownload(ctx context.Context, fileKey string) (*PresignedURL, error) {
	expiresAt := time.Now().Add(PresignedURLTTL)

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PresignedURLTTL, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("presign download for %s: %w", fileKey, err)
	}

	return &PresignedURL{URL: presigned.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// Download streams the object. The caller closes the reader.
func (s *MinIO) Download(ctx context.Context, fileKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, fileKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", fileKey, err)
	}
	return obj, nil
}

// Delete removes the object from the bucket.
func (s *MinIO) Delete(ctx context.Context, fileKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, fileKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", fileKey, err)
	}
	return nil
}

func (s *MinIO) validateContentType(contentType string) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !allowedContentTypes[normalized] {
		return apperr.BadRequest(fmt.Sprintf("content type %q is not allowed", contentType))
	}
	return nil
}

func (s *MinIO) validateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return apperr.BadRequest("file size must be greater than 0")
	}
	if sizeBytes > s.maxFileSize {
		return apperr.BadRequest(fmt.Sprintf("file exceeds the maximum size of %d bytes", s.maxFileSize))
	}
	return nil
}

func uniqueName(fileName string) string {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(path.Base(fileName), ext)
	return fmt.Sprintf("%s_%s%s", base, uuid.New().String()[:8], ext)
}
