package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures the S3-compatible backend.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioStore persists objects into any S3-compatible service.
type MinioStore struct {
	client     *minio.Client
	publicBase string
}

// NewMinioStore initializes the S3 backend with static credentials.
func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: minio client: %w", err)
	}
	scheme := "http"
	if opts.UseSSL {
		scheme = "https"
	}
	return &MinioStore{
		client:     client,
		publicBase: fmt.Sprintf("%s://%s", scheme, opts.Endpoint),
	}, nil
}

func (s *MinioStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storage: put object %s/%s: %w", bucket, path, err)
	}
	return nil
}

// PublicURL assumes the bucket carries a public-read policy, mirroring the
// render bucket convention of the upstream storage service.
func (s *MinioStore) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBase, bucket, path)
}

var _ ObjectStore = (*MinioStore)(nil)
