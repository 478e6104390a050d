package assets

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shopforge/shopforge/pkg/catalog"
)

// S3Config holds S3-compatible object store settings.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	PublicURL string
}

// Validate checks required S3 settings.
func (c S3Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("asset store endpoint is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("asset store bucket is required")
	}
	return nil
}

// S3Store stores image assets in an S3-compatible object store.
type S3Store struct {
	client *minio.Client
	cfg    S3Config
}

// NewS3Store creates the client and ensures the bucket exists.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	store := &S3Store{client: client, cfg: cfg}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

// Upload stores one image payload. The object key doubles as the external ID
// used later to delete the asset.
func (s *S3Store) Upload(ctx context.Context, data []byte, productID string, displayOrder int) (catalog.ImageDescriptor, error) {
	key := fmt.Sprintf("products/%s/%d-%s", productID, displayOrder, uuid.NewString())
	contentType := http.DetectContentType(data)

	_, err := s.client.PutObject(
		ctx,
		s.cfg.Bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return catalog.ImageDescriptor{}, fmt.Errorf("upload asset %s: %w", key, err)
	}

	return catalog.ImageDescriptor{
		URL:          s.objectURL(key),
		ExternalID:   key,
		DisplayOrder: displayOrder,
	}, nil
}

// Delete removes one asset by its external ID (the object key).
func (s *S3Store) Delete(ctx context.Context, externalID string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, externalID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete asset %s: %w", externalID, err)
	}
	return nil
}

func (s *S3Store) objectURL(key string) string {
	if s.cfg.PublicURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.cfg.PublicURL, s.cfg.Bucket, key)
	}
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, key)
}

var _ Store = (*S3Store)(nil)
