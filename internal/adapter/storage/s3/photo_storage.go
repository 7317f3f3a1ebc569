package s3

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/AlphaIsYour/creanomic-sub002/internal/app/config"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PhotoStorage stores offer photos in a MinIO/S3 bucket and returns public
// URLs to be embedded in the offer record.
type PhotoStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       logger.Logger
}

func NewPhotoStorage(ctx context.Context, cfg config.S3Config, log logger.Logger) (*PhotoStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := client.BucketExists(ctx, cfg.Bucket)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", cfg.Bucket, err, errBucketExists)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}

	return &PhotoStorage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		log:       log,
	}, nil
}

func (s *PhotoStorage) Upload(ctx context.Context, originalFileName string, data []byte) (string, error) {
	ext := filepath.Ext(originalFileName)
	objectKey := fmt.Sprintf("photos/%s%s", uuid.New().String(), ext)

	uploadInfo, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		s.log.Errorf("PhotoStorage.Upload: PutObject failed for key %s: %v", objectKey, err)
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	s.log.Infof("PhotoStorage.Upload: uploaded %s (%d bytes, etag %s)", uploadInfo.Key, uploadInfo.Size, uploadInfo.ETag)

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectKey), nil
}
