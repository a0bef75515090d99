package generative

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"surveyforge/internal/config"
)

// ImageStore persists generated image bytes and returns a URL a browser can load
type ImageStore interface {
	PutImage(ctx context.Context, data []byte, contentType string) (string, error)
}

// MinioImageStore stores images in an S3-compatible bucket
type MinioImageStore struct {
	cli           *minio.Client
	bucket        string
	publicBaseURL string
	presignTTL    time.Duration
}

// NewMinioImageStore connects to the bucket, creating it when missing
func NewMinioImageStore(ctx context.Context, cfg *config.StorageConfig) (*MinioImageStore, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("created image bucket")
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MinioImageStore{
		cli:           cli,
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
		presignTTL:    ttl,
	}, nil
}

// PutImage uploads data under a content-addressed key
func (s *MinioImageStore) PutImage(ctx context.Context, data []byte, contentType string) (string, error) {
	key := ImageKey(data, contentType)
	_, err := s.cli.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + s.bucket + "/" + key, nil
	}
	u, err := s.cli.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// ImageKey derives the object key from the image content
func ImageKey(data []byte, contentType string) string {
	sum := sha256.Sum256(data)
	ext := "png"
	switch contentType {
	case "image/jpeg":
		ext = "jpg"
	case "image/webp":
		ext = "webp"
	}
	return "avatars/" + hex.EncodeToString(sum[:16]) + "." + ext
}
