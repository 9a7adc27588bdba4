package profile

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/jadihebat/platform/internal/config"
)

// avatarCacheControl keeps avatars cacheable for a year; a new upload gets
// a new key, so stale caches never matter.
const avatarCacheControl = "public, max-age=31536000"

// AvatarStore uploads avatar images to S3-compatible object storage
// (Cloudflare R2 in production) and returns their public URLs.
type AvatarStore interface {
	// Upload stores the image under a fresh key and returns the public URL.
	Upload(ctx context.Context, body io.Reader, contentType string) (string, error)
}

// avatarStore implements AvatarStore on the AWS S3 client.
type avatarStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewAvatarStore builds an S3-backed avatar store from storage settings.
// Returns an error when storage is not configured; callers should treat a
// nil store as "uploads disabled".
func NewAvatarStore(ctx context.Context, storage config.StorageConfig) (AvatarStore, error) {
	if !storage.Configured() {
		return nil, fmt.Errorf("object storage is not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			storage.AccessKeyID, storage.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading storage credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(storage.Endpoint)
		// R2 does not support virtual-hosted bucket addressing.
		o.UsePathStyle = true
	})

	return &avatarStore{
		client:    client,
		bucket:    storage.Bucket,
		publicURL: strings.TrimRight(storage.PublicURL, "/"),
	}, nil
}

// extensionFor maps an image content type to a file extension. Callers
// validate the content type first; this only picks the suffix.
func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

func (s *avatarStore) Upload(ctx context.Context, body io.Reader, contentType string) (string, error) {
	key := fmt.Sprintf("avatars/%s.%s", uuid.NewString(), extensionFor(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(avatarCacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("uploading avatar: %w", err)
	}

	return s.publicURL + "/" + key, nil
}
