package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/pageza/kitchen-buddy/backend/config"
)

// ObjectStore is the part of the S3 client the image service needs
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// ImageService keeps uploaded recipe images in S3
type ImageService struct {
	client ObjectStore
	bucket string
	region string
}

// NewImageService creates a new ImageService instance
func NewImageService(s3Config *config.S3Config) *ImageService {
	return &ImageService{
		client: s3Config.Client,
		bucket: s3Config.BucketName,
		region: s3Config.Region,
	}
}

// NewImageServiceWithClient creates an ImageService on any ObjectStore implementation
func NewImageServiceWithClient(client ObjectStore, bucket, region string) *ImageService {
	return &ImageService{client: client, bucket: bucket, region: region}
}

// StoreRecipeImage uploads an image under the user's prefix and returns its public URL
func (s *ImageService) StoreRecipeImage(ctx context.Context, data []byte, mediaType string, userID uuid.UUID) (string, error) {
	key := fmt.Sprintf("recipe-images/%s/%s%s", userID, uuid.NewString(), imageExtension(mediaType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mediaType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := s.objectURL(key)
	slog.Info("recipe image stored", "bucket", s.bucket, "key", key, "bytes", len(data))
	return publicURL, nil
}

// DeleteRecipeImage removes an image previously returned by StoreRecipeImage
func (s *ImageService) DeleteRecipeImage(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.objectURL(""))
	if !ok || key == "" {
		return fmt.Errorf("%w: %q is not an object in bucket %s", ErrValidation, url, s.bucket)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	slog.Info("recipe image deleted", "bucket", s.bucket, "key", key)
	return nil
}

func (s *ImageService) objectURL(key string) string {
	if s.region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func imageExtension(mediaType string) string {
	switch strings.ToLower(mediaType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
