package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/funwriting/ai-agents/internal/logger"
)

// BucketService stores generated media in the platform's public media bucket
// and hands back the URL the backend records against the submission.
type BucketService interface {
	UploadImage(ctx context.Context, submissionID string, imageIndex int, data []byte, format string) (MediaUpload, error)
	UploadVideo(ctx context.Context, submissionID string, data []byte, format string) (MediaUpload, error)
	PublicURL(key string) string
}

type MediaUpload struct {
	URL  string
	Key  string
	Size int
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
}

func NewBucketService(log *logger.Logger, bucketName string) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	if strings.TrimSpace(bucketName) == "" {
		return nil, fmt.Errorf("media bucket name is empty")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		bucketName:    strings.TrimSpace(bucketName),
	}, nil
}

func (bs *bucketService) UploadImage(ctx context.Context, submissionID string, imageIndex int, data []byte, format string) (MediaUpload, error) {
	if format == "" {
		format = "png"
	}
	key := fmt.Sprintf("images/%s_%s_%d.%s", submissionID, shortID(), imageIndex, format)
	if err := bs.upload(ctx, key, data, "image/"+format); err != nil {
		return MediaUpload{}, err
	}
	up := MediaUpload{URL: bs.PublicURL(key), Key: key, Size: len(data)}
	bs.log.Info("Image uploaded", "key", key, "size", len(data))
	return up, nil
}

func (bs *bucketService) UploadVideo(ctx context.Context, submissionID string, data []byte, format string) (MediaUpload, error) {
	if format == "" {
		format = "mp4"
	}
	key := fmt.Sprintf("videos/%s_%s.%s", submissionID, shortID(), format)
	if err := bs.upload(ctx, key, data, "video/"+format); err != nil {
		return MediaUpload{}, err
	}
	up := MediaUpload{URL: bs.PublicURL(key), Key: key, Size: len(data)}
	bs.log.Info("Video uploaded", "key", key, "size", len(data))
	return up, nil
}

func (bs *bucketService) upload(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}

func shortID() string {
	return uuid.NewString()[:8]
}
