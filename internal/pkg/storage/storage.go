// Package storage keeps booking photos and partner documents in a Google
// Cloud Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// MaxUploadBytes caps a single upload.
const MaxUploadBytes = 5 << 20

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("file uploads are not configured")

// ErrTooLarge is returned for uploads over MaxUploadBytes.
var ErrTooLarge = errors.New("file too large")

// ErrUnsupportedType is returned for content types outside the allow-list.
var ErrUnsupportedType = errors.New("unsupported file type")

var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Object is a stored file.
type Object struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Store is the object storage used by the booking and partner flows.
type Store interface {
	Upload(ctx context.Context, folder, contentType string, r io.Reader) (*Object, error)
	Delete(ctx context.Context, name string) error
}

// GCSStore writes publicly readable objects to one bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a client from a service-account file, or from
// application default credentials when credentialsFile is empty.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Upload(ctx context.Context, folder, contentType string, r io.Reader) (*Object, error) {
	name, err := ObjectName(folder, contentType)
	if err != nil {
		return nil, err
	}

	// cancelling ctx aborts the upload without committing the object
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	n, err := io.Copy(w, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to copy file to storage: %w", err)
	}
	if n > MaxUploadBytes {
		cancel()
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrTooLarge, MaxUploadBytes)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	return &Object{
		Name:        name,
		URL:         PublicURL(s.bucket, name),
		ContentType: contentType,
		Size:        n,
	}, nil
}

func (s *GCSStore) Delete(ctx context.Context, name string) error {
	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Disabled rejects every upload; used when no bucket is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, io.Reader) (*Object, error) {
	return nil, ErrDisabled
}

func (Disabled) Delete(context.Context, string) error { return nil }

// ObjectName builds a unique object path under folder for contentType.
func ObjectName(folder, contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	ext, ok := allowedTypes[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext), nil
}

// PublicURL is the anonymous download URL of an object.
func PublicURL(bucket, name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, strings.Join(segments, "/"))
}
