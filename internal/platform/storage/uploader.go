package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const defaultCacheControl = "public, max-age=31536000"

// Uploader writes objects into the product assets bucket and resolves their
// public download URLs.
type Uploader struct {
	provider *Provider
}

// NewUploader constructs an Uploader backed by the provided bucket provider.
func NewUploader(provider *Provider) (*Uploader, error) {
	if provider == nil {
		return nil, errors.New("storage uploader: provider is required")
	}
	return &Uploader{provider: provider}, nil
}

// Upload writes the payload under the given object path and returns a durable
// public URL for the stored object.
func (u *Uploader) Upload(ctx context.Context, object string, data []byte, contentType string) (string, error) {
	if u == nil || u.provider == nil {
		return "", errors.New("storage uploader: provider is not initialised")
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return "", errors.New("storage uploader: object name is required")
	}
	if len(data) == 0 {
		return "", errors.New("storage uploader: payload is empty")
	}

	bucket, bucketName, err := u.provider.Bucket(ctx)
	if err != nil {
		return "", err
	}

	writer := bucket.Object(object).NewWriter(ctx)
	writer.ContentType = strings.TrimSpace(contentType)
	writer.CacheControl = defaultCacheControl
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage uploader: write object %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage uploader: finalise object %s: %w", object, err)
	}

	return PublicURL(bucketName, object), nil
}

// PublicURL composes the Firebase Storage download URL for an object.
func PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media", bucket, url.PathEscape(object))
}
