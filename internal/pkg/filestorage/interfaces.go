package filestorage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPath is the route stored content is downloaded from
const PublicPath = "/uploads"

// ErrObjectNotFound is returned when a key has no stored content
var ErrObjectNotFound = errors.New("stored object not found")

// ErrInvalidKey is returned for keys that would escape the store
var ErrInvalidKey = errors.New("invalid storage key")

// Object describes content written to a store
type Object struct {
	Key         string // Store-relative key, used for deletion
	URL         string // Path clients use to download the content
	Size        int64
	ContentType string
}

// BlobStore keeps uploaded files outside the database
type BlobStore interface {
	// Save writes r under a fresh key inside prefix, keeping the extension of originalName
	Save(ctx context.Context, r io.Reader, size int64, originalName, contentType, prefix string) (Object, error)

	// Open streams stored content back; callers close the reader
	Open(ctx context.Context, key string) (io.ReadCloser, *Object, error)

	// Delete removes stored content. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// newKey builds "<prefix>/<uuid><ext>"
func newKey(prefix, originalName string) string {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(originalName))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// cleanKey rejects absolute keys and any that climb out of the store root
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "\\") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// publicURL joins the download route with a key
func publicURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + key
}

// KeyFromURL recovers the key of content served under baseURL
func KeyFromURL(baseURL, url string) (string, bool) {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key, err := cleanKey(strings.TrimPrefix(url, prefix))
	if err != nil {
		return "", false
	}
	return key, true
}
