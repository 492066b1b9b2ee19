// Package storage defines the object storage contract used for uploaded
// images, plus a filesystem-backed implementation for local development.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when an object does not exist in a bucket.
var ErrNotFound = errors.New("storage: object not found")

// Object describes a stored file.
type Object struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is a bucketed object store. Upload always overwrites.
type Store interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	Remove(ctx context.Context, bucket string, paths ...string) error
	List(ctx context.Context, bucket, prefix string) ([]Object, error)
	PublicURL(bucket, path string) string
}

// APIError is an error reported by a remote storage service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storage: %s (status %d)", e.Message, e.StatusCode)
}

// PathFromURL maps a public URL produced by s back to the object path inside
// bucket. It reports false for URLs that do not belong to the bucket.
func PathFromURL(s Store, bucket, publicURL string) (string, bool) {
	prefix := s.PublicURL(bucket, "")
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	p := strings.TrimPrefix(publicURL, prefix)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "", false
	}
	return p, true
}

// CleanPath normalizes an object path and rejects traversal outside the bucket.
func CleanPath(p string) (string, error) {
	p = strings.TrimLeft(strings.TrimSpace(p), "/")
	if p == "" {
		return "", errors.New("storage: empty object path")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("storage: invalid object path %q", p)
		}
	}
	return p, nil
}
