// Package supabase adapts the Supabase Storage client to storage.Store.
package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/eringen/folio/storage"
)

const listLimit = 1000

// Storage talks to /storage/v1 of a Supabase project using a service key.
type Storage struct {
	// The client rewrites its shared request headers on every upload, so
	// uploads hold mu exclusively and other calls share it.
	mu     sync.RWMutex
	client *storage_go.Client
}

// NewStorage returns a Storage client for the project at projectURL.
func NewStorage(projectURL, serviceKey string) *Storage {
	base := strings.TrimSuffix(projectURL, "/") + "/storage/v1"
	return &Storage{
		client: storage_go.NewClient(base, serviceKey, map[string]string{"apikey": serviceKey}),
	}
}

// apiError converts a client failure. Supabase reports its status inside the
// body as a string the client does not decode, so a missing status means the
// request was rejected.
func apiError(err error) error {
	var se *storage_go.StorageError
	if !errors.As(err, &se) {
		return fmt.Errorf("supabase storage: %w", err)
	}
	msg := se.Message
	if se.Status == http.StatusNotFound || strings.Contains(strings.ToLower(msg), "not found") {
		return storage.ErrNotFound
	}
	code := se.Status
	if code == 0 {
		code = http.StatusBadRequest
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return &storage.APIError{StatusCode: code, Message: msg}
}

// Upload stores data at bucket/path, replacing any existing object.
func (s *Storage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upsert := true
	cacheControl := "max-age=3600"

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.client.UploadFile(bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		return apiError(err)
	}
	return nil
}

// Download returns the bytes stored at bucket/path.
func (s *Storage) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := s.client.DownloadFile(bucket, path)
	if err != nil {
		return nil, apiError(err)
	}
	return data, nil
}

// Remove deletes objects from bucket in a single call. Missing objects are
// not an error.
func (s *Storage) Remove(ctx context.Context, bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.client.RemoveFile(bucket, paths); err != nil {
		if err = apiError(err); !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return nil
}

// List returns the files directly inside the folder named by prefix. Nested
// folders are not descended into.
func (s *Storage) List(ctx context.Context, bucket, prefix string) ([]storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	folder := strings.Trim(prefix, "/")

	s.mu.RLock()
	files, err := s.client.ListFiles(bucket, folder, storage_go.FileSearchOptions{Limit: listLimit})
	s.mu.RUnlock()
	if err != nil {
		if err = apiError(err); errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]storage.Object, 0, len(files))
	for _, f := range files {
		// Folders come back without an id.
		if f.Id == "" {
			continue
		}
		name := f.Name
		if folder != "" {
			name = folder + "/" + f.Name
		}
		obj := storage.Object{Name: name}
		if meta, ok := f.Metadata.(map[string]any); ok {
			if size, ok := meta["size"].(float64); ok {
				obj.Size = int64(size)
			}
			obj.ContentType, _ = meta["mimetype"].(string)
		}
		if t, err := time.Parse(time.RFC3339, f.UpdatedAt); err == nil {
			obj.UpdatedAt = t
		}
		out = append(out, obj)
	}
	return out, nil
}

// PublicURL returns the public object URL for a path in a public bucket.
func (s *Storage) PublicURL(bucket, path string) string {
	return s.client.GetPublicUrl(bucket, path).SignedURL
}
