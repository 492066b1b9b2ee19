package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local stores objects as plain files under Root/<bucket>/<path> and serves
// them from BaseURL/<bucket>/<path>.
type Local struct {
	Root    string
	BaseURL string
}

// NewLocal creates a Local store rooted at dir.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{Root: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (l *Local) file(bucket, path string) (string, error) {
	if _, err := CleanPath(bucket); err != nil || strings.Contains(bucket, "/") {
		return "", fmt.Errorf("storage: invalid bucket %q", bucket)
	}
	p, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.Root, bucket, filepath.FromSlash(p)), nil
}

func (l *Local) Upload(_ context.Context, bucket, path string, data []byte, _ string) error {
	name, err := l.file(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

func (l *Local) Download(_ context.Context, bucket, path string) ([]byte, error) {
	name, err := l.file(bucket, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Remove deletes the given objects. Missing objects are ignored, and empty
// parent folders are pruned so renamed cover folders do not linger.
func (l *Local) Remove(_ context.Context, bucket string, paths ...string) error {
	for _, p := range paths {
		name, err := l.file(bucket, p)
		if err != nil {
			return err
		}
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove object: %w", err)
		}
		bucketDir := filepath.Join(l.Root, bucket)
		for dir := filepath.Dir(name); dir != bucketDir && strings.HasPrefix(dir, bucketDir); dir = filepath.Dir(dir) {
			if os.Remove(dir) != nil {
				break
			}
		}
	}
	return nil
}

func (l *Local) List(_ context.Context, bucket, prefix string) ([]Object, error) {
	if _, err := CleanPath(bucket); err != nil {
		return nil, err
	}
	root := filepath.Join(l.Root, bucket)
	var out []Object
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Object{
			Name:        rel,
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(filepath.Ext(rel)),
			UpdatedAt:   info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (l *Local) PublicURL(bucket, path string) string {
	return l.BaseURL + "/" + bucket + "/" + path
}
