package folio

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the system of record for site content. Create methods assign the
// id and creation time; Update methods keep the original creation time.
type Store interface {
	GetProfile(ctx context.Context) (Profile, error)
	SaveProfile(ctx context.Context, p Profile) (Profile, error)

	ListWorks(ctx context.Context) ([]Work, error)
	GetWork(ctx context.Context, id string) (Work, error)
	CreateWork(ctx context.Context, w Work) (Work, error)
	UpdateWork(ctx context.Context, w Work) (Work, error)
	DeleteWork(ctx context.Context, id string) error

	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// ListPosts returns posts newest first, filtered by tag when tag is non-empty.
	ListPosts(ctx context.Context, tag string) ([]BlogPost, error)
	GetPost(ctx context.Context, id string) (BlogPost, error)
	CreatePost(ctx context.Context, p BlogPost) (BlogPost, error)
	UpdatePost(ctx context.Context, p BlogPost) (BlogPost, error)
	SetPostCover(ctx context.Context, id, coverURL string) error
	DeletePost(ctx context.Context, id string) error

	ListAuthors(ctx context.Context) ([]Author, error)
	CreateAuthor(ctx context.Context, name string) (Author, error)
	DeleteAuthor(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name string) (Category, error)
	DeleteCategory(ctx context.Context, id string) error

	Close() error
}

// NormalizeTags lowercases and trims tags, dropping empties and duplicates
// while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = normalizeTag(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// CollectTags returns the sorted, deduplicated set of tags used by posts.
func CollectTags(posts []BlogPost) []string {
	set := make(map[string]struct{})
	for _, p := range posts {
		for _, t := range p.Tags {
			if t = normalizeTag(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
