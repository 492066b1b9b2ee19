package folio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Snapshot is the cached public content: everything the public pages list.
type Snapshot struct {
	Works    []Work     `json:"works"`
	Products []Product  `json:"products"`
	Posts    []BlogPost `json:"posts"`
	Tags     []string   `json:"tags"`
}

// CacheBackend holds a Snapshot between requests. Implementations treat
// failures as misses.
type CacheBackend interface {
	Get(ctx context.Context) (*Snapshot, bool)
	Put(ctx context.Context, s *Snapshot)
	Clear(ctx context.Context)
}

// ContentCache serves public reads from a CacheBackend and falls back to the
// Store on a miss.
type ContentCache struct {
	store   Store
	backend CacheBackend
	loadMu  sync.Mutex

	// genMu guards gen. A reload only stores its snapshot if no Invalidate
	// ran while it was reading the store.
	genMu sync.Mutex
	gen   uint64
}

// NewContentCache creates a ContentCache backed by the given Store.
func NewContentCache(s Store, backend CacheBackend) *ContentCache {
	return &ContentCache{store: s, backend: backend}
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ContentCache) Invalidate(ctx context.Context) {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	c.gen++
	c.backend.Clear(ctx)
}

func (c *ContentCache) generation() uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.gen
}

func (c *ContentCache) snapshot(ctx context.Context) (*Snapshot, error) {
	if s, ok := c.backend.Get(ctx); ok {
		return s, nil
	}
	// Serialize reloads so a burst of misses hits the database once.
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if s, ok := c.backend.Get(ctx); ok {
		return s, nil
	}
	gen := c.generation()
	s, err := loadSnapshot(ctx, c.store)
	if err != nil {
		return nil, err
	}
	c.genMu.Lock()
	if c.gen == gen {
		c.backend.Put(ctx, s)
	}
	c.genMu.Unlock()
	return s, nil
}

func loadSnapshot(ctx context.Context, store Store) (*Snapshot, error) {
	works, err := store.ListWorks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load works: %w", err)
	}
	products, err := store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	posts, err := store.ListPosts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	return &Snapshot{Works: works, Products: products, Posts: posts, Tags: CollectTags(posts)}, nil
}

// Works returns all works, newest first.
func (c *ContentCache) Works(ctx context.Context) ([]Work, error) {
	s, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.Works, nil
}

// Products returns all products, newest first.
func (c *ContentCache) Products(ctx context.Context) ([]Product, error) {
	s, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.Products, nil
}

// Posts returns blog posts, optionally filtered by tag.
func (c *ContentCache) Posts(ctx context.Context, tag string) ([]BlogPost, error) {
	s, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return s.Posts, nil
	}
	normalized := normalizeTag(tag)
	filtered := []BlogPost{}
	for _, p := range s.Posts {
		for _, t := range p.Tags {
			if normalizeTag(t) == normalized {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// Tags returns all unique tags from blog posts.
func (c *ContentCache) Tags(ctx context.Context) ([]string, error) {
	s, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.Tags, nil
}

// Post returns a single blog post by id from the cache.
func (c *ContentCache) Post(ctx context.Context, id string) (BlogPost, error) {
	s, err := c.snapshot(ctx)
	if err != nil {
		return BlogPost{}, err
	}
	for _, p := range s.Posts {
		if p.ID == id {
			return p, nil
		}
	}
	return BlogPost{}, fmt.Errorf("blog post %q: %w", id, ErrNotFound)
}

// MemoryBackend keeps the snapshot in process memory for ttl.
type MemoryBackend struct {
	mu      sync.RWMutex
	snap    *Snapshot
	fetched time.Time
	ttl     time.Duration
}

// NewMemoryBackend creates an in-process cache backend.
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{ttl: ttl}
}

func (m *MemoryBackend) Get(context.Context) (*Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil || time.Since(m.fetched) >= m.ttl {
		return nil, false
	}
	return m.snap, true
}

func (m *MemoryBackend) Put(_ context.Context, s *Snapshot) {
	m.mu.Lock()
	m.snap = s
	m.fetched = time.Now()
	m.mu.Unlock()
}

func (m *MemoryBackend) Clear(context.Context) {
	m.mu.Lock()
	m.snap = nil
	m.mu.Unlock()
}

// RedisBackend shares the snapshot between instances through Redis.
type RedisBackend struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisBackend stores the snapshot under key with the given ttl.
func NewRedisBackend(client redis.UniversalClient, key string, ttl time.Duration, logger *zap.Logger) *RedisBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBackend{client: client, key: key, ttl: ttl, logger: logger}
}

func (r *RedisBackend) Get(ctx context.Context) (*Snapshot, bool) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("content cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Warn("content cache entry is corrupt", zap.Error(err))
		return nil, false
	}
	return &s, true
}

func (r *RedisBackend) Put(ctx context.Context, s *Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		r.logger.Warn("content cache encode failed", zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("content cache write failed", zap.Error(err))
	}
}

func (r *RedisBackend) Clear(ctx context.Context) {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		r.logger.Warn("content cache invalidate failed", zap.Error(err))
	}
}
