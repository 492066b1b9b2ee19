package folio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentCacheServesUntilInvalidated(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	cache := NewContentCache(store, NewMemoryBackend(time.Hour))

	_, err := store.CreateWork(ctx, Work{Title: "first"})
	require.NoError(t, err)

	works, err := cache.Works(ctx)
	require.NoError(t, err)
	require.Len(t, works, 1)

	_, err = store.CreateWork(ctx, Work{Title: "second"})
	require.NoError(t, err)

	works, err = cache.Works(ctx)
	require.NoError(t, err)
	assert.Len(t, works, 1, "cached snapshot should be served")

	cache.Invalidate(ctx)
	works, err = cache.Works(ctx)
	require.NoError(t, err)
	assert.Len(t, works, 2)
}

func TestMemoryBackendExpires(t *testing.T) {
	b := NewMemoryBackend(10 * time.Millisecond)
	ctx := context.Background()

	b.Put(ctx, &Snapshot{Tags: []string{"go"}})
	_, ok := b.Get(ctx)
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = b.Get(ctx)
	assert.False(t, ok)
}

func TestContentCachePostLookupAndTags(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	cache := NewContentCache(store, NewMemoryBackend(time.Hour))

	p, err := store.CreatePost(ctx, BlogPost{Title: "Tagged", Content: "x", Tags: []string{"Go", "web"}})
	require.NoError(t, err)

	got, err := cache.Post(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tagged", got.Title)

	_, err = cache.Post(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	tags, err := cache.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "web"}, tags)

	posts, err := cache.Posts(ctx, "WEB")
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	b := NewRedisBackend(client, "folio:test", time.Minute, nil)
	_, ok := b.Get(ctx)
	assert.False(t, ok, "empty redis is a miss")

	b.Put(ctx, &Snapshot{Works: []Work{{ID: "w1", Title: "Cached"}}, Tags: []string{"go"}})
	snap, ok := b.Get(ctx)
	require.True(t, ok)
	require.Len(t, snap.Works, 1)
	assert.Equal(t, "Cached", snap.Works[0].Title)
	assert.Equal(t, time.Minute, mr.TTL("folio:test"))

	b.Clear(ctx)
	assert.False(t, mr.Exists("folio:test"))

	mr.FastForward(time.Minute)
	require.NoError(t, mr.Set("folio:test", "{not json"))
	_, ok = b.Get(ctx)
	assert.False(t, ok, "corrupt entries are misses")
}

func TestRedisBackendBehindContentCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ta := newTestApp(t, WithCacheBackend(NewRedisBackend(client, "folio:content", time.Minute, nil)))
	ta.login()

	rec := ta.do("POST", "/api/admin/products", map[string]any{"name": "Gadget"})
	require.Equal(t, 201, rec.Code, rec.Body.String())

	var products []Product
	decode(t, ta.do("GET", "/api/products", nil), &products)
	require.Len(t, products, 1)
	assert.True(t, mr.Exists("folio:content"))

	rec = ta.do("POST", "/api/admin/products", map[string]any{"name": "Gizmo"})
	require.Equal(t, 201, rec.Code)
	assert.False(t, mr.Exists("folio:content"), "admin writes clear the shared cache")
}

// pausingStore holds the first ListWorks call after it has read the table
// until release is closed.
type pausingStore struct {
	Store
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (s *pausingStore) ListWorks(ctx context.Context) ([]Work, error) {
	works, err := s.Store.ListWorks(ctx)
	s.once.Do(func() {
		close(s.read)
		<-s.release
	})
	return works, err
}

func TestInvalidateDuringReloadDiscardsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := &pausingStore{Store: setupTestStore(t), read: make(chan struct{}), release: make(chan struct{})}
	cache := NewContentCache(store, NewMemoryBackend(time.Hour))

	done := make(chan []Work)
	go func() {
		works, err := cache.Works(ctx)
		assert.NoError(t, err)
		done <- works
	}()
	<-store.read

	_, err := store.CreateWork(ctx, Work{Title: "written mid-reload"})
	require.NoError(t, err)
	cache.Invalidate(ctx)
	close(store.release)
	assert.Empty(t, <-done, "the in-flight reader sees what it read")

	works, err := cache.Works(ctx)
	require.NoError(t, err)
	require.Len(t, works, 1, "reload that raced an Invalidate must not be cached")
	assert.Equal(t, "written mid-reload", works[0].Title)
}
