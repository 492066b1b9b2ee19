package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storage_go "github.com/supabase-community/storage-go"

	"github.com/eringen/folio/storage"
)

var _ storage.Store = (*Storage)(nil)

func TestUploadSendsUpsert(t *testing.T) {
	var gotPath, gotUpsert, gotAuth, gotKey, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUpsert = r.Header.Get("x-upsert")
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"Key":"blog/covers/x/a.jpg"}`))
	}))
	defer srv.Close()

	s := NewStorage(srv.URL+"/", "service-key")
	err := s.Upload(context.Background(), "blog", "covers/x/a.jpg", []byte("img"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/blog/covers/x/a.jpg", gotPath)
	assert.Equal(t, "true", gotUpsert)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "service-key", gotKey)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "img", string(gotBody))
}

func TestUploadRespectsCancelledContext(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewStorage(srv.URL, "k").Upload(ctx, "blog", "a.jpg", []byte("x"), "image/jpeg")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestConcurrentUploadsKeepTheirContentType(t *testing.T) {
	var mu sync.Mutex
	types := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		types[r.URL.Path] = r.Header.Get("Content-Type")
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := NewStorage(srv.URL, "k")
	var wg sync.WaitGroup
	for _, f := range []struct{ name, typ string }{{"a.png", "image/png"}, {"b.gif", "image/gif"}, {"c.webp", "image/webp"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Upload(context.Background(), "works", f.name, []byte("x"), f.typ))
		}()
	}
	wg.Wait()

	assert.Equal(t, "image/png", types["/storage/v1/object/works/a.png"])
	assert.Equal(t, "image/gif", types["/storage/v1/object/works/b.gif"])
	assert.Equal(t, "image/webp", types["/storage/v1/object/works/c.webp"])
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/blog/covers/a/1.jpg", r.URL.Path)
		_, _ = w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	data, err := NewStorage(srv.URL, "k").Download(context.Background(), "blog", "covers/a/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
}

func TestDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
	}))
	defer srv.Close()

	_, err := NewStorage(srv.URL, "k").Download(context.Background(), "blog", "missing.jpg")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
}

func TestRejectedRequestIsClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"statusCode":"403","error":"Unauthorized","message":"new row violates row-level security policy"}`))
	}))
	defer srv.Close()

	err := NewStorage(srv.URL, "k").Upload(context.Background(), "works", "a.png", []byte("x"), "image/png")
	var apiErr *storage.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "new row violates row-level security policy", apiErr.Message)
}

func TestReportedStatusIsKept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":503,"message":"storage backend unavailable"}`))
	}))
	defer srv.Close()

	_, err := NewStorage(srv.URL, "k").List(context.Background(), "works", "")
	var apiErr *storage.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "storage backend unavailable", apiErr.Message)
}

func TestRemoveSendsPrefixes(t *testing.T) {
	var got map[string][]string
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	err := NewStorage(srv.URL, "k").Remove(context.Background(), "blog", "covers/a/1.jpg", "covers/b/2.jpg")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/storage/v1/object/blog", path)
	assert.Equal(t, []string{"covers/a/1.jpg", "covers/b/2.jpg"}, got["prefixes"])
}

func TestListSkipsFolders(t *testing.T) {
	var req storage_go.ListFileRequestBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/list/blog", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = w.Write([]byte(`[
			{"name":"nested","id":null,"metadata":null},
			{"name":"a.jpg","id":"1","updated_at":"2024-05-01T10:00:00.000Z","metadata":{"size":123,"mimetype":"image/jpeg"}}
		]`))
	}))
	defer srv.Close()

	objs, err := NewStorage(srv.URL, "k").List(context.Background(), "blog", "covers/hello/")
	require.NoError(t, err)
	assert.Equal(t, "covers/hello", req.Prefix)
	assert.Equal(t, 1000, req.Limit)
	require.Len(t, objs, 1)
	assert.Equal(t, "covers/hello/a.jpg", objs[0].Name)
	assert.Equal(t, int64(123), objs[0].Size)
	assert.Equal(t, "image/jpeg", objs[0].ContentType)
	assert.Equal(t, 2024, objs[0].UpdatedAt.Year())
}

func TestPublicURLRoundTrip(t *testing.T) {
	s := NewStorage("https://abc.supabase.co", "k")
	u := s.PublicURL("blog", "covers/hello-world/a.jpg")
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/blog/covers/hello-world/a.jpg", u)

	p, ok := storage.PathFromURL(s, "blog", u)
	require.True(t, ok)
	assert.Equal(t, "covers/hello-world/a.jpg", p)
}
