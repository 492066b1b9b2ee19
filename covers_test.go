package folio

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/storage"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Hello, World 2.0", "hello-world-20"},
		{"My Post!!", "my-post"},
		{"my   post", "my-post"},
		{"  --Leading and trailing--  ", "leading-and-trailing"},
		{"snake_case stays", "snake_case-stays"},
		{"a - b", "a-b"},
		{"Ünïcödé", "ncd"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	for _, in := range []string{"Hello, World 2.0", "My Post!!", "  a  b  ", "x_y-z", "Ünïcödé title"} {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNeedsFolderMove(t *testing.T) {
	tests := []struct {
		path, title string
		want        bool
	}{
		{"covers/hello-world/a.jpg", "Hello World", false},
		{"covers/hello-world/a.jpg", "Hello, World 2.0", true},
		{"covers/a.jpg", "Hello World", true},
		{"a.jpg", "Hello World", true},
		{"covers/x/y/a.jpg", "x", true},
		{"covers/old/a.jpg", "!!!", false},
		{"covers/old/a.jpg", "", false},
	}
	for _, tt := range tests {
		if got := NeedsFolderMove(tt.path, tt.title); got != tt.want {
			t.Errorf("NeedsFolderMove(%q, %q) = %v, want %v", tt.path, tt.title, got, tt.want)
		}
	}
}

func TestCoverPath(t *testing.T) {
	if got := CoverPath("Hello World", "a.jpg"); got != "covers/hello-world/a.jpg" {
		t.Errorf("CoverPath = %q", got)
	}
}

func TestRenameMovesCover(t *testing.T) {
	ta := newTestApp(t)
	ta.login()
	ctx := context.Background()

	oldPath := "covers/hello-world/a.jpg"
	require.NoError(t, ta.local.Upload(ctx, BlogBucket, oldPath, []byte("jpeg bytes"), "image/jpeg"))
	post, err := ta.Store.CreatePost(ctx, BlogPost{
		Title:      "Hello World",
		Content:    "<p>hi</p>",
		CoverImage: ta.local.PublicURL(BlogBucket, oldPath),
	})
	require.NoError(t, err)

	rec := ta.do(http.MethodPut, "/api/admin/blog/"+post.ID, map[string]any{
		"title":       "Hello, World 2.0",
		"content":     "<p>hi</p>",
		"cover_image": post.CoverImage,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated BlogPost
	resp := decode(t, rec, &updated)
	assert.True(t, resp.Success)

	newURL := ta.local.PublicURL(BlogBucket, "covers/hello-world-20/a.jpg")
	assert.Equal(t, newURL, updated.CoverImage)
	assert.Equal(t, "Hello, World 2.0", updated.Title)

	stored, err := ta.Store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, newURL, stored.CoverImage)

	data, err := ta.local.Download(ctx, BlogBucket, "covers/hello-world-20/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	_, err = ta.local.Download(ctx, BlogBucket, oldPath)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "old object should be gone, got %v", err)

	assert.Equal(t, 1.0, testutil.ToFloat64(ta.coverMoves.WithLabelValues(coverMoved)))
}

func TestUpdateWithoutRenameLeavesCover(t *testing.T) {
	ta := newTestApp(t)
	ta.login()
	ctx := context.Background()

	p := "covers/same-title/a.jpg"
	require.NoError(t, ta.local.Upload(ctx, BlogBucket, p, []byte("x"), "image/jpeg"))
	post, err := ta.Store.CreatePost(ctx, BlogPost{Title: "Same Title", Content: "c", CoverImage: ta.local.PublicURL(BlogBucket, p)})
	require.NoError(t, err)

	rec := ta.do(http.MethodPut, "/api/admin/blog/"+post.ID, map[string]any{
		"title":       "Same   Title!",
		"content":     "changed",
		"cover_image": post.CoverImage,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, ta.storage.uploads)

	_, err = ta.local.Download(ctx, BlogBucket, p)
	assert.NoError(t, err)
}

func TestFailedCoverMoveStillSavesPost(t *testing.T) {
	ta := newTestApp(t)
	ta.login()
	ctx := context.Background()

	missing := ta.local.PublicURL(BlogBucket, "covers/old-title/gone.jpg")
	post, err := ta.Store.CreatePost(ctx, BlogPost{Title: "Old Title", Content: "c", CoverImage: missing})
	require.NoError(t, err)

	rec := ta.do(http.MethodPut, "/api/admin/blog/"+post.ID, map[string]any{
		"title":       "New Title",
		"content":     "c",
		"cover_image": missing,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated BlogPost
	decode(t, rec, &updated)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, missing, updated.CoverImage)
	assert.Equal(t, 0, ta.storage.uploads)
	assert.Equal(t, 1.0, testutil.ToFloat64(ta.coverMoves.WithLabelValues(coverDownloadFailed)))
}

func TestExternalCoverIsNotMoved(t *testing.T) {
	ta := newTestApp(t)
	ta.login()

	post, err := ta.Store.CreatePost(context.Background(), BlogPost{
		Title:      "Linked",
		Content:    "c",
		CoverImage: "https://images.example.org/pic.jpg",
	})
	require.NoError(t, err)

	rec := ta.do(http.MethodPut, "/api/admin/blog/"+post.ID, map[string]any{
		"title":       "Renamed",
		"content":     "c",
		"cover_image": post.CoverImage,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated BlogPost
	decode(t, rec, &updated)
	assert.Equal(t, "https://images.example.org/pic.jpg", updated.CoverImage)
	assert.Equal(t, 0, ta.storage.uploads)
}

func TestDeletePostRemovesCover(t *testing.T) {
	ta := newTestApp(t)
	ta.login()
	ctx := context.Background()

	p := "covers/bye/a.jpg"
	require.NoError(t, ta.local.Upload(ctx, BlogBucket, p, []byte("x"), "image/jpeg"))
	post, err := ta.Store.CreatePost(ctx, BlogPost{Title: "Bye", Content: "c", CoverImage: ta.local.PublicURL(BlogBucket, p)})
	require.NoError(t, err)

	rec := ta.do(http.MethodDelete, "/api/admin/blog/"+post.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err = ta.local.Download(ctx, BlogBucket, p)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = ta.Store.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
