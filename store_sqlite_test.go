package folio

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "folio.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProfileRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.GetProfile(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProfile on empty db: got %v, want ErrNotFound", err)
	}

	saved, err := s.SaveProfile(ctx, Profile{
		ImageURL:    "https://cdn.example.com/me.jpg",
		BioWords:    []string{"builder", "writer"},
		Description: "Hi there.",
	})
	if err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	if saved.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}

	if _, err := s.SaveProfile(ctx, Profile{Description: "Updated."}); err != nil {
		t.Fatalf("SaveProfile update failed: %v", err)
	}
	got, err := s.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got.Description != "Updated." {
		t.Errorf("Description = %q, want %q", got.Description, "Updated.")
	}
	if len(got.BioWords) != 0 {
		t.Errorf("BioWords = %v, want empty", got.BioWords)
	}
}

func TestWorkCRUD(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.CreateWork(ctx, Work{
		Title: "Dashboard",
		Link:  "https://example.com",
		Tags:  []string{" Go ", "go", "Web"},
	})
	if err != nil {
		t.Fatalf("CreateWork failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("ID should be assigned")
	}
	if len(created.Tags) != 2 || created.Tags[0] != "go" || created.Tags[1] != "web" {
		t.Errorf("Tags = %v, want [go web]", created.Tags)
	}

	created.Title = "Dashboard v2"
	updated, err := s.UpdateWork(ctx, created)
	if err != nil {
		t.Fatalf("UpdateWork failed: %v", err)
	}
	if updated.Title != "Dashboard v2" {
		t.Errorf("Title = %q, want %q", updated.Title, "Dashboard v2")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}

	if err := s.DeleteWork(ctx, created.ID); err != nil {
		t.Fatalf("DeleteWork failed: %v", err)
	}
	if _, err := s.GetWork(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetWork after delete: got %v, want ErrNotFound", err)
	}
	if err := s.DeleteWork(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteWork: got %v, want ErrNotFound", err)
	}
}

func TestUpdateMissingWork(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.UpdateWork(context.Background(), Work{ID: "nope", Title: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProductFlags(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, Product{
		Name:         "Widget",
		IsFeatured:   true,
		IsComingSoon: true,
		Images:       []string{"a.png", "b.png"},
	})
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if !got.IsFeatured || !got.IsComingSoon {
		t.Errorf("flags = %v/%v, want true/true", got.IsFeatured, got.IsComingSoon)
	}
	if len(got.Images) != 2 || got.Images[1] != "b.png" {
		t.Errorf("Images = %v, want [a.png b.png]", got.Images)
	}

	got.IsComingSoon = false
	if _, err := s.UpdateProduct(ctx, got); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	list, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(list) != 1 || list[0].IsComingSoon {
		t.Errorf("ListProducts = %+v, want one product no longer coming soon", list)
	}
}

func TestListPostsNewestFirstAndByTag(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []BlogPost{
		{Title: "Old", Content: "<p>old</p>", Tags: []string{"go"}},
		{Title: "Middle", Content: "<p>mid</p>", Tags: []string{"design"}},
		{Title: "New", Content: "<p>new</p>", Tags: []string{"Go", "testing"}},
	} {
		p.CreatedAt = base.Add(time.Duration(i) * 24 * time.Hour)
		if _, err := s.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost %q failed: %v", p.Title, err)
		}
	}

	all, err := s.ListPosts(ctx, "")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(all))
	}
	if all[0].Title != "New" || all[2].Title != "Old" {
		t.Errorf("order = %s, %s, %s; want New first and Old last", all[0].Title, all[1].Title, all[2].Title)
	}

	tagged, err := s.ListPosts(ctx, "go")
	if err != nil {
		t.Fatalf("ListPosts(go) failed: %v", err)
	}
	if len(tagged) != 2 {
		t.Fatalf("expected 2 go posts, got %d", len(tagged))
	}

	none, err := s.ListPosts(ctx, "rust")
	if err != nil {
		t.Fatalf("ListPosts(rust) failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", none)
	}
}

func TestSetPostCover(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePost(ctx, BlogPost{Title: "Cover", Content: "x"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if err := s.SetPostCover(ctx, p.ID, "https://cdn/blog/covers/cover/a.jpg"); err != nil {
		t.Fatalf("SetPostCover failed: %v", err)
	}
	got, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.CoverImage != "https://cdn/blog/covers/cover/a.jpg" {
		t.Errorf("CoverImage = %q", got.CoverImage)
	}
	if err := s.SetPostCover(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetPostCover on missing post: got %v, want ErrNotFound", err)
	}
}

func TestAuthorsAndCategories(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zoe", "Adam"} {
		if _, err := s.CreateAuthor(ctx, name); err != nil {
			t.Fatalf("CreateAuthor %q failed: %v", name, err)
		}
	}
	authors, err := s.ListAuthors(ctx)
	if err != nil {
		t.Fatalf("ListAuthors failed: %v", err)
	}
	if len(authors) != 2 || authors[0].Name != "Adam" {
		t.Errorf("ListAuthors = %+v, want Adam first", authors)
	}
	if _, err := s.CreateAuthor(ctx, "Adam"); err == nil {
		t.Error("expected duplicate author to fail")
	}

	cat, err := s.CreateCategory(ctx, "Notes")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(cats) != 0 {
		t.Errorf("expected no categories, got %+v", cats)
	}
	if err := s.DeleteAuthor(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteAuthor missing: got %v, want ErrNotFound", err)
	}
}

func TestCollectTags(t *testing.T) {
	posts := []BlogPost{
		{Tags: []string{"Go", "web"}},
		{Tags: []string{"go", " ", "design"}},
	}
	got := CollectTags(posts)
	want := []string{"design", "go", "web"}
	if len(got) != len(want) {
		t.Fatalf("CollectTags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CollectTags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
