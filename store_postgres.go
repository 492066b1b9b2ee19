package folio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eringen/folio/schema"
)

// PostgresStore reads and writes the Supabase Postgres tables directly.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate applies the bundled schema. Every statement is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema.Postgres); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// validID rejects ids that cannot be uuids so they read as missing rows
// instead of surfacing a cast error.
func validID(what, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
	}
	return nil
}

func pgNotFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
	}
	return err
}

func pgAffected(tag pgconn.CommandTag, what, id string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
	}
	return nil
}

func nonNil(vals []string) []string {
	if vals == nil {
		return []string{}
	}
	return vals
}

// --- profile ---

func (s *PostgresStore) GetProfile(ctx context.Context) (Profile, error) {
	var p Profile
	err := s.pool.QueryRow(ctx, `SELECT coalesce(image_url, ''), coalesce(bio_words, '{}'), coalesce(description, ''), updated_at
FROM profile ORDER BY id LIMIT 1`).Scan(&p.ImageURL, &p.BioWords, &p.Description, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("profile: %w", ErrNotFound)
	}
	if err != nil {
		return Profile{}, err
	}
	p.BioWords = nonNil(p.BioWords)
	return p, nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, p Profile) (Profile, error) {
	_, err := s.pool.Exec(ctx, `
INSERT INTO profile (id, image_url, bio_words, description, updated_at) VALUES (1, $1, $2, $3, now())
ON CONFLICT (id) DO UPDATE SET image_url = excluded.image_url, bio_words = excluded.bio_words,
    description = excluded.description, updated_at = excluded.updated_at`,
		p.ImageURL, nonNil(p.BioWords), p.Description)
	if err != nil {
		return Profile{}, err
	}
	return s.GetProfile(ctx)
}

// --- works ---

const pgWorkColumns = `id::text, title, coalesce(description, ''), coalesce(link, ''), coalesce(image_url, ''),
    coalesce(tags, '{}'), created_at`

func scanPgWork(row pgx.Row) (Work, error) {
	var w Work
	if err := row.Scan(&w.ID, &w.Title, &w.Description, &w.Link, &w.ImageURL, &w.Tags, &w.CreatedAt); err != nil {
		return Work{}, err
	}
	w.Tags = nonNil(w.Tags)
	return w, nil
}

func (s *PostgresStore) ListWorks(ctx context.Context) ([]Work, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+pgWorkColumns+` FROM works ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	works := []Work{}
	for rows.Next() {
		w, err := scanPgWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, rows.Err()
}

func (s *PostgresStore) GetWork(ctx context.Context, id string) (Work, error) {
	if err := validID("work", id); err != nil {
		return Work{}, err
	}
	w, err := scanPgWork(s.pool.QueryRow(ctx, `SELECT `+pgWorkColumns+` FROM works WHERE id = $1`, id))
	if err != nil {
		return Work{}, pgNotFound(err, "work", id)
	}
	return w, nil
}

// createdAt passes a caller-supplied creation time through and leaves a zero
// time to the database default.
func createdAt(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *PostgresStore) CreateWork(ctx context.Context, w Work) (Work, error) {
	return scanPgWork(s.pool.QueryRow(ctx, `INSERT INTO works (title, description, link, image_url, tags, created_at)
VALUES ($1, $2, $3, $4, $5, coalesce($6::timestamptz, now())) RETURNING `+pgWorkColumns,
		w.Title, w.Description, w.Link, w.ImageURL, NormalizeTags(w.Tags), createdAt(w.CreatedAt)))
}

func (s *PostgresStore) UpdateWork(ctx context.Context, w Work) (Work, error) {
	if err := validID("work", w.ID); err != nil {
		return Work{}, err
	}
	out, err := scanPgWork(s.pool.QueryRow(ctx, `UPDATE works SET title = $2, description = $3, link = $4,
    image_url = $5, tags = $6 WHERE id = $1 RETURNING `+pgWorkColumns,
		w.ID, w.Title, w.Description, w.Link, w.ImageURL, NormalizeTags(w.Tags)))
	if err != nil {
		return Work{}, pgNotFound(err, "work", w.ID)
	}
	return out, nil
}

func (s *PostgresStore) DeleteWork(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "works", "work", id)
}

func (s *PostgresStore) deleteByID(ctx context.Context, table, what, id string) error {
	if err := validID(what, id); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return pgAffected(tag, what, id)
}

// --- products ---

const pgProductColumns = `id::text, name, coalesce(description, ''), coalesce(link, ''), is_featured, is_coming_soon,
    coalesce(icon, ''), coalesce(images, '{}'), created_at`

func scanPgProduct(row pgx.Row) (Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Link, &p.IsFeatured, &p.IsComingSoon, &p.Icon, &p.Images, &p.CreatedAt); err != nil {
		return Product{}, err
	}
	p.Images = nonNil(p.Images)
	return p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+pgProductColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanPgProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (Product, error) {
	if err := validID("product", id); err != nil {
		return Product{}, err
	}
	p, err := scanPgProduct(s.pool.QueryRow(ctx, `SELECT `+pgProductColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return Product{}, pgNotFound(err, "product", id)
	}
	return p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
	return scanPgProduct(s.pool.QueryRow(ctx, `INSERT INTO products (name, description, link, is_featured, is_coming_soon, icon, images, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, coalesce($8::timestamptz, now())) RETURNING `+pgProductColumns,
		p.Name, p.Description, p.Link, p.IsFeatured, p.IsComingSoon, p.Icon, nonNil(p.Images), createdAt(p.CreatedAt)))
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if err := validID("product", p.ID); err != nil {
		return Product{}, err
	}
	out, err := scanPgProduct(s.pool.QueryRow(ctx, `UPDATE products SET name = $2, description = $3, link = $4,
    is_featured = $5, is_coming_soon = $6, icon = $7, images = $8 WHERE id = $1 RETURNING `+pgProductColumns,
		p.ID, p.Name, p.Description, p.Link, p.IsFeatured, p.IsComingSoon, p.Icon, nonNil(p.Images)))
	if err != nil {
		return Product{}, pgNotFound(err, "product", p.ID)
	}
	return out, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "products", "product", id)
}

// --- blog posts ---

const pgPostColumns = `id::text, coalesce(cover_image, ''), title, coalesce(content, ''), coalesce(author, ''),
    coalesce(category, ''), coalesce(tags, '{}'), created_at`

func scanPgPost(row pgx.Row) (BlogPost, error) {
	var p BlogPost
	if err := row.Scan(&p.ID, &p.CoverImage, &p.Title, &p.Content, &p.Author, &p.Category, &p.Tags, &p.CreatedAt); err != nil {
		return BlogPost{}, err
	}
	p.Tags = nonNil(p.Tags)
	return p, nil
}

func (s *PostgresStore) ListPosts(ctx context.Context, tag string) ([]BlogPost, error) {
	var rows pgx.Rows
	var err error
	if tag = normalizeTag(tag); tag == "" {
		rows, err = s.pool.Query(ctx, `SELECT `+pgPostColumns+` FROM blog_posts ORDER BY created_at DESC`)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+pgPostColumns+` FROM blog_posts WHERE $1 = ANY(tags) ORDER BY created_at DESC`, tag)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []BlogPost{}
	for rows.Next() {
		p, err := scanPgPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (BlogPost, error) {
	if err := validID("blog post", id); err != nil {
		return BlogPost{}, err
	}
	p, err := scanPgPost(s.pool.QueryRow(ctx, `SELECT `+pgPostColumns+` FROM blog_posts WHERE id = $1`, id))
	if err != nil {
		return BlogPost{}, pgNotFound(err, "blog post", id)
	}
	return p, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, p BlogPost) (BlogPost, error) {
	return scanPgPost(s.pool.QueryRow(ctx, `INSERT INTO blog_posts (cover_image, title, content, author, category, tags, created_at)
VALUES ($1, $2, $3, $4, $5, $6, coalesce($7::timestamptz, now())) RETURNING `+pgPostColumns,
		p.CoverImage, p.Title, p.Content, p.Author, p.Category, NormalizeTags(p.Tags), createdAt(p.CreatedAt)))
}

func (s *PostgresStore) UpdatePost(ctx context.Context, p BlogPost) (BlogPost, error) {
	if err := validID("blog post", p.ID); err != nil {
		return BlogPost{}, err
	}
	out, err := scanPgPost(s.pool.QueryRow(ctx, `UPDATE blog_posts SET cover_image = $2, title = $3, content = $4,
    author = $5, category = $6, tags = $7 WHERE id = $1 RETURNING `+pgPostColumns,
		p.ID, p.CoverImage, p.Title, p.Content, p.Author, p.Category, NormalizeTags(p.Tags)))
	if err != nil {
		return BlogPost{}, pgNotFound(err, "blog post", p.ID)
	}
	return out, nil
}

func (s *PostgresStore) SetPostCover(ctx context.Context, id, coverURL string) error {
	if err := validID("blog post", id); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE blog_posts SET cover_image = $2 WHERE id = $1`, id, coverURL)
	if err != nil {
		return err
	}
	return pgAffected(tag, "blog post", id)
}

func (s *PostgresStore) DeletePost(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "blog_posts", "blog post", id)
}

// --- authors and categories ---

func (s *PostgresStore) listNamed(ctx context.Context, table string) ([]Author, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, name, created_at FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Author{}
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) createNamed(ctx context.Context, table, name string) (Author, error) {
	var a Author
	err := s.pool.QueryRow(ctx, `INSERT INTO `+table+` (name) VALUES ($1) RETURNING id::text, name, created_at`,
		strings.TrimSpace(name)).Scan(&a.ID, &a.Name, &a.CreatedAt)
	return a, err
}

func (s *PostgresStore) ListAuthors(ctx context.Context) ([]Author, error) {
	return s.listNamed(ctx, "authors")
}

func (s *PostgresStore) CreateAuthor(ctx context.Context, name string) (Author, error) {
	return s.createNamed(ctx, "authors", name)
}

func (s *PostgresStore) DeleteAuthor(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "authors", "author", id)
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	named, err := s.listNamed(ctx, "categories")
	if err != nil {
		return nil, err
	}
	out := make([]Category, len(named))
	for i, a := range named {
		out[i] = Category(a)
	}
	return out, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, name string) (Category, error) {
	a, err := s.createNamed(ctx, "categories", name)
	return Category(a), err
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "categories", "category", id)
}
