package folio

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// sqliteTime is a fixed-width layout so that text ordering matches time ordering.
const sqliteTime = "2006-01-02T15:04:05.000000Z"

// SQLiteStore keeps site content in a local SQLite database. It mirrors the
// Postgres tables and is used for development and tests.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, and creates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; busy_timeout makes writers wait
	// instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS profile (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    image_url TEXT NOT NULL DEFAULT '',
    bio_words TEXT NOT NULL DEFAULT '[]',
    description TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS works (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    link TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS products (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    link TEXT NOT NULL DEFAULT '',
    is_featured INTEGER NOT NULL DEFAULT 0,
    is_coming_soon INTEGER NOT NULL DEFAULT 0,
    icon TEXT NOT NULL DEFAULT '',
    images TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS blog_posts (
    id TEXT PRIMARY KEY,
    cover_image TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS authors (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_works_created ON works(created_at);
CREATE INDEX IF NOT EXISTS idx_products_created ON products(created_at);
CREATE INDEX IF NOT EXISTS idx_blog_posts_created ON blog_posts(created_at);
`)
	return err
}

func encodeList(vals []string) string {
	if vals == nil {
		vals = []string{}
	}
	b, _ := json.Marshal(vals)
	return string(b)
}

func decodeList(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || len(out) == 0 {
		return []string{}
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(sqliteTime, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// checkAffected turns an UPDATE or DELETE that matched nothing into ErrNotFound.
func checkAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
	}
	return nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
	}
	return err
}

// --- profile ---

func (s *SQLiteStore) GetProfile(ctx context.Context) (Profile, error) {
	var p Profile
	var words, updated string
	err := s.db.QueryRowContext(ctx, `SELECT image_url, bio_words, description, updated_at FROM profile WHERE id = 1`).
		Scan(&p.ImageURL, &words, &p.Description, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("profile: %w", ErrNotFound)
	}
	if err != nil {
		return Profile{}, err
	}
	p.BioWords = decodeList(words)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, p Profile) (Profile, error) {
	p.UpdatedAt = nowUTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO profile (id, image_url, bio_words, description, updated_at) VALUES (1, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET image_url = excluded.image_url, bio_words = excluded.bio_words,
    description = excluded.description, updated_at = excluded.updated_at`,
		p.ImageURL, encodeList(p.BioWords), p.Description, formatTime(p.UpdatedAt))
	if err != nil {
		return Profile{}, err
	}
	return s.GetProfile(ctx)
}

// --- works ---

const workColumns = `id, title, description, link, image_url, tags, created_at`

func scanWork(row interface{ Scan(...any) error }) (Work, error) {
	var w Work
	var tags, created string
	if err := row.Scan(&w.ID, &w.Title, &w.Description, &w.Link, &w.ImageURL, &tags, &created); err != nil {
		return Work{}, err
	}
	w.Tags = decodeList(tags)
	w.CreatedAt = parseTime(created)
	return w, nil
}

func (s *SQLiteStore) ListWorks(ctx context.Context) ([]Work, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+workColumns+` FROM works ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	works := []Work{}
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, rows.Err()
}

func (s *SQLiteStore) GetWork(ctx context.Context, id string) (Work, error) {
	w, err := scanWork(s.db.QueryRowContext(ctx, `SELECT `+workColumns+` FROM works WHERE id = ?`, id))
	if err != nil {
		return Work{}, notFound(err, "work", id)
	}
	return w, nil
}

func (s *SQLiteStore) CreateWork(ctx context.Context, w Work) (Work, error) {
	w.ID = uuid.NewString()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = nowUTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO works (`+workColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Title, w.Description, w.Link, w.ImageURL, encodeList(NormalizeTags(w.Tags)), formatTime(w.CreatedAt))
	if err != nil {
		return Work{}, err
	}
	return s.GetWork(ctx, w.ID)
}

func (s *SQLiteStore) UpdateWork(ctx context.Context, w Work) (Work, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE works SET title = ?, description = ?, link = ?, image_url = ?, tags = ? WHERE id = ?`,
		w.Title, w.Description, w.Link, w.ImageURL, encodeList(NormalizeTags(w.Tags)), w.ID)
	if err != nil {
		return Work{}, err
	}
	if err := checkAffected(res, "work", w.ID); err != nil {
		return Work{}, err
	}
	return s.GetWork(ctx, w.ID)
}

func (s *SQLiteStore) DeleteWork(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM works WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "work", id)
}

// --- products ---

const productColumns = `id, name, description, link, is_featured, is_coming_soon, icon, images, created_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	var featured, soon int
	var images, created string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Link, &featured, &soon, &p.Icon, &images, &created); err != nil {
		return Product{}, err
	}
	p.IsFeatured = featured == 1
	p.IsComingSoon = soon == 1
	p.Images = decodeList(images)
	p.CreatedAt = parseTime(created)
	return p, nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		return Product{}, notFound(err, "product", id)
	}
	return p, nil
}

func (s *SQLiteStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = nowUTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Link, boolInt(p.IsFeatured), boolInt(p.IsComingSoon), p.Icon,
		encodeList(p.Images), formatTime(p.CreatedAt))
	if err != nil {
		return Product{}, err
	}
	return s.GetProduct(ctx, p.ID)
}

func (s *SQLiteStore) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE products SET name = ?, description = ?, link = ?, is_featured = ?,
    is_coming_soon = ?, icon = ?, images = ? WHERE id = ?`,
		p.Name, p.Description, p.Link, boolInt(p.IsFeatured), boolInt(p.IsComingSoon), p.Icon, encodeList(p.Images), p.ID)
	if err != nil {
		return Product{}, err
	}
	if err := checkAffected(res, "product", p.ID); err != nil {
		return Product{}, err
	}
	return s.GetProduct(ctx, p.ID)
}

func (s *SQLiteStore) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "product", id)
}

// --- blog posts ---

const postColumns = `id, cover_image, title, content, author, category, tags, created_at`

func scanPost(row interface{ Scan(...any) error }) (BlogPost, error) {
	var p BlogPost
	var tags, created string
	if err := row.Scan(&p.ID, &p.CoverImage, &p.Title, &p.Content, &p.Author, &p.Category, &tags, &created); err != nil {
		return BlogPost{}, err
	}
	p.Tags = decodeList(tags)
	p.CreatedAt = parseTime(created)
	return p, nil
}

func (s *SQLiteStore) ListPosts(ctx context.Context, tag string) ([]BlogPost, error) {
	var rows *sql.Rows
	var err error
	if tag = normalizeTag(tag); tag == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM blog_posts ORDER BY created_at DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM blog_posts
WHERE EXISTS (SELECT 1 FROM json_each(blog_posts.tags) WHERE json_each.value = ?)
ORDER BY created_at DESC`, tag)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *SQLiteStore) GetPost(ctx context.Context, id string) (BlogPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id))
	if err != nil {
		return BlogPost{}, notFound(err, "blog post", id)
	}
	return p, nil
}

func (s *SQLiteStore) CreatePost(ctx context.Context, p BlogPost) (BlogPost, error) {
	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = nowUTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO blog_posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CoverImage, p.Title, p.Content, p.Author, p.Category, encodeList(NormalizeTags(p.Tags)), formatTime(p.CreatedAt))
	if err != nil {
		return BlogPost{}, err
	}
	return s.GetPost(ctx, p.ID)
}

func (s *SQLiteStore) UpdatePost(ctx context.Context, p BlogPost) (BlogPost, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE blog_posts SET cover_image = ?, title = ?, content = ?, author = ?,
    category = ?, tags = ? WHERE id = ?`,
		p.CoverImage, p.Title, p.Content, p.Author, p.Category, encodeList(NormalizeTags(p.Tags)), p.ID)
	if err != nil {
		return BlogPost{}, err
	}
	if err := checkAffected(res, "blog post", p.ID); err != nil {
		return BlogPost{}, err
	}
	return s.GetPost(ctx, p.ID)
}

func (s *SQLiteStore) SetPostCover(ctx context.Context, id, coverURL string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE blog_posts SET cover_image = ? WHERE id = ?`, coverURL, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "blog post", id)
}

func (s *SQLiteStore) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "blog post", id)
}

// --- authors and categories ---

// listNamed and friends serve the two id/name/created_at lookup tables.
func (s *SQLiteStore) listNamed(ctx context.Context, table string) ([]Author, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Author{}
	for rows.Next() {
		var a Author
		var created string
		if err := rows.Scan(&a.ID, &a.Name, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) createNamed(ctx context.Context, table, name string) (Author, error) {
	a := Author{ID: uuid.NewString(), Name: strings.TrimSpace(name), CreatedAt: nowUTC()}
	_, err := s.db.ExecContext(ctx, `INSERT INTO `+table+` (id, name, created_at) VALUES (?, ?, ?)`,
		a.ID, a.Name, formatTime(a.CreatedAt))
	if err != nil {
		return Author{}, err
	}
	a.CreatedAt = parseTime(formatTime(a.CreatedAt))
	return a, nil
}

func (s *SQLiteStore) deleteNamed(ctx context.Context, table, what, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, what, id)
}

func (s *SQLiteStore) ListAuthors(ctx context.Context) ([]Author, error) {
	return s.listNamed(ctx, "authors")
}

func (s *SQLiteStore) CreateAuthor(ctx context.Context, name string) (Author, error) {
	return s.createNamed(ctx, "authors", name)
}

func (s *SQLiteStore) DeleteAuthor(ctx context.Context, id string) error {
	return s.deleteNamed(ctx, "authors", "author", id)
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]Category, error) {
	authors, err := s.listNamed(ctx, "categories")
	if err != nil {
		return nil, err
	}
	out := make([]Category, len(authors))
	for i, a := range authors {
		out[i] = Category(a)
	}
	return out, nil
}

func (s *SQLiteStore) CreateCategory(ctx context.Context, name string) (Category, error) {
	a, err := s.createNamed(ctx, "categories", name)
	return Category(a), err
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	return s.deleteNamed(ctx, "categories", "category", id)
}
