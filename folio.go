// Package folio is a personal portfolio site: public pages for works,
// products and a blog, plus a session-guarded admin JSON API that writes to
// Postgres (or SQLite), object storage and a Resend contact list.
//
// Site owners supply page components through ViewFuncs; folio handles the
// handlers, middleware, storage and caching.
package folio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eringen/folio/resend"
	"github.com/eringen/folio/storage"
	"github.com/eringen/folio/supabase"
)

// ViewFuncs holds the page components folio renders. Any nil entry falls
// back to a plain-text page.
type ViewFuncs struct {
	Home        func(page HomePage, meta PageMeta) templ.Component
	Works       func(works []Work, meta PageMeta) templ.Component
	Products    func(products []Product, meta PageMeta) templ.Component
	Blog        func(posts []BlogPost, activeTag string, tags []string, meta PageMeta) templ.Component
	Post        func(post BlogPost, related []BlogPost, meta PageMeta) templ.Component
	Newsletter  func(state NewsletterState, meta PageMeta) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// ContactList is the newsletter audience. *resend.Client implements it.
type ContactList interface {
	AddContact(ctx context.Context, c resend.Contact) (resend.Contact, error)
	ListContacts(ctx context.Context) ([]resend.Contact, error)
	ListSegments(ctx context.Context) ([]resend.Segment, error)
}

// App is the central folio application. It wires together the store, object
// storage, contact list, cache, handlers, middleware and page components.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    Store
	Storage  storage.Store
	Contacts ContactList
	Cache    *ContentCache
	Views    ViewFuncs
	Logger   *zap.Logger
	Metrics  *prometheus.Registry

	loginLimiter      *LoginLimiter
	newsletterLimiter *LoginLimiter
	coverMoves        *prometheus.CounterVec
	cacheBackend      CacheBackend
	localUploads      string
	customRoutes      []func(*App)
	staticDir         string
	closers           []func() error
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore uses s instead of opening the configured database.
func WithStore(s Store) Option {
	return func(a *App) { a.Store = s }
}

// WithStorage uses s instead of the configured object storage.
func WithStorage(s storage.Store) Option {
	return func(a *App) { a.Storage = s }
}

// WithContacts uses cl instead of a Resend client built from the config.
func WithContacts(cl ContactList) Option {
	return func(a *App) { a.Contacts = cl }
}

// WithLogger replaces the no-op default logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.Logger = l }
}

// WithCacheBackend uses b for the content cache instead of the configured one.
func WithCacheBackend(b CacheBackend) Option {
	return func(a *App) { a.cacheBackend = b }
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs at the end of Init.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// New creates a folio App with the given configuration and page components.
// Call Init before serving.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		Config:    cfg,
		Echo:      e,
		Views:     views,
		Logger:    zap.NewNop(),
		Metrics:   reg,
		staticDir: "public",
	}
	a.coverMoves = newCoverMoveCounter(reg)

	for _, opt := range opts {
		opt(a)
	}
	a.Views.fillDefaults()
	return a
}

// Init validates the configuration, connects collaborators that were not
// supplied as options, and registers middleware and routes.
func (a *App) Init(ctx context.Context) error {
	if err := a.Config.validate(); err != nil {
		return fmt.Errorf("folio: invalid config: %w", err)
	}
	if err := a.openStore(ctx); err != nil {
		return err
	}
	if err := a.openStorage(); err != nil {
		return err
	}
	if a.Contacts == nil && a.Config.ResendAPIKey != "" {
		a.Contacts = resend.New(a.Config.ResendAPIKey, a.Config.ResendAudienceID)
	}
	if err := a.openCache(ctx); err != nil {
		return err
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.newsletterLimiter = NewLoginLimiter(10, time.Hour)
	a.closers = append(a.closers, func() error {
		a.loginLimiter.Stop()
		a.newsletterLimiter.Stop()
		return nil
	})

	a.Echo.Validator = newRequestValidator()
	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.Store != nil {
		return nil
	}
	switch a.Config.DatabaseDriver {
	case "postgres":
		s, err := NewPostgresStore(ctx, a.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("folio: init store: %w", err)
		}
		a.Store = s
	default:
		s, err := NewSQLiteStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("folio: init store: %w", err)
		}
		a.Store = s
	}
	a.closers = append(a.closers, a.Store.Close)
	return nil
}

func (a *App) openStorage() error {
	if a.Storage != nil {
		if l, ok := a.Storage.(*storage.Local); ok {
			a.localUploads = l.Root
		}
		return nil
	}
	switch a.Config.StorageDriver {
	case "supabase":
		a.Storage = supabase.NewStorage(a.Config.SupabaseURL, a.Config.SupabaseServiceKey)
	default:
		base := strings.TrimRight(a.Config.URL, "/") + "/uploads"
		l, err := storage.NewLocal(a.Config.StorageDir, base)
		if err != nil {
			return fmt.Errorf("folio: init storage: %w", err)
		}
		a.Storage = l
		a.localUploads = l.Root
	}
	return nil
}

func (a *App) openCache(ctx context.Context) error {
	backend := a.cacheBackend
	if backend == nil && a.Config.RedisURL != "" {
		opts, err := redis.ParseURL(a.Config.RedisURL)
		if err != nil {
			return fmt.Errorf("folio: parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return fmt.Errorf("folio: connect redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		backend = NewRedisBackend(client, "folio:content", a.Config.CacheTTL, a.Logger)
	}
	if backend == nil {
		backend = NewMemoryBackend(a.Config.CacheTTL)
	}
	a.Cache = NewContentCache(a.Store, backend)
	return nil
}

// Start serves HTTP until the server is shut down.
func (a *App) Start() error {
	a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, waits for in-flight requests and
// releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	return errors.Join(err, a.Close())
}

// Close releases resources opened by Init.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	if a.localUploads != "" {
		e.Static("/uploads", a.localUploads)
	}
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", a.metricsHandler())

	// Pages
	e.GET("/", a.handleHome)
	e.GET("/works/", a.handleWorks)
	e.GET("/products/", a.handleProducts)
	e.GET("/blog/", a.handleBlog)
	e.GET("/blog/:id/", a.handlePost)
	e.GET("/newsletter/", a.handleNewsletterPage)
	e.POST("/newsletter/", a.handleNewsletterForm)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)

	// Public API
	api := e.Group("/api")
	api.GET("/profile", a.apiGetProfile)
	api.GET("/works", a.apiListWorks)
	api.GET("/works/:id", a.apiGetWork)
	api.GET("/products", a.apiListProducts)
	api.GET("/products/:id", a.apiGetProduct)
	api.GET("/blog", a.apiListPosts)
	api.GET("/blog/:id", a.apiGetPost)
	api.GET("/authors", a.apiListAuthors)
	api.GET("/categories", a.apiListCategories)
	api.POST("/newsletter", a.apiSubscribe)

	api.POST("/auth/login", a.apiLogin)
	api.POST("/auth/logout", a.apiLogout)
	api.GET("/auth/session", a.apiSession)

	// Admin API
	admin := api.Group("/admin", a.requireAdmin)
	admin.PUT("/profile", a.apiSaveProfile)
	admin.POST("/works", a.apiCreateWork)
	admin.PUT("/works/:id", a.apiUpdateWork)
	admin.DELETE("/works/:id", a.apiDeleteWork)
	admin.POST("/products", a.apiCreateProduct)
	admin.PUT("/products/:id", a.apiUpdateProduct)
	admin.DELETE("/products/:id", a.apiDeleteProduct)
	admin.POST("/blog", a.apiCreatePost)
	admin.PUT("/blog/:id", a.apiUpdatePost)
	admin.DELETE("/blog/:id", a.apiDeletePost)
	admin.POST("/authors", a.apiCreateAuthor)
	admin.DELETE("/authors/:id", a.apiDeleteAuthor)
	admin.POST("/categories", a.apiCreateCategory)
	admin.DELETE("/categories/:id", a.apiDeleteCategory)
	admin.GET("/uploads/:bucket", a.apiListUploads)
	admin.POST("/uploads/:bucket", a.apiUpload)
	admin.DELETE("/uploads/:bucket", a.apiDeleteUpload)
	admin.GET("/newsletter/contacts", a.apiListContacts)
	admin.POST("/newsletter/contacts", a.apiAddContact)
	admin.GET("/newsletter/segments", a.apiListSegments)
}
