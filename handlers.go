package folio

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// homePosts is how many recent posts the landing page shows.
const homePosts = 3

func (a *App) siteMeta(title, description string, segments ...string) PageMeta {
	if title == "" {
		title = a.Config.Name
	} else {
		title += " | " + a.Config.Name
	}
	if description == "" {
		description = a.Config.Description
	}
	return PageMeta{
		Title:       title,
		Description: description,
		URL:         BuildURL(a.Config.URL, segments...),
		OGType:      "website",
	}
}

func (a *App) handleHome(c echo.Context) error {
	var page HomePage
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		p, err := a.Store.GetProfile(ctx)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		page.Profile = p
		return err
	})
	g.Go(func() (err error) {
		page.Works, err = a.Cache.Works(ctx)
		return err
	})
	g.Go(func() (err error) {
		page.Products, err = a.Cache.Products(ctx)
		return err
	})
	g.Go(func() error {
		posts, err := a.Cache.Posts(ctx, "")
		if len(posts) > homePosts {
			posts = posts[:homePosts]
		}
		page.Posts = posts
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	meta := a.siteMeta("", page.Profile.Description)
	meta.Image = page.Profile.ImageURL
	return Render(c, a.Views.Home(page, meta))
}

func (a *App) handleWorks(c echo.Context) error {
	works, err := a.Cache.Works(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Works(works, a.siteMeta("Works", "", "works")))
}

func (a *App) handleProducts(c echo.Context) error {
	products, err := a.Cache.Products(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Products(products, a.siteMeta("Products", "", "products")))
}

func (a *App) handleBlog(c echo.Context) error {
	ctx := c.Request().Context()
	tag := c.QueryParam("tag")
	posts, err := a.Cache.Posts(ctx, tag)
	if err != nil {
		return err
	}
	tags, err := a.Cache.Tags(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Blog(posts, tag, tags, a.siteMeta("Blog", "", "blog")))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Cache.Post(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	posts, err := a.Cache.Posts(ctx, "")
	if err != nil {
		return err
	}
	meta := a.siteMeta(post.Title, Summarize(post.Content, 160), "blog", post.ID)
	meta.OGType = "article"
	meta.Image = post.CoverImage
	return Render(c, a.Views.Post(post, FilterRelatedPosts(post, posts), meta))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.Posts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.Posts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

// handleRobots serves public/robots.txt when the site has one and a
// permissive default pointing at the sitemap otherwise.
func (a *App) handleRobots(c echo.Context) error {
	file := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(file); err == nil {
		return c.File(file)
	}
	body := "User-agent: *\nDisallow: /api/\nSitemap: " + strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) handleHealth(c echo.Context) error {
	if _, err := a.Store.GetProfile(c.Request().Context()); err != nil && !errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
