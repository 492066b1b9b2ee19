package folio

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type profileRequest struct {
	ImageURL    string   `json:"image_url" validate:"max=2048"`
	BioWords    []string `json:"bio_words" validate:"max=64,dive,max=64"`
	Description string   `json:"description" validate:"max=10000"`
}

type workRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=10000"`
	Link        string   `json:"link" validate:"omitempty,url"`
	ImageURL    string   `json:"image_url" validate:"max=2048"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=50"`
}

func (r workRequest) work(id string) Work {
	return Work{ID: id, Title: r.Title, Description: r.Description, Link: r.Link, ImageURL: r.ImageURL, Tags: r.Tags}
}

type productRequest struct {
	Name         string   `json:"name" validate:"required,max=200"`
	Description  string   `json:"description" validate:"max=10000"`
	Link         string   `json:"link" validate:"omitempty,url"`
	IsFeatured   bool     `json:"is_featured"`
	IsComingSoon bool     `json:"is_coming_soon"`
	Icon         string   `json:"icon" validate:"max=2048"`
	Images       []string `json:"images" validate:"max=20,dive,max=2048"`
}

func (r productRequest) product(id string) Product {
	return Product{
		ID:           id,
		Name:         r.Name,
		Description:  r.Description,
		Link:         r.Link,
		IsFeatured:   r.IsFeatured,
		IsComingSoon: r.IsComingSoon,
		Icon:         r.Icon,
		Images:       r.Images,
	}
}

type postRequest struct {
	CoverImage string     `json:"cover_image" validate:"max=2048"`
	Title      string     `json:"title" validate:"required,max=300"`
	Content    string     `json:"content" validate:"required"`
	Author     string     `json:"author" validate:"max=200"`
	Category   string     `json:"category" validate:"max=200"`
	Tags       []string   `json:"tags" validate:"max=20,dive,max=50"`
	CreatedAt  *time.Time `json:"created_at"`
}

func (r postRequest) post(id string) BlogPost {
	p := BlogPost{
		ID:         id,
		CoverImage: r.CoverImage,
		Title:      r.Title,
		Content:    r.Content,
		Author:     r.Author,
		Category:   r.Category,
		Tags:       r.Tags,
	}
	if r.CreatedAt != nil {
		p.CreatedAt = r.CreatedAt.UTC()
	}
	return p
}

type nameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type deleted struct {
	ID string `json:"id"`
}

// --- profile ---

func (a *App) apiGetProfile(c echo.Context) error {
	p, err := a.Store.GetProfile(c.Request().Context())
	if err != nil {
		return a.fail(c, err, "profile")
	}
	return ok(c, http.StatusOK, p)
}

func (a *App) apiSaveProfile(c echo.Context) error {
	var req profileRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "profile")
	}
	p, err := a.Store.SaveProfile(c.Request().Context(), Profile{
		ImageURL:    req.ImageURL,
		BioWords:    FilterEmpty(req.BioWords),
		Description: req.Description,
	})
	if err != nil {
		return a.fail(c, err, "profile")
	}
	return ok(c, http.StatusOK, p)
}

// --- works ---

func (a *App) apiListWorks(c echo.Context) error {
	works, err := a.Cache.Works(c.Request().Context())
	if err != nil {
		return a.fail(c, err, "work")
	}
	return ok(c, http.StatusOK, works)
}

func (a *App) apiGetWork(c echo.Context) error {
	w, err := a.Store.GetWork(c.Request().Context(), c.Param("id"))
	if err != nil {
		return a.fail(c, err, "work")
	}
	return ok(c, http.StatusOK, w)
}

func (a *App) apiCreateWork(c echo.Context) error {
	var req workRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "work")
	}
	ctx := c.Request().Context()
	w, err := a.Store.CreateWork(ctx, req.work(""))
	if err != nil {
		return a.fail(c, err, "work")
	}
	a.Cache.Invalidate(ctx)
	return ok(c, http.StatusCreated, w)
}

func (a *App) apiUpdateWork(c echo.Context) error {
	var req workRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "work")
	}
	ctx := c.Request().Context()
	w, err := a.Store.UpdateWork(ctx, req.work(c.Param("id")))
	if err != nil {
		return a.fail(c, err, "work")
	}
	a.Cache.Invalidate(ctx)
	return ok(c, http.StatusOK, w)
}

func (a *App) apiDeleteWork(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if err := a.Store.DeleteWork(ctx, id); err != nil {
		return a.fail(c, err, "work")
	}
	a.Cache.Invalidate(ctx)
	return ok(c, http.StatusOK, deleted{ID: id})
}

// --- products ---

func (a *App) apiListProducts(c echo.Context) error {
	products, err := a.Cache.Products(c.Request().Context())
	if err != nil {
		return a.fail(c, err, "product")
	}
	return ok(c, http.StatusOK, products)
}

func (a *App) apiGetProduct(c echo.Context) error {
	p, err := a.Store.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return a.fail(c, err, "product")
	}
	return ok(c, http.StatusOK, p)
}

func (a *App) apiCreateProduct(c echo.Context) error {
	var req productRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "product")
	}
	ctx := c.Request().Context()
	p, err := a.Store.CreateProduct(ctx, req.product(""))
	if err != nil {
		return a.fail(c, err, "product")
	}
	a.Cache.Invalidate(ctx)
	return ok(c, http.StatusCreated, p)
}

func (a *App) apiUpdateProduct(c echo.Context) error {
	var req productRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "product")
	}
	ctx := c.Request().Context()
	p, err := a.Store.UpdateProduct(ctx, req.product(c.Param("id")))
	if err != nil {
		return a.fail(c, err, "product")
	}
	a.Cache.Invalidate(ctx)
	return ok(c, http.StatusOK, p)
}

func (a *App) apiDeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if err := a.Store.DeleteProduct(ctx, id); err != nil {
		return a.fail(c, err, "product")
	}
	a.Cache.Invalidate(ctx)
	return ok(c, http.StatusOK, deleted{ID: id})
}

// --- blog ---

func (a *App) apiListPosts(c echo.Context) error {
	posts, err := a.Cache.Posts(c.Request().Context(), c.QueryParam("tag"))
	if err != nil {
		return a.fail(c, err, "blog post")
	}
	return ok(c, http.StatusOK, posts)
}

func (a *App) apiGetPost(c echo.Context) error {
	p, err := a.Store.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return a.fail(c, err, "blog post")
	}
	return ok(c, http.StatusOK, p)
}

func (a *App) apiCreatePost(c echo.Context) error {
	var req postRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "blog post")
	}
	ctx := c.Request().Context()
	p, err := a.Store.CreatePost(ctx, req.post(""))
	if err != nil {
		return a.fail(c, err, "blog post")
	}
	a.Cache.Invalidate(ctx)
	return ok(c, http.StatusCreated, p)
}

// apiUpdatePost saves the post and then moves its cover into the folder of
// the (possibly new) title. A failed move leaves the saved post as is.
func (a *App) apiUpdatePost(c echo.Context) error {
	var req postRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "blog post")
	}
	ctx := c.Request().Context()
	p, err := a.Store.UpdatePost(ctx, req.post(c.Param("id")))
	if err != nil {
		return a.fail(c, err, "blog post")
	}
	p.CoverImage = a.syncCoverFolder(ctx, p)
	a.Cache.Invalidate(ctx)
	return ok(c, http.StatusOK, p)
}

func (a *App) apiDeletePost(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	p, err := a.Store.GetPost(ctx, id)
	if err != nil {
		return a.fail(c, err, "blog post")
	}
	if err := a.Store.DeletePost(ctx, id); err != nil {
		return a.fail(c, err, "blog post")
	}
	a.removeCover(ctx, p.CoverImage)
	a.Cache.Invalidate(ctx)
	return ok(c, http.StatusOK, deleted{ID: id})
}

// --- authors and categories ---

func (a *App) apiListAuthors(c echo.Context) error {
	authors, err := a.Store.ListAuthors(c.Request().Context())
	if err != nil {
		return a.fail(c, err, "author")
	}
	return ok(c, http.StatusOK, authors)
}

func (a *App) apiCreateAuthor(c echo.Context) error {
	var req nameRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "author")
	}
	author, err := a.Store.CreateAuthor(c.Request().Context(), req.Name)
	if err != nil {
		return a.fail(c, err, "author")
	}
	return ok(c, http.StatusCreated, author)
}

func (a *App) apiDeleteAuthor(c echo.Context) error {
	id := c.Param("id")
	if err := a.Store.DeleteAuthor(c.Request().Context(), id); err != nil {
		return a.fail(c, err, "author")
	}
	return ok(c, http.StatusOK, deleted{ID: id})
}

func (a *App) apiListCategories(c echo.Context) error {
	categories, err := a.Store.ListCategories(c.Request().Context())
	if err != nil {
		return a.fail(c, err, "category")
	}
	return ok(c, http.StatusOK, categories)
}

func (a *App) apiCreateCategory(c echo.Context) error {
	var req nameRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "category")
	}
	category, err := a.Store.CreateCategory(c.Request().Context(), req.Name)
	if err != nil {
		return a.fail(c, err, "category")
	}
	return ok(c, http.StatusCreated, category)
}

func (a *App) apiDeleteCategory(c echo.Context) error {
	id := c.Param("id")
	if err := a.Store.DeleteCategory(c.Request().Context(), id); err != nil {
		return a.fail(c, err, "category")
	}
	return ok(c, http.StatusOK, deleted{ID: id})
}
