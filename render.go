package folio

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// textPage renders a bare HTML page with a title and a line of text.
func textPage(title, body string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<!doctype html><title>"+templ.EscapeString(title)+"</title><p>"+templ.EscapeString(body)+"</p>")
		return err
	})
}

func (v *ViewFuncs) fillDefaults() {
	if v.Home == nil {
		v.Home = func(_ HomePage, meta PageMeta) templ.Component { return textPage(meta.Title, meta.Description) }
	}
	if v.Works == nil {
		v.Works = func(_ []Work, meta PageMeta) templ.Component { return textPage(meta.Title, meta.Description) }
	}
	if v.Products == nil {
		v.Products = func(_ []Product, meta PageMeta) templ.Component { return textPage(meta.Title, meta.Description) }
	}
	if v.Blog == nil {
		v.Blog = func(_ []BlogPost, _ string, _ []string, meta PageMeta) templ.Component {
			return textPage(meta.Title, meta.Description)
		}
	}
	if v.Post == nil {
		v.Post = func(p BlogPost, _ []BlogPost, meta PageMeta) templ.Component { return textPage(meta.Title, p.Title) }
	}
	if v.Newsletter == nil {
		v.Newsletter = func(s NewsletterState, meta PageMeta) templ.Component {
			switch {
			case s.Error != "":
				return textPage(meta.Title, s.Error)
			case s.Subscribed:
				return textPage(meta.Title, "Subscribed.")
			}
			return textPage(meta.Title, meta.Description)
		}
	}
	if v.NotFound == nil {
		v.NotFound = func() templ.Component { return textPage("Not found", "Page not found.") }
	}
	if v.ServerError == nil {
		v.ServerError = func() templ.Component { return textPage("Error", "Something went wrong.") }
	}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = a.fail(c, err, "resource")
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound || errors.Is(err, ErrNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
