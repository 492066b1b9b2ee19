package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// html writes markup and remembers the first write error so page bodies can
// be written without checking every call.
type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// url writes a sanitized, escaped URL for use inside an attribute.
func (h *html) url(s string) {
	h.raw(templ.EscapeString(string(templ.URL(s))))
}

func (h *html) render(c templ.Component) {
	if h.err == nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func component(fn func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}
