// Package views is the default set of page components for a folio site.
package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/folio"
)

// Default returns the stock page components.
func Default() folio.ViewFuncs {
	return folio.ViewFuncs{
		Home:        Home,
		Works:       Works,
		Products:    Products,
		Blog:        Blog,
		Post:        Post,
		Newsletter:  Newsletter,
		NotFound:    NotFound,
		ServerError: ServerError,
	}
}

func Home(page folio.HomePage, meta folio.PageMeta) templ.Component {
	return Layout(meta, component(func(h *html) {
		h.raw(`<section class="intro">`)
		if page.Profile.ImageURL != "" {
			h.raw(`<img class="avatar" src="`)
			h.url(page.Profile.ImageURL)
			h.raw(`" alt="">`)
		}
		if len(page.Profile.BioWords) > 0 {
			h.raw(`<p class="bio-words">`)
			for _, w := range page.Profile.BioWords {
				h.raw(`<span>`)
				h.text(w)
				h.raw(`</span>`)
			}
			h.raw(`</p>`)
		}
		h.raw(`<p>`)
		h.text(page.Profile.Description)
		h.raw(`</p></section>`)

		if len(page.Works) > 0 {
			h.raw(`<section><h2><a href="/works/">Works</a></h2>`)
			for _, w := range page.Works {
				workCard(h, w)
			}
			h.raw(`</section>`)
		}
		if len(page.Products) > 0 {
			h.raw(`<section><h2><a href="/products/">Products</a></h2>`)
			for _, p := range page.Products {
				productCard(h, p)
			}
			h.raw(`</section>`)
		}
		if len(page.Posts) > 0 {
			h.raw(`<section><h2><a href="/blog/">Latest posts</a></h2>`)
			for _, p := range page.Posts {
				postCard(h, p)
			}
			h.raw(`</section>`)
		}
	}))
}

func Works(works []folio.Work, meta folio.PageMeta) templ.Component {
	return Layout(meta, component(func(h *html) {
		h.raw(`<h1>Works</h1>`)
		if len(works) == 0 {
			h.raw(`<p class="empty">Nothing here yet.</p>`)
		}
		for _, w := range works {
			workCard(h, w)
		}
	}))
}

func Products(products []folio.Product, meta folio.PageMeta) templ.Component {
	return Layout(meta, component(func(h *html) {
		h.raw(`<h1>Products</h1>`)
		if len(products) == 0 {
			h.raw(`<p class="empty">Nothing here yet.</p>`)
		}
		for _, p := range products {
			productCard(h, p)
		}
	}))
}

func Blog(posts []folio.BlogPost, activeTag string, tags []string, meta folio.PageMeta) templ.Component {
	return Layout(meta, component(func(h *html) {
		h.raw(`<h1>Blog</h1>`)
		tagList(h, tags, activeTag)
		if activeTag != "" {
			h.raw(`<p class="filter">Tagged <strong>`)
			h.text(activeTag)
			h.raw(`</strong> · <a href="/blog/">all posts</a></p>`)
		}
		if len(posts) == 0 {
			h.raw(`<p class="empty">No posts yet.</p>`)
		}
		for _, p := range posts {
			postCard(h, p)
		}
	}))
}

// Post renders a single post. Content is trusted HTML from the admin editor.
func Post(post folio.BlogPost, related []folio.BlogPost, meta folio.PageMeta) templ.Component {
	return Layout(meta, component(func(h *html) {
		h.raw(`<article class="post">`)
		if post.CoverImage != "" {
			h.raw(`<img class="cover" src="`)
			h.url(post.CoverImage)
			h.raw(`" alt="">`)
		}
		h.raw(`<h1>`)
		h.text(post.Title)
		h.raw(`</h1><p class="meta">`)
		if post.Author != "" {
			h.text(post.Author)
			h.raw(` · `)
		}
		h.text(post.CreatedAt.Format("Jan 2, 2006"))
		h.raw(`</p><div class="content">`)
		h.raw(post.Content)
		h.raw(`</div>`)
		tagList(h, post.Tags, "")
		h.raw(`</article>`)
		if len(related) > 0 {
			h.raw(`<aside><h2>Related</h2>`)
			for _, p := range related {
				postCard(h, p)
			}
			h.raw(`</aside>`)
		}
	}))
}

func Newsletter(state folio.NewsletterState, meta folio.PageMeta) templ.Component {
	return Layout(meta, component(func(h *html) {
		h.raw(`<h1>Newsletter</h1>`)
		if state.Subscribed {
			h.raw(`<p class="success">Thanks! You are on the list.</p>`)
			return
		}
		if state.Error != "" {
			h.raw(`<p class="error" role="alert">`)
			h.text(state.Error)
			h.raw(`</p>`)
		}
		h.raw(`<form method="post" action="/newsletter/"><input type="hidden" name="_csrf" value="`)
		h.text(state.CSRFToken)
		h.raw(`"><label>Email <input type="email" name="email" required value="`)
		h.text(state.Email)
		h.raw(`"></label><label>First name <input type="text" name="first_name"></label>`)
		h.raw(`<label>Last name <input type="text" name="last_name"></label>`)
		h.raw(`<button type="submit">Subscribe</button></form>`)
	}))
}

func NotFound() templ.Component {
	return Layout(folio.PageMeta{Title: "Not found"}, component(func(h *html) {
		h.raw(`<h1>Not found</h1><p>That page does not exist. <a href="/">Go home</a>.</p>`)
	}))
}

func ServerError() templ.Component {
	return Layout(folio.PageMeta{Title: "Error"}, component(func(h *html) {
		h.raw(`<h1>Something went wrong</h1><p>Please try again in a moment.</p>`)
	}))
}
