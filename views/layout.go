package views

import (
	"net/url"

	"github.com/a-h/templ"

	"github.com/eringen/folio"
)

var navLinks = []struct{ href, label string }{
	{"/works/", "Works"},
	{"/products/", "Products"},
	{"/blog/", "Blog"},
	{"/newsletter/", "Newsletter"},
}

// Layout wraps body in the site shell with SEO and OpenGraph tags from meta.
func Layout(meta folio.PageMeta, body templ.Component) templ.Component {
	return component(func(h *html) {
		h.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(meta.Title)
		h.raw(`</title>`)
		if meta.Description != "" {
			h.raw(`<meta name="description" content="`)
			h.text(meta.Description)
			h.raw(`"><meta property="og:description" content="`)
			h.text(meta.Description)
			h.raw(`">`)
		}
		h.raw(`<meta property="og:title" content="`)
		h.text(meta.Title)
		h.raw(`">`)
		if meta.OGType != "" {
			h.raw(`<meta property="og:type" content="`)
			h.text(meta.OGType)
			h.raw(`">`)
		}
		if meta.URL != "" {
			h.raw(`<link rel="canonical" href="`)
			h.url(meta.URL)
			h.raw(`"><meta property="og:url" content="`)
			h.url(meta.URL)
			h.raw(`">`)
		}
		if meta.Image != "" {
			h.raw(`<meta property="og:image" content="`)
			h.url(meta.Image)
			h.raw(`">`)
		}
		h.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml">`)
		h.raw(`<link rel="stylesheet" href="/public/styles.css"></head><body>`)
		h.raw(`<header><a href="/" class="brand">Home</a><nav>`)
		for _, l := range navLinks {
			h.raw(`<a href="` + l.href + `">` + l.label + `</a>`)
		}
		h.raw(`</nav></header><main>`)
		h.render(body)
		h.raw(`</main><footer><a href="/feed.xml">RSS</a></footer></body></html>`)
	})
}

func tagList(h *html, tags []string, active string) {
	if len(tags) == 0 {
		return
	}
	h.raw(`<ul class="tags">`)
	for _, t := range tags {
		h.raw(`<li><a href="/blog/?tag=`)
		h.text(url.QueryEscape(t))
		h.raw(`"`)
		if t == active {
			h.raw(` class="active" aria-current="true"`)
		}
		h.raw(`>`)
		h.text(t)
		h.raw(`</a></li>`)
	}
	h.raw(`</ul>`)
}

func postCard(h *html, p folio.BlogPost) {
	h.raw(`<article class="post-card"><a href="`)
	h.url(p.Link())
	h.raw(`">`)
	if p.CoverImage != "" {
		h.raw(`<img src="`)
		h.url(p.CoverImage)
		h.raw(`" alt="" loading="lazy">`)
	}
	h.raw(`<h3>`)
	h.text(p.Title)
	h.raw(`</h3></a><p class="meta"><time datetime="`)
	h.text(p.CreatedAt.Format("2006-01-02"))
	h.raw(`">`)
	h.text(p.CreatedAt.Format("Jan 2, 2006"))
	h.raw(`</time>`)
	if p.Category != "" {
		h.raw(` · `)
		h.text(p.Category)
	}
	h.raw(`</p><p>`)
	h.text(folio.Summarize(p.Content, 200))
	h.raw(`</p></article>`)
}

func workCard(h *html, w folio.Work) {
	h.raw(`<article class="work">`)
	if w.ImageURL != "" {
		h.raw(`<img src="`)
		h.url(w.ImageURL)
		h.raw(`" alt="" loading="lazy">`)
	}
	h.raw(`<h3>`)
	if w.Link != "" {
		h.raw(`<a href="`)
		h.url(w.Link)
		h.raw(`" rel="noopener">`)
		h.text(w.Title)
		h.raw(`</a>`)
	} else {
		h.text(w.Title)
	}
	h.raw(`</h3><p>`)
	h.text(w.Description)
	h.raw(`</p>`)
	if len(w.Tags) > 0 {
		h.raw(`<p class="tags">`)
		h.text(folio.JoinTags(w.Tags))
		h.raw(`</p>`)
	}
	h.raw(`</article>`)
}

func productCard(h *html, p folio.Product) {
	h.raw(`<article class="product`)
	if p.IsFeatured {
		h.raw(` featured`)
	}
	h.raw(`">`)
	if p.Icon != "" {
		h.raw(`<img class="icon" src="`)
		h.url(p.Icon)
		h.raw(`" alt="">`)
	}
	h.raw(`<h3>`)
	h.text(p.Name)
	if p.IsComingSoon {
		h.raw(` <span class="badge">Coming soon</span>`)
	}
	h.raw(`</h3><p>`)
	h.text(p.Description)
	h.raw(`</p>`)
	for _, img := range p.Images {
		h.raw(`<img src="`)
		h.url(img)
		h.raw(`" alt="" loading="lazy">`)
	}
	if p.Link != "" && !p.IsComingSoon {
		h.raw(`<a class="cta" href="`)
		h.url(p.Link)
		h.raw(`" rel="noopener">Visit</a>`)
	}
	h.raw(`</article>`)
}
