package folio

import "time"

// Profile is the singleton "about me" record shown on the home page.
type Profile struct {
	ImageURL    string    `json:"image_url"`
	BioWords    []string  `json:"bio_words"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Work is a portfolio entry.
type Work struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	ImageURL    string    `json:"image_url"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is something built and shipped, with an icon and a gallery.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Link         string    `json:"link"`
	IsFeatured   bool      `json:"is_featured"`
	IsComingSoon bool      `json:"is_coming_soon"`
	Icon         string    `json:"icon"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
}

// BlogPost is a blog entry. Content is HTML produced by the admin editor.
type BlogPost struct {
	ID         string    `json:"id"`
	CoverImage string    `json:"cover_image"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Author     string    `json:"author"`
	Category   string    `json:"category"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
}

// Link returns the site-relative URL of the post page.
func (p BlogPost) Link() string {
	return "/blog/" + p.ID + "/"
}

// Author is a selectable blog post author.
type Author struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Category is a selectable blog post category.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}

// HomePage is everything the landing page renders.
type HomePage struct {
	Profile  Profile
	Works    []Work
	Products []Product
	Posts    []BlogPost
}

// NewsletterState drives the newsletter signup page.
type NewsletterState struct {
	Email      string
	Subscribed bool
	Error      string
	CSRFToken  string
}
