package folio

import (
	"context"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eringen/folio/storage"
)

// BlogBucket holds blog cover images under covers/<slug>/.
const BlogBucket = "blog"

const coverMoveTimeout = 30 * time.Second

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\-_\s]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slugify converts a title to the folder name used for its cover images.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CoverPath returns the object path of a cover image for a post titled title.
func CoverPath(title, filename string) string {
	return "covers/" + Slugify(title) + "/" + filename
}

// coverFolder returns the folder segment of covers/<folder>/<filename>, or ""
// when the path has a different shape.
func coverFolder(p string) string {
	parts := strings.Split(p, "/")
	if len(parts) == 3 && parts[0] == "covers" {
		return parts[1]
	}
	return ""
}

// NeedsFolderMove reports whether the cover object at p lives in a folder
// other than the slug of title. A title that slugs to "" has no folder to
// move into, so it never needs a move; the object stays where it is rather
// than landing at covers//<filename>.
func NeedsFolderMove(p, title string) bool {
	slug := Slugify(title)
	if slug == "" {
		return false
	}
	return coverFolder(p) != slug
}

// Cover move outcomes, used as the "outcome" label value.
const (
	coverMoved          = "moved"
	coverDownloadFailed = "download_failed"
	coverUploadFailed   = "upload_failed"
	coverUpdateFailed   = "update_failed"
	coverRemoveFailed   = "remove_failed"
)

func newCoverMoveCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "cover_moves_total",
		Help:      "Blog cover image folder moves by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(c)
	return c
}

// syncCoverFolder moves the cover of post into the folder matching its
// current title. It never fails the caller: every error is logged and the
// post keeps whatever cover_image it had when the failing step ran. It
// returns the cover URL the post ends up with.
func (a *App) syncCoverFolder(ctx context.Context, post BlogPost) string {
	oldPath, ok := storage.PathFromURL(a.Storage, BlogBucket, post.CoverImage)
	if !ok || !NeedsFolderMove(oldPath, post.Title) {
		return post.CoverImage
	}
	newPath := CoverPath(post.Title, path.Base(oldPath))

	// The move outlives the request that triggered it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), coverMoveTimeout)
	defer cancel()

	log := a.Logger.With(
		zap.String("post", post.ID),
		zap.String("from", oldPath),
		zap.String("to", newPath),
	)

	data, err := a.Storage.Download(ctx, BlogBucket, oldPath)
	if err != nil {
		log.Warn("cover move: download failed", zap.Error(err))
		a.coverMoves.WithLabelValues(coverDownloadFailed).Inc()
		return post.CoverImage
	}
	if err := a.Storage.Upload(ctx, BlogBucket, newPath, data, contentTypeFor(newPath)); err != nil {
		log.Warn("cover move: upload failed", zap.Error(err))
		a.coverMoves.WithLabelValues(coverUploadFailed).Inc()
		return post.CoverImage
	}
	newURL := a.Storage.PublicURL(BlogBucket, newPath)
	if err := a.Store.SetPostCover(ctx, post.ID, newURL); err != nil {
		log.Warn("cover move: updating post failed", zap.Error(err))
		a.coverMoves.WithLabelValues(coverUpdateFailed).Inc()
		return post.CoverImage
	}
	if err := a.Storage.Remove(ctx, BlogBucket, oldPath); err != nil {
		log.Warn("cover move: removing old object failed", zap.Error(err))
		a.coverMoves.WithLabelValues(coverRemoveFailed).Inc()
		return newURL
	}
	a.coverMoves.WithLabelValues(coverMoved).Inc()
	log.Info("cover moved")
	return newURL
}

// removeCover deletes the blog bucket object behind coverURL, if any.
func (a *App) removeCover(ctx context.Context, coverURL string) {
	p, ok := storage.PathFromURL(a.Storage, BlogBucket, coverURL)
	if !ok {
		return
	}
	if err := a.Storage.Remove(ctx, BlogBucket, p); err != nil {
		a.Logger.Warn("removing cover failed", zap.String("path", p), zap.Error(err))
	}
}
