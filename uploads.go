package folio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	_ "golang.org/x/image/webp"

	"github.com/eringen/folio/storage"
)

const maxUploadSize = 5 << 20 // 5 MiB

// uploadBuckets are the buckets the admin may write to.
var uploadBuckets = map[string]bool{
	"profile-images": true,
	"works":          true,
	"products":       true,
	BlogBucket:       true,
}

// allowedImageTypes maps accepted MIME types to the extension stored objects get.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type uploadResult struct {
	Path   string `json:"path"`
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type listedObject struct {
	storage.Object
	URL string `json:"url"`
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

func bucketParam(c echo.Context) (string, error) {
	bucket := c.Param("bucket")
	if !uploadBuckets[bucket] {
		return "", badRequest(fmt.Sprintf("unknown bucket %q", bucket))
	}
	return bucket, nil
}

// uploadName turns a client file name into a safe object name with the
// canonical extension for its type.
func uploadName(filename, ext string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	name := Slugify(base)
	if name == "" {
		name = "image"
	}
	return name + ext
}

// objectPath picks where an upload lands. Every name carries the upload time.
// Blog covers are grouped by the slug of the post title so they can follow
// renames.
func objectPath(bucket, title, name string, now time.Time) string {
	stamped := strconv.FormatInt(now.UnixMilli(), 10) + "-" + name
	if bucket != BlogBucket {
		return stamped
	}
	if Slugify(title) == "" {
		return "covers/" + stamped
	}
	return CoverPath(title, stamped)
}

// uploadType resolves the MIME type of an upload from its part header,
// sniffing the bytes when the client sent nothing useful.
func uploadType(header string, data []byte) string {
	ctype, _, err := mime.ParseMediaType(header)
	if err != nil || ctype == "" || ctype == "application/octet-stream" {
		ctype, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	return strings.ToLower(ctype)
}

func contentTypeFor(p string) string {
	if t := mime.TypeByExtension(path.Ext(p)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// imageSize reports the pixel dimensions of data, or zeros when the format
// cannot be decoded.
func imageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func (a *App) apiUpload(c echo.Context) error {
	bucket, err := bucketParam(c)
	if err != nil {
		return a.fail(c, err, "upload")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return a.fail(c, badRequest("file is required"), "upload")
	}
	if fh.Size > maxUploadSize {
		return a.fail(c, badRequest("file too large (max 5 MiB)"), "upload")
	}
	src, err := fh.Open()
	if err != nil {
		return a.fail(c, err, "upload")
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return a.fail(c, err, "upload")
	}
	if len(data) > maxUploadSize {
		return a.fail(c, badRequest("file too large (max 5 MiB)"), "upload")
	}

	ctype := uploadType(fh.Header.Get(echo.HeaderContentType), data)
	ext, allowed := allowedImageTypes[ctype]
	if !allowed {
		return a.fail(c, badRequest(fmt.Sprintf("unsupported file type %q", ctype)), "upload")
	}

	p := objectPath(bucket, c.FormValue("title"), uploadName(fh.Filename, ext), time.Now())
	if err := a.Storage.Upload(c.Request().Context(), bucket, p, data, ctype); err != nil {
		return a.fail(c, err, "upload")
	}
	w, h := imageSize(data)
	return ok(c, http.StatusCreated, uploadResult{
		Path:   p,
		URL:    a.Storage.PublicURL(bucket, p),
		Width:  w,
		Height: h,
	})
}

func (a *App) apiListUploads(c echo.Context) error {
	bucket, err := bucketParam(c)
	if err != nil {
		return a.fail(c, err, "upload")
	}
	objects, err := a.Storage.List(c.Request().Context(), bucket, c.QueryParam("prefix"))
	if err != nil {
		return a.fail(c, err, "upload")
	}
	out := make([]listedObject, 0, len(objects))
	for _, o := range objects {
		out = append(out, listedObject{Object: o, URL: a.Storage.PublicURL(bucket, o.Name)})
	}
	return ok(c, http.StatusOK, out)
}

func (a *App) apiDeleteUpload(c echo.Context) error {
	bucket, err := bucketParam(c)
	if err != nil {
		return a.fail(c, err, "upload")
	}
	p, err := storage.CleanPath(c.QueryParam("path"))
	if err != nil {
		return a.fail(c, badRequest("path is required"), "upload")
	}
	if err := a.Storage.Remove(c.Request().Context(), bucket, p); err != nil {
		return a.fail(c, err, "upload")
	}
	return ok(c, http.StatusOK, map[string]string{"path": p})
}
