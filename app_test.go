package folio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/resend"
	"github.com/eringen/folio/storage"
)

const testPassword = "correct horse"

// recordingStorage counts calls that reach the wrapped store.
type recordingStorage struct {
	storage.Store
	mu      sync.Mutex
	uploads int
	removes int
}

func (r *recordingStorage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	r.mu.Lock()
	r.uploads++
	r.mu.Unlock()
	return r.Store.Upload(ctx, bucket, path, data, contentType)
}

func (r *recordingStorage) Remove(ctx context.Context, bucket string, paths ...string) error {
	r.mu.Lock()
	r.removes++
	r.mu.Unlock()
	return r.Store.Remove(ctx, bucket, paths...)
}

type fakeContacts struct {
	mu       sync.Mutex
	contacts []resend.Contact
	err      error
}

func (f *fakeContacts) AddContact(_ context.Context, c resend.Contact) (resend.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return resend.Contact{}, f.err
	}
	c.ID = fmt.Sprintf("contact-%d", len(f.contacts)+1)
	f.contacts = append(f.contacts, c)
	return c, nil
}

func (f *fakeContacts) ListContacts(context.Context) ([]resend.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]resend.Contact{}, f.contacts...), f.err
}

func (f *fakeContacts) ListSegments(context.Context) ([]resend.Segment, error) {
	return []resend.Segment{{ID: "seg-1", Name: "Everyone"}}, f.err
}

type testApp struct {
	*App
	t       *testing.T
	local   *storage.Local
	storage *recordingStorage
	cookies []*http.Cookie
}

func newTestApp(t *testing.T, opts ...Option) *testApp {
	t.Helper()
	local, err := storage.NewLocal(t.TempDir(), "http://localhost:3000/uploads")
	require.NoError(t, err)
	rec := &recordingStorage{Store: local}

	cfg := SiteConfig{
		Name:          "Test Site",
		AdminPassword: testPassword,
		SessionSecret: "0123456789abcdef0123456789abcdef",
	}
	all := append([]Option{WithStore(setupTestStore(t)), WithStorage(rec), WithStaticDir(t.TempDir())}, opts...)
	app := New(cfg, ViewFuncs{}, all...)
	require.NoError(t, app.Init(context.Background()))
	t.Cleanup(func() { app.Close() })
	return &testApp{App: app, t: t, local: local, storage: rec}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (ta *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range ta.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ta.Echo.ServeHTTP(rec, req)
	return rec
}

func (ta *testApp) do(method, path string, body any) *httptest.ResponseRecorder {
	ta.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ta.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ta.serve(req)
}

// login signs in as admin and keeps the session cookie for later requests.
func (ta *testApp) login() {
	ta.t.Helper()
	rec := ta.do(http.MethodPost, "/api/auth/login", map[string]string{"password": testPassword})
	require.Equal(ta.t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			ta.cookies = append(ta.cookies, c)
		}
	}
	require.NotEmpty(ta.t, ta.cookies, "login set no session cookie")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

// multipartFile builds a multipart body with one "file" part and extra fields.
func multipartFile(t *testing.T, fields map[string]string, filename, contentType string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, strings.ReplaceAll(filename, `"`, "")))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
