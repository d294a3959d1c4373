package handler

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"samvaad/internal/api"
	"samvaad/internal/entity"
	"samvaad/internal/repository"
	"samvaad/internal/session"
)

// backend fakes the remote API. Routes are keyed "METHOD /path".
type backend struct {
	t      *testing.T
	mu     sync.Mutex
	calls  []string
	routes map[string]http.HandlerFunc
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.calls = append(b.calls, key)
	h, ok := b.routes[key]
	b.mu.Unlock()
	if !ok {
		b.t.Errorf("unexpected backend call %s", key)
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (b *backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

type app struct {
	handler http.Handler
	store   *session.Store
	backend *backend
}

func newApp(t *testing.T, routes map[string]http.HandlerFunc) *app {
	t.Helper()

	b := &backend{t: t, routes: routes}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	log := discardLogger()
	store, err := session.NewStore(session.Options{
		Secret: "0123456789abcdef0123456789abcdef",
		MaxAge: time.Hour,
		Logger: log,
	})
	require.NoError(t, err)

	client := api.NewClient(api.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	h, err := NewRouter(Deps{
		Store:              store,
		Users:              repository.NewUserRepository(client),
		Videos:             repository.NewVideoRepository(client),
		Assignments:        repository.NewAssignmentRepository(client),
		Log:                log,
		RedirectDelay:      2 * time.Second,
		MaxVideoBytes:      1 << 20,
		MaxAssignmentBytes: 1 << 20,
	})
	require.NoError(t, err)

	return &app{handler: h, store: store, backend: b}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// browser keeps cookies between requests the way a user agent would.
type browser struct {
	t   *testing.T
	app *app
	jar map[string]*http.Cookie
}

func (a *app) browser(t *testing.T) *browser {
	return &browser{t: t, app: a, jar: map[string]*http.Cookie{}}
}

// signIn stores sess in the jar as if a login had just happened.
func (a *app) signIn(t *testing.T, sess *entity.Session) *browser {
	t.Helper()
	br := a.browser(t)
	rec := httptest.NewRecorder()
	require.NoError(t, a.store.Save(rec, httptest.NewRequest(http.MethodPost, "/login", nil), sess))
	br.keep(rec)
	return br
}

func (br *browser) keep(rec *httptest.ResponseRecorder) {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(br.jar, c.Name)
			continue
		}
		br.jar[c.Name] = c
	}
}

func (br *browser) do(req *http.Request) *httptest.ResponseRecorder {
	br.t.Helper()
	for _, c := range br.jar {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	br.app.handler.ServeHTTP(rec, req)
	br.keep(rec)
	return rec
}

func (br *browser) get(path string) *httptest.ResponseRecorder {
	return br.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (br *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return br.do(req)
}

type filePart struct {
	field, name, contentType string
	body                     []byte
}

func (br *browser) postMultipart(path string, fields map[string]string, files ...filePart) *httptest.ResponseRecorder {
	br.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(br.t, mw.WriteField(k, v))
	}
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(br.t, err)
		_, err = part.Write(f.body)
		require.NoError(br.t, err)
	}
	require.NoError(br.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return br.do(req)
}

func (br *browser) follow(rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	br.t.Helper()
	require.Equal(br.t, http.StatusSeeOther, rec.Code)
	// Browsers never send the fragment.
	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(br.t, err)
	u.Fragment = ""
	return br.get(u.RequestURI())
}

func (br *browser) hasSession() bool {
	_, ok := br.jar[session.DefaultCookieName]
	return ok
}

var (
	adminSess = &entity.Session{
		Token: "tok-admin",
		User:  entity.User{ID: "a1", Name: "Asha", Username: "asha", Role: entity.RoleAdmin},
	}
	studentSess = &entity.Session{
		Token: "tok-student",
		User:  entity.User{ID: "s1", Name: "Ravi", Username: "ravi", Role: entity.RoleStudent},
	}
)

var (
	mp4Bytes = append([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), make([]byte, 64)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
)

func writeJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func fail(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}
