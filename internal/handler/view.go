package handler

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"samvaad/internal/entity"
	"samvaad/internal/middleware"
	"samvaad/internal/session"
	"samvaad/internal/templates"
)

var pages = []string{
	"login",
	"register",
	"welcome",
	"main",
	"videos",
	"upload",
	"assignment_submit",
	"assignments",
}

// View is what every page template receives.
type View struct {
	Title     string
	Session   *entity.Session
	CanUpload bool
	CanReview bool
	Notices   []session.Notice
	// Error is a blocking message about the submitted form.
	Error string
	Form  map[string]string
	Data  interface{}

	RedirectTo    string
	RedirectAfter int
}

type Renderer struct {
	pages map[string]*template.Template
	store *session.Store
	log   *slog.Logger
}

func NewRenderer(store *session.Store, log *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		pages: make(map[string]*template.Template, len(pages)),
		store: store,
		log:   log,
	}
	for _, name := range pages {
		tmpl, err := template.ParseFS(templates.FS, "layout.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render fills in the session-derived fields of v and writes the page. The
// page is executed into a buffer first so a template error never leaves a
// half-written response.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, v View) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.log.ErrorContext(r.Context(), "samvaad.render.unknown_page", slog.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess, ok := sessionFor(r)
	if !ok {
		sess, ok = rd.store.Load(r)
	}
	if ok {
		v.Session = sess
		v.CanUpload = session.IsAuthorized(sess, entity.RoleAdmin)
		v.CanReview = session.IsAuthorized(sess, entity.RoleAdmin)
	}
	v.Notices = append(v.Notices, rd.store.Notices(w, r)...)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		rd.log.ErrorContext(r.Context(), "samvaad.render.failed",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// notify queues a notice for the page the user is about to be redirected to.
func (rd *Renderer) notify(w http.ResponseWriter, r *http.Request, kind session.NoticeKind, text string) {
	if err := rd.store.AddNotice(w, r, session.Notice{Kind: kind, Text: text}); err != nil {
		rd.log.WarnContext(r.Context(), "samvaad.notice.write_failed", slog.String("error", err.Error()))
	}
}

type viewSessionKey struct{}

// withViewSession lets a page rendered in the same response as a login see
// the new session.
func withViewSession(r *http.Request, sess *entity.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), viewSessionKey{}, sess))
}

func sessionFor(r *http.Request) (*entity.Session, bool) {
	if sess, ok := r.Context().Value(viewSessionKey{}).(*entity.Session); ok && sess.Valid() {
		return sess, true
	}
	return middleware.SessionFromContext(r.Context())
}
