package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"samvaad/internal/entity"
	"samvaad/internal/session"
)

// Decision is what the guard does with a request for a protected view.
type Decision int

const (
	Redirect Decision = iota
	Render
)

func (d Decision) String() string {
	if d == Render {
		return "render"
	}
	return "redirect"
}

// Decide renders only for a present session that carries a token.
func Decide(sess *entity.Session, present bool) Decision {
	if present && sess.Valid() {
		return Render
	}
	return Redirect
}

type sessionContextKey struct{}

// SessionFromContext returns the session RequireAuth admitted the request with.
func SessionFromContext(ctx context.Context) (*entity.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*entity.Session)
	return sess, ok && sess.Valid()
}

func withSession(r *http.Request, sess *entity.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, sess))
}

// SessionLoader is the part of the session store the guards need.
type SessionLoader interface {
	Load(r *http.Request) (*entity.Session, bool)
}

// RequireAuth lets the request through to next only with a valid session;
// otherwise it redirects to loginPath and next never runs.
func RequireAuth(store SessionLoader, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := store.Load(r)
			if Decide(sess, ok) == Redirect {
				slog.DebugContext(r.Context(), "samvaad.guard.redirect", slog.String("path", r.URL.Path))
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, withSession(r, sess))
		})
	}
}

// NoticeWriter queues a one-shot message for the next page.
type NoticeWriter interface {
	AddNotice(w http.ResponseWriter, r *http.Request, n session.Notice) error
}

type RoleStore interface {
	SessionLoader
	NoticeWriter
}

// RequireRole admits only sessions holding role. Anonymous requests go to
// loginPath; signed-in users with another role go to fallback.
func RequireRole(store RoleStore, role entity.Role, loginPath, fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := store.Load(r)
			if Decide(sess, ok) == Redirect {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			if !session.IsAuthorized(sess, role) {
				slog.InfoContext(r.Context(), "samvaad.guard.forbidden",
					slog.String("path", r.URL.Path),
					slog.String("user_id", sess.User.ID),
					slog.String("role", string(sess.User.Role)),
				)
				_ = store.AddNotice(w, r, session.Notice{Kind: session.NoticeError, Text: "That page is only available to " + string(role) + "s."})
				http.Redirect(w, r, fallback, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, withSession(r, sess))
		})
	}
}

// RedirectIfAuthenticated sends signed-in users from public pages such as
// login straight to landing.
func RedirectIfAuthenticated(store SessionLoader, landing string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, ok := store.Load(r); Decide(sess, ok) == Render {
				http.Redirect(w, r, landing, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
