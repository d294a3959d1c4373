package handler

import (
	"log/slog"
	"net/http"

	"samvaad/internal/session"
)

type AuthHandler struct {
	store *session.Store
	view  *Renderer
	log   *slog.Logger
}

func NewAuthHandler(store *session.Store, view *Renderer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{store: store, view: view, log: log}
}

// Logout drops the session unconditionally and returns to the login view.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(w, r); err != nil {
		h.log.WarnContext(r.Context(), "samvaad.logout.clear_failed", slog.String("error", err.Error()))
	}
	h.view.notify(w, r, session.NoticeInfo, "You have been logged out.")
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (h *AuthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
