package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"samvaad/internal/api"
	"samvaad/internal/repository"
	"samvaad/internal/session"
)

type RegistrationHandler struct {
	userRepo      *repository.UserRepository
	store         *session.Store
	view          *Renderer
	redirectDelay time.Duration
	log           *slog.Logger
}

func NewRegistrationHandler(userRepo *repository.UserRepository, store *session.Store, view *Renderer, redirectDelay time.Duration, log *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		userRepo:      userRepo,
		store:         store,
		view:          view,
		redirectDelay: redirectDelay,
		log:           log,
	}
}

func (h *RegistrationHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, "register", View{Title: "Register"})
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed form", http.StatusBadRequest)
		return
	}

	form := registerForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	echo := map[string]string{"name": form.Name, "username": form.Username, "email": form.Email}

	if err := validate.Struct(form); err != nil {
		h.view.Render(w, r, http.StatusUnprocessableEntity, "register", View{
			Title: "Register",
			Error: validationMessage(err),
			Form:  echo,
		})
		return
	}

	sess, err := h.userRepo.Register(r.Context(), repository.RegisterInput{
		Name:     form.Name,
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		h.log.InfoContext(r.Context(), "samvaad.register.failed",
			slog.String("username", form.Username),
			slog.String("error", err.Error()),
		)
		// Re-rendered in place so the typed details survive.
		h.view.Render(w, r, http.StatusOK, "register", View{
			Title:   "Register",
			Notices: []session.Notice{{Kind: session.NoticeError, Text: "Registration failed: " + api.Message(err)}},
			Form:    echo,
		})
		return
	}

	if sess == nil {
		h.view.notify(w, r, session.NoticeSuccess, "Registered successfully. Please log in.")
		http.Redirect(w, r, "/login?username="+url.QueryEscape(form.Username), http.StatusSeeOther)
		return
	}

	if err := h.store.Save(w, r, sess); err != nil {
		h.log.ErrorContext(r.Context(), "samvaad.register.session_save_failed", slog.String("error", err.Error()))
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}

	h.log.InfoContext(r.Context(), "samvaad.register.succeeded", slog.String("user_id", sess.User.ID))
	renderWelcome(w, r, h.view, sess, "Registered successfully. Welcome, "+sess.DisplayName()+"!", h.redirectDelay)
}
