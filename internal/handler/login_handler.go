package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"samvaad/internal/api"
	"samvaad/internal/entity"
	"samvaad/internal/repository"
	"samvaad/internal/session"
)

const (
	loginPath   = "/"
	landingPath = "/main"
)

type LoginHandler struct {
	userRepo      *repository.UserRepository
	store         *session.Store
	view          *Renderer
	redirectDelay time.Duration
	log           *slog.Logger
}

func NewLoginHandler(userRepo *repository.UserRepository, store *session.Store, view *Renderer, redirectDelay time.Duration, log *slog.Logger) *LoginHandler {
	return &LoginHandler{
		userRepo:      userRepo,
		store:         store,
		view:          view,
		redirectDelay: redirectDelay,
		log:           log,
	}
}

func (h *LoginHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, "login", View{
		Title: "Login",
		Form:  map[string]string{"username": r.URL.Query().Get("username")},
	})
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed form", http.StatusBadRequest)
		return
	}

	form := loginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	if err := validate.Struct(form); err != nil {
		h.view.Render(w, r, http.StatusUnprocessableEntity, "login", View{
			Title: "Login",
			Error: validationMessage(err),
			Form:  map[string]string{"username": form.Username},
		})
		return
	}

	sess, err := h.userRepo.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		h.log.InfoContext(r.Context(), "samvaad.login.failed",
			slog.String("username", form.Username),
			slog.String("error", err.Error()),
		)
		h.view.notify(w, r, session.NoticeError, "Login failed: "+api.Message(err))
		http.Redirect(w, r, "/login?username="+url.QueryEscape(form.Username), http.StatusSeeOther)
		return
	}

	if err := h.store.Save(w, r, sess); err != nil {
		h.log.ErrorContext(r.Context(), "samvaad.login.session_save_failed", slog.String("error", err.Error()))
		h.view.notify(w, r, session.NoticeError, "Could not start your session. Please try again.")
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}

	h.log.InfoContext(r.Context(), "samvaad.login.succeeded",
		slog.String("user_id", sess.User.ID),
		slog.String("role", string(sess.User.Role)),
	)
	renderWelcome(w, r, h.view, sess, "Welcome back, "+sess.DisplayName()+"!", h.redirectDelay)
}

// renderWelcome shows the interstitial that forwards to the landing view after
// delay. The just-saved session is not in the request cookies yet, so it is
// passed along explicitly.
func renderWelcome(w http.ResponseWriter, r *http.Request, view *Renderer, sess *entity.Session, greeting string, delay time.Duration) {
	r = withViewSession(r, sess)
	view.Render(w, r, http.StatusOK, "welcome", View{
		Title:         "Welcome",
		Data:          greeting,
		RedirectTo:    landingPath,
		RedirectAfter: int(delay.Round(time.Second) / time.Second),
	})
}
