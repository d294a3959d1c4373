package handler

import (
	"log/slog"
	"net/http"
	"time"

	"samvaad/internal/entity"
	"samvaad/internal/middleware"
	"samvaad/internal/repository"
	"samvaad/internal/session"
)

type Deps struct {
	Store              *session.Store
	Users              *repository.UserRepository
	Videos             *repository.VideoRepository
	Assignments        *repository.AssignmentRepository
	Log                *slog.Logger
	RedirectDelay      time.Duration
	MaxVideoBytes      int64
	MaxAssignmentBytes int64
	// LoginPerMinute and LoginBurst throttle credential posts per client.
	// Zero disables throttling.
	LoginPerMinute float64
	LoginBurst     int
	// TrustProxy keys throttling on the X-Forwarded-For hop the fronting
	// proxy appends.
	TrustProxy bool
}

// NewRouter wires every view behind its guard.
func NewRouter(d Deps) (http.Handler, error) {
	view, err := NewRenderer(d.Store, d.Log)
	if err != nil {
		return nil, err
	}

	loginHandler := NewLoginHandler(d.Users, d.Store, view, d.RedirectDelay, d.Log)
	registrationHandler := NewRegistrationHandler(d.Users, d.Store, view, d.RedirectDelay, d.Log)
	authHandler := NewAuthHandler(d.Store, view, d.Log)
	homeHandler := NewHomeHandler(d.Videos, view, d.Log)
	uploadHandler := NewUploadHandler(d.Videos, view, d.MaxVideoBytes, d.Log)
	videoHandler := NewVideoHandler(d.Videos, view, d.Log)
	assignmentHandler := NewAssignmentHandler(d.Assignments, view, d.MaxAssignmentBytes, d.Log)

	guest := middleware.RedirectIfAuthenticated(d.Store, landingPath)
	throttle := func(h http.Handler) http.Handler { return h }
	if d.LoginPerMinute > 0 && d.LoginBurst > 0 {
		throttle = middleware.NewRateLimiter(d.LoginPerMinute, d.LoginBurst, d.TrustProxy).Limit
	}
	auth := middleware.RequireAuth(d.Store, loginPath)
	admin := middleware.RequireRole(d.Store, entity.RoleAdmin, loginPath, landingPath)

	mux := http.NewServeMux()

	mux.Handle("GET /{$}", guest(http.HandlerFunc(loginHandler.LoginPage)))
	mux.Handle("GET /login", guest(http.HandlerFunc(loginHandler.LoginPage)))
	mux.Handle("POST /login", throttle(guest(http.HandlerFunc(loginHandler.Login))))
	mux.Handle("GET /register", guest(http.HandlerFunc(registrationHandler.RegisterPage)))
	mux.Handle("POST /register", throttle(guest(http.HandlerFunc(registrationHandler.Register))))
	mux.HandleFunc("POST /logout", authHandler.Logout)

	mux.Handle("GET /main", auth(http.HandlerFunc(homeHandler.MainPage)))
	mux.Handle("GET /videos", auth(http.HandlerFunc(homeHandler.VideosPage)))
	mux.Handle("GET /upload", auth(http.HandlerFunc(uploadHandler.UploadPage)))
	mux.Handle("POST /upload", auth(http.HandlerFunc(uploadHandler.Upload)))
	mux.Handle("POST /videos/{id}/like", auth(http.HandlerFunc(videoHandler.Like)))
	mux.Handle("POST /videos/{id}/comments", auth(http.HandlerFunc(videoHandler.Comment)))
	mux.Handle("GET /assignments/submit", auth(http.HandlerFunc(assignmentHandler.SubmitPage)))
	mux.Handle("POST /assignments/submit", auth(http.HandlerFunc(assignmentHandler.Submit)))
	mux.Handle("GET /assignments", admin(http.HandlerFunc(assignmentHandler.List)))

	mux.HandleFunc("GET /healthz", authHandler.Healthz)

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(d.Log),
		middleware.Recover(d.Log),
	), nil
}
