package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"samvaad/internal/api"
	"samvaad/internal/config"
	"samvaad/internal/handler"
	"samvaad/internal/repository"
	"samvaad/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("samvaad.config.invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("samvaad.server.failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	store, err := session.NewStore(session.Options{
		Secret: cfg.Session.Secret,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.CookieSecure,
		Logger: log,
	})
	if err != nil {
		return err
	}

	client := api.NewClient(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	})

	router, err := handler.NewRouter(handler.Deps{
		Store:              store,
		Users:              repository.NewUserRepository(client),
		Videos:             repository.NewVideoRepository(client),
		Assignments:        repository.NewAssignmentRepository(client),
		Log:                log,
		RedirectDelay:      cfg.Redirect,
		MaxVideoBytes:      cfg.Upload.MaxVideoMB << 20,
		MaxAssignmentBytes: cfg.Upload.MaxAssignmentMB << 20,
		LoginPerMinute:     cfg.Login.PerMinute,
		LoginBurst:         cfg.Login.Burst,
		TrustProxy:         cfg.TrustProxy,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("samvaad.server.started",
			slog.String("addr", cfg.Addr),
			slog.String("env", cfg.Env),
			slog.String("api", cfg.API.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("samvaad.server.stopping")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
