package handler

import (
	"log/slog"
	"net/http"

	"samvaad/internal/api"
	"samvaad/internal/entity"
	"samvaad/internal/repository"
	"samvaad/internal/session"
)

type HomeHandler struct {
	videoRepo *repository.VideoRepository
	view      *Renderer
	log       *slog.Logger
}

func NewHomeHandler(videoRepo *repository.VideoRepository, view *Renderer, log *slog.Logger) *HomeHandler {
	return &HomeHandler{videoRepo: videoRepo, view: view, log: log}
}

type mainData struct {
	Videos   []entity.Video
	Searched bool
}

// MainPage searches videos by class and subject when both are given.
func (h *HomeHandler) MainPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	echo := trimmed(r.URL.Query(), "class", "subject")
	if echo["class"] == "" && echo["subject"] == "" {
		h.view.Render(w, r, http.StatusOK, "main", View{Title: "Videos", Form: echo})
		return
	}

	form := searchForm{Class: echo["class"], Subject: echo["subject"]}
	if err := validate.Struct(form); err != nil {
		h.view.Render(w, r, http.StatusUnprocessableEntity, "main", View{
			Title: "Videos",
			Error: "Please enter both class and subject.",
			Form:  echo,
		})
		return
	}

	videos, err := h.videoRepo.List(r.Context(), sess.Token, form.Class, form.Subject, sess.User.ID)
	if err != nil {
		h.log.WarnContext(r.Context(), "samvaad.videos.list_failed",
			slog.String("class", form.Class),
			slog.String("subject", form.Subject),
			slog.Bool("unauthorized", api.IsUnauthorized(err)),
			slog.String("error", err.Error()),
		)
		h.view.Render(w, r, http.StatusBadGateway, "main", View{
			Title:   "Videos",
			Notices: []session.Notice{{Kind: session.NoticeError, Text: "Failed to fetch videos: " + api.Message(err)}},
			Form:    echo,
		})
		return
	}

	h.view.Render(w, r, http.StatusOK, "main", View{
		Title: "Videos",
		Form:  echo,
		Data:  mainData{Videos: videos, Searched: true},
	})
}

// VideosPage lists every uploaded video with its class and subject.
func (h *HomeHandler) VideosPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	videos, err := h.videoRepo.All(r.Context(), sess.Token, sess.User.ID)
	if err != nil {
		h.log.WarnContext(r.Context(), "samvaad.videos.list_all_failed", slog.String("error", err.Error()))
		h.view.Render(w, r, http.StatusBadGateway, "videos", View{
			Title:   "Uploaded Videos",
			Notices: []session.Notice{{Kind: session.NoticeError, Text: "Failed to fetch videos: " + api.Message(err)}},
		})
		return
	}

	h.view.Render(w, r, http.StatusOK, "videos", View{Title: "Uploaded Videos", Data: videos})
}
