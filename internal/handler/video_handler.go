package handler

import (
	"log/slog"
	"net/http"

	"samvaad/internal/api"
	"samvaad/internal/repository"
	"samvaad/internal/session"
)

type VideoHandler struct {
	videoRepo *repository.VideoRepository
	view      *Renderer
	log       *slog.Logger
}

func NewVideoHandler(videoRepo *repository.VideoRepository, view *Renderer, log *slog.Logger) *VideoHandler {
	return &VideoHandler{videoRepo: videoRepo, view: view, log: log}
}

func (h *VideoHandler) Like(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed form", http.StatusBadRequest)
		return
	}

	videoID := r.PathValue("id")
	back := h.backToSearch(r, videoID)

	if err := h.videoRepo.ToggleLike(r.Context(), sess.Token, videoID); err != nil {
		h.log.WarnContext(r.Context(), "samvaad.videos.like_failed",
			slog.String("video_id", videoID),
			slog.Bool("unauthorized", api.IsUnauthorized(err)),
			slog.String("error", err.Error()),
		)
		h.view.notify(w, r, session.NoticeError, "Could not update your like: "+api.Message(err))
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *VideoHandler) Comment(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed form", http.StatusBadRequest)
		return
	}

	videoID := r.PathValue("id")
	back := h.backToSearch(r, videoID)

	form := commentForm{Text: trimmed(r.PostForm, "text")["text"]}
	if err := validate.Struct(form); err != nil {
		h.view.notify(w, r, session.NoticeError, validationMessage(err))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if err := h.videoRepo.AddComment(r.Context(), sess.Token, videoID, form.Text); err != nil {
		h.log.WarnContext(r.Context(), "samvaad.videos.comment_failed",
			slog.String("video_id", videoID),
			slog.Bool("unauthorized", api.IsUnauthorized(err)),
			slog.String("error", err.Error()),
		)
		h.view.notify(w, r, session.NoticeError, "Could not post your comment: "+api.Message(err))
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// backToSearch rebuilds the search the form was posted from, anchored at the
// video.
func (h *VideoHandler) backToSearch(r *http.Request, videoID string) string {
	target := withQuery(landingPath, trimmed(r.PostForm, "class", "subject"))
	if videoID != "" {
		target += "#video-" + videoID
	}
	return target
}
