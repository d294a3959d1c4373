package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"samvaad/internal/api"
	"samvaad/internal/entity"
	"samvaad/internal/repository"
	"samvaad/internal/session"
)

type UploadHandler struct {
	videoRepo *repository.VideoRepository
	view      *Renderer
	maxBytes  int64
	log       *slog.Logger
}

func NewUploadHandler(videoRepo *repository.VideoRepository, view *Renderer, maxBytes int64, log *slog.Logger) *UploadHandler {
	return &UploadHandler{videoRepo: videoRepo, view: view, maxBytes: maxBytes, log: log}
}

// UploadPage shows the form to everyone signed in; it is disabled unless the
// session is an admin's.
func (h *UploadHandler) UploadPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSession(w, r); !ok {
		return
	}
	h.view.Render(w, r, http.StatusOK, "upload", View{
		Title: "Upload Video",
		Form:  trimmed(r.URL.Query(), "title", "class", "subject"),
	})
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	if !session.IsAuthorized(sess, entity.RoleAdmin) {
		h.log.InfoContext(r.Context(), "samvaad.upload.forbidden", slog.String("user_id", sess.User.ID))
		h.view.Render(w, r, http.StatusForbidden, "upload", View{
			Title: "Upload Video",
			Error: "Only admins can upload videos.",
		})
		return
	}

	tooLarge, err := parseMultipart(w, r, h.maxBytes)
	defer cleanupMultipart(r)
	if err != nil {
		status, msg := http.StatusBadRequest, "The upload could not be read. Please try again."
		if tooLarge {
			status, msg = http.StatusRequestEntityTooLarge, fmt.Sprintf("The video is larger than %d MB.", megabytes(h.maxBytes))
		}
		h.view.Render(w, r, status, "upload", View{Title: "Upload Video", Error: msg})
		return
	}

	echo := trimmed(r.PostForm, "title", "class", "subject")
	form := uploadForm{Title: echo["title"], Class: echo["class"], Subject: echo["subject"]}

	file, hdr, fileErr := r.FormFile("video")
	if fileErr == nil {
		defer file.Close()
	}
	if err := validate.Struct(form); err != nil || fileErr != nil {
		h.view.Render(w, r, http.StatusUnprocessableEntity, "upload", View{
			Title: "Upload Video",
			Error: "Please fill in all fields and choose a video.",
			Form:  echo,
		})
		return
	}

	contentType, err := sniff(file)
	if err != nil {
		h.view.Render(w, r, http.StatusBadRequest, "upload", View{Title: "Upload Video", Error: "The upload could not be read. Please try again.", Form: echo})
		return
	}
	if declared := hdr.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "video/") {
		if !strings.HasPrefix(declared, "video/") {
			h.view.Render(w, r, http.StatusUnprocessableEntity, "upload", View{
				Title: "Upload Video",
				Error: "Please choose a video file.",
				Form:  echo,
			})
			return
		}
		contentType = declared
	}

	msg, err := h.videoRepo.Upload(r.Context(), sess.Token, repository.VideoUpload{
		Title:       form.Title,
		Class:       form.Class,
		Subject:     form.Subject,
		Filename:    hdr.Filename,
		ContentType: contentType,
		Body:        file,
	})
	if err != nil {
		h.log.WarnContext(r.Context(), "samvaad.upload.failed",
			slog.String("user_id", sess.User.ID),
			slog.Bool("unauthorized", api.IsUnauthorized(err)),
			slog.String("error", err.Error()),
		)
		h.view.notify(w, r, session.NoticeError, "Upload failed: "+api.Message(err))
		http.Redirect(w, r, withQuery("/upload", echo), http.StatusSeeOther)
		return
	}

	if msg == "" {
		msg = "Upload successful"
	}
	h.log.InfoContext(r.Context(), "samvaad.upload.succeeded",
		slog.String("user_id", sess.User.ID),
		slog.String("title", form.Title),
		slog.Int64("bytes", hdr.Size),
	)
	h.view.notify(w, r, session.NoticeSuccess, msg)
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}
