package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"samvaad/internal/api"
	"samvaad/internal/repository"
	"samvaad/internal/session"
)

const submitPath = "/assignments/submit"

type AssignmentHandler struct {
	assignmentRepo *repository.AssignmentRepository
	view           *Renderer
	maxBytes       int64
	log            *slog.Logger
}

func NewAssignmentHandler(assignmentRepo *repository.AssignmentRepository, view *Renderer, maxBytes int64, log *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignmentRepo: assignmentRepo, view: view, maxBytes: maxBytes, log: log}
}

func (h *AssignmentHandler) SubmitPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	form := trimmed(r.URL.Query(), "name", "class", "subject", "email")
	if form["name"] == "" {
		form["name"] = sess.User.Name
	}
	if form["email"] == "" {
		form["email"] = sess.User.Email
	}
	h.view.Render(w, r, http.StatusOK, "assignment_submit", View{Title: "Submit Assignment", Form: form})
}

func (h *AssignmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	tooLarge, err := parseMultipart(w, r, h.maxBytes)
	defer cleanupMultipart(r)
	if err != nil {
		status, msg := http.StatusBadRequest, "The submission could not be read. Please try again."
		if tooLarge {
			status, msg = http.StatusRequestEntityTooLarge, fmt.Sprintf("The PDF is larger than %d MB.", megabytes(h.maxBytes))
		}
		h.view.Render(w, r, status, "assignment_submit", View{Title: "Submit Assignment", Error: msg})
		return
	}

	echo := trimmed(r.PostForm, "name", "class", "subject", "email")
	form := assignmentForm{Name: echo["name"], Class: echo["class"], Subject: echo["subject"], Email: echo["email"]}
	if err := validate.Struct(form); err != nil {
		h.view.Render(w, r, http.StatusUnprocessableEntity, "assignment_submit", View{
			Title: "Submit Assignment",
			Error: validationMessage(err),
			Form:  echo,
		})
		return
	}

	file, hdr, err := r.FormFile("assignment")
	if err != nil {
		h.view.Render(w, r, http.StatusUnprocessableEntity, "assignment_submit", View{
			Title: "Submit Assignment",
			Error: "Please choose a PDF to upload.",
			Form:  echo,
		})
		return
	}
	defer file.Close()

	if contentType, err := sniff(file); err != nil || contentType != "application/pdf" {
		h.view.Render(w, r, http.StatusUnprocessableEntity, "assignment_submit", View{
			Title: "Submit Assignment",
			Error: "The assignment must be a PDF file.",
			Form:  echo,
		})
		return
	}

	msg, err := h.assignmentRepo.Submit(r.Context(), sess.Token, repository.AssignmentSubmission{
		Name:     form.Name,
		Class:    form.Class,
		Subject:  form.Subject,
		Email:    form.Email,
		Filename: hdr.Filename,
		Body:     file,
	})
	if err != nil {
		h.log.WarnContext(r.Context(), "samvaad.assignments.submit_failed",
			slog.String("user_id", sess.User.ID),
			slog.String("error", err.Error()),
		)
		h.view.notify(w, r, session.NoticeError, "Failed to submit. Try again! "+api.Message(err))
		http.Redirect(w, r, withQuery(submitPath, echo), http.StatusSeeOther)
		return
	}

	if msg == "" {
		msg = "Assignment submitted successfully!"
	}
	h.view.notify(w, r, session.NoticeSuccess, msg)
	http.Redirect(w, r, submitPath, http.StatusSeeOther)
}

// List shows submitted assignments. Routed behind the admin guard.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	assignments, err := h.assignmentRepo.List(r.Context(), sess.Token)
	if err != nil {
		h.log.WarnContext(r.Context(), "samvaad.assignments.list_failed", slog.String("error", err.Error()))
		h.view.Render(w, r, http.StatusBadGateway, "assignments", View{
			Title:   "Assignments",
			Notices: []session.Notice{{Kind: session.NoticeError, Text: "Failed to load assignments: " + api.Message(err)}},
		})
		return
	}

	h.view.Render(w, r, http.StatusOK, "assignments", View{Title: "Assignments", Data: assignments})
}
