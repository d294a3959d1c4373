package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"samvaad/internal/api"
	"samvaad/internal/entity"
)

type AssignmentRepository struct {
	client *api.Client
}

func NewAssignmentRepository(client *api.Client) *AssignmentRepository {
	return &AssignmentRepository{client: client}
}

type AssignmentSubmission struct {
	Name     string
	Class    string
	Subject  string
	Email    string
	Filename string
	Body     io.Reader
}

type assignmentDTO struct {
	ID        string `json:"_id"`
	AltID     string `json:"id"`
	Name      string `json:"name"`
	ClassName string `json:"className"`
	Subject   string `json:"subject"`
	Email     string `json:"email"`
	FileURL   string `json:"fileUrl"`
	CreatedAt string `json:"createdAt"`
}

// Submit uploads the PDF with the student's details.
func (r *AssignmentRepository) Submit(ctx context.Context, token string, in AssignmentSubmission) (string, error) {
	fields := []api.Field{
		{Name: "name", Value: strings.TrimSpace(in.Name)},
		{Name: "className", Value: strings.TrimSpace(in.Class)},
		{Name: "subject", Value: strings.TrimSpace(in.Subject)},
		{Name: "email", Value: strings.TrimSpace(in.Email)},
	}
	files := []api.File{{Field: "assignment", Filename: in.Filename, ContentType: "application/pdf", Body: in.Body}}

	var resp struct {
		Message string `json:"message"`
	}
	if err := r.client.Upload(ctx, "/api/assignments/submit", token, fields, files, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (r *AssignmentRepository) List(ctx context.Context, token string) ([]entity.Assignment, error) {
	var raw json.RawMessage
	if err := r.client.Do(ctx, http.MethodGet, "/api/assignments", token, nil, &raw); err != nil {
		return nil, err
	}

	dtos, err := decodeList[assignmentDTO](raw, "assignments")
	if err != nil {
		return nil, &AssignmentRepositoryError{"unexpected assignment list: " + err.Error()}
	}

	out := make([]entity.Assignment, 0, len(dtos))
	for _, d := range dtos {
		submitted, _ := time.Parse(time.RFC3339, d.CreatedAt)
		out = append(out, entity.Assignment{
			ID:          firstNonEmpty(d.ID, d.AltID),
			Name:        d.Name,
			Class:       d.ClassName,
			Subject:     d.Subject,
			Email:       d.Email,
			FileURL:     d.FileURL,
			SubmittedAt: submitted,
		})
	}
	return out, nil
}

type AssignmentRepositoryError struct {
	Message string
}

func (e *AssignmentRepositoryError) Error() string {
	return "Assignment repository error: " + e.Message
}
