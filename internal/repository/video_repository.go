package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"samvaad/internal/api"
	"samvaad/internal/entity"
)

type VideoRepository struct {
	client *api.Client
}

func NewVideoRepository(client *api.Client) *VideoRepository {
	return &VideoRepository{client: client}
}

type VideoUpload struct {
	Title       string
	Class       string
	Subject     string
	Filename    string
	ContentType string
	Body        io.Reader
}

type videoDTO struct {
	ID         string            `json:"_id"`
	AltID      string            `json:"id"`
	Title      string            `json:"title"`
	ClassName  string            `json:"className"`
	Subject    string            `json:"subject"`
	VideoURL   string            `json:"videoUrl"`
	Likes      []json.RawMessage `json:"likes"`
	LikesCount *int              `json:"likesCount"`
	Liked      *bool             `json:"likedByCurrentUser"`
	Comments   []commentDTO      `json:"comments"`
}

type commentDTO struct {
	Author string          `json:"author"`
	User   json.RawMessage `json:"user"`
	Text   string          `json:"text"`
}

// toVideo maps the wire shape to a Video as seen by viewerID.
func (d videoDTO) toVideo(viewerID string) entity.Video {
	v := entity.Video{
		ID:      firstNonEmpty(d.ID, d.AltID),
		Title:   d.Title,
		Class:   d.ClassName,
		Subject: d.Subject,
		URL:     d.VideoURL,
	}

	v.LikesCount = len(d.Likes)
	if d.LikesCount != nil {
		v.LikesCount = *d.LikesCount
	}

	if d.Liked != nil {
		v.LikedByCurrentUser = *d.Liked
	} else if viewerID != "" {
		for _, like := range d.Likes {
			if refID(like) == viewerID {
				v.LikedByCurrentUser = true
				break
			}
		}
	}

	v.Comments = make([]entity.Comment, 0, len(d.Comments))
	for _, c := range d.Comments {
		author := c.Author
		if author == "" {
			author = refName(c.User)
		}
		v.Comments = append(v.Comments, entity.Comment{Author: author, Text: c.Text})
	}

	return v
}

// refID reads a reference that is either a bare id or a populated document.
func refID(raw json.RawMessage) string {
	var id string
	if json.Unmarshal(raw, &id) == nil {
		return id
	}
	var doc struct {
		ID      string `json:"id"`
		MongoID string `json:"_id"`
	}
	if json.Unmarshal(raw, &doc) == nil {
		return firstNonEmpty(doc.MongoID, doc.ID)
	}
	return ""
}

func refName(raw json.RawMessage) string {
	var doc struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	}
	if json.Unmarshal(raw, &doc) == nil {
		return firstNonEmpty(doc.Name, doc.Username)
	}
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}

// List returns the videos for a class and subject, as seen by viewerID.
func (r *VideoRepository) List(ctx context.Context, token, class, subject, viewerID string) ([]entity.Video, error) {
	q := url.Values{}
	q.Set("className", strings.TrimSpace(class))
	q.Set("subject", strings.ToLower(strings.TrimSpace(subject)))

	return r.list(ctx, token, "/api/videos?"+q.Encode(), viewerID)
}

// All returns every uploaded video, unfiltered.
func (r *VideoRepository) All(ctx context.Context, token, viewerID string) ([]entity.Video, error) {
	return r.list(ctx, token, "/api/videos", viewerID)
}

func (r *VideoRepository) list(ctx context.Context, token, path, viewerID string) ([]entity.Video, error) {
	var raw json.RawMessage
	if err := r.client.Do(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}

	dtos, err := decodeList[videoDTO](raw, "videos")
	if err != nil {
		return nil, &VideoRepositoryError{"unexpected video list: " + err.Error()}
	}

	videos := make([]entity.Video, 0, len(dtos))
	for _, d := range dtos {
		videos = append(videos, d.toVideo(viewerID))
	}
	return videos, nil
}

// Upload sends the video with its metadata and returns the backend's message.
func (r *VideoRepository) Upload(ctx context.Context, token string, in VideoUpload) (string, error) {
	fields := []api.Field{
		{Name: "title", Value: strings.TrimSpace(in.Title)},
		{Name: "className", Value: strings.TrimSpace(in.Class)},
		{Name: "subject", Value: strings.ToLower(strings.TrimSpace(in.Subject))},
	}
	files := []api.File{{Field: "video", Filename: in.Filename, ContentType: in.ContentType, Body: in.Body}}

	var resp struct {
		Message string `json:"message"`
	}
	if err := r.client.Upload(ctx, "/api/videos/upload", token, fields, files, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (r *VideoRepository) ToggleLike(ctx context.Context, token, videoID string) error {
	return r.client.Do(ctx, http.MethodPost, "/api/videos/"+url.PathEscape(videoID)+"/like", token, nil, nil)
}

func (r *VideoRepository) AddComment(ctx context.Context, token, videoID, text string) error {
	body := map[string]string{"text": strings.TrimSpace(text)}
	return r.client.Do(ctx, http.MethodPost, "/api/videos/"+url.PathEscape(videoID)+"/comments", token, body, nil)
}

type VideoRepositoryError struct {
	Message string
}

func (e *VideoRepositoryError) Error() string {
	return "Video repository error: " + e.Message
}

// decodeList accepts either a bare JSON array or an object wrapping the
// array under key.
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var list []T
	if raw[0] == '[' {
		err := json.Unmarshal(raw, &list)
		return list, err
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil, nil
	}
	err := json.Unmarshal(inner, &list)
	return list, err
}
