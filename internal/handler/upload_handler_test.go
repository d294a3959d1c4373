package handler

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uploadFields = map[string]string{"title": "Algebra", "class": "10", "subject": "Math"}

func TestStudentSeesDisabledUploadForm(t *testing.T) {
	a := newApp(t, nil)
	br := a.signIn(t, studentSess)

	rec := br.get("/upload")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<fieldset disabled")
	assert.Contains(t, rec.Body.String(), "Only admins can upload videos.")
	assert.NotContains(t, rec.Body.String(), `href="/upload"`)
}

func TestStudentUploadIsRejectedBeforeAPI(t *testing.T) {
	a := newApp(t, nil)
	br := a.signIn(t, studentSess)

	rec := br.postMultipart("/upload", uploadFields, filePart{"video", "a.mp4", "video/mp4", mp4Bytes})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only admins can upload videos.")
	assert.Empty(t, a.backend.Calls())
}

func TestAdminSeesEnabledUploadForm(t *testing.T) {
	a := newApp(t, nil)
	br := a.signIn(t, adminSess)

	rec := br.get("/upload")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<fieldset disabled")
	assert.Contains(t, rec.Body.String(), `href="/upload"`)
}

func TestAdminUpload(t *testing.T) {
	a := newApp(t, map[string]http.HandlerFunc{
		"POST /api/videos/upload": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-admin", r.Header.Get("Authorization"))
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "Algebra", r.FormValue("title"))
			assert.Equal(t, "10", r.FormValue("className"))
			assert.Equal(t, "math", r.FormValue("subject"))

			f, hdr, err := r.FormFile("video")
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, "a.mp4", hdr.Filename)
			assert.Equal(t, "video/mp4", hdr.Header.Get("Content-Type"))
			got, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, mp4Bytes, got)

			writeJSON(`{"message":"Video uploaded"}`)(w, r)
		},
	})
	br := a.signIn(t, adminSess)

	rec := br.postMultipart("/upload", uploadFields, filePart{"video", "a.mp4", "application/octet-stream", mp4Bytes})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/upload", rec.Header().Get("Location"))
	assert.Contains(t, br.follow(rec).Body.String(), "Video uploaded")
}

func TestUploadFailurePreservesInputs(t *testing.T) {
	a := newApp(t, map[string]http.HandlerFunc{
		"POST /api/videos/upload": fail(http.StatusInternalServerError, `{"message":"Storage is full"}`),
	})
	br := a.signIn(t, adminSess)

	rec := br.postMultipart("/upload", uploadFields, filePart{"video", "a.mp4", "video/mp4", mp4Bytes})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/upload?class=10&subject=Math&title=Algebra", rec.Header().Get("Location"))

	page := br.follow(rec)
	assert.Contains(t, page.Body.String(), "Upload failed: Storage is full")
	assert.Contains(t, page.Body.String(), `value="Algebra"`)
	assert.True(t, br.hasSession())
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  []filePart
		status int
		want   string
	}{
		{
			name:   "missing title",
			fields: map[string]string{"class": "10", "subject": "Math"},
			files:  []filePart{{"video", "a.mp4", "video/mp4", mp4Bytes}},
			status: http.StatusUnprocessableEntity,
			want:   "Please fill in all fields and choose a video.",
		},
		{
			name:   "missing file",
			fields: uploadFields,
			status: http.StatusUnprocessableEntity,
			want:   "Please fill in all fields and choose a video.",
		},
		{
			name:   "not a video",
			fields: uploadFields,
			files:  []filePart{{"video", "notes.pdf", "application/pdf", pdfBytes}},
			status: http.StatusUnprocessableEntity,
			want:   "Please choose a video file.",
		},
		{
			name:   "too large",
			fields: uploadFields,
			files:  []filePart{{"video", "a.mp4", "video/mp4", make([]byte, 2<<20)}},
			status: http.StatusRequestEntityTooLarge,
			want:   "The video is larger than 1 MB.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newApp(t, nil)
			br := a.signIn(t, adminSess)

			rec := br.postMultipart("/upload", tt.fields, tt.files...)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Empty(t, a.backend.Calls())
		})
	}
}
