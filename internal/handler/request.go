package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"samvaad/internal/entity"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling file parts to disk.
const multipartMemory = 8 << 20

// requireSession returns the session RequireAuth admitted the request with.
// Routes without the guard fall back to the login redirect.
func requireSession(w http.ResponseWriter, r *http.Request) (*entity.Session, bool) {
	sess, ok := sessionFor(r)
	if !ok {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return nil, false
	}
	return sess, true
}

func trimmed(values url.Values, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = strings.TrimSpace(values.Get(k))
	}
	return out
}

// withQuery builds path?k=v from the non-empty entries of values.
func withQuery(path string, values map[string]string) string {
	q := url.Values{}
	for k, v := range values {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// parseMultipart enforces limit on the whole body. A body over the limit
// reports tooLarge.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) (tooLarge bool, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return true, err
		}
		return false, err
	}
	return false, nil
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// sniff reports the detected content type of f and rewinds it.
func sniff(f multipart.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

func megabytes(n int64) int64 {
	return n >> 20
}
