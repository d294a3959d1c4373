package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// IsUnauthorized reports whether the backend refused the credential, which
// usually means the stored token went stale.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// Message returns the text worth showing a user for err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "The service is unreachable right now. Please try again."
}

func messageFrom(body []byte, status int) string {
	var payload struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		for _, m := range []string{payload.Msg, payload.Message, payload.Error} {
			if m != "" {
				return m
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}
