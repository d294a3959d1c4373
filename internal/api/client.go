// Package api talks to the tutoring service's REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// errorBodyLimit caps how much of a failed response we keep for the message.
const errorBodyLimit = 4 << 10

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	// upload shares http's transport but has no overall timeout; a large
	// video may stream for longer than any JSON call should take.
	upload *http.Client
}

func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	upload := *hc
	upload.Timeout = 0
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      hc,
		upload:    &upload,
	}
}

// Field is a plain multipart form value.
type Field struct {
	Name  string
	Value string
}

// File is a multipart file part. Body is read once, while the request streams.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Body        io.Reader
}

// Do sends in as JSON (when non-nil) and decodes a JSON response into out
// (when non-nil). token, when set, is sent as a bearer credential.
func (c *Client) Do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "api: encode %s %s", method, path)
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(c.http, req, out)
}

// Upload streams fields and files as multipart/form-data. Only ctx bounds
// it; Config.Timeout applies to JSON calls.
func (c *Client) Upload(ctx context.Context, path, token string, fields []Field, files []File, out interface{}) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, files))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, token, pr)
	if err != nil {
		pr.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	err = c.send(c.upload, req, out)
	pr.Close()
	return err
}

func writeMultipart(mw *multipart.Writer, fields []Field, files []File) error {
	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return errors.Wrapf(err, "api: write field %s", f.Name)
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Filename)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return errors.Wrapf(err, "api: create part %s", f.Field)
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return errors.Wrapf(err, "api: copy part %s", f.Field)
		}
	}

	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "api: build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(hc *http.Client, req *http.Request, out interface{}) error {
	resp, err := hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "api: %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &Error{
			Method:  req.Method,
			Path:    req.URL.Path,
			Status:  resp.StatusCode,
			Message: messageFrom(raw, resp.StatusCode),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(err, "api: decode %s %s", req.Method, req.URL.Path)
	}
	return nil
}
