package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoticesAreOneShot(t *testing.T) {
	s := newTestStore(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	require.NoError(t, s.AddNotice(rec, req, Notice{Kind: NoticeError, Text: "Upload failed"}))
	require.NoError(t, s.AddNotice(rec, req, Notice{Kind: NoticeInfo, Text: "Try again"}))

	next := requestWithCookies(rec)
	drained := httptest.NewRecorder()
	got := s.Notices(drained, next)
	assert.Equal(t, []Notice{
		{Kind: NoticeError, Text: "Upload failed"},
		{Kind: NoticeInfo, Text: "Try again"},
	}, got)

	assert.Empty(t, s.Notices(httptest.NewRecorder(), requestWithCookies(drained)))
}

func TestNoticesDoNotTouchSessionRecord(t *testing.T) {
	s := newTestStore(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	require.NoError(t, s.Save(rec, req, adminSession()))
	require.NoError(t, s.AddNotice(rec, req, Notice{Kind: NoticeSuccess, Text: "Welcome"}))

	next := requestWithCookies(rec)
	got, ok := s.Load(next)
	require.True(t, ok)
	assert.Equal(t, adminSession(), got)
	assert.Len(t, s.Notices(httptest.NewRecorder(), next), 1)
}

func TestNoticesIgnoreGarbage(t *testing.T) {
	s := newTestStore(t)
	req := httptest.NewRequest(http.MethodGet, "/main", nil)
	req.AddCookie(&http.Cookie{Name: DefaultNoticeName, Value: "junk"})

	assert.Nil(t, s.Notices(httptest.NewRecorder(), req))
}
