package session

import (
	"encoding/gob"
	"fmt"
	"net/http"
)

const DefaultNoticeName = "app-notice"

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a one-shot message shown on the next rendered page.
type Notice struct {
	Kind NoticeKind
	Text string
}

func init() {
	gob.Register(Notice{})
}

func (s *Store) AddNotice(w http.ResponseWriter, r *http.Request, n Notice) error {
	flash, _ := s.cookies.Get(r, s.noticeName)
	flash.Options = s.cookieOptions()
	flash.Options.MaxAge = 0
	flash.AddFlash(n)

	if err := flash.Save(r, w); err != nil {
		return fmt.Errorf("session: write notice: %w", err)
	}
	return nil
}

// Notices drains pending notices. Notices that cannot be decoded are dropped.
func (s *Store) Notices(w http.ResponseWriter, r *http.Request) []Notice {
	flash, err := s.cookies.Get(r, s.noticeName)
	if err != nil {
		return nil
	}

	pending := flash.Flashes()
	if len(pending) == 0 {
		return nil
	}

	flash.Options = s.cookieOptions()
	flash.Options.MaxAge = 0
	_ = flash.Save(r, w)

	out := make([]Notice, 0, len(pending))
	for _, v := range pending {
		if n, ok := v.(Notice); ok {
			out = append(out, n)
		}
	}
	return out
}
