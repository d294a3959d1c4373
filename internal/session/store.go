// Package session keeps the signed-in user's session record in a single
// encrypted cookie and answers every "who is signed in" question for the app.
package session

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"

	"samvaad/internal/entity"
)

const (
	DefaultCookieName = "app-session"

	// recordKey is the only value key the session cookie ever holds.
	recordKey = "user"

	hashKeyLen  = 64
	blockKeyLen = 32
)

var (
	ErrInvalidSession = errors.New("session: record has no token")
	ErrEmptySecret    = errors.New("session: empty secret")
)

type Options struct {
	Secret     string
	CookieName string
	NoticeName string
	Path       string
	MaxAge     time.Duration
	Secure     bool
	SameSite   http.SameSite
	Logger     *slog.Logger
}

type Store struct {
	cookies    *sessions.CookieStore
	name       string
	noticeName string
	path       string
	maxAge     int
	secure     bool
	sameSite   http.SameSite
	log        *slog.Logger
}

func NewStore(opts Options) (*Store, error) {
	if opts.Secret == "" {
		return nil, ErrEmptySecret
	}

	hashKey, blockKey, err := deriveKeys([]byte(opts.Secret))
	if err != nil {
		return nil, err
	}

	s := &Store{
		cookies:    sessions.NewCookieStore(hashKey, blockKey),
		name:       opts.CookieName,
		noticeName: opts.NoticeName,
		path:       opts.Path,
		maxAge:     int(opts.MaxAge / time.Second),
		secure:     opts.Secure,
		sameSite:   opts.SameSite,
		log:        opts.Logger,
	}
	if s.name == "" {
		s.name = DefaultCookieName
	}
	if s.noticeName == "" {
		s.noticeName = DefaultNoticeName
	}
	if s.path == "" {
		s.path = "/"
	}
	if s.maxAge <= 0 {
		s.maxAge = 86400 * 30
	}
	if s.sameSite == 0 {
		s.sameSite = http.SameSiteLaxMode
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	s.cookies.MaxAge(s.maxAge)
	s.cookies.Options = s.cookieOptions()

	return s, nil
}

// deriveKeys expands the configured secret into the HMAC and AES keys the
// cookie codec needs, so operators only manage one value.
func deriveKeys(secret []byte) ([]byte, []byte, error) {
	kdf := hkdf.New(sha256.New, secret, nil, []byte("samvaad session cookie v1"))

	hashKey := make([]byte, hashKeyLen)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, nil, fmt.Errorf("session: derive hash key: %w", err)
	}
	blockKey := make([]byte, blockKeyLen)
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, nil, fmt.Errorf("session: derive block key: %w", err)
	}

	return hashKey, blockKey, nil
}

func (s *Store) cookieOptions() *sessions.Options {
	return &sessions.Options{
		Path:     s.path,
		MaxAge:   s.maxAge,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: s.sameSite,
	}
}

// Save replaces whatever record the browser holds with sess in one write.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, sess *entity.Session) error {
	if !sess.Valid() {
		return ErrInvalidSession
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode record: %w", err)
	}

	cookie := s.get(r)
	cookie.Options = s.cookieOptions()
	cookie.Values = map[interface{}]interface{}{recordKey: string(raw)}

	if err := cookie.Save(r, w); err != nil {
		return fmt.Errorf("session: write cookie: %w", err)
	}
	return nil
}

// Load never fails: anything that cannot be read back as a record with a
// token is reported as absent.
func (s *Store) Load(r *http.Request) (*entity.Session, bool) {
	raw, ok := s.get(r).Values[recordKey].(string)
	if !ok || raw == "" {
		return nil, false
	}

	var sess entity.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.log.Debug("samvaad.session.malformed_record", slog.String("error", err.Error()))
		return nil, false
	}
	if !sess.Valid() {
		return nil, false
	}

	return &sess, true
}

func (s *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	cookie := s.get(r)
	cookie.Values = map[interface{}]interface{}{}
	cookie.Options = s.cookieOptions()
	cookie.Options.MaxAge = -1

	if err := cookie.Save(r, w); err != nil {
		return fmt.Errorf("session: expire cookie: %w", err)
	}
	return nil
}

func (s *Store) CurrentRole(r *http.Request) (entity.Role, bool) {
	sess, ok := s.Load(r)
	if !ok || sess.User.Role == "" {
		return "", false
	}
	return sess.User.Role, true
}

// get returns the request's cookie session. A cookie that fails to decode
// yields a fresh empty session, which is what Load wants.
func (s *Store) get(r *http.Request) *sessions.Session {
	cookie, err := s.cookies.Get(r, s.name)
	if err != nil {
		var codecErr securecookie.Error
		if errors.As(err, &codecErr) && codecErr.IsDecode() {
			s.log.Debug("samvaad.session.undecodable_cookie", slog.String("error", err.Error()))
		} else {
			s.log.Warn("samvaad.session.read_failed", slog.String("error", err.Error()))
		}
	}
	return cookie
}
