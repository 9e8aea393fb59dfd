// Package session stores the page a visitor should return to after signing in.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	defaultCookieName = "kidsdev_return_to"
	defaultCookiePath = "/"
	defaultLifetime   = 30 * time.Minute
)

// ErrInvalidConfig indicates the store was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// Config controls cookie encoding.
type Config struct {
	CookieName   string
	HashKey      []byte
	BlockKey     []byte
	CookiePath   string
	CookieSecure bool
	Lifetime     time.Duration
	Now          func() time.Time
}

type payload struct {
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReturnTo records the originally requested page in a signed cookie.
type ReturnTo struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewReturnTo constructs a ReturnTo store.
func NewReturnTo(cfg Config) (*ReturnTo, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	if n := len(cfg.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.Lifetime.Seconds()))

	return &ReturnTo{cfg: cfg, codec: codec, now: nowFn}, nil
}

// Remember stores the request's path and query. Only same-site paths are recorded.
func (s *ReturnTo) Remember(w http.ResponseWriter, r *http.Request) error {
	target := r.URL.RequestURI()
	if !IsLocalPath(target) {
		return nil
	}
	encoded, err := s.codec.Encode(s.cfg.CookieName, payload{Path: target, CreatedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode return path: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    encoded,
		Path:     s.cfg.CookiePath,
		MaxAge:   int(s.cfg.Lifetime.Seconds()),
		Secure:   s.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Take returns the recorded path, or fallback when none is stored, and clears the cookie.
func (s *ReturnTo) Take(w http.ResponseWriter, r *http.Request, fallback string) string {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil {
		return fallback
	}
	s.clear(w)

	var stored payload
	if err := s.codec.Decode(s.cfg.CookieName, cookie.Value, &stored); err != nil {
		return fallback
	}
	if s.now().Sub(stored.CreatedAt) > s.cfg.Lifetime || !IsLocalPath(stored.Path) {
		return fallback
	}
	return stored.Path
}

func (s *ReturnTo) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     s.cfg.CookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   s.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// IsLocalPath reports whether p is an absolute path on this site.
func IsLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// GenerateKey returns a random key suitable for HashKey or BlockKey.
func GenerateKey(length int) []byte {
	return securecookie.GenerateRandomKey(length)
}
