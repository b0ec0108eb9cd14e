package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinSecretLength is the shortest accepted cookie signing secret.
const MinSecretLength = 32

// DefaultCookieName names the session cookie.
const DefaultCookieName = "authz_session"

// ErrInvalidCookie means the cookie is malformed or its signature does not
// match.
var ErrInvalidCookie = errors.New("invalid session cookie")

// Options configures a Manager.
type Options struct {
	// TTL bounds both the stored record and the cookie. Defaults to 10m.
	TTL time.Duration

	// CookieName defaults to DefaultCookieName.
	CookieName string

	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Manager binds sessions in a Store to signed browser cookies.
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

// NewManager creates a Manager. secret must be at least MinSecretLength
// bytes.
func NewManager(store Store, secret string, opts Options) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store cannot be nil")
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d characters", MinSecretLength)
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	return &Manager{
		store:      store,
		secret:     []byte(secret),
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
	}, nil
}

// Load returns the session named by r's cookie. It returns ErrNotFound when
// there is no cookie or no stored record, and ErrInvalidCookie when the
// cookie fails verification.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrNotFound
	}
	id, ok := m.verify(c.Value)
	if !ok {
		return nil, ErrInvalidCookie
	}

	raw, err := m.store.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	s.ID = id
	return &s, nil
}

// LoadOrNew returns the current session, or a fresh unsaved one when r has
// none or its cookie is no longer valid. Store failures are returned.
func (m *Manager) LoadOrNew(r *http.Request) (*Session, error) {
	s, err := m.Load(r)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidCookie):
		return &Session{ID: uuid.NewString()}, nil
	default:
		return nil, err
	}
}

// Save stores s and refreshes its cookie on w.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, s.ID, raw, m.ttl); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    m.sign(s.ID),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy deletes s and expires its cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) sign(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(m.mac(id))
}

func (m *Manager) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	return id, hmac.Equal(got, m.mac(id))
}

func (m *Manager) mac(id string) []byte {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(id))
	return h.Sum(nil)
}
