package authz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/enginetest"
	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flakyStore fails Set once failSet is turned on.
type flakyStore struct {
	session.Store

	mu      sync.Mutex
	failSet bool
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	fail := s.failSet
	s.mu.Unlock()
	if fail {
		return errors.New("store unavailable")
	}
	return s.Store.Set(ctx, key, value, ttl)
}

func (s *flakyStore) setFailing(v bool) {
	s.mu.Lock()
	s.failSet = v
	s.mu.Unlock()
}

type fixture struct {
	engine   *enginetest.Engine
	store    *flakyStore
	sessions *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &flakyStore{Store: session.NewMemoryStore(time.Minute)}
	m, err := session.NewManager(store, testSecret, session.Options{TTL: time.Minute})
	require.NoError(t, err)
	return &fixture{engine: &enginetest.Engine{}, store: store, sessions: m}
}

func (f *fixture) options() Options {
	return Options{Engine: f.engine, Sessions: f.sessions, Logger: discardLogger()}
}

// seed stores s and returns a request carrying its cookie.
func (f *fixture) seed(t *testing.T, s *session.Session, method, target string, body io.Reader) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, f.sessions.Save(context.Background(), w, s))
	r := httptest.NewRequest(method, target, body)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

// withCookies returns a request carrying the cookies set on w.
func withCookies(w *httptest.ResponseRecorder, method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func assertNoStore(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	require.Equal(t, "no-cache", w.Header().Get("Pragma"))
}
