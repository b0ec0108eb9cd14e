package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

// captureHandler records slog entries for assertions.
type captureHandler struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	entry := map[string]any{
		"level":   r.Level.String(),
		"message": r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		entry[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) all() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]map[string]any(nil), h.entries...)
}

// verifierFunc adapts a function to oauth.TokenVerifier.
type verifierFunc func(ctx context.Context, token string) (*oauth.VerifiedIdentity, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (*oauth.VerifiedIdentity, error) {
	return f(ctx, token)
}

// recordingResponder wraps a real responder and remembers the last
// challenge and the identity visible on its request.
type recordingResponder struct {
	transportcore.ErrorResponder

	mu        sync.Mutex
	challenge *ierrors.OAuthError
	identity  *oauth.VerifiedIdentity
	internal  error
}

func (r *recordingResponder) Challenge(w http.ResponseWriter, req *http.Request, status int, oe *ierrors.OAuthError) {
	r.mu.Lock()
	r.challenge = oe
	r.identity, _ = transportcore.IdentityFromContext(req.Context())
	r.mu.Unlock()
	r.ErrorResponder.Challenge(w, req, status, oe)
}

func (r *recordingResponder) InternalError(w http.ResponseWriter, err error) {
	r.mu.Lock()
	r.internal = err
	r.mu.Unlock()
	r.ErrorResponder.InternalError(w, err)
}
