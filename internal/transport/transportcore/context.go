package transportcore

import (
	"context"

	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// IdentityContextKey holds the *oauth.VerifiedIdentity of the caller.
const IdentityContextKey contextKey = "oauth_identity"

// IdentityFromContext returns the verified caller, if any.
func IdentityFromContext(ctx context.Context) (*oauth.VerifiedIdentity, bool) {
	if ctx == nil {
		return nil, false
	}
	id, ok := ctx.Value(IdentityContextKey).(*oauth.VerifiedIdentity)
	return id, ok && id != nil
}

// ContextWithIdentity attaches id to ctx.
func ContextWithIdentity(ctx context.Context, id *oauth.VerifiedIdentity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, IdentityContextKey, id)
}
