package transport

import (
	"context"

	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

// IdentityFromContext returns the verified caller the resource guard
// attached to ctx.
func IdentityFromContext(ctx context.Context) (*oauth.VerifiedIdentity, bool) {
	return transportcore.IdentityFromContext(ctx)
}

// ContextWithIdentity attaches id to ctx.
func ContextWithIdentity(ctx context.Context, id *oauth.VerifiedIdentity) context.Context {
	return transportcore.ContextWithIdentity(ctx, id)
}
