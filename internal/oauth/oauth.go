// Package oauth verifies bearer tokens for the MCP resource server and
// publishes its RFC 9728 protected resource metadata.
package oauth

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth/internal/token"
)

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	// Verify checks the token's signature against the issuer's published
	// key set, and its iss and aud claims against the configured values.
	//
	// Every failure is reported as ErrTokenInvalid, with the underlying
	// reason available through errors.Reason for logging.
	Verify(ctx context.Context, token string) (*VerifiedIdentity, error)
}

// VerifiedIdentity is the caller described by a verified access token. It is
// not modified after construction.
type VerifiedIdentity struct {
	// Token is the raw bearer token.
	Token string

	// ClientID comes from client_id, clientId, azp or sub, in that order,
	// and is "unknown" when none is set.
	ClientID string

	// Scopes is the union of the scope and scp claims.
	Scopes []string

	// ExpiresAt is the exp claim. Zero when the token has none.
	ExpiresAt time.Time

	// Claims is the full claim set.
	Claims map[string]any
}

// HasScope reports whether scope was granted.
func (v *VerifiedIdentity) HasScope(scope string) bool {
	if v == nil {
		return false
	}
	return slices.Contains(v.Scopes, scope)
}

// MissingScopes returns the entries of required that were not granted.
func (v *VerifiedIdentity) MissingScopes(required []string) []string {
	if v == nil {
		return slices.Clone(required)
	}
	return token.MissingScopes(v.Scopes, required)
}

// StringClaim returns the trimmed value of a non-blank string claim.
func (v *VerifiedIdentity) StringClaim(name string) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.Claims[name].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// MetadataService provides Protected Resource Metadata per RFC 9728.
type MetadataService interface {
	// GetMetadata returns the protected resource metadata document.
	GetMetadata(ctx context.Context) (*ProtectedResourceMetadata, error)

	// GetMetadataURL returns where the document is served for the
	// configured base URL.
	GetMetadataURL() string
}

// ProtectedResourceMetadata is the RFC 9728 document served at
// /.well-known/oauth-protected-resource/mcp.
type ProtectedResourceMetadata struct {
	// Resource is the protected resource identifier. Access tokens must carry
	// it in aud.
	Resource string `json:"resource"`

	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported,omitempty"`
	ResourceName           string   `json:"resource_name,omitempty"`
	ResourceDocumentation  string   `json:"resource_documentation,omitempty"`
}
