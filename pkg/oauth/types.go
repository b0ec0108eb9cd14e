// Package oauth holds protocol constants shared by the resource server and
// the authorization front end.
package oauth

// Authorization schemes.
const (
	SchemeBearer = "Bearer"
	SchemeBasic  = "Basic"
)

// HTTP header names.
const (
	HeaderAuthorization   = "Authorization"
	HeaderWWWAuthenticate = "WWW-Authenticate"
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderPragma          = "Pragma"
	HeaderLocation        = "Location"
	HeaderAllow           = "Allow"
	HeaderForwardedProto  = "X-Forwarded-Proto"
)

// Header values.
const (
	CacheControlNoStore = "no-store"
	PragmaNoCache       = "no-cache"

	// BasicTokenChallenge is sent with 401 responses from the token endpoint
	// when the client authenticated with HTTP Basic.
	BasicTokenChallenge = `Basic realm="token"`
)

// Content types.
const (
	ContentTypeJSON           = "application/json"
	ContentTypeHTML           = "text/html; charset=UTF-8"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
)

// Well-known paths.
const (
	// PathAuthorizationServerMetadata is the RFC 8414 discovery document.
	PathAuthorizationServerMetadata = "/.well-known/oauth-authorization-server"

	// PathOpenIDConfiguration is the OpenID Connect discovery document.
	PathOpenIDConfiguration = "/.well-known/openid-configuration"

	// PathProtectedResourceMetadata is the RFC 9728 document for the MCP endpoint.
	PathProtectedResourceMetadata = "/.well-known/oauth-protected-resource/mcp"

	// PathMCP is the guarded MCP endpoint.
	PathMCP = "/mcp"
)

// DiscoveryPaths lists the authorization server metadata documents in the
// order they are tried.
var DiscoveryPaths = []string{
	PathAuthorizationServerMetadata,
	PathOpenIDConfiguration,
}

// PKCE and grant constants used by the sample client.
const (
	ResponseTypeCode           = "code"
	GrantTypeAuthorizationCode = "authorization_code"
	CodeChallengeMethodS256    = "S256"
)
