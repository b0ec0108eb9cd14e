package errors

import (
	"fmt"
	"strings"
)

// OAuth error codes from RFC 6749 and RFC 6750.
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeInvalidToken      = "invalid_token"
	ErrorCodeInsufficientScope = "insufficient_scope"
	ErrorCodeServerError       = "server_error"
)

// OAuthError is an RFC 6750 bearer challenge plus the JSON body that
// accompanies it.
type OAuthError struct {
	// Realm is the protection space, normally the request's base URL.
	Realm string

	// ErrorCode is the OAuth error code.
	ErrorCode string

	// ErrorDescription is human readable and safe to show a client.
	ErrorDescription string

	// ResourceMetadata is the RFC 9728 protected resource metadata URL.
	ResourceMetadata string

	// Scope is the space-separated set of scopes the resource requires.
	Scope string
}

// NewOAuthError creates an OAuthError with the given code and description.
func NewOAuthError(errorCode, errorDescription string) *OAuthError {
	return &OAuthError{
		ErrorCode:        errorCode,
		ErrorDescription: errorDescription,
	}
}

func (e *OAuthError) Error() string {
	if e.ErrorDescription != "" {
		return fmt.Sprintf("%s: %s", e.ErrorCode, e.ErrorDescription)
	}
	return e.ErrorCode
}

// WithRealm sets the realm and returns e for chaining.
func (e *OAuthError) WithRealm(realm string) *OAuthError {
	e.Realm = realm
	return e
}

// WithScope sets the required scopes and returns e for chaining.
func (e *OAuthError) WithScope(scopes []string) *OAuthError {
	e.Scope = strings.Join(scopes, " ")
	return e
}

// WithResourceMetadata sets the metadata URL and returns e for chaining.
func (e *OAuthError) WithResourceMetadata(url string) *OAuthError {
	e.ResourceMetadata = url
	return e
}

// WWWAuthenticate renders the challenge header value. Parameters appear in
// the order realm, error, error_description, resource_metadata, scope; empty
// ones are omitted.
//
//	Bearer realm="https://mcp.example.com", error="invalid_token", error_description="...", resource_metadata="https://mcp.example.com/.well-known/oauth-protected-resource/mcp"
func (e *OAuthError) WWWAuthenticate() string {
	params := []struct{ key, value string }{
		{"realm", e.Realm},
		{"error", e.ErrorCode},
		{"error_description", e.ErrorDescription},
		{"resource_metadata", e.ResourceMetadata},
		{"scope", e.Scope},
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.value == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`%s="%s"`, p.key, quote(p.value)))
	}

	if len(parts) == 0 {
		return "Bearer"
	}
	return "Bearer " + strings.Join(parts, ", ")
}

// Body is the JSON document sent alongside a challenge.
type Body struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Body returns the JSON response body for e.
func (e *OAuthError) Body() Body {
	return Body{Error: e.ErrorCode, ErrorDescription: e.ErrorDescription}
}

// quote escapes backslashes and double quotes for a quoted-string.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
