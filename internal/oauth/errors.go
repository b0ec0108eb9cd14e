package oauth

import "github.com/jamesprial/mcp-oauth-authlete/internal/oauth/oautherr"

// Error kinds, re-exported for callers outside internal/oauth.
var (
	ErrTokenInvalid      = oautherr.ErrTokenInvalid
	ErrKeySetUnavailable = oautherr.ErrKeySetUnavailable
	ErrKeyNotFound       = oautherr.ErrKeyNotFound
)
