// Package oautherr holds the resource-server error kinds and constructors.
// It is separate from internal/oauth so the internal packages can build
// errors without importing their parent.
package oautherr

import (
	"errors"
	"fmt"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
)

const domainOAuth = "oauth"

// Error kinds.
var (
	// ErrTokenInvalid is the single kind callers see for any verification
	// failure.
	ErrTokenInvalid = fmt.Errorf("token invalid: %w", ierrors.ErrUnauthorized)

	// ErrKeySetUnavailable means no discovery path produced a key set URI,
	// or the key set could not be fetched.
	ErrKeySetUnavailable = fmt.Errorf("JWKS_UNAVAILABLE: %w", ierrors.ErrUnavailable)

	// ErrKeyNotFound means the key set has no key matching the token.
	ErrKeyNotFound = errors.New("signing key not found")
)

// Verification failure reasons, recorded under ierrors.ContextReason.
const (
	ReasonKeySetUnavailable = "keyset_unavailable"
	ReasonKeyNotFound       = "key_not_found"
	ReasonInvalidSignature  = "invalid_signature"
	ReasonTokenExpired      = "token_expired"
	ReasonNotYetValid       = "token_not_yet_valid"
	ReasonInvalidIssuer     = "invalid_issuer"
	ReasonInvalidAudience   = "invalid_audience"
	ReasonMalformed         = "malformed"
	ReasonInvalidClaims     = "invalid_claims"
)

// NewTokenInvalidError wraps a verification failure. reason is one of the
// Reason constants.
func NewTokenInvalidError(op, reason string, err error) *ierrors.DomainError {
	return ierrors.New(domainOAuth, op, ErrTokenInvalid, err).
		WithContext(ierrors.ContextOAuthError, ierrors.ErrorCodeInvalidToken).
		WithContext(ierrors.ContextReason, reason)
}

// NewKeySetUnavailableError reports that discovery or key set retrieval for
// issuer failed.
func NewKeySetUnavailableError(op, issuer string, err error) *ierrors.DomainError {
	return ierrors.New(domainOAuth, op, ErrKeySetUnavailable, err).
		WithContext(ierrors.ContextReason, ReasonKeySetUnavailable).
		WithContext("issuer", issuer)
}

// NewKeyNotFoundError reports a token whose kid is absent from the key set.
func NewKeyNotFoundError(op, keySetURI, keyID string) *ierrors.DomainError {
	return ierrors.New(domainOAuth, op, ErrKeyNotFound, nil).
		WithContext(ierrors.ContextReason, ReasonKeyNotFound).
		WithContext("jwks_uri", keySetURI).
		WithContext("key_id", keyID)
}

// NewMetadataError reports one failed discovery attempt.
func NewMetadataError(op, metadataURL string, err error) *ierrors.DomainError {
	return ierrors.New(domainOAuth, op, ierrors.ErrUnavailable, err).
		WithContext("metadata_url", metadataURL)
}
