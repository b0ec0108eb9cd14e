package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth/oautherr"
)

// KeySource resolves verification keys for an issuer. It avoids importing
// the keyset package directly.
type KeySource interface {
	Key(ctx context.Context, issuer, kid string) (any, error)
	Invalidate(issuer string)
}

// AllowedAlgorithms are the asymmetric JWS algorithms accepted on access
// tokens. HMAC and "none" are never accepted.
var AllowedAlgorithms = []string{
	"RS256", "RS384", "RS512",
	"PS256", "PS384", "PS512",
	"ES256", "ES384", "ES512",
}

// Verifier checks signature, issuer and audience of access tokens.
type Verifier struct {
	keys     KeySource
	issuer   string
	audience string
	parser   *jwt.Parser
}

// NewVerifier creates a Verifier for tokens minted by issuer for audience.
func NewVerifier(keys KeySource, issuer, audience string, clockSkew time.Duration) *Verifier {
	return &Verifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		parser: jwt.NewParser(
			jwt.WithValidMethods(AllowedAlgorithms),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithLeeway(clockSkew),
			jwt.WithIssuedAt(),
		),
	}
}

// Verify returns the claims of raw. Every failure, whatever its cause, drops
// the issuer's cached key source so the next call rediscovers it.
func (v *Verifier) Verify(ctx context.Context, raw string) (jwt.MapClaims, error) {
	const op = "Verify"

	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, v.issuer, kid)
	})
	if err != nil {
		v.keys.Invalidate(v.issuer)
		return nil, oautherr.NewTokenInvalidError(op, classify(err), err)
	}
	return claims, nil
}

// classify maps a parse failure to a reason for logs and metrics.
func classify(err error) string {
	switch {
	case errors.Is(err, oautherr.ErrKeySetUnavailable):
		return oautherr.ReasonKeySetUnavailable
	case errors.Is(err, oautherr.ErrKeyNotFound):
		return oautherr.ReasonKeyNotFound
	case errors.Is(err, jwt.ErrTokenMalformed):
		return oautherr.ReasonMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return oautherr.ReasonInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return oautherr.ReasonTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return oautherr.ReasonNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return oautherr.ReasonInvalidIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return oautherr.ReasonInvalidAudience
	default:
		return oautherr.ReasonInvalidClaims
	}
}
