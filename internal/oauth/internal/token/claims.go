// Package token verifies access tokens and derives the caller identity from
// their claims.
package token

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// UnknownClientID is reported when no client claim is present.
const UnknownClientID = "unknown"

// clientIDClaims are checked in order; the first non-blank string wins.
var clientIDClaims = []string{"client_id", "clientId", "azp", "sub"}

// Identity is what a verified token says about its bearer.
type Identity struct {
	Token     string
	ClientID  string
	Scopes    []string
	ExpiresAt time.Time
	Claims    map[string]any
}

// NewIdentity derives an Identity from verified claims.
func NewIdentity(raw string, claims map[string]any) *Identity {
	exp, _ := ExpiresAt(claims)
	return &Identity{
		Token:     raw,
		ClientID:  ClientID(claims),
		Scopes:    Scopes(claims),
		ExpiresAt: exp,
		Claims:    claims,
	}
}

// Scopes merges the "scope" and "scp" claims, first occurrence wins. Either
// claim may be a space-delimited string or an array of strings.
func Scopes(claims map[string]any) []string {
	var (
		out  []string
		seen = make(map[string]struct{})
	)
	add := func(s string) {
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, name := range []string{"scope", "scp"} {
		switch v := claims[name].(type) {
		case string:
			for _, s := range strings.Fields(v) {
				add(s)
			}
		case []string:
			for _, s := range v {
				if s = strings.TrimSpace(s); s != "" {
					add(s)
				}
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					if s = strings.TrimSpace(s); s != "" {
						add(s)
					}
				}
			}
		}
	}
	return out
}

// ClientID returns the first non-blank client claim, or UnknownClientID.
func ClientID(claims map[string]any) string {
	for _, name := range clientIDClaims {
		if s, ok := claims[name].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return UnknownClientID
}

// ExpiresAt reads the numeric "exp" claim.
func ExpiresAt(claims map[string]any) (time.Time, bool) {
	var secs float64
	switch v := claims["exp"].(type) {
	case float64:
		secs = v
	case int64:
		secs = float64(v)
	case int:
		secs = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		secs = f
	default:
		return time.Time{}, false
	}

	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)), true
}

// MissingScopes returns the entries of required absent from granted, in
// required order.
func MissingScopes(granted, required []string) []string {
	if len(required) == 0 {
		return nil
	}
	have := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		have[s] = struct{}{}
	}
	var missing []string
	for _, s := range required {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}
