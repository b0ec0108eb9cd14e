// Package oauthtest provides an in-process authorization server that
// publishes discovery metadata and a JWKS, and signs access tokens with the
// matching key.
package oauthtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"

	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// DefaultKeyID is the kid of the issuer's signing key.
const DefaultKeyID = "test-key-1"

// Issuer is a fake authorization server backed by httptest.
type Issuer struct {
	Server *httptest.Server
	Key    *rsa.PrivateKey
	KeyID  string

	metadataHits atomic.Int64
	jwksHits     atomic.Int64

	mu       sync.Mutex
	status   map[string]int
	bodies   map[string]string
	delay    time.Duration
	jwksFail bool
}

// NewIssuer starts an issuer serving both discovery documents and /jwks.
// It is closed when t finishes.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}

	iss := &Issuer{
		Key:    key,
		KeyID:  DefaultKeyID,
		status: make(map[string]int),
		bodies: make(map[string]string),
	}

	mux := http.NewServeMux()
	for _, path := range pkgoauth.DiscoveryPaths {
		mux.HandleFunc(path, iss.serveMetadata)
	}
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, _ *http.Request) {
		iss.jwksHits.Add(1)
		iss.mu.Lock()
		fail := iss.jwksFail
		iss.mu.Unlock()
		if fail {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set(pkgoauth.HeaderContentType, pkgoauth.ContentTypeJSON)
		_, _ = w.Write(iss.JWKS(t))
	})

	iss.Server = httptest.NewServer(mux)
	t.Cleanup(iss.Server.Close)
	return iss
}

// URL is the issuer identifier.
func (i *Issuer) URL() string {
	return i.Server.URL
}

// MetadataHits counts requests to either discovery document.
func (i *Issuer) MetadataHits() int64 {
	return i.metadataHits.Load()
}

// JWKSHits counts requests to /jwks.
func (i *Issuer) JWKSHits() int64 {
	return i.jwksHits.Load()
}

// SetMetadataStatus makes path answer with status and no body. Zero restores
// the default document.
func (i *Issuer) SetMetadataStatus(path string, status int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if status == 0 {
		delete(i.status, path)
		return
	}
	i.status[path] = status
}

// SetMetadataBody makes path answer 200 with body verbatim.
func (i *Issuer) SetMetadataBody(path, body string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.bodies[path] = body
}

// SetMetadataDelay delays every discovery response.
func (i *Issuer) SetMetadataDelay(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.delay = d
}

// SetJWKSFailing makes /jwks answer 503.
func (i *Issuer) SetJWKSFailing(fail bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.jwksFail = fail
}

func (i *Issuer) serveMetadata(w http.ResponseWriter, r *http.Request) {
	i.metadataHits.Add(1)

	i.mu.Lock()
	status, hasStatus := i.status[r.URL.Path]
	body, hasBody := i.bodies[r.URL.Path]
	delay := i.delay
	i.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if hasStatus {
		w.WriteHeader(status)
		return
	}

	w.Header().Set(pkgoauth.HeaderContentType, pkgoauth.ContentTypeJSON)
	if hasBody {
		_, _ = w.Write([]byte(body))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{
		"issuer":   i.URL(),
		"jwks_uri": i.URL() + "/jwks",
	})
}

// JWKS returns the public key set as JSON.
func (i *Issuer) JWKS(t testing.TB) []byte {
	t.Helper()

	key, err := jwk.Import(&i.Key.PublicKey)
	if err != nil {
		t.Errorf("failed to import public key: %v", err)
		return nil
	}
	if err := key.Set(jwk.KeyIDKey, i.KeyID); err != nil {
		t.Errorf("failed to set kid: %v", err)
		return nil
	}
	if err := key.Set(jwk.AlgorithmKey, "RS256"); err != nil {
		t.Errorf("failed to set alg: %v", err)
		return nil
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		t.Errorf("failed to add key: %v", err)
		return nil
	}
	raw, err := json.Marshal(set)
	if err != nil {
		t.Errorf("failed to marshal key set: %v", err)
		return nil
	}
	return raw
}

// Claims returns a valid claim set for audience, overlaid with extra.
// A nil value in extra deletes the claim.
func (i *Issuer) Claims(audience string, extra map[string]any) jwt.MapClaims {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": i.URL(),
		"aud": audience,
		"sub": "demo-user",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	for k, v := range extra {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	return claims
}

// Sign signs claims with the issuer key under RS256.
func (i *Issuer) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	return SignWith(t, i.Key, i.KeyID, jwt.SigningMethodRS256, claims)
}

// SignWith signs claims with an arbitrary key. An empty kid omits the header.
func SignWith(t testing.TB, key any, kid string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()

	tok := jwt.NewWithClaims(method, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
