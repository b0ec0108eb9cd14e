package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
	"github.com/jamesprial/mcp-oauth-authlete/internal/metrics"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth/oautherr"
	transporthttp "github.com/jamesprial/mcp-oauth-authlete/internal/transport/internal/http"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

const (
	testRealm    = "http://example.com"
	testMetadata = "http://example.com/.well-known/oauth-protected-resource/mcp"
)

func identityWith(scopes ...string) *oauth.VerifiedIdentity {
	return &oauth.VerifiedIdentity{
		Token:    "good-token",
		ClientID: "sample-client",
		Scopes:   scopes,
		Claims:   map[string]any{"sub": "demo-user"},
	}
}

func acceptOnly(token string, id *oauth.VerifiedIdentity) verifierFunc {
	return func(_ context.Context, got string) (*oauth.VerifiedIdentity, error) {
		if got != token {
			return nil, oautherr.NewTokenInvalidError("Verify", oautherr.ReasonInvalidSignature, errors.New("bad signature"))
		}
		return id, nil
	}
}

func TestResourceGuard_Authenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		authHeader   string
		required     []string
		granted      []string
		wantStatus   int
		wantCode     string
		wantDesc     string
		wantNext     bool
		wantHeader   string
		wantIdentity bool
	}{
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_request",
			wantDesc:   "Access token is required",
			wantHeader: `Bearer realm="http://example.com", error="invalid_request", error_description="Access token is required", resource_metadata="` + testMetadata + `"`,
		},
		{
			name:       "basic scheme",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_request",
			wantDesc:   "Access token is required",
		},
		{
			name:       "bearer without token",
			authHeader: "Bearer    ",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_request",
			wantDesc:   "Access token is required",
		},
		{
			name:       "scope listed on every challenge",
			required:   []string{"mcp:tools", "profile"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_request",
			wantHeader: `Bearer realm="http://example.com", error="invalid_request", error_description="Access token is required", resource_metadata="` + testMetadata + `", scope="mcp:tools profile"`,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer forged",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_token",
			wantDesc:   "The access token provided is expired, revoked, malformed, or invalid",
		},
		{
			name:         "valid token no requirements",
			authHeader:   "Bearer good-token",
			wantStatus:   http.StatusOK,
			wantNext:     true,
			wantIdentity: true,
		},
		{
			name:         "lowercase scheme accepted",
			authHeader:   "bearer good-token",
			wantStatus:   http.StatusOK,
			wantNext:     true,
			wantIdentity: true,
		},
		{
			name:         "superset of required scopes",
			authHeader:   "Bearer good-token",
			required:     []string{"mcp:tools"},
			granted:      []string{"profile", "mcp:tools"},
			wantStatus:   http.StatusOK,
			wantNext:     true,
			wantIdentity: true,
		},
		{
			name:         "missing a required scope",
			authHeader:   "Bearer good-token",
			required:     []string{"mcp:tools", "profile"},
			granted:      []string{"mcp:tools"},
			wantStatus:   http.StatusForbidden,
			wantCode:     "insufficient_scope",
			wantDesc:     "The request requires higher privileges than provided. Required scopes: mcp:tools, profile",
			wantHeader:   `Bearer realm="http://example.com", error="insufficient_scope", error_description="The request requires higher privileges than provided. Required scopes: mcp:tools, profile", resource_metadata="` + testMetadata + `", scope="mcp:tools profile"`,
			wantIdentity: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			responder := &recordingResponder{ErrorResponder: transporthttp.NewErrorResponder(slog.New(&captureHandler{}))}
			guard := NewResourceGuard(acceptOnly("good-token", identityWith(tt.granted...)), responder, GuardOptions{
				RequiredScopes: tt.required,
				Logger:         slog.New(&captureHandler{}),
			})

			var (
				nextCalled bool
				nextID     *oauth.VerifiedIdentity
			)
			handler := guard.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				nextID, _ = transportcore.IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "http://example.com/mcp", nil)
			if tt.authHeader != "" {
				req.Header.Set(pkgoauth.HeaderAuthorization, tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if nextCalled != tt.wantNext {
				t.Errorf("next called = %v, want %v", nextCalled, tt.wantNext)
			}

			if tt.wantNext {
				if nextID == nil || nextID.ClientID != "sample-client" {
					t.Errorf("identity in context = %+v", nextID)
				}
				if h := rec.Header().Get(pkgoauth.HeaderWWWAuthenticate); h != "" {
					t.Errorf("unexpected challenge %q", h)
				}
				return
			}

			header := rec.Header().Get(pkgoauth.HeaderWWWAuthenticate)
			if !strings.HasPrefix(header, `Bearer realm="`+testRealm+`"`) {
				t.Errorf("WWW-Authenticate = %q, want realm %s", header, testRealm)
			}
			if !strings.Contains(header, `resource_metadata="`+testMetadata+`"`) {
				t.Errorf("WWW-Authenticate = %q, missing resource_metadata", header)
			}
			if tt.wantHeader != "" && header != tt.wantHeader {
				t.Errorf("WWW-Authenticate =\n  %s\nwant\n  %s", header, tt.wantHeader)
			}

			var body ierrors.Body
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.wantCode {
				t.Errorf("body.error = %q, want %q", body.Error, tt.wantCode)
			}
			if tt.wantDesc != "" && body.ErrorDescription != tt.wantDesc {
				t.Errorf("body.error_description = %q, want %q", body.ErrorDescription, tt.wantDesc)
			}

			if got := responder.identity != nil; got != tt.wantIdentity {
				t.Errorf("identity attached on challenge = %v, want %v", got, tt.wantIdentity)
			}
		})
	}
}

func TestResourceGuard_RealmFollowsRequestHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		headers map[string]string
		tls     bool
		want    string
	}{
		{"plain host", "http://mcp.example.com:9001/mcp", nil, false, "http://mcp.example.com:9001"},
		{"forwarded proto", "http://mcp.example.com/mcp", map[string]string{
			pkgoauth.HeaderForwardedProto: "HTTPS, http",
		}, false, "https://mcp.example.com"},
		{"forwarded host ignored", "http://mcp.example.com:9001/mcp", map[string]string{
			"X-Forwarded-Host": "attacker.example.net",
		}, false, "http://mcp.example.com:9001"},
		{"unknown proto ignored", "http://mcp.example.com:9001/mcp", map[string]string{
			pkgoauth.HeaderForwardedProto: "javascript",
		}, false, "http://mcp.example.com:9001"},
		{"tls", "https://secure.example.com/mcp", nil, true, "https://secure.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			guard := NewResourceGuard(acceptOnly("x", identityWith()), transporthttp.NewErrorResponder(nil), GuardOptions{
				Logger: slog.New(&captureHandler{}),
			})
			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if !tt.tls {
				req.TLS = nil
			}
			rec := httptest.NewRecorder()
			guard.Authenticate()(http.NotFoundHandler()).ServeHTTP(rec, req)

			header := rec.Header().Get(pkgoauth.HeaderWWWAuthenticate)
			wantRealm := `realm="` + tt.want + `"`
			wantMeta := `resource_metadata="` + tt.want + pkgoauth.PathProtectedResourceMetadata + `"`
			if !strings.Contains(header, wantRealm) || !strings.Contains(header, wantMeta) {
				t.Errorf("WWW-Authenticate = %q, want %s and %s", header, wantRealm, wantMeta)
			}
		})
	}
}

func TestResourceGuard_LogsFailureReasonNotToken(t *testing.T) {
	t.Parallel()

	logs := &captureHandler{}
	guard := NewResourceGuard(acceptOnly("good-token", identityWith()), transporthttp.NewErrorResponder(nil), GuardOptions{
		Logger: slog.New(logs),
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set(pkgoauth.HeaderAuthorization, "Bearer secret-forged-token")
	guard.Authenticate()(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.all()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry["reason"] != oautherr.ReasonInvalidSignature {
		t.Errorf("reason = %v, want %s", entry["reason"], oautherr.ReasonInvalidSignature)
	}
	for k, v := range entry {
		if s, ok := v.(string); ok && strings.Contains(s, "secret-forged-token") {
			t.Errorf("log attribute %q leaks the token", k)
		}
	}
}

func TestResourceGuard_Metrics(t *testing.T) {
	t.Parallel()

	m, err := metrics.New("resource")
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	guard := NewResourceGuard(acceptOnly("good-token", identityWith("a")), transporthttp.NewErrorResponder(nil), GuardOptions{
		RequiredScopes: []string{"a"},
		Metrics:        m,
		Logger:         slog.New(&captureHandler{}),
	})
	handler := guard.Authenticate()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	for _, h := range []string{"", "Bearer nope", "Bearer good-token", "Bearer good-token"} {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		if h != "" {
			req.Header.Set(pkgoauth.HeaderAuthorization, h)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	expected := `
# HELP mcp_oauth_guard_decisions_total Resource guard decisions by outcome.
# TYPE mcp_oauth_guard_decisions_total counter
mcp_oauth_guard_decisions_total{outcome="allowed",server="resource"} 2
mcp_oauth_guard_decisions_total{outcome="invalid_token",server="resource"} 1
mcp_oauth_guard_decisions_total{outcome="missing_token",server="resource"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "mcp_oauth_guard_decisions_total"); err != nil {
		t.Error(err)
	}
}

func TestNewResourceGuard_PanicsOnNil(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil verifier")
		}
	}()
	NewResourceGuard(nil, transporthttp.NewErrorResponder(nil), GuardOptions{})
}
