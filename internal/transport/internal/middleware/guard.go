// Package middleware provides HTTP middleware for the transport layer.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
	"github.com/jamesprial/mcp-oauth-authlete/internal/metrics"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// Challenge descriptions sent to clients.
const (
	descMissingToken = "Access token is required"
	descInvalidToken = "The access token provided is expired, revoked, malformed, or invalid"
	descScopePrefix  = "The request requires higher privileges than provided. Required scopes: "
)

// GuardOptions configures NewResourceGuard.
type GuardOptions struct {
	// RequiredScopes must all be granted. Empty disables the scope check.
	RequiredScopes []string

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// resourceGuard implements transportcore.ResourceGuard.
type resourceGuard struct {
	verifier  oauth.TokenVerifier
	responder transportcore.ErrorResponder
	required  []string
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewResourceGuard creates the bearer-token guard for protected routes.
func NewResourceGuard(
	verifier oauth.TokenVerifier,
	responder transportcore.ErrorResponder,
	opts GuardOptions,
) transportcore.ResourceGuard {
	if verifier == nil {
		panic("verifier cannot be nil")
	}
	if responder == nil {
		panic("responder cannot be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &resourceGuard{
		verifier:  verifier,
		responder: responder,
		required:  opts.RequiredScopes,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// Authenticate runs, in order: bearer extraction, token verification,
// identity attachment, and the required-scope check.
func (g *resourceGuard) Authenticate() transportcore.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				g.metrics.GuardDecision(metrics.OutcomeMissingToken)
				g.challenge(w, r, http.StatusUnauthorized, ierrors.ErrorCodeInvalidRequest, descMissingToken)
				return
			}

			id, err := g.verifier.Verify(r.Context(), token)
			if err != nil {
				g.metrics.GuardDecision(metrics.OutcomeInvalidToken)
				attrs := append(ierrors.LogAttrs(err), "remote_addr", r.RemoteAddr)
				g.logger.Warn("access token verification failed", attrs...)
				g.challenge(w, r, http.StatusUnauthorized, ierrors.ErrorCodeInvalidToken, descInvalidToken)
				return
			}

			// Attached before the scope check so a denial still carries who
			// was denied.
			r = r.WithContext(transportcore.ContextWithIdentity(r.Context(), id))

			if missing := id.MissingScopes(g.required); len(missing) > 0 {
				g.metrics.GuardDecision(metrics.OutcomeInsufficientScope)
				g.logger.Info("insufficient scope",
					"client_id", id.ClientID,
					"granted", id.Scopes,
					"missing", missing,
				)
				g.challenge(w, r, http.StatusForbidden, ierrors.ErrorCodeInsufficientScope,
					descScopePrefix+strings.Join(g.required, ", "))
				return
			}

			g.metrics.GuardDecision(metrics.OutcomeAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

// challenge answers with an RFC 6750 challenge whose realm and metadata URL
// follow the host the client used.
func (g *resourceGuard) challenge(w http.ResponseWriter, r *http.Request, status int, code, description string) {
	base := transportcore.BaseURL(r)
	oe := ierrors.NewOAuthError(code, description).
		WithRealm(base).
		WithResourceMetadata(base + pkgoauth.PathProtectedResourceMetadata).
		WithScope(g.required)
	g.responder.Challenge(w, r, status, oe)
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively per RFC 6750.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(pkgoauth.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, pkgoauth.SchemeBearer) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
