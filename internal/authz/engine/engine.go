// Package engine is the contract with the authorization decision engine and
// a REST client for the Authlete API that implements it.
//
// The engine owns OAuth policy. Every call returns a response tagged with a
// closed action enum; callers dispatch on it and treat the Unknown variant
// as an unsupported action.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
)

// Engine is the decision engine as seen by the authorization front end.
type Engine interface {
	// ProcessAuthorization is authorization.processRequest.
	ProcessAuthorization(ctx context.Context, req *AuthorizationRequest) (*AuthorizationResponse, error)

	// FailAuthorization is authorization.fail.
	FailAuthorization(ctx context.Context, req *AuthorizationFailRequest) (*AuthorizationFailResponse, error)

	// IssueAuthorization is authorization.issue.
	IssueAuthorization(ctx context.Context, req *AuthorizationIssueRequest) (*AuthorizationIssueResponse, error)

	// ProcessToken is token.process.
	ProcessToken(ctx context.Context, req *TokenRequest) (*TokenResponse, error)

	// ServiceJWKS is jwkSetEndpoint.serviceJwksGetApi. The key set is
	// returned undecoded.
	ServiceJWKS(ctx context.Context) (json.RawMessage, error)

	// ServiceConfiguration is service.getConfiguration. The discovery
	// document is returned undecoded.
	ServiceConfiguration(ctx context.Context) (json.RawMessage, error)
}

// Operation names, used in errors, logs, and metrics.
const (
	OpProcessAuthorization = "authorization.processRequest"
	OpFailAuthorization    = "authorization.fail"
	OpIssueAuthorization   = "authorization.issue"
	OpProcessToken         = "token.process"
	OpServiceJWKS          = "jwkSetEndpoint.serviceJwksGetApi"
	OpServiceConfiguration = "service.getConfiguration"
)

const domainEngine = "engine"

// ErrUnavailable means the engine could not be reached or its answer could
// not be used: a network failure, a non-2xx status, or an undecodable body.
var ErrUnavailable = fmt.Errorf("decision engine unavailable: %w", ierrors.ErrUnavailable)

// NewUnavailableError wraps a failed engine call.
func NewUnavailableError(op string, err error) *ierrors.DomainError {
	return ierrors.New(domainEngine, op, ErrUnavailable, err)
}

// NewStatusError reports a non-2xx answer. message is the engine's
// resultMessage, if it sent one.
func NewStatusError(op string, status int, message string) *ierrors.DomainError {
	de := ierrors.New(domainEngine, op, ErrUnavailable, fmt.Errorf("unexpected status %d", status)).
		WithContext("status", status)
	if message != "" {
		de.WithContext("result_message", message)
	}
	return de
}
