// Package enginetest provides a scripted engine.Engine for tests.
package enginetest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/engine"
)

// Engine returns the configured responses and records every request. A nil
// response with a nil error yields a zero response, whose action is the
// Unknown variant.
type Engine struct {
	mu sync.Mutex

	Authorization    *engine.AuthorizationResponse
	AuthorizationErr error
	Fail             *engine.AuthorizationFailResponse
	FailErr          error
	Issue            *engine.AuthorizationIssueResponse
	IssueErr         error
	Token            *engine.TokenResponse
	TokenErr         error
	JWKS             json.RawMessage
	Configuration    json.RawMessage
	ServiceErr       error

	AuthorizationRequests []engine.AuthorizationRequest
	FailRequests          []engine.AuthorizationFailRequest
	IssueRequests         []engine.AuthorizationIssueRequest
	TokenRequests         []engine.TokenRequest

	// OnIssue, if set, runs before IssueAuthorization returns.
	OnIssue func(ctx context.Context)
	// OnFail, if set, runs before FailAuthorization returns.
	OnFail func(ctx context.Context)
}

var _ engine.Engine = (*Engine)(nil)

// ProcessAuthorization implements engine.Engine.
func (e *Engine) ProcessAuthorization(_ context.Context, req *engine.AuthorizationRequest) (*engine.AuthorizationResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.AuthorizationRequests = append(e.AuthorizationRequests, *req)
	if e.AuthorizationErr != nil {
		return nil, e.AuthorizationErr
	}
	if e.Authorization == nil {
		return &engine.AuthorizationResponse{}, nil
	}
	resp := *e.Authorization
	return &resp, nil
}

// FailAuthorization implements engine.Engine.
func (e *Engine) FailAuthorization(ctx context.Context, req *engine.AuthorizationFailRequest) (*engine.AuthorizationFailResponse, error) {
	e.mu.Lock()
	e.FailRequests = append(e.FailRequests, *req)
	hook, resp, err := e.OnFail, e.Fail, e.FailErr
	e.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &engine.AuthorizationFailResponse{}, nil
	}
	out := *resp
	return &out, nil
}

// IssueAuthorization implements engine.Engine.
func (e *Engine) IssueAuthorization(ctx context.Context, req *engine.AuthorizationIssueRequest) (*engine.AuthorizationIssueResponse, error) {
	e.mu.Lock()
	e.IssueRequests = append(e.IssueRequests, *req)
	hook, resp, err := e.OnIssue, e.Issue, e.IssueErr
	e.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &engine.AuthorizationIssueResponse{}, nil
	}
	out := *resp
	return &out, nil
}

// ProcessToken implements engine.Engine.
func (e *Engine) ProcessToken(_ context.Context, req *engine.TokenRequest) (*engine.TokenResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.TokenRequests = append(e.TokenRequests, *req)
	if e.TokenErr != nil {
		return nil, e.TokenErr
	}
	if e.Token == nil {
		return &engine.TokenResponse{}, nil
	}
	resp := *e.Token
	return &resp, nil
}

// ServiceJWKS implements engine.Engine.
func (e *Engine) ServiceJWKS(context.Context) (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.JWKS, e.ServiceErr
}

// ServiceConfiguration implements engine.Engine.
func (e *Engine) ServiceConfiguration(context.Context) (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Configuration, e.ServiceErr
}

// Calls returns how many fail and issue requests were made.
func (e *Engine) Calls() (fail, issue int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.FailRequests), len(e.IssueRequests)
}
