// Package authz is the authorization front end. It forwards authorization,
// consent, and token requests to the decision engine and turns the engine's
// action into an HTTP response. OAuth policy lives in the engine; this
// package only dispatches.
package authz

import (
	"errors"
	"log/slog"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/engine"
	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/session"
)

// Sentinel errors.
var (
	// ErrClientEntityIDMissing means the engine described an automatically
	// or explicitly registered client without an entity ID.
	ErrClientEntityIDMissing = errors.New("client entityId is missing")

	// ErrSessionNotFound means the consent request has no pending
	// authorization.
	ErrSessionNotFound = errors.New("authorization session not found")

	// ErrTicketNotFound means the pending authorization has no ticket.
	ErrTicketNotFound = errors.New("authorization ticket not found")
)

// Error descriptions sent to the browser or client.
const (
	DescEngineUnavailable  = "Authorization server is unavailable"
	DescSessionNotFound    = "Authorization session not found"
	DescTicketNotFound     = "Authorization ticket not found"
	DescSessionUnavailable = "Authorization session could not be stored"
	DescIssueFailed        = "Failed to issue authorization"
	DescPromptNone         = "prompt=none is not supported"
	DescUserDenied         = "User denied the authorization request"
)

// Options carries the collaborators of the interactive handlers.
type Options struct {
	Engine   engine.Engine
	Sessions *session.Manager
	Logger   *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) mustValidate() {
	if o.Engine == nil {
		panic("engine cannot be nil")
	}
	if o.Sessions == nil {
		panic("session manager cannot be nil")
	}
}
