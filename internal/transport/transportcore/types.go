// Package transportcore provides the types shared by the transport package
// and its internal subpackages, so neither has to import the other.
package transportcore

import (
	"context"
	"net/http"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Server manages the HTTP server lifecycle.
type Server interface {
	// Start serves until Shutdown is called or the listener fails. It
	// blocks.
	Start() error

	// Shutdown stops accepting connections and waits for active ones to
	// finish or ctx to expire.
	Shutdown(ctx context.Context) error

	// Addr returns the bound address once Start has created the listener,
	// and the configured address before that.
	Addr() string
}

// Router handles request routing and middleware composition.
type Router interface {
	http.Handler

	// Handle registers handler for pattern. A pattern is either a path or
	// "METHOD /path", with {name} path parameters.
	Handle(pattern string, handler http.Handler)

	// HandleFunc registers a handler function for pattern.
	HandleFunc(pattern string, handler http.HandlerFunc)

	// Use appends middleware applied to every route. It must be called
	// before the first Handle.
	Use(middlewares ...Middleware)
}

// ResourceGuard protects resource routes with bearer tokens.
type ResourceGuard interface {
	// Authenticate verifies the bearer token, attaches the resulting
	// identity to the request context, and enforces the configured
	// required scopes. Failures are answered with an RFC 6750 challenge.
	Authenticate() Middleware
}

// ErrorResponder writes error responses.
type ErrorResponder interface {
	// Challenge writes status with a WWW-Authenticate header built from oe
	// and a JSON body of its error and error_description.
	Challenge(w http.ResponseWriter, r *http.Request, status int, oe *ierrors.OAuthError)

	// JSONError writes status with {"error": code, "message": message}.
	JSONError(w http.ResponseWriter, status int, code, message string)

	// InternalError writes a generic 500 and logs err.
	InternalError(w http.ResponseWriter, err error)

	// BadRequest writes a 400 and logs err.
	BadRequest(w http.ResponseWriter, err error)
}
