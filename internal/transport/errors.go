package transport

import (
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

var (
	// ErrMissingToken means the Authorization header carries no bearer token.
	ErrMissingToken = transportcore.ErrMissingToken

	// ErrInsufficientScope means the token lacks a required scope.
	ErrInsufficientScope = transportcore.ErrInsufficientScope

	// ErrServerClosed means the server was never started or already stopped.
	ErrServerClosed = transportcore.ErrServerClosed
)
