package transportcore

import (
	"errors"
)

// Sentinel errors for transport operations.
var (
	// ErrMissingToken means the Authorization header carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInsufficientScope means the token lacks a required scope.
	ErrInsufficientScope = errors.New("insufficient scope")

	// ErrServerClosed means the server was never started or already stopped.
	ErrServerClosed = errors.New("server closed")
)
