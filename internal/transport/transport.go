package transport

import (
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

// Re-exported from transportcore so callers need only this package.

// Middleware wraps an http.Handler.
type Middleware = transportcore.Middleware

// Server manages the HTTP server lifecycle.
type Server = transportcore.Server

// Router handles request routing and middleware composition.
type Router = transportcore.Router

// ResourceGuard protects resource routes with bearer tokens.
type ResourceGuard = transportcore.ResourceGuard

// ErrorResponder writes error responses.
type ErrorResponder = transportcore.ErrorResponder
