// Package mcp provides the Model Context Protocol server exposed behind the
// resource guard. Protocol handling is delegated to mark3labs/mcp-go; this
// package owns the tool set and the HTTP binding.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

// Config holds configuration for MCP services.
type Config struct {
	// ServerName is the name reported in the initialize result.
	ServerName string

	// ServerVersion is the version reported in the initialize result.
	ServerVersion string

	// Logger receives tool-level diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewServer creates an MCP server with the echo and greet tools registered.
func NewServer(cfg *Config) *server.MCPServer {
	if cfg == nil {
		panic("config cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := server.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	registerTools(s, logger)
	return s
}

// NewHTTPHandler serves s over streamable HTTP without server-side sessions.
// The verified caller attached by the resource guard is carried into every
// tool invocation.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	if s == nil {
		panic("mcp server cannot be nil")
	}
	return server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(identityContext),
	)
}

// NewMCPServices creates the MCP server and its HTTP handler from the
// configuration.
func NewMCPServices(cfg *Config) (*server.MCPServer, http.Handler) {
	s := NewServer(cfg)
	return s, NewHTTPHandler(s)
}

func identityContext(ctx context.Context, r *http.Request) context.Context {
	if id, ok := transportcore.IdentityFromContext(r.Context()); ok {
		return transportcore.ContextWithIdentity(ctx, id)
	}
	return ctx
}
