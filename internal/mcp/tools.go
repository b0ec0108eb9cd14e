package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

// Tool names.
const (
	ToolEcho  = "echo"
	ToolGreet = "greet"
)

// Sentinel errors for tool input and caller identity.
var (
	// ErrEmptyMessage indicates echo was called without text.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrNameClaimsMissing indicates the caller's token carries no usable name.
	ErrNameClaimsMissing = errors.New("preferred_username or first and last name claims are required")

	// ErrNoIdentity indicates a tool ran without a verified caller.
	ErrNoIdentity = errors.New("no verified caller")
)

func registerTools(s *server.MCPServer, logger *slog.Logger) {
	echo := mcp.NewTool(ToolEcho,
		mcp.WithDescription("Returns the same text that the caller supplies."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Arbitrary text that the server should echo back."),
		),
	)
	s.AddTool(echo, handleEcho)

	greet := mcp.NewTool(ToolGreet,
		mcp.WithDescription("Greets the authenticated user by name."),
	)
	s.AddTool(greet, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGreet(ctx, req, logger)
	})
}

func handleEcho(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if message == "" {
		return mcp.NewToolResultError(ErrEmptyMessage.Error()), nil
	}
	return mcp.NewToolResultText(message), nil
}

func handleGreet(ctx context.Context, _ mcp.CallToolRequest, logger *slog.Logger) (*mcp.CallToolResult, error) {
	name, err := callerName(ctx)
	if err != nil {
		logger.DebugContext(ctx, "greet rejected", slog.String("reason", err.Error()))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("hello %s!", name)), nil
}

// callerName prefers preferred_username and falls back to
// "given_name family_name".
func callerName(ctx context.Context) (string, error) {
	id, ok := transportcore.IdentityFromContext(ctx)
	if !ok {
		return "", ErrNoIdentity
	}
	if name, ok := id.StringClaim("preferred_username"); ok {
		return name, nil
	}
	given, okGiven := id.StringClaim("given_name")
	family, okFamily := id.StringClaim("family_name")
	if okGiven && okFamily {
		return strings.Join([]string{given, family}, " "), nil
	}
	return "", ErrNameClaimsMissing
}
