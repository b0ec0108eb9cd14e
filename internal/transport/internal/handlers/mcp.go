package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

// MCP failure response fields.
const (
	MCPFailureCode    = "mcp_failure"
	MCPFailureMessage = "Unable to process MCP request"
)

// mcpHandler fronts the MCP streamable HTTP transport.
type mcpHandler struct {
	transport http.Handler
	responder transportcore.ErrorResponder
	logger    *slog.Logger
}

// NewMCPHandler wraps the MCP transport so that a failure inside it becomes
// a 500 mcp_failure response, as long as nothing was written yet.
func NewMCPHandler(transport http.Handler, responder transportcore.ErrorResponder, logger *slog.Logger) http.Handler {
	if transport == nil {
		panic("transport cannot be nil")
	}
	if responder == nil {
		panic("responder cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &mcpHandler{
		transport: transport,
		responder: responder,
		logger:    logger,
	}
}

// ServeHTTP delegates to the MCP transport.
func (h *mcpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		h.logger.ErrorContext(r.Context(), "mcp request failed",
			slog.String("error", fmt.Sprint(rec)),
			slog.String("method", r.Method),
		)
		if ww.Status() == 0 {
			h.responder.JSONError(w, http.StatusInternalServerError, MCPFailureCode, MCPFailureMessage)
		}
	}()

	h.transport.ServeHTTP(ww, r)
}
