package authz

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/engine"
)

// passthroughHandler relays a JSON document fetched from the engine.
type passthroughHandler struct {
	fetch  func(context.Context) (json.RawMessage, error)
	logger *slog.Logger
}

func (h *passthroughHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	doc, err := h.fetch(r.Context())
	if err != nil {
		engineUnavailable(w, r, h.logger, err)
		return
	}
	writeJSONContent(w, http.StatusOK, string(doc))
}

// NewJWKSHandler serves the service's public key set.
func NewJWKSHandler(eng engine.Engine, logger *slog.Logger) http.Handler {
	if eng == nil {
		panic("engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &passthroughHandler{fetch: eng.ServiceJWKS, logger: logger}
}

// NewConfigurationHandler serves the service's discovery document. It backs
// both the OpenID and the RFC 8414 well-known paths.
func NewConfigurationHandler(eng engine.Engine, logger *slog.Logger) http.Handler {
	if eng == nil {
		panic("engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &passthroughHandler{fetch: eng.ServiceConfiguration, logger: logger}
}
