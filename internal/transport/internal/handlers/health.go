package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// statusResponse is the JSON body of liveness endpoints.
type statusResponse struct {
	Service string `json:"service,omitempty"`
	Status  string `json:"status"`
}

// statusHandler answers GET with a fixed status document.
type statusHandler struct {
	body statusResponse
}

// NewHealthHandler creates a handler for the /health endpoint.
// It returns {"status":"ok"}.
func NewHealthHandler() http.Handler {
	return &statusHandler{body: statusResponse{Status: "ok"}}
}

// NewServiceStatusHandler creates a handler that identifies the service,
// returning {"service": service, "status": "ok"}.
func NewServiceStatusHandler(service string) http.Handler {
	return &statusHandler{body: statusResponse{Service: service, Status: "ok"}}
}

// ServeHTTP handles GET requests for health checks.
func (h *statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set(pkgoauth.HeaderContentType, pkgoauth.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.body); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}
