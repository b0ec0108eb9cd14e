package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// errorResponse is the body of non-OAuth errors.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// errorResponder implements transportcore.ErrorResponder.
type errorResponder struct {
	logger *slog.Logger
}

// NewErrorResponder creates an error responder. A nil logger uses the
// default.
func NewErrorResponder(logger *slog.Logger) transportcore.ErrorResponder {
	if logger == nil {
		logger = slog.Default()
	}
	return &errorResponder{logger: logger}
}

// Challenge writes an RFC 6750 challenge.
func (e *errorResponder) Challenge(w http.ResponseWriter, _ *http.Request, status int, oe *ierrors.OAuthError) {
	w.Header().Set(pkgoauth.HeaderWWWAuthenticate, oe.WWWAuthenticate())
	e.writeJSON(w, status, oe.Body())
}

// JSONError writes {"error", "message"}.
func (e *errorResponder) JSONError(w http.ResponseWriter, status int, code, message string) {
	e.writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// InternalError writes a generic 500.
func (e *errorResponder) InternalError(w http.ResponseWriter, err error) {
	e.logger.Error("internal server error", ierrors.LogAttrs(err)...)
	e.writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: "An internal server error occurred",
	})
}

// BadRequest writes a 400 carrying err's text.
func (e *errorResponder) BadRequest(w http.ResponseWriter, err error) {
	e.logger.Warn("bad request", "error", err)

	message := "Invalid request"
	if err != nil {
		message = err.Error()
	}
	e.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

func (e *errorResponder) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(pkgoauth.HeaderContentType, pkgoauth.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		e.logger.Error("failed to encode error response", "error", err)
	}
}
