package authz

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// ErrorCodeServerError is the OAuth error code of every locally generated
// failure.
const ErrorCodeServerError = "server_error"

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func noStore(w http.ResponseWriter) {
	w.Header().Set(pkgoauth.HeaderCacheControl, pkgoauth.CacheControlNoStore)
	w.Header().Set(pkgoauth.HeaderPragma, pkgoauth.PragmaNoCache)
}

// writeContent writes content verbatim. An empty content writes no body.
func writeContent(w http.ResponseWriter, status int, contentType, content string) {
	w.Header().Set(pkgoauth.HeaderContentType, contentType)
	w.WriteHeader(status)
	if content != "" {
		_, _ = io.WriteString(w, content)
	}
}

func writeJSONContent(w http.ResponseWriter, status int, content string) {
	writeContent(w, status, pkgoauth.ContentTypeJSON, content)
}

// redirect sends a 302 to location, or an empty 500 when there is none.
func redirect(w http.ResponseWriter, r *http.Request, location string) {
	if location == "" {
		writeJSONContent(w, http.StatusInternalServerError, "")
		return
	}
	w.Header().Set(pkgoauth.HeaderLocation, location)
	w.WriteHeader(http.StatusFound)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set(pkgoauth.HeaderContentType, pkgoauth.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code, ErrorDescription: description})
}

func writeServerError(w http.ResponseWriter, status int, description string) {
	writeError(w, status, ErrorCodeServerError, description)
}

// engineUnavailable logs a failed engine call and answers 500.
func engineUnavailable(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.ErrorContext(r.Context(), "decision engine call failed", ierrors.LogAttrs(err)...)
	writeServerError(w, http.StatusInternalServerError, DescEngineUnavailable)
}
