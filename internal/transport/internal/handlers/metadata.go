// Package handlers provides HTTP handlers for the transport layer.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// metadataMaxAge is how long clients may reuse the resource document.
const metadataMaxAge = "public, max-age=3600"

type metadataHandler struct {
	service   oauth.MetadataService
	responder transportcore.ErrorResponder
	logger    *slog.Logger
}

// NewMetadataHandler serves the RFC 9728 document that tells an MCP client
// which authorization server issues tokens for /mcp.
func NewMetadataHandler(service oauth.MetadataService, responder transportcore.ErrorResponder, logger *slog.Logger) http.Handler {
	if service == nil {
		panic("service cannot be nil")
	}
	if responder == nil {
		panic("responder cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &metadataHandler{service: service, responder: responder, logger: logger}
}

func (h *metadataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	doc, err := h.service.GetMetadata(r.Context())
	if err != nil {
		h.logger.Error("protected resource metadata unavailable", ierrors.LogAttrs(err)...)
		h.responder.InternalError(w, err)
		return
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		h.responder.InternalError(w, err)
		return
	}

	w.Header().Set(pkgoauth.HeaderContentType, pkgoauth.ContentTypeJSON)
	w.Header().Set(pkgoauth.HeaderCacheControl, metadataMaxAge)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
