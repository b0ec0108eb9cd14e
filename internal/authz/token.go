package authz

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/engine"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// maxTokenRequestBytes bounds the token request body.
const maxTokenRequestBytes = 64 << 10

// Credentials are client credentials taken from HTTP Basic authentication.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// ParseBasicCredentials extracts client credentials from an Authorization
// header. The scheme is matched case-insensitively, padded and unpadded
// base64 are accepted, and the payload is split at its first colon. Any
// malformed header yields false.
func ParseBasicCredentials(header string) (Credentials, bool) {
	if !isBasic(header) {
		return Credentials{}, false
	}
	payload := strings.TrimSpace(header[len(pkgoauth.SchemeBasic)+1:])

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return Credentials{}, false
		}
	}

	id, secret, ok := strings.Cut(string(raw), ":")
	if !ok {
		return Credentials{}, false
	}
	return Credentials{ClientID: id, ClientSecret: secret}, true
}

func isBasic(header string) bool {
	prefix := pkgoauth.SchemeBasic + " "
	return len(header) >= len(prefix) && strings.EqualFold(header[:len(prefix)], prefix)
}

// tokenHandler serves POST /token.
type tokenHandler struct {
	engine engine.Engine
	logger *slog.Logger
}

// NewTokenHandler creates the token endpoint. The form body is forwarded
// undecoded together with any Basic client credentials.
func NewTokenHandler(eng engine.Engine, logger *slog.Logger) http.Handler {
	if eng == nil {
		panic("engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &tokenHandler{engine: eng, logger: logger}
}

func (h *tokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	noStore(w)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTokenRequestBytes))
	if err != nil {
		h.logger.WarnContext(r.Context(), "unreadable token request", slog.Any("error", err))
		writeError(w, http.StatusBadRequest, "invalid_request", "Unable to read request body")
		return
	}

	authHeader := r.Header.Get(pkgoauth.HeaderAuthorization)
	req := &engine.TokenRequest{Parameters: string(body)}
	if creds, ok := ParseBasicCredentials(authHeader); ok {
		req.ClientID = creds.ClientID
		req.ClientSecret = creds.ClientSecret
	}

	resp, err := h.engine.ProcessToken(r.Context(), req)
	if err != nil {
		engineUnavailable(w, r, h.logger, err)
		return
	}

	h.logger.DebugContext(r.Context(), "token request processed",
		slog.String("action", resp.ActionName()),
		slog.String("result_code", resp.ResultCode))

	switch resp.Action {
	case engine.TokenActionInternalServerError:
		writeJSONContent(w, http.StatusInternalServerError, resp.ResponseContent)
	case engine.TokenActionInvalidClient:
		if isBasic(authHeader) {
			w.Header().Set(pkgoauth.HeaderWWWAuthenticate, pkgoauth.BasicTokenChallenge)
			writeJSONContent(w, http.StatusUnauthorized, resp.ResponseContent)
			return
		}
		writeJSONContent(w, http.StatusBadRequest, resp.ResponseContent)
	case engine.TokenActionBadRequest:
		writeJSONContent(w, http.StatusBadRequest, resp.ResponseContent)
	case engine.TokenActionOK:
		writeJSONContent(w, http.StatusOK, resp.ResponseContent)
	case engine.TokenActionPassword, engine.TokenActionTokenExchange, engine.TokenActionJWTBearer:
		writeServerError(w, http.StatusNotImplemented, resp.ActionName()+" grant type is not supported")
	default:
		writeJSONContent(w, http.StatusInternalServerError, "")
	}
}
