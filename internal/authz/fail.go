package authz

import (
	"net/http"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/engine"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// dispatchFail turns the engine's answer to a fail request into the
// response for the client. The caller has already set the no-store headers.
func dispatchFail(w http.ResponseWriter, r *http.Request, resp *engine.AuthorizationFailResponse) {
	switch resp.Action {
	case engine.AuthorizationFailActionInternalServerError:
		writeJSONContent(w, http.StatusInternalServerError, resp.ResponseContent)
	case engine.AuthorizationFailActionBadRequest:
		writeJSONContent(w, http.StatusBadRequest, resp.ResponseContent)
	case engine.AuthorizationFailActionLocation:
		redirect(w, r, resp.ResponseContent)
	case engine.AuthorizationFailActionForm:
		writeContent(w, http.StatusOK, pkgoauth.ContentTypeHTML, resp.ResponseContent)
	default:
		writeJSONContent(w, http.StatusInternalServerError, "")
	}
}
