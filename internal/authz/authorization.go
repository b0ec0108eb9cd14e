package authz

import (
	"log/slog"
	"net/http"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/engine"
	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/session"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// Placeholders shown on the consent page.
const (
	UnknownClientName = "Unknown Client"
	UnknownClientID   = "unknown-client-id"
)

// authorizationHandler serves GET /authorize.
type authorizationHandler struct {
	engine   engine.Engine
	sessions *session.Manager
	logger   *slog.Logger
}

// NewAuthorizationHandler creates the authorization endpoint. The raw query
// string is forwarded to the engine as-is and the returned action decides
// the response.
func NewAuthorizationHandler(opts Options) http.Handler {
	opts.mustValidate()
	return &authorizationHandler{
		engine:   opts.Engine,
		sessions: opts.Sessions,
		logger:   opts.logger(),
	}
}

func (h *authorizationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	noStore(w)

	resp, err := h.engine.ProcessAuthorization(r.Context(), &engine.AuthorizationRequest{
		Parameters: r.URL.RawQuery,
	})
	if err != nil {
		engineUnavailable(w, r, h.logger, err)
		return
	}

	h.logger.DebugContext(r.Context(), "authorization processed",
		slog.String("action", resp.ActionName()),
		slog.String("result_code", resp.ResultCode))

	switch resp.Action {
	case engine.AuthorizationActionInternalServerError:
		writeJSONContent(w, http.StatusInternalServerError, resp.ResponseContent)
	case engine.AuthorizationActionBadRequest:
		writeJSONContent(w, http.StatusBadRequest, resp.ResponseContent)
	case engine.AuthorizationActionLocation:
		redirect(w, r, resp.ResponseContent)
	case engine.AuthorizationActionForm:
		writeContent(w, http.StatusOK, pkgoauth.ContentTypeHTML, resp.ResponseContent)
	case engine.AuthorizationActionInteraction:
		h.interact(w, r, resp)
	case engine.AuthorizationActionNoInteraction:
		failResp, err := h.engine.FailAuthorization(r.Context(), &engine.AuthorizationFailRequest{
			Ticket:      resp.Ticket,
			Reason:      engine.FailReasonServerError,
			Description: DescPromptNone,
		})
		if err != nil {
			engineUnavailable(w, r, h.logger, err)
			return
		}
		dispatchFail(w, r, failResp)
	default:
		writeJSONContent(w, http.StatusInternalServerError, "")
	}
}

// consentView is the data behind the consent page.
type consentView struct {
	ClientName string
	ClientID   string
	Scopes     []engine.Scope
	Resources  []string
}

// interact remembers the ticket and requested scopes, then asks the user.
func (h *authorizationHandler) interact(w http.ResponseWriter, r *http.Request, resp *engine.AuthorizationResponse) {
	clientID, err := ResolveClientID(resp.Client)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "cannot resolve client identifier", slog.Any("error", err))
		writeServerError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s, err := h.sessions.LoadOrNew(r)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load session", slog.Any("error", err))
		writeServerError(w, http.StatusInternalServerError, DescSessionUnavailable)
		return
	}
	s.Authorization = nil
	if resp.Ticket != "" {
		s.Authorization = &session.InteractionSession{
			Ticket:          resp.Ticket,
			ScopesToConsent: resp.ScopeNames(),
		}
	}
	if err := h.sessions.Save(r.Context(), w, s); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to save session", slog.Any("error", err))
		writeServerError(w, http.StatusInternalServerError, DescSessionUnavailable)
		return
	}

	view := consentView{
		ClientName: UnknownClientName,
		ClientID:   UnknownClientID,
		Scopes:     resp.Scopes,
		Resources:  resp.Resources,
	}
	if resp.Client != nil && resp.Client.ClientName != "" {
		view.ClientName = resp.Client.ClientName
	}
	if clientID != "" {
		view.ClientID = clientID
	}

	if err := render(w, consentTemplate, view); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render consent page", slog.Any("error", err))
	}
}
