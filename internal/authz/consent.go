package authz

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/engine"
	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/session"
)

// DecisionApprove is the consent form value that grants the request. Any
// other value denies it.
const DecisionApprove = "approve"

// DemoSubject is the fixed end-user every approved request is issued for.
const DemoSubject = "demo-user"

// DemoClaims describes DemoSubject to the engine.
type DemoClaims struct {
	FamilyName        string `json:"family_name"`
	GivenName         string `json:"given_name"`
	PreferredUsername string `json:"preferred_username"`
}

var demoClaims = DemoClaims{
	FamilyName:        "Demo",
	GivenName:         "Authlete",
	PreferredUsername: "Authlete Demo User",
}

// consentHandler serves POST /consent.
type consentHandler struct {
	engine   engine.Engine
	sessions *session.Manager
	logger   *slog.Logger
	claims   string
}

// NewConsentHandler creates the consent endpoint. It completes the
// authorization parked in the caller's session by either issuing or failing
// its ticket. The ticket is removed from the session before the engine is
// called, so one interaction is completed at most once.
func NewConsentHandler(opts Options) http.Handler {
	opts.mustValidate()

	claims, err := json.Marshal(demoClaims)
	if err != nil {
		panic(fmt.Sprintf("encode demo claims: %v", err))
	}
	return &consentHandler{
		engine:   opts.Engine,
		sessions: opts.Sessions,
		logger:   opts.logger(),
		claims:   string(claims),
	}
}

func (h *consentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	noStore(w)

	decision := r.PostFormValue("decision")
	h.logger.InfoContext(r.Context(), "consent decision", slog.String("decision", decision))

	pending, err := h.take(w, r)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			writeServerError(w, http.StatusInternalServerError, DescSessionNotFound)
		case errors.Is(err, ErrTicketNotFound):
			writeServerError(w, http.StatusInternalServerError, DescTicketNotFound)
		default:
			h.logger.ErrorContext(r.Context(), "failed to update session", slog.Any("error", err))
			writeServerError(w, http.StatusInternalServerError, DescSessionUnavailable)
		}
		return
	}

	if decision != DecisionApprove {
		h.deny(w, r, pending)
		return
	}
	h.approve(w, r, pending)
}

// take removes the pending authorization from the session and persists the
// removal.
func (h *consentHandler) take(w http.ResponseWriter, r *http.Request) (*session.InteractionSession, error) {
	s, err := h.sessions.Load(r)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrInvalidCookie) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	pending := s.Authorization
	if pending == nil {
		return nil, ErrSessionNotFound
	}
	if pending.Ticket == "" {
		return nil, ErrTicketNotFound
	}

	s.Authorization = nil
	if err := h.sessions.Save(r.Context(), w, s); err != nil {
		return nil, err
	}
	return pending, nil
}

func (h *consentHandler) deny(w http.ResponseWriter, r *http.Request, pending *session.InteractionSession) {
	resp, err := h.engine.FailAuthorization(r.Context(), &engine.AuthorizationFailRequest{
		Ticket:      pending.Ticket,
		Reason:      engine.FailReasonDenied,
		Description: DescUserDenied,
	})
	if err != nil {
		engineUnavailable(w, r, h.logger, err)
		return
	}
	dispatchFail(w, r, resp)
}

func (h *consentHandler) approve(w http.ResponseWriter, r *http.Request, pending *session.InteractionSession) {
	resp, err := h.engine.IssueAuthorization(r.Context(), &engine.AuthorizationIssueRequest{
		Ticket:      pending.Ticket,
		Subject:     DemoSubject,
		Claims:      h.claims,
		JWTAtClaims: h.claims,
		Scopes:      pending.ScopesToConsent,
	})
	if err != nil {
		engineUnavailable(w, r, h.logger, err)
		return
	}

	switch resp.Action {
	case engine.AuthorizationIssueActionLocation, engine.AuthorizationIssueActionBadRequest:
		if resp.Action == engine.AuthorizationIssueActionLocation && resp.ResponseContent != "" {
			redirect(w, r, resp.ResponseContent)
			return
		}
		desc := resp.ResultMessage
		if desc == "" {
			desc = DescIssueFailed
		}
		writeServerError(w, http.StatusInternalServerError, desc)
	default:
		writeServerError(w, http.StatusInternalServerError, "Unsupported action: "+resp.ActionName())
	}
}
