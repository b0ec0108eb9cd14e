package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/session"
)

// PathSampleClient is where the sample client lives. It is also its
// redirect URI.
const PathSampleClient = "/sample-client"

// SampleClientOptions configures the demo PKCE client.
type SampleClientOptions struct {
	// BaseURL is the public origin of this server.
	BaseURL string

	ClientID string
	Scopes   []string

	Sessions *session.Manager

	// HTTPClient performs the code exchange. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// sampleClientHandler serves GET /sample-client.
type sampleClientHandler struct {
	oauth    *oauth2.Config
	sessions *session.Manager
	http     *http.Client
	logger   *slog.Logger
}

// NewSampleClientHandler creates a public client that walks through the
// authorization code flow with PKCE against this server. Without a code it
// starts a new authorization; with one it redeems the code at /token.
func NewSampleClientHandler(opts SampleClientOptions) http.Handler {
	if opts.Sessions == nil {
		panic("session manager cannot be nil")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	base := strings.TrimRight(opts.BaseURL, "/")

	return &sampleClientHandler{
		oauth: &oauth2.Config{
			ClientID: opts.ClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/authorize",
				TokenURL:  base + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: base + PathSampleClient,
			Scopes:      opts.Scopes,
		},
		sessions: opts.Sessions,
		http:     opts.HTTPClient,
		logger:   opts.Logger,
	}
}

// sampleClientView is the data behind the sample client page.
type sampleClientView struct {
	AuthorizeURL string
	Error        string
	Token        *oauth2.Token
	Scope        string
}

func (h *sampleClientHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	noStore(w)

	q := r.URL.Query()
	var view sampleClientView
	switch {
	case q.Get("error") != "":
		view.Error = q.Get("error")
		if desc := q.Get("error_description"); desc != "" {
			view.Error += ": " + desc
		}
	case q.Get("code") != "":
		tok, err := h.redeem(w, r, q.Get("code"), q.Get("state"))
		if err != nil {
			h.logger.WarnContext(r.Context(), "sample client exchange failed", slog.Any("error", err))
			view.Error = err.Error()
			break
		}
		view.Token = tok
		if scope, ok := tok.Extra("scope").(string); ok {
			view.Scope = scope
		}
	default:
		authURL, err := h.begin(w, r)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "sample client cannot start", slog.Any("error", err))
			writeServerError(w, http.StatusInternalServerError, DescSessionUnavailable)
			return
		}
		view.AuthorizeURL = authURL
	}

	if err := render(w, sampleClientTemplate, view); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render sample client", slog.Any("error", err))
	}
}

// begin parks a fresh state and verifier in the session and returns the
// authorization URL that carries their challenge.
func (h *sampleClientHandler) begin(w http.ResponseWriter, r *http.Request) (string, error) {
	s, err := h.sessions.LoadOrNew(r)
	if err != nil {
		return "", err
	}
	state := session.SampleClientState{
		State:    uuid.NewString(),
		Verifier: oauth2.GenerateVerifier(),
	}
	s.SampleClient = &state
	if err := h.sessions.Save(r.Context(), w, s); err != nil {
		return "", err
	}
	return h.oauth.AuthCodeURL(state.State, oauth2.S256ChallengeOption(state.Verifier)), nil
}

// redeem exchanges code using the verifier stored by begin. The stored state
// is consumed whether or not the exchange succeeds.
func (h *sampleClientHandler) redeem(w http.ResponseWriter, r *http.Request, code, state string) (*oauth2.Token, error) {
	s, err := h.sessions.Load(r)
	if err != nil || s.SampleClient == nil {
		return nil, errors.New("no pending authorization; start again")
	}
	pending := s.SampleClient
	s.SampleClient = nil
	if err := h.sessions.Save(r.Context(), w, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if pending.State != state {
		return nil, errors.New("state mismatch; start again")
	}

	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, h.http)
	tok, err := h.oauth.Exchange(ctx, code, oauth2.VerifierOption(pending.Verifier))
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	return tok, nil
}
