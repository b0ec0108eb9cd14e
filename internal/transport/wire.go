package transport

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz"
	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/engine"
	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/session"
	"github.com/jamesprial/mcp-oauth-authlete/internal/config"
	"github.com/jamesprial/mcp-oauth-authlete/internal/metrics"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/internal/handlers"
	transporthttp "github.com/jamesprial/mcp-oauth-authlete/internal/transport/internal/http"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/internal/middleware"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// AuthzServiceName is reported by GET / on the authorization server.
const AuthzServiceName = "oauth-server"

// NewServer creates a server for cfg that dispatches to router.
func NewServer(cfg *config.Server, router Router) Server {
	return transporthttp.NewServer(cfg, router)
}

// NewRouter creates an empty chi-backed router.
func NewRouter() Router {
	return transporthttp.NewRouter()
}

// NewErrorResponder creates the JSON error responder.
func NewErrorResponder(logger *slog.Logger) ErrorResponder {
	return transporthttp.NewErrorResponder(logger)
}

// NewResourceGuard creates the bearer-token guard for the MCP endpoint.
func NewResourceGuard(verifier oauth.TokenVerifier, responder ErrorResponder, requiredScopes []string, m *metrics.Metrics, logger *slog.Logger) ResourceGuard {
	return middleware.NewResourceGuard(verifier, responder, middleware.GuardOptions{
		RequiredScopes: requiredScopes,
		Metrics:        m,
		Logger:         logger,
	})
}

// ResourceConfig holds what the resource server needs.
type ResourceConfig struct {
	Server *config.Server

	// Verifier checks bearer tokens on /mcp.
	Verifier oauth.TokenVerifier

	// Metadata serves the RFC 9728 document.
	Metadata oauth.MetadataService

	// MCP is the streamable HTTP transport of the MCP server.
	MCP http.Handler

	// RequiredScopes must all be granted for /mcp.
	RequiredScopes []string

	// Metrics is optional. When set, /metrics is served.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewResourceServices wires the resource server's routes and middleware.
func NewResourceServices(cfg *ResourceConfig) (Server, Router, error) {
	if cfg == nil {
		return nil, nil, errors.New("config cannot be nil")
	}
	if cfg.Server == nil {
		return nil, nil, errors.New("server config cannot be nil")
	}
	if cfg.Verifier == nil {
		return nil, nil, errors.New("token verifier cannot be nil")
	}
	if cfg.Metadata == nil {
		return nil, nil, errors.New("metadata service cannot be nil")
	}
	if cfg.MCP == nil {
		return nil, nil, errors.New("mcp handler cannot be nil")
	}
	logger := loggerOrDefault(cfg.Logger)

	responder := NewErrorResponder(logger)
	router := newBaseRouter(responder, cfg.Metrics, logger)

	guard := NewResourceGuard(cfg.Verifier, responder, cfg.RequiredScopes, cfg.Metrics, logger)
	mcpHandler := guard.Authenticate()(handlers.NewMCPHandler(cfg.MCP, responder, logger))

	router.Handle("GET "+pkgoauth.PathProtectedResourceMetadata, handlers.NewMetadataHandler(cfg.Metadata, responder, logger))
	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
		router.Handle(method+" "+pkgoauth.PathMCP, mcpHandler)
	}
	registerOps(router, cfg.Metrics)

	return NewServer(cfg.Server, router), router, nil
}

// AuthzConfig holds what the authorization server needs.
type AuthzConfig struct {
	Server *config.Server

	Engine   engine.Engine
	Sessions *session.Manager

	// SampleClientID and SampleClientScopes configure /sample-client.
	SampleClientID     string
	SampleClientScopes []string

	// HTTPClient is used by the sample client for its code exchange.
	// Optional.
	HTTPClient *http.Client

	// Metrics is optional. When set, /metrics is served.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewAuthzServices wires the authorization server's routes and middleware.
func NewAuthzServices(cfg *AuthzConfig) (Server, Router, error) {
	if cfg == nil {
		return nil, nil, errors.New("config cannot be nil")
	}
	if cfg.Server == nil {
		return nil, nil, errors.New("server config cannot be nil")
	}
	if cfg.Engine == nil {
		return nil, nil, errors.New("engine cannot be nil")
	}
	if cfg.Sessions == nil {
		return nil, nil, errors.New("session manager cannot be nil")
	}
	logger := loggerOrDefault(cfg.Logger)

	responder := NewErrorResponder(logger)
	router := newBaseRouter(responder, cfg.Metrics, logger)

	opts := authz.Options{Engine: cfg.Engine, Sessions: cfg.Sessions, Logger: logger}
	configuration := authz.NewConfigurationHandler(cfg.Engine, logger)

	router.Handle("GET /", handlers.NewServiceStatusHandler(AuthzServiceName))
	router.Handle("GET /authorize", authz.NewAuthorizationHandler(opts))
	router.Handle("POST /consent", authz.NewConsentHandler(opts))
	router.Handle("POST /token", authz.NewTokenHandler(cfg.Engine, logger))
	router.Handle("GET /jwks", authz.NewJWKSHandler(cfg.Engine, logger))
	router.Handle("GET "+pkgoauth.PathOpenIDConfiguration, configuration)
	router.Handle("GET "+pkgoauth.PathAuthorizationServerMetadata, configuration)
	router.Handle("GET "+authz.PathSampleClient, authz.NewSampleClientHandler(authz.SampleClientOptions{
		BaseURL:    cfg.Server.BaseURL,
		ClientID:   cfg.SampleClientID,
		Scopes:     cfg.SampleClientScopes,
		Sessions:   cfg.Sessions,
		HTTPClient: cfg.HTTPClient,
		Logger:     logger,
	}))
	login := authz.LoginOptions{BaseURL: cfg.Server.BaseURL, Sessions: cfg.Sessions, Logger: logger}
	loginHandler := authz.NewLoginHandler(login)
	router.Handle("GET "+authz.PathLogin, loginHandler)
	router.Handle("POST "+authz.PathLogin, loginHandler)
	router.Handle("POST "+authz.PathLogout, authz.NewLogoutHandler(login))
	registerOps(router, cfg.Metrics)

	return NewServer(cfg.Server, router), router, nil
}

// newBaseRouter creates a router with the middleware both servers share.
// Recovery is outermost so it also covers the logging and metrics layers.
func newBaseRouter(responder ErrorResponder, m *metrics.Metrics, logger *slog.Logger) Router {
	router := NewRouter()
	router.Use(
		middleware.NewRecoveryMiddleware(responder, logger),
		middleware.NewLoggingMiddleware(logger),
		middleware.NewMetricsMiddleware(m),
	)
	return router
}

func registerOps(router Router, m *metrics.Metrics) {
	router.Handle("GET /health", handlers.NewHealthHandler())
	if m != nil {
		router.Handle("GET /metrics", m.Handler())
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
