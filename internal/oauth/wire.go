package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jamesprial/mcp-oauth-authlete/internal/metrics"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth/internal/keyset"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth/internal/metadata"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth/internal/token"
)

// tokenVerifierAdapter adapts token.Verifier to TokenVerifier.
type tokenVerifierAdapter struct {
	verifier *token.Verifier
}

func (a *tokenVerifierAdapter) Verify(ctx context.Context, raw string) (*VerifiedIdentity, error) {
	claims, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	id := token.NewIdentity(raw, claims)
	return &VerifiedIdentity{
		Token:     id.Token,
		ClientID:  id.ClientID,
		Scopes:    id.Scopes,
		ExpiresAt: id.ExpiresAt,
		Claims:    id.Claims,
	}, nil
}

// metadataServiceAdapter adapts metadata.Service to MetadataService.
type metadataServiceAdapter struct {
	service *metadata.Service
}

func (a *metadataServiceAdapter) GetMetadata(ctx context.Context) (*ProtectedResourceMetadata, error) {
	meta, err := a.service.GetMetadata(ctx)
	if err != nil {
		return nil, err
	}
	return &ProtectedResourceMetadata{
		Resource:               meta.Resource,
		AuthorizationServers:   meta.AuthorizationServers,
		ScopesSupported:        meta.ScopesSupported,
		BearerMethodsSupported: meta.BearerMethodsSupported,
		ResourceName:           meta.ResourceName,
		ResourceDocumentation:  meta.ResourceDocumentation,
	}, nil
}

func (a *metadataServiceAdapter) GetMetadataURL() string {
	return a.service.GetMetadataURL()
}

// Config holds what the resource-server OAuth services need.
type Config struct {
	// BaseURL is the public origin of this resource server.
	BaseURL string

	// Issuer is the trusted authorization server. Its key set is discovered
	// from its metadata document.
	Issuer string

	// Audience is the required aud claim, normally BaseURL + "/mcp".
	Audience string

	ScopesSupported  []string
	ResourceName     string
	DocumentationURL string

	// ClockSkew is the leeway applied to exp, nbf and iat.
	ClockSkew time.Duration

	// KeySetTTL bounds how long a discovered key set is reused. Zero keeps it
	// until a verification failure.
	KeySetTTL time.Duration

	// DiscoveryTimeout bounds each metadata and key set request.
	DiscoveryTimeout time.Duration

	// HTTPClient is used for outbound discovery. Optional.
	HTTPClient *http.Client

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewMetadataService creates the RFC 9728 document service. It fails when
// the document would not be valid.
func NewMetadataService(cfg *Config) (MetadataService, error) {
	svc := metadata.NewService(metadata.Options{
		BaseURL:          cfg.BaseURL,
		Resource:         cfg.Audience,
		Issuer:           cfg.Issuer,
		ScopesSupported:  cfg.ScopesSupported,
		ResourceName:     cfg.ResourceName,
		DocumentationURL: cfg.DocumentationURL,
	})

	doc, err := svc.GetMetadata(context.Background())
	if err != nil {
		return nil, err
	}
	if err := metadata.ValidateMetadata(doc); err != nil {
		return nil, fmt.Errorf("invalid protected resource metadata: %w", err)
	}
	return &metadataServiceAdapter{service: svc}, nil
}

// NewTokenVerifier creates a verifier backed by a process-wide key set
// cache. ctx bounds the cache's background refresher.
func NewTokenVerifier(ctx context.Context, cfg *Config) (TokenVerifier, error) {
	cache, err := keyset.New(ctx, keyset.Options{
		HTTPClient:   cfg.HTTPClient,
		FetchTimeout: cfg.DiscoveryTimeout,
		TTL:          cfg.KeySetTTL,
		Metrics:      cfg.Metrics,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	v := token.NewVerifier(cache, cfg.Issuer, cfg.Audience, cfg.ClockSkew)
	return &tokenVerifierAdapter{verifier: v}, nil
}

// NewOAuthServices creates all resource-server OAuth services.
func NewOAuthServices(ctx context.Context, cfg *Config) (TokenVerifier, MetadataService, error) {
	meta, err := NewMetadataService(cfg)
	if err != nil {
		return nil, nil, err
	}
	verifier, err := NewTokenVerifier(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return verifier, meta, nil
}
