// Package metadata builds the RFC 9728 protected resource metadata document.
package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// ProtectedResourceMetadata is the RFC 9728 document.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported,omitempty"`
	ResourceName           string   `json:"resource_name,omitempty"`
	ResourceDocumentation  string   `json:"resource_documentation,omitempty"`
}

// Options configures a Service.
type Options struct {
	// BaseURL is the public origin of the resource server.
	BaseURL string

	// Resource is the protected resource identifier, normally BaseURL + "/mcp".
	Resource string

	// Issuer is the only authorization server advertised.
	Issuer string

	ScopesSupported  []string
	ResourceName     string
	DocumentationURL string
}

// Service serves a fixed metadata document.
type Service struct {
	doc         ProtectedResourceMetadata
	metadataURL string
}

// NewService builds the document from opts. Only bearer tokens in the
// Authorization header are advertised.
func NewService(opts Options) *Service {
	base := normalizeBaseURL(opts.BaseURL)

	var servers []string
	if opts.Issuer != "" {
		servers = []string{normalizeBaseURL(opts.Issuer)}
	}

	return &Service{
		doc: ProtectedResourceMetadata{
			Resource:               normalizeBaseURL(opts.Resource),
			AuthorizationServers:   servers,
			ScopesSupported:        opts.ScopesSupported,
			BearerMethodsSupported: []string{"header"},
			ResourceName:           opts.ResourceName,
			ResourceDocumentation:  opts.DocumentationURL,
		},
		metadataURL: base + pkgoauth.PathProtectedResourceMetadata,
	}
}

// GetMetadata returns a copy of the document.
func (s *Service) GetMetadata(_ context.Context) (*ProtectedResourceMetadata, error) {
	doc := s.doc
	doc.AuthorizationServers = append([]string(nil), s.doc.AuthorizationServers...)
	if s.doc.ScopesSupported != nil {
		doc.ScopesSupported = append([]string{}, s.doc.ScopesSupported...)
	}
	doc.BearerMethodsSupported = append([]string(nil), s.doc.BearerMethodsSupported...)
	return &doc, nil
}

// GetMetadataURL returns where the document is published for the configured
// base URL.
func (s *Service) GetMetadataURL() string {
	return s.metadataURL
}

// normalizeBaseURL drops trailing slashes; RFC 8707 resource identifiers
// carry none.
func normalizeBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}

// ValidateMetadata checks the fields RFC 9728 requires of a published
// document.
func ValidateMetadata(m *ProtectedResourceMetadata) error {
	if m.Resource == "" {
		return fmt.Errorf("resource field is required")
	}
	if _, err := url.ParseRequestURI(m.Resource); err != nil {
		return fmt.Errorf("resource must be an absolute URL: %w", err)
	}
	if len(m.AuthorizationServers) == 0 {
		return fmt.Errorf("authorization_servers field must contain at least one server")
	}
	for _, server := range m.AuthorizationServers {
		u, err := url.Parse(server)
		if err != nil || u.Host == "" {
			return fmt.Errorf("authorization server URL is not absolute: %q", server)
		}
		if u.Scheme != "https" && u.Scheme != "http" {
			return fmt.Errorf("authorization server URL must use http(s): %s", server)
		}
	}
	return nil
}
