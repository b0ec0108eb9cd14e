package config

import (
	"fmt"
	"net"
	"net/url"
)

// minSessionSecretLen is the shortest AUTH_SECRET accepted for HMAC signing.
const minSessionSecretLen = 32

// ValidateResource checks a resource server configuration.
func ValidateResource(cfg *Resource) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := validateServer(&cfg.Server, "MCP_BASE_URL"); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if err := validateOAuth(cfg); err != nil {
		return fmt.Errorf("invalid oauth config: %w", err)
	}
	return nil
}

// ValidateAuthz checks an authorization front end configuration.
func ValidateAuthz(cfg *Authz) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := validateServer(&cfg.Server, "PUBLIC_OAUTH_BASE_URL"); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if err := validateEngine(cfg); err != nil {
		return fmt.Errorf("invalid authlete config: %w", err)
	}
	if err := validateSession(cfg); err != nil {
		return fmt.Errorf("invalid session config: %w", err)
	}
	return nil
}

// isLocalhost reports whether host (with or without a port) is loopback.
func isLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// validateHTTPURL requires an absolute http(s) URL, allowing plain http only
// for loopback hosts.
func validateHTTPURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", key)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("%s must use http or https scheme", key)
	}
	if u.Scheme == "http" && !isLocalhost(u.Host) {
		return fmt.Errorf("%s must use https scheme for non-localhost hosts", key)
	}
	return nil
}

func validateServer(s *Server, baseURLKey string) error {
	if s.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if err := validateHTTPURL(baseURLKey, s.BaseURL); err != nil {
		return err
	}
	if s.ReadTimeout <= 0 {
		return fmt.Errorf("SERVER_READ_TIMEOUT must be positive")
	}
	if s.WriteTimeout <= 0 {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT must be positive")
	}
	if s.IdleTimeout < 0 {
		return fmt.Errorf("SERVER_IDLE_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func validateOAuth(cfg *Resource) error {
	if err := validateHTTPURL("OAUTH_SERVER_ISSUER", cfg.Issuer); err != nil {
		return err
	}
	if cfg.Audience == "" {
		return fmt.Errorf("audience is required")
	}
	if cfg.ClockSkew < 0 {
		return fmt.Errorf("OAUTH_CLOCK_SKEW must be non-negative")
	}
	if cfg.KeySetTTL < 0 {
		return fmt.Errorf("OAUTH_KEYSET_TTL must be non-negative")
	}
	if cfg.DiscoveryTimeout <= 0 {
		return fmt.Errorf("OAUTH_DISCOVERY_TIMEOUT must be positive")
	}
	if cfg.DocumentationURL != "" {
		if u, err := url.Parse(cfg.DocumentationURL); err != nil || !u.IsAbs() {
			return fmt.Errorf("MCP_SERVICE_DOCUMENTATION_URL must be an absolute URL")
		}
	}
	return nil
}

func validateEngine(cfg *Authz) error {
	if err := validateHTTPURL("AUTHLETE_BASE_URL", cfg.AuthleteBaseURL); err != nil {
		return err
	}
	if cfg.AuthleteAccessToken == "" {
		return fmt.Errorf("AUTHLETE_SERVICE_ACCESSTOKEN is required")
	}
	if cfg.AuthleteServiceID == "" {
		return fmt.Errorf("AUTHLETE_SERVICE_APIKEY is required")
	}
	if cfg.AuthleteTimeout <= 0 {
		return fmt.Errorf("AUTHLETE_TIMEOUT must be positive")
	}
	return nil
}

func validateSession(cfg *Authz) error {
	if len(cfg.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("AUTH_SECRET must be at least %d characters", minSessionSecretLen)
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	switch cfg.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis session store")
		}
		if cfg.RedisDB < 0 {
			return fmt.Errorf("REDIS_DB must be non-negative")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreMemory, SessionStoreRedis, cfg.SessionStore)
	}
	if cfg.SampleClientID == "" {
		return fmt.Errorf("SAMPLE_CLIENT_ID is required")
	}
	return nil
}
