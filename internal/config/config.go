// Package config loads the resource server and authorization server
// settings from the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Server holds the HTTP listener settings shared by both binaries.
type Server struct {
	// Addr is the listen address, e.g. ":9001".
	Addr string

	// BaseURL is the public origin of this server, without a trailing slash.
	BaseURL string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ShutdownTimeout bounds the graceful drain on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel slog.Level
}

// Resource configures the MCP resource server.
type Resource struct {
	Server Server

	// Issuer is the trusted authorization server, without a trailing slash.
	Issuer string

	// Audience is the aud value tokens must carry: BaseURL + "/mcp".
	Audience string

	// RequiredScopes must all be granted for /mcp. Also advertised as
	// scopes_supported.
	RequiredScopes []string

	DocumentationURL string
	ResourceName     string
	ServerName       string
	ServerVersion    string

	// ClockSkew is the leeway applied to exp, nbf, and iat.
	ClockSkew time.Duration

	// KeySetTTL bounds how long a resolved key set handle is reused. Zero
	// keeps it until a verification failure invalidates it.
	KeySetTTL time.Duration

	// DiscoveryTimeout bounds each metadata and key set fetch.
	DiscoveryTimeout time.Duration
}

// Authz configures the authorization front end.
type Authz struct {
	Server Server

	// SessionSecret signs the session cookie.
	SessionSecret string

	AuthleteBaseURL     string
	AuthleteAccessToken string
	AuthleteServiceID   string
	AuthleteTimeout     time.Duration

	SessionStore  string
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Scopes is requested by the sample client.
	Scopes []string

	SampleClientID string
}

// LoadEnvFile seeds the process environment from path. Variables already set
// win. A missing file is not an error unless required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadResource reads and validates the resource server configuration.
func LoadResource() (*Resource, error) {
	port, err := parseIntWithDefault("MCP_PORT", 9001)
	if err != nil {
		return nil, err
	}
	srv, err := loadServer(port, "MCP_BASE_URL")
	if err != nil {
		return nil, err
	}

	clockSkew, err := parseDurationWithDefault("OAUTH_CLOCK_SKEW", "1m")
	if err != nil {
		return nil, fmt.Errorf("invalid OAUTH_CLOCK_SKEW: %w", err)
	}
	keySetTTL, err := parseDurationWithDefault("OAUTH_KEYSET_TTL", "0s")
	if err != nil {
		return nil, fmt.Errorf("invalid OAUTH_KEYSET_TTL: %w", err)
	}
	discoveryTimeout, err := parseDurationWithDefault("OAUTH_DISCOVERY_TIMEOUT", "10s")
	if err != nil {
		return nil, fmt.Errorf("invalid OAUTH_DISCOVERY_TIMEOUT: %w", err)
	}

	cfg := &Resource{
		Server:           *srv,
		Issuer:           trimSlash(getEnvWithDefault("OAUTH_SERVER_ISSUER", "http://localhost:9000")),
		Audience:         srv.BaseURL + "/mcp",
		RequiredScopes:   parseCommaSeparated("MCP_SCOPES"),
		DocumentationURL: os.Getenv("MCP_SERVICE_DOCUMENTATION_URL"),
		ResourceName:     getEnvWithDefault("MCP_RESOURCE_NAME", "Echo MCP Server"),
		ServerName:       getEnvWithDefault("MCP_SERVER_NAME", "authlete-mcp-server"),
		ServerVersion:    getEnvWithDefault("MCP_SERVER_VERSION", "0.1.0"),
		ClockSkew:        clockSkew,
		KeySetTTL:        keySetTTL,
		DiscoveryTimeout: discoveryTimeout,
	}

	if err := ValidateResource(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAuthz reads and validates the authorization front end configuration.
func LoadAuthz() (*Authz, error) {
	port, err := parseIntWithDefault("OAUTH_PORT", 9000)
	if err != nil {
		return nil, err
	}
	srv, err := loadServer(port, "PUBLIC_OAUTH_BASE_URL")
	if err != nil {
		return nil, err
	}

	authleteTimeout, err := parseDurationWithDefault("AUTHLETE_TIMEOUT", "10s")
	if err != nil {
		return nil, fmt.Errorf("invalid AUTHLETE_TIMEOUT: %w", err)
	}
	sessionTTL, err := parseDurationWithDefault("SESSION_TTL", "10m")
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	redisDB, err := parseIntWithDefault("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Authz{
		Server:              *srv,
		SessionSecret:       os.Getenv("AUTH_SECRET"),
		AuthleteBaseURL:     trimSlash(os.Getenv("AUTHLETE_BASE_URL")),
		AuthleteAccessToken: os.Getenv("AUTHLETE_SERVICE_ACCESSTOKEN"),
		AuthleteServiceID:   os.Getenv("AUTHLETE_SERVICE_APIKEY"),
		AuthleteTimeout:     authleteTimeout,
		SessionStore:        strings.ToLower(getEnvWithDefault("SESSION_STORE", SessionStoreMemory)),
		SessionTTL:          sessionTTL,
		RedisAddr:           getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		RedisPrefix:         getEnvWithDefault("REDIS_PREFIX", "oauth-session:"),
		Scopes:              parseCommaSeparated("MCP_SCOPES"),
		SampleClientID:      getEnvWithDefault("SAMPLE_CLIENT_ID", "sample-client"),
	}

	if err := ValidateAuthz(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadServer(port int, baseURLKey string) (*Server, error) {
	readTimeout, err := parseDurationWithDefault("SERVER_READ_TIMEOUT", "30s")
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := parseDurationWithDefault("SERVER_WRITE_TIMEOUT", "30s")
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}
	idleTimeout, err := parseDurationWithDefault("SERVER_IDLE_TIMEOUT", "120s")
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_IDLE_TIMEOUT: %w", err)
	}
	shutdownTimeout, err := parseDurationWithDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}
	level, err := ParseLogLevel(getEnvWithDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	return &Server{
		Addr:            fmt.Sprintf(":%d", port),
		BaseURL:         trimSlash(getEnvWithDefault(baseURLKey, fmt.Sprintf("http://localhost:%d", port))),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
		LogLevel:        level,
	}, nil
}

// ParseLogLevel maps debug, info, warn, or error to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseCommaSeparated splits a comma list, dropping blanks. Unset yields nil.
func parseCommaSeparated(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseDurationWithDefault(key, defaultValue string) (time.Duration, error) {
	value := getEnvWithDefault(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("cannot parse duration %q: %w", value, err)
	}
	return d, nil
}

func parseIntWithDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func trimSlash(s string) string {
	return strings.TrimRight(s, "/")
}

// String renders the configuration with secrets redacted.
func (c *Resource) String() string {
	return fmt.Sprintf("Resource{Addr: %s, BaseURL: %s, Issuer: %s, Audience: %s, RequiredScopes: %v, ClockSkew: %v, KeySetTTL: %v, DiscoveryTimeout: %v}",
		c.Server.Addr, c.Server.BaseURL, c.Issuer, c.Audience, c.RequiredScopes,
		c.ClockSkew, c.KeySetTTL, c.DiscoveryTimeout)
}

// String renders the configuration with secrets redacted.
func (c *Authz) String() string {
	return fmt.Sprintf("Authz{Addr: %s, BaseURL: %s, AuthleteBaseURL: %s, AuthleteServiceID: %s, AuthleteAccessToken: %s, SessionStore: %s, SessionTTL: %v, SessionSecret: %s}",
		c.Server.Addr, c.Server.BaseURL, c.AuthleteBaseURL, c.AuthleteServiceID,
		redact(c.AuthleteAccessToken), c.SessionStore, c.SessionTTL, redact(c.SessionSecret))
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}
