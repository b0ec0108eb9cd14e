package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/jamesprial/mcp-oauth-authlete/internal/metrics"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// maxResponseBytes bounds how much of an engine response is read.
const maxResponseBytes = 1 << 20

// Options configures a RESTClient.
type Options struct {
	// BaseURL is the API origin, e.g. https://jp.authlete.com.
	BaseURL string

	// ServiceID identifies the service whose policy applies.
	ServiceID string

	// AccessToken authenticates this front end to the engine.
	AccessToken string

	// Timeout bounds each call. Defaults to 10s.
	Timeout time.Duration

	// HTTPClient is the base transport. Defaults to http.DefaultClient's.
	HTTPClient *http.Client

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// RESTClient calls the Authlete REST API.
type RESTClient struct {
	base    *url.URL
	http    *http.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ Engine = (*RESTClient)(nil)

// NewClient creates a RESTClient. Calls carry the access token as a bearer
// credential.
func NewClient(opts Options) (*RESTClient, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("engine base URL is required")
	}
	if opts.ServiceID == "" {
		return nil, errors.New("engine service ID is required")
	}
	if opts.AccessToken == "" {
		return nil, errors.New("engine access token is required")
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/api/" + url.PathEscape(opts.ServiceID) + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid engine base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: opts.AccessToken,
		TokenType:   pkgoauth.SchemeBearer,
	}))
	authed.Timeout = timeout

	return &RESTClient{
		base:    base,
		http:    authed,
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// ProcessAuthorization implements Engine.
func (c *RESTClient) ProcessAuthorization(ctx context.Context, req *AuthorizationRequest) (*AuthorizationResponse, error) {
	var resp AuthorizationResponse
	start := time.Now()
	err := c.do(ctx, OpProcessAuthorization, http.MethodPost, "auth/authorization", req, &resp)
	c.record(OpProcessAuthorization, err, resp.Action, start)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FailAuthorization implements Engine.
func (c *RESTClient) FailAuthorization(ctx context.Context, req *AuthorizationFailRequest) (*AuthorizationFailResponse, error) {
	var resp AuthorizationFailResponse
	start := time.Now()
	err := c.do(ctx, OpFailAuthorization, http.MethodPost, "auth/authorization/fail", req, &resp)
	c.record(OpFailAuthorization, err, resp.Action, start)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// IssueAuthorization implements Engine.
func (c *RESTClient) IssueAuthorization(ctx context.Context, req *AuthorizationIssueRequest) (*AuthorizationIssueResponse, error) {
	var resp AuthorizationIssueResponse
	start := time.Now()
	err := c.do(ctx, OpIssueAuthorization, http.MethodPost, "auth/authorization/issue", req, &resp)
	c.record(OpIssueAuthorization, err, resp.Action, start)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProcessToken implements Engine.
func (c *RESTClient) ProcessToken(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	var resp TokenResponse
	start := time.Now()
	err := c.do(ctx, OpProcessToken, http.MethodPost, "auth/token", req, &resp)
	c.record(OpProcessToken, err, resp.Action, start)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ServiceJWKS implements Engine.
func (c *RESTClient) ServiceJWKS(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	start := time.Now()
	err := c.do(ctx, OpServiceJWKS, http.MethodGet, "service/jwks/get", nil, &raw)
	c.record(OpServiceJWKS, err, nil, start)
	return raw, err
}

// ServiceConfiguration implements Engine.
func (c *RESTClient) ServiceConfiguration(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	start := time.Now()
	err := c.do(ctx, OpServiceConfiguration, http.MethodGet, "service/configuration", nil, &raw)
	c.record(OpServiceConfiguration, err, nil, start)
	return raw, err
}

func (c *RESTClient) do(ctx context.Context, op, method, path string, in, out any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: path})

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return NewUnavailableError(op, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return NewUnavailableError(op, err)
	}
	req.Header.Set("Accept", pkgoauth.ContentTypeJSON)
	if in != nil {
		req.Header.Set(pkgoauth.HeaderContentType, pkgoauth.ContentTypeJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return NewUnavailableError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return NewUnavailableError(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var result Result
		_ = json.Unmarshal(raw, &result)
		return NewStatusError(op, resp.StatusCode, result.ResultMessage)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return NewUnavailableError(op, fmt.Errorf("decode response: %w", err))
	}

	c.logger.DebugContext(ctx, "engine call", slog.String("op", op), slog.Int("status", resp.StatusCode))
	return nil
}

func (c *RESTClient) record(op string, err error, action fmt.Stringer, start time.Time) {
	label := ""
	switch {
	case err != nil:
	case action == nil:
		label = "ok"
	default:
		label = action.String()
	}
	c.metrics.EngineRequest(op, label, time.Since(start))
}
