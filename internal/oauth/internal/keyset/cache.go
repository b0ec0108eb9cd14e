// Package keyset resolves and memoizes the signing key source of an
// authorization server.
//
// The first lookup for an issuer discovers its jwks_uri from the RFC 8414 or
// OpenID Connect metadata document. The resulting Handle is cached per
// issuer until Invalidate drops it; the next lookup then discovers again
// from scratch.
package keyset

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/jamesprial/mcp-oauth-authlete/internal/metrics"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth/oautherr"
)

// DefaultFetchTimeout bounds each metadata and key set request.
const DefaultFetchTimeout = 10 * time.Second

// Options configures a Cache.
type Options struct {
	// HTTPClient is used for discovery and key set fetches. Its Timeout is
	// replaced by FetchTimeout when that is set.
	HTTPClient *http.Client

	// FetchTimeout bounds each outbound request. Defaults to DefaultFetchTimeout.
	FetchTimeout time.Duration

	// TTL bounds how long a handle is reused. Zero keeps it until invalidated.
	TTL time.Duration

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Handle is the resolved key source for one issuer.
type Handle struct {
	Issuer    string
	KeySetURI string

	cache *Cache
}

// Cache resolves issuers to Handles. It is safe for concurrent use and is
// meant to live for the whole process.
type Cache struct {
	client  *http.Client
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger

	handles *gocache.Cache
	group   singleflight.Group

	// regMu serializes key set URI registration with the jwk cache.
	regMu sync.Mutex
	jwks  *jwk.Cache
}

// New creates a Cache. ctx bounds the lifetime of the background key set
// refresher.
func New(ctx context.Context, opts Options) (*Cache, error) {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	client := &http.Client{Timeout: timeout}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		c.Timeout = timeout
		client = &c
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jwks, err := jwk.NewCache(ctx, httprc.NewClient(httprc.WithHTTPClient(client)))
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS cache: %w", err)
	}

	expiry, cleanup := gocache.NoExpiration, time.Duration(0)
	if opts.TTL > 0 {
		expiry, cleanup = opts.TTL, opts.TTL
	}

	return &Cache{
		client:  client,
		timeout: timeout,
		metrics: opts.Metrics,
		logger:  logger,
		handles: gocache.New(expiry, cleanup),
		jwks:    jwks,
	}, nil
}

// Resolve returns the handle for issuer, discovering it on first use.
// Concurrent callers for an unresolved issuer share one discovery.
func (c *Cache) Resolve(ctx context.Context, issuer string) (*Handle, error) {
	if h, ok := c.cached(issuer); ok {
		return h, nil
	}

	v, err, _ := c.group.Do(issuer, func() (any, error) {
		// A caller that lost the race to an earlier flight finds its result here.
		if h, ok := c.cached(issuer); ok {
			return h, nil
		}

		// One caller's cancellation must not fail the others sharing this flight.
		uri, err := c.discover(context.WithoutCancel(ctx), issuer)
		c.metrics.KeySetDiscovery(err)
		if err != nil {
			return nil, err
		}

		c.logger.Info("key set discovered", "issuer", issuer, "jwks_uri", uri)
		h := &Handle{Issuer: issuer, KeySetURI: uri, cache: c}
		c.handles.Set(issuer, h, gocache.DefaultExpiration)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Key resolves issuer and returns the key for kid.
func (c *Cache) Key(ctx context.Context, issuer, kid string) (any, error) {
	h, err := c.Resolve(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return h.Key(ctx, kid)
}

// Invalidate drops everything known about issuer: the memoized handle, any
// in-flight discovery, and the registered key set.
func (c *Cache) Invalidate(issuer string) {
	v, found := c.handles.Get(issuer)
	c.handles.Delete(issuer)
	c.group.Forget(issuer)

	if found {
		if h, ok := v.(*Handle); ok {
			c.unregister(h.KeySetURI)
		}
	}

	c.metrics.KeySetInvalidated()
	c.logger.Debug("key set invalidated", "issuer", issuer)
}

func (c *Cache) cached(issuer string) (*Handle, bool) {
	v, ok := c.handles.Get(issuer)
	if !ok {
		return nil, false
	}
	h, ok := v.(*Handle)
	return h, ok
}

func (c *Cache) register(ctx context.Context, uri string) error {
	c.regMu.Lock()
	defer c.regMu.Unlock()

	if c.jwks.IsRegistered(ctx, uri) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.jwks.Register(ctx, uri)
}

func (c *Cache) unregister(uri string) {
	c.regMu.Lock()
	defer c.regMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if !c.jwks.IsRegistered(ctx, uri) {
		return
	}
	if err := c.jwks.Unregister(ctx, uri); err != nil {
		c.logger.Warn("failed to unregister key set", "jwks_uri", uri, "error", err)
	}
}

// Key returns the verification key for kid, fetching the key set on first
// use. An empty kid selects the key of a single-key set.
func (h *Handle) Key(ctx context.Context, kid string) (any, error) {
	const op = "Key"

	if err := h.cache.register(ctx, h.KeySetURI); err != nil {
		return nil, oautherr.NewKeySetUnavailableError(op, h.Issuer, err)
	}

	set, err := h.cache.jwks.Lookup(ctx, h.KeySetURI)
	if err != nil {
		return nil, oautherr.NewKeySetUnavailableError(op, h.Issuer, err)
	}

	var (
		key jwk.Key
		ok  bool
	)
	switch {
	case kid != "":
		key, ok = set.LookupKeyID(kid)
	case set.Len() == 1:
		key, ok = set.Key(0)
	}
	if !ok {
		return nil, oautherr.NewKeyNotFoundError(op, h.KeySetURI, kid)
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("failed to export key %q: %w", kid, err)
	}
	return raw, nil
}
