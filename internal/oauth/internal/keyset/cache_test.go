package keyset

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth/oautherr"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth/oauthtest"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

func newTestCache(t *testing.T, opts Options) *Cache {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = 2 * time.Second
	}
	c, err := New(ctx, opts)
	require.NoError(t, err)
	return c
}

func TestCache_Resolve(t *testing.T) {
	t.Parallel()

	iss := oauthtest.NewIssuer(t)
	c := newTestCache(t, Options{})

	h, err := c.Resolve(context.Background(), iss.URL())
	require.NoError(t, err)
	assert.Equal(t, iss.URL(), h.Issuer)
	assert.Equal(t, iss.URL()+"/jwks", h.KeySetURI)
	assert.EqualValues(t, 1, iss.MetadataHits())

	// Memoized: no second discovery.
	again, err := c.Resolve(context.Background(), iss.URL())
	require.NoError(t, err)
	assert.Same(t, h, again)
	assert.EqualValues(t, 1, iss.MetadataHits())
}

func TestCache_Resolve_FallsThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(*oauthtest.Issuer)
	}{
		{
			name: "non-2xx",
			setup: func(iss *oauthtest.Issuer) {
				iss.SetMetadataStatus(pkgoauth.PathAuthorizationServerMetadata, http.StatusNotFound)
			},
		},
		{
			name: "malformed json",
			setup: func(iss *oauthtest.Issuer) {
				iss.SetMetadataBody(pkgoauth.PathAuthorizationServerMetadata, "{not json")
			},
		},
		{
			name: "empty jwks_uri",
			setup: func(iss *oauthtest.Issuer) {
				iss.SetMetadataBody(pkgoauth.PathAuthorizationServerMetadata, `{"issuer":"x","jwks_uri":""}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			iss := oauthtest.NewIssuer(t)
			tt.setup(iss)
			c := newTestCache(t, Options{})

			h, err := c.Resolve(context.Background(), iss.URL())
			require.NoError(t, err)
			assert.Equal(t, iss.URL()+"/jwks", h.KeySetURI)
			assert.EqualValues(t, 2, iss.MetadataHits(), "both paths tried")
		})
	}
}

func TestCache_Resolve_Unavailable(t *testing.T) {
	t.Parallel()

	iss := oauthtest.NewIssuer(t)
	for _, p := range pkgoauth.DiscoveryPaths {
		iss.SetMetadataStatus(p, http.StatusInternalServerError)
	}
	c := newTestCache(t, Options{})

	_, err := c.Resolve(context.Background(), iss.URL())
	require.Error(t, err)
	assert.ErrorIs(t, err, oautherr.ErrKeySetUnavailable)

	// Failure is not memoized.
	iss.SetMetadataStatus(pkgoauth.PathAuthorizationServerMetadata, 0)
	_, err = c.Resolve(context.Background(), iss.URL())
	require.NoError(t, err)
}

func TestCache_Resolve_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestCache(t, Options{})
	_, err := c.Resolve(context.Background(), url)
	assert.ErrorIs(t, err, oautherr.ErrKeySetUnavailable)
}

func TestCache_Resolve_IssuerPathResolvesToRoot(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Path)
		mu.Unlock()
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestCache(t, Options{})
	_, err := c.Resolve(context.Background(), srv.URL+"/tenant/a")
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"/.well-known/oauth-authorization-server",
		"/.well-known/openid-configuration",
	}, seen)
}

func TestCache_Resolve_ConcurrentCoalesces(t *testing.T) {
	t.Parallel()

	iss := oauthtest.NewIssuer(t)
	iss.SetMetadataDelay(50 * time.Millisecond)
	c := newTestCache(t, Options{})

	const callers = 32
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make(chan error, callers)
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := c.Resolve(context.Background(), iss.URL())
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, iss.MetadataHits())
}

func TestCache_Resolve_CallerCancellationDoesNotPoison(t *testing.T) {
	t.Parallel()

	iss := oauthtest.NewIssuer(t)
	c := newTestCache(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Resolve(ctx, iss.URL())
	require.NoError(t, err)
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()

	iss := oauthtest.NewIssuer(t)
	c := newTestCache(t, Options{})
	ctx := context.Background()

	first, err := c.Resolve(ctx, iss.URL())
	require.NoError(t, err)
	_, err = first.Key(ctx, iss.KeyID)
	require.NoError(t, err)

	c.Invalidate(iss.URL())

	second, err := c.Resolve(ctx, iss.URL())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.EqualValues(t, 2, iss.MetadataHits())

	jwksBefore := iss.JWKSHits()
	_, err = second.Key(ctx, iss.KeyID)
	require.NoError(t, err)
	assert.Greater(t, iss.JWKSHits(), jwksBefore, "key set refetched after invalidation")
}

func TestCache_Invalidate_Unknown(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{})
	assert.NotPanics(t, func() { c.Invalidate("https://never.example.com") })
}

func TestCache_TTL(t *testing.T) {
	t.Parallel()

	iss := oauthtest.NewIssuer(t)
	c := newTestCache(t, Options{TTL: 20 * time.Millisecond})

	_, err := c.Resolve(context.Background(), iss.URL())
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	_, err = c.Resolve(context.Background(), iss.URL())
	require.NoError(t, err)

	assert.EqualValues(t, 2, iss.MetadataHits())
}

func TestHandle_Key(t *testing.T) {
	t.Parallel()

	iss := oauthtest.NewIssuer(t)
	c := newTestCache(t, Options{})
	ctx := context.Background()

	key, err := c.Key(ctx, iss.URL(), iss.KeyID)
	require.NoError(t, err)
	pub, ok := key.(*rsa.PublicKey)
	require.True(t, ok, "got %T", key)
	assert.Equal(t, iss.Key.PublicKey.N, pub.N)

	// A single-key set serves tokens without a kid.
	_, err = c.Key(ctx, iss.URL(), "")
	require.NoError(t, err)

	_, err = c.Key(ctx, iss.URL(), "rotated-away")
	assert.ErrorIs(t, err, oautherr.ErrKeyNotFound)
}

func TestHandle_Key_JWKSDown(t *testing.T) {
	t.Parallel()

	iss := oauthtest.NewIssuer(t)
	iss.SetJWKSFailing(true)
	c := newTestCache(t, Options{})

	_, err := c.Key(context.Background(), iss.URL(), iss.KeyID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oautherr.ErrKeySetUnavailable), "got %v", err)
}
