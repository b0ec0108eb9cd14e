package keyset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth/oautherr"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// maxMetadataBytes caps a discovery document.
const maxMetadataBytes = 1 << 20

// serverMetadata is the subset of RFC 8414 / OpenID discovery we read.
type serverMetadata struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// discover tries the well-known documents for issuer in order and returns
// the first non-empty jwks_uri. A failed fetch falls through to the next.
func (c *Cache) discover(ctx context.Context, issuer string) (string, error) {
	const op = "Resolve"

	base, err := url.Parse(issuer + "/")
	if err != nil {
		return "", oautherr.NewKeySetUnavailableError(op, issuer, err)
	}

	var errs []error
	for _, path := range pkgoauth.DiscoveryPaths {
		target := base.ResolveReference(&url.URL{Path: path}).String()

		uri, err := c.fetchKeySetURI(ctx, target)
		if err != nil {
			c.logger.Debug("discovery fetch failed", "url", target, "error", err)
			errs = append(errs, oautherr.NewMetadataError(op, target, err))
			continue
		}
		return uri, nil
	}

	return "", oautherr.NewKeySetUnavailableError(op, issuer, errors.Join(errs...))
}

func (c *Cache) fetchKeySetURI(ctx context.Context, metadataURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", pkgoauth.ContentTypeJSON)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var meta serverMetadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataBytes)).Decode(&meta); err != nil {
		return "", fmt.Errorf("decode metadata: %w", err)
	}
	if meta.JWKSURI == "" {
		return "", errors.New("metadata has no jwks_uri")
	}
	return meta.JWKSURI, nil
}
