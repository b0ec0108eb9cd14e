package transportcore

import (
	"net/http"
	"strings"

	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

// BaseURL returns the scheme and host the client used to reach r. The host is
// always r.Host. The first X-Forwarded-Proto value may upgrade the scheme, but
// only to http or https.
func BaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	switch proto := strings.ToLower(firstValue(r.Header.Get(pkgoauth.HeaderForwardedProto))); proto {
	case "http", "https":
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func firstValue(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}
