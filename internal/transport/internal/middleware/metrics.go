package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jamesprial/mcp-oauth-authlete/internal/metrics"
	transporthttp "github.com/jamesprial/mcp-oauth-authlete/internal/transport/internal/http"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

// NewMetricsMiddleware records request counts and latency by route pattern,
// so path parameters do not explode label cardinality. A nil m disables it.
func NewMetricsMiddleware(m *metrics.Metrics) transportcore.Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.HTTPRequest(transporthttp.RoutePattern(r), r.Method, status, time.Since(start))
		})
	}
}
