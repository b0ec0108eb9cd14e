package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

// router implements transportcore.Router on a chi mux.
type router struct {
	mux chi.Router
}

// NewRouter creates an empty router. Unknown paths get 404 and known paths
// with the wrong method get 405.
func NewRouter() transportcore.Router {
	return &router{mux: chi.NewRouter()}
}

// Handle registers handler for "METHOD /path" or a bare path.
func (r *router) Handle(pattern string, handler http.Handler) {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		r.mux.Handle(pattern, handler)
		return
	}
	r.mux.Method(method, strings.TrimSpace(path), handler)
}

// HandleFunc registers a handler function for pattern.
func (r *router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.Handle(pattern, handler)
}

// Use appends middleware. The first registered is the outermost.
func (r *router) Use(middlewares ...transportcore.Middleware) {
	for _, mw := range middlewares {
		r.mux.Use(mw)
	}
}

func (r *router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RoutePattern returns the matched route pattern of req, or its raw path
// when routing has not happened.
func RoutePattern(req *http.Request) string {
	if rctx := chi.RouteContext(req.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return req.URL.Path
}
