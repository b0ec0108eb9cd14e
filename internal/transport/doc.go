// Package transport is the HTTP layer of both servers. It ties bearer-token
// verification to the MCP endpoint on the resource server, and routes the
// authorization front end's endpoints on the authorization server.
//
// # Layout
//
//	internal/transport/
//	├── transport.go      re-exported interfaces
//	├── context.go        identity context helpers
//	├── errors.go         transport errors
//	├── wire.go           NewResourceServices, NewAuthzServices
//	├── transportcore/    types shared with the internal packages
//	└── internal/
//	    ├── http/         server, chi router, error responder
//	    ├── middleware/   resource guard, logging, recovery, metrics
//	    └── handlers/     metadata, MCP, health
//
// # Resource server
//
// Routes:
//
//	GET    /.well-known/oauth-protected-resource/mcp   RFC 9728 metadata
//	GET    /health
//	GET    /metrics
//	POST   /mcp                                         guarded
//	GET    /mcp                                         guarded
//	DELETE /mcp                                         guarded
//
// Every request passes through recovery, then logging, then metrics. The
// /mcp routes add the resource guard, which answers failures with an RFC 6750
// challenge:
//
//	HTTP/1.1 401 Unauthorized
//	WWW-Authenticate: Bearer realm="https://mcp.example.com", error="invalid_token",
//	    error_description="The access token provided is expired, revoked, malformed, or invalid",
//	    resource_metadata="https://mcp.example.com/.well-known/oauth-protected-resource/mcp"
//	Content-Type: application/json
//
//	{"error":"invalid_token","error_description":"The access token provided is expired, revoked, malformed, or invalid"}
//
// A token missing a required scope gets 403 insufficient_scope with a scope
// parameter listing every required scope. The identity is attached to the
// request context before the scope check:
//
//	id, ok := transport.IdentityFromContext(r.Context())
//
// # Authorization server
//
// Routes:
//
//	GET  /
//	GET  /health
//	GET  /metrics
//	GET  /authorize
//	POST /consent
//	POST /token
//	GET  /jwks
//	GET  /.well-known/openid-configuration
//	GET  /.well-known/oauth-authorization-server
//	GET  /sample-client
//	GET  /login
//	POST /login
//	POST /logout
package transport
