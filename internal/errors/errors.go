// Package errors provides the error types shared by the resource server and
// the authorization front end.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel error kinds.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("upstream unavailable")
)

// Context keys used consistently across domains.
const (
	// ContextReason holds a short machine-readable failure reason for logs
	// and metrics. It never reaches a client.
	ContextReason = "reason"

	// ContextOAuthError holds the RFC 6750 error code a failure maps to.
	ContextOAuthError = "oauth_error"
)

// DomainError describes a failure inside one subsystem.
type DomainError struct {
	// Domain is the subsystem, e.g. "oauth" or "authz".
	Domain string

	// Op is the operation that failed.
	Op string

	// Kind is the sentinel categorizing the failure.
	Kind error

	// Err is the wrapped cause, if any.
	Err error

	// Context carries key-value details for logging.
	Context map[string]any
}

// New creates a DomainError. err may be nil.
func New(domain, op string, kind, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Err:     err,
		Context: make(map[string]any),
	}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %v: %v", e.Domain, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.Domain, e.Op, e.Kind)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches target against the kind first, then the wrapped chain.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// WithContext records a detail and returns e for chaining.
func (e *DomainError) WithContext(key string, value any) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Reason returns the ContextReason detail of the outermost DomainError in
// err's chain, or "" if there is none.
func Reason(err error) string {
	var de *DomainError
	if !errors.As(err, &de) {
		return ""
	}
	reason, _ := de.Context[ContextReason].(string)
	return reason
}

// LogAttrs flattens the outermost DomainError in err's chain into slog-style
// key/value pairs. Non-domain errors yield only the error text.
func LogAttrs(err error) []any {
	attrs := []any{"error", err}
	var de *DomainError
	if !errors.As(err, &de) {
		return attrs
	}
	attrs = append(attrs, "domain", de.Domain, "op", de.Op)
	for k, v := range de.Context {
		attrs = append(attrs, k, v)
	}
	return attrs
}
