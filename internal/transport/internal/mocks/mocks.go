// Package mocks provides mock implementations for testing the transport layer.
package mocks

import (
	"context"
	"net/http"
	"sync"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth"
)

// TokenVerifier is a mock implementation of oauth.TokenVerifier.
type TokenVerifier struct {
	VerifyFunc func(ctx context.Context, token string) (*oauth.VerifiedIdentity, error)
}

// Verify calls the mock VerifyFunc.
func (m *TokenVerifier) Verify(ctx context.Context, token string) (*oauth.VerifiedIdentity, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, token)
	}
	return nil, nil
}

// MetadataService is a mock implementation of oauth.MetadataService.
type MetadataService struct {
	GetMetadataFunc    func(ctx context.Context) (*oauth.ProtectedResourceMetadata, error)
	GetMetadataURLFunc func() string
}

// GetMetadata calls the mock GetMetadataFunc.
func (m *MetadataService) GetMetadata(ctx context.Context) (*oauth.ProtectedResourceMetadata, error) {
	if m.GetMetadataFunc != nil {
		return m.GetMetadataFunc(ctx)
	}
	return &oauth.ProtectedResourceMetadata{}, nil
}

// GetMetadataURL calls the mock GetMetadataURLFunc.
func (m *MetadataService) GetMetadataURL() string {
	if m.GetMetadataURLFunc != nil {
		return m.GetMetadataURLFunc()
	}
	return "https://example.com/.well-known/oauth-protected-resource/mcp"
}

// ErrorResponder is a mock transportcore.ErrorResponder that records every
// call and writes a minimal response.
type ErrorResponder struct {
	mu sync.Mutex

	ChallengeCalled bool
	ChallengeStatus int
	ChallengeError  *ierrors.OAuthError

	JSONErrorCalled  bool
	JSONErrorStatus  int
	JSONErrorCode    string
	JSONErrorMessage string

	InternalCalled bool
	InternalErr    error

	BadRequestCalled bool
	BadRequestErr    error
}

// Challenge records the call and writes status with the challenge header.
func (m *ErrorResponder) Challenge(w http.ResponseWriter, _ *http.Request, status int, oe *ierrors.OAuthError) {
	m.mu.Lock()
	m.ChallengeCalled = true
	m.ChallengeStatus = status
	m.ChallengeError = oe
	m.mu.Unlock()

	w.Header().Set("WWW-Authenticate", oe.WWWAuthenticate())
	w.WriteHeader(status)
}

// JSONError records the call and writes {"error","message"}.
func (m *ErrorResponder) JSONError(w http.ResponseWriter, status int, code, message string) {
	m.mu.Lock()
	m.JSONErrorCalled = true
	m.JSONErrorStatus = status
	m.JSONErrorCode = code
	m.JSONErrorMessage = message
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}

// InternalError records the call and writes a 500 response.
func (m *ErrorResponder) InternalError(w http.ResponseWriter, err error) {
	m.mu.Lock()
	m.InternalCalled = true
	m.InternalErr = err
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"internal_error"}`))
}

// BadRequest records the call and writes a 400 response.
func (m *ErrorResponder) BadRequest(w http.ResponseWriter, err error) {
	m.mu.Lock()
	m.BadRequestCalled = true
	m.BadRequestErr = err
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(`{"error":"bad_request"}`))
}

// Reset clears all recorded state.
func (m *ErrorResponder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChallengeCalled = false
	m.ChallengeStatus = 0
	m.ChallengeError = nil
	m.JSONErrorCalled = false
	m.JSONErrorStatus = 0
	m.JSONErrorCode = ""
	m.JSONErrorMessage = ""
	m.InternalCalled = false
	m.InternalErr = nil
	m.BadRequestCalled = false
	m.BadRequestErr = nil
}
