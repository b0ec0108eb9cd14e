package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

func TestErrorResponder_Challenge(t *testing.T) {
	t.Parallel()

	oe := ierrors.NewOAuthError(ierrors.ErrorCodeInsufficientScope, "need more").
		WithRealm("http://localhost:9001").
		WithResourceMetadata("http://localhost:9001/.well-known/oauth-protected-resource/mcp").
		WithScope([]string{"a", "b"})

	rec := httptest.NewRecorder()
	NewErrorResponder(nil).Challenge(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil), http.StatusForbidden, oe)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	wantHeader := `Bearer realm="http://localhost:9001", error="insufficient_scope", error_description="need more", ` +
		`resource_metadata="http://localhost:9001/.well-known/oauth-protected-resource/mcp", scope="a b"`
	if got := rec.Header().Get(pkgoauth.HeaderWWWAuthenticate); got != wantHeader {
		t.Errorf("WWW-Authenticate =\n  %s\nwant\n  %s", got, wantHeader)
	}
	if ct := rec.Header().Get(pkgoauth.HeaderContentType); ct != pkgoauth.ContentTypeJSON {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "insufficient_scope" || body["error_description"] != "need more" {
		t.Errorf("body = %v", body)
	}
}

func TestErrorResponder_Plain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantError  string
		wantMsg    string
	}{
		{
			name: "json error",
			write: func(w http.ResponseWriter) {
				NewErrorResponder(nil).JSONError(w, http.StatusInternalServerError, "mcp_failure", "Unable to process MCP request")
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "mcp_failure",
			wantMsg:    "Unable to process MCP request",
		},
		{
			name: "internal error hides cause",
			write: func(w http.ResponseWriter) {
				NewErrorResponder(nil).InternalError(w, errors.New("database password is hunter2"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
			wantMsg:    "An internal server error occurred",
		},
		{
			name: "bad request",
			write: func(w http.ResponseWriter) {
				NewErrorResponder(nil).BadRequest(w, errors.New("decision is required"))
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "bad_request",
			wantMsg:    "decision is required",
		},
		{
			name:       "bad request without cause",
			write:      func(w http.ResponseWriter) { NewErrorResponder(nil).BadRequest(w, nil) },
			wantStatus: http.StatusBadRequest,
			wantError:  "bad_request",
			wantMsg:    "Invalid request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			tt.write(rec)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.wantError || body.Message != tt.wantMsg {
				t.Errorf("body = %+v, want {%s %s}", body, tt.wantError, tt.wantMsg)
			}
		})
	}
}
