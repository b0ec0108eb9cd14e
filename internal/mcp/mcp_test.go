package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func withClaims(claims map[string]any) context.Context {
	return transportcore.ContextWithIdentity(context.Background(), &oauth.VerifiedIdentity{
		Token:    "tok",
		ClientID: "sample-client",
		Claims:   claims,
	})
}

func TestHandleEcho(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    map[string]any
		want    string
		wantErr bool
	}{
		{name: "echoes message", args: map[string]any{"message": "ping"}, want: "ping"},
		{name: "keeps whitespace", args: map[string]any{"message": "  a b  "}, want: "  a b  "},
		{name: "empty message", args: map[string]any{"message": ""}, want: ErrEmptyMessage.Error(), wantErr: true},
		{name: "missing message", args: map[string]any{}, wantErr: true},
		{name: "non-string message", args: map[string]any{"message": 42}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := handleEcho(context.Background(), callRequest(ToolEcho, tt.args))
			require.NoError(t, err)
			assert.Equal(t, tt.wantErr, res.IsError)
			if tt.want != "" {
				assert.Equal(t, tt.want, resultText(t, res))
			}
		})
	}
}

func TestHandleGreet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ctx     context.Context
		want    string
		wantErr bool
	}{
		{
			name: "preferred username",
			ctx: withClaims(map[string]any{
				"preferred_username": "Authlete Demo User",
				"given_name":         "Authlete",
				"family_name":        "Demo",
			}),
			want: "hello Authlete Demo User!",
		},
		{
			name: "given and family name",
			ctx:  withClaims(map[string]any{"given_name": "Authlete", "family_name": "Demo"}),
			want: "hello Authlete Demo!",
		},
		{
			name: "blank preferred username falls back",
			ctx: withClaims(map[string]any{
				"preferred_username": "  ",
				"given_name":         "Ada",
				"family_name":        "Lovelace",
			}),
			want: "hello Ada Lovelace!",
		},
		{
			name:    "only given name",
			ctx:     withClaims(map[string]any{"given_name": "Authlete"}),
			want:    ErrNameClaimsMissing.Error(),
			wantErr: true,
		},
		{
			name:    "no identity",
			ctx:     context.Background(),
			want:    ErrNoIdentity.Error(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := handleGreet(tt.ctx, callRequest(ToolGreet, nil), discardLogger())
			require.NoError(t, err)
			assert.Equal(t, tt.wantErr, res.IsError)
			assert.Equal(t, tt.want, resultText(t, res))
		})
	}
}

func TestNewServer_ListsTools(t *testing.T) {
	t.Parallel()

	s := NewServer(&Config{ServerName: "test-server", ServerVersion: "0.0.1"})
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				InputSchema struct {
					Required []string `json:"required"`
				} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	names := make(map[string][]string)
	for _, tool := range decoded.Result.Tools {
		names[tool.Name] = tool.InputSchema.Required
	}
	require.Len(t, names, 2)
	assert.Equal(t, []string{"message"}, names[ToolEcho])
	assert.Contains(t, names, ToolGreet)
}

func TestNewServer_NilConfigPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewServer(nil) })
	assert.Panics(t, func() { NewHTTPHandler(nil) })
}

func TestHTTPHandler_CarriesIdentity(t *testing.T) {
	t.Parallel()

	_, handler := NewMCPServices(&Config{ServerName: "test-server", ServerVersion: "0.0.1"})
	id := &oauth.VerifiedIdentity{
		Token:    "tok",
		ClientID: "sample-client",
		Claims:   map[string]any{"preferred_username": "Authlete Demo User"},
	}
	guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r.WithContext(transportcore.ContextWithIdentity(r.Context(), id)))
	})
	srv := httptest.NewServer(guarded)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	c, err := client.NewStreamableHttpClient(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "test-client", Version: "1.0.0"}
	info, err := c.Initialize(ctx, initReq)
	require.NoError(t, err)
	assert.Equal(t, "test-server", info.ServerInfo.Name)

	res, err := c.CallTool(ctx, callRequest(ToolGreet, nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "hello Authlete Demo User!", resultText(t, res))

	res, err = c.CallTool(ctx, callRequest(ToolEcho, map[string]any{"message": "round trip"}))
	require.NoError(t, err)
	assert.Equal(t, "round trip", resultText(t, res))
}
