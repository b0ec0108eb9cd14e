package http

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/jamesprial/mcp-oauth-authlete/internal/transport/transportcore"
)

func TestRouter_Dispatch(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.HandleFunc("POST /token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	r.HandleFunc("/any", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodPost, "/token", http.StatusCreated},
		{http.MethodGet, "/token", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/any", http.StatusAccepted},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) transportcore.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewRouter()
	r.Use(mark("first"), mark("second"))
	r.HandleFunc("GET /", func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if want := []string{"first", "second", "handler"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestRoutePattern(t *testing.T) {
	t.Parallel()

	var got string
	r := NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req)
			got = RoutePattern(req)
		})
	})
	r.HandleFunc("GET /clients/{id}", func(http.ResponseWriter, *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/clients/42", nil))
	if got != "/clients/{id}" {
		t.Errorf("RoutePattern() = %q, want /clients/{id}", got)
	}

	if p := RoutePattern(httptest.NewRequest(http.MethodGet, "/raw", nil)); p != "/raw" {
		t.Errorf("RoutePattern() without routing = %q, want /raw", p)
	}
}
