package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRoutePatternUsesChiRoute(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		got = routePattern(r)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items/42", nil))
	if got != "/api/items/{id}" {
		t.Fatalf("expected route pattern, got %q", got)
	}
}

func TestRoutePatternCollapsesUnmatchedPaths(t *testing.T) {
	for _, path := range []string{"/wp-login.php", "/random/123", "/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if got := routePattern(req); got != RouteUnmatched {
			t.Fatalf("path %s: expected %q, got %q", path, RouteUnmatched, got)
		}
	}

	var got string
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req)
			got = routePattern(req)
		})
	})
	r.Get("/health", func(http.ResponseWriter, *http.Request) {})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/no/such/route", nil))
	if got != RouteUnmatched {
		t.Fatalf("expected %q for a 404, got %q", RouteUnmatched, got)
	}
}
