package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRouterHealthEndpoints(t *testing.T) {
	router := NewRouter()

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200 for %s, got %d", path, rr.Code)
		}
	}
}

func TestRouterNotFoundIsJSON(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "route_not_found" {
		t.Fatalf("expected error route_not_found, got %v", body["error"])
	}
}

func TestRouterUnconfiguredGroupsReturnNotImplemented(t *testing.T) {
	router := NewRouter()

	for _, path := range []string{"/api/v1/productos/", "/api/v1/carrito/", "/api/v1/admin/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotImplemented {
			t.Fatalf("expected status 501 for %s, got %d", path, rr.Code)
		}
	}
}

func TestRouterMountsRegistrars(t *testing.T) {
	router := NewRouter(
		WithCatalogRoutes(func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				writeJSONResponse(w, http.StatusOK, map[string]any{"ok": true})
			})
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/productos/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestRouterAdminMiddlewaresApply(t *testing.T) {
	marker := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Admin-Scope", "true")
			next.ServeHTTP(w, r)
		})
	}

	router := NewRouter(
		WithAdminMiddlewares(marker),
		WithAdminRoutes(func(r chi.Router) {
			r.Get("/productos", func(w http.ResponseWriter, _ *http.Request) {
				writeJSONResponse(w, http.StatusOK, map[string]any{"ok": true})
			})
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/productos", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Admin-Scope") != "true" {
		t.Fatal("expected admin middleware to apply")
	}
}
