package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kalad-store/api/internal/domain"
	"github.com/kalad-store/api/internal/services"
)

type stubCatalogService struct {
	listFn     func(ctx context.Context) ([]services.Product, error)
	getFn      func(ctx context.Context, productID string) (services.Product, error)
	featuredFn func(ctx context.Context, limit int) ([]services.Product, error)
	filterFn   func(ctx context.Context, filter services.ProductFilter) ([]services.Product, error)
	createFn   func(ctx context.Context, input services.ProductInput) (string, error)
	updateFn   func(ctx context.Context, productID string, input services.ProductInput) error
	deleteFn   func(ctx context.Context, productID string) error
}

func (s *stubCatalogService) ListProducts(ctx context.Context) ([]services.Product, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (services.Product, error) {
	if s.getFn != nil {
		return s.getFn(ctx, productID)
	}
	return services.Product{}, services.ErrCatalogNotFound
}

func (s *stubCatalogService) GetFeatured(ctx context.Context, limit int) ([]services.Product, error) {
	if s.featuredFn != nil {
		return s.featuredFn(ctx, limit)
	}
	return nil, nil
}

func (s *stubCatalogService) GetByCategory(ctx context.Context, category string) ([]services.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) GetByCollection(ctx context.Context, collection string) ([]services.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) GetInStock(ctx context.Context) ([]services.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) FilterProducts(ctx context.Context, filter services.ProductFilter) ([]services.Product, error) {
	if s.filterFn != nil {
		return s.filterFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, input services.ProductInput) (string, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return "generated", nil
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, productID string, input services.ProductInput) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, productID, input)
	}
	return nil
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, productID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, productID)
	}
	return nil
}

func sampleProduct() services.Product {
	badge := domain.BadgeOferta
	return services.Product{
		ID:          "p1",
		Nombre:      "Mesa Roble",
		Descripcion: "Mesa de comedor",
		Categoria:   "Muebles",
		Coleccion:   "Nordica",
		Precio:      1250,
		Stock:       3,
		Colores:     []string{"Natural", "Nogal"},
		Color:       "Natural",
		Imagen:      "https://cdn.example.com/mesa.jpg",
		Imagenes:    []string{"https://cdn.example.com/mesa-1.jpg"},
		SKU:         "MES-001",
		Badge:       &badge,
	}
}

func newCatalogRouter(catalog services.CatalogService) http.Handler {
	h := NewCatalogHandlers(catalog)
	r := chi.NewRouter()
	r.Route("/productos", h.Routes)
	return r
}

func TestCatalogHandlersList(t *testing.T) {
	catalog := &stubCatalogService{
		listFn: func(context.Context) ([]services.Product, error) {
			return []services.Product{sampleProduct()}, nil
		},
	}
	router := newCatalogRouter(catalog)

	req := httptest.NewRequest(http.MethodGet, "/productos/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Productos []map[string]any `json:"productos"`
		Total     int              `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Total != 1 || len(body.Productos) != 1 {
		t.Fatalf("expected one product, got total=%d len=%d", body.Total, len(body.Productos))
	}
	if body.Productos[0]["nombre"] != "Mesa Roble" {
		t.Fatalf("expected nombre Mesa Roble, got %v", body.Productos[0]["nombre"])
	}
	if body.Productos[0]["badge"] != "Oferta" {
		t.Fatalf("expected badge Oferta, got %v", body.Productos[0]["badge"])
	}
}

func TestCatalogHandlersListWithFilters(t *testing.T) {
	var captured services.ProductFilter
	catalog := &stubCatalogService{
		filterFn: func(_ context.Context, filter services.ProductFilter) ([]services.Product, error) {
			captured = filter
			return []services.Product{}, nil
		},
		listFn: func(context.Context) ([]services.Product, error) {
			t.Fatal("expected FilterProducts, not ListProducts")
			return nil, nil
		},
	}
	router := newCatalogRouter(catalog)

	req := httptest.NewRequest(http.MethodGet, "/productos/?q=roble&categoria=Muebles&enStock=true", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.Query != "roble" || captured.Categoria != "Muebles" || !captured.OnlyInStock {
		t.Fatalf("unexpected filter: %+v", captured)
	}
}

func TestCatalogHandlersFeaturedInvalidLimit(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/productos/destacados?limit=abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCatalogHandlersFeaturedPassesLimit(t *testing.T) {
	var captured int
	catalog := &stubCatalogService{
		featuredFn: func(_ context.Context, limit int) ([]services.Product, error) {
			captured = limit
			return []services.Product{sampleProduct()}, nil
		},
	}
	router := newCatalogRouter(catalog)

	req := httptest.NewRequest(http.MethodGet, "/productos/destacados?limit=2", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured != 2 {
		t.Fatalf("expected limit 2, got %d", captured)
	}
}

func TestCatalogHandlersGetNotFound(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/productos/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "product_not_found" {
		t.Fatalf("expected error product_not_found, got %v", body["error"])
	}
}

func TestCatalogHandlersGetSuccess(t *testing.T) {
	catalog := &stubCatalogService{
		getFn: func(_ context.Context, productID string) (services.Product, error) {
			if productID != "p1" {
				t.Fatalf("expected product id p1, got %s", productID)
			}
			return sampleProduct(), nil
		},
	}
	router := newCatalogRouter(catalog)

	req := httptest.NewRequest(http.MethodGet, "/productos/p1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Producto map[string]any `json:"producto"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Producto["id"] != "p1" {
		t.Fatalf("expected id p1, got %v", body.Producto["id"])
	}
	if body.Producto["sku"] != "MES-001" {
		t.Fatalf("expected sku MES-001, got %v", body.Producto["sku"])
	}
}
