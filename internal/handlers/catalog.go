package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalad-store/api/internal/platform/httpx"
	"github.com/kalad-store/api/internal/services"
)

// CatalogHandlers exposes the public storefront catalog endpoints.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs handlers backed by the catalog service.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes wires the /productos endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/destacados", h.listFeatured)
	r.Get("/{productID}", h.getProduct)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	filter, hasFilter := parseProductFilter(r)

	var (
		products []services.Product
		err      error
	)
	if hasFilter {
		products, err = h.catalog.FilterProducts(ctx, filter)
	} else {
		products, err = h.catalog.ListProducts(ctx)
	}
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productListResponse{
		Productos: buildProductPayloads(products),
		Total:     len(products),
	})
}

func (h *CatalogHandlers) listFeatured(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a positive integer", http.StatusBadRequest))
			return
		}
		limit = parsed
	}

	products, err := h.catalog.GetFeatured(ctx, limit)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productListResponse{
		Productos: buildProductPayloads(products),
		Total:     len(products),
	})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Producto: buildProductPayload(product)})
}

// parseProductFilter builds a catalog filter from the request query. The
// second return reports whether any criterion was supplied at all.
func parseProductFilter(r *http.Request) (services.ProductFilter, bool) {
	query := r.URL.Query()
	filter := services.ProductFilter{
		Query:     strings.TrimSpace(query.Get("q")),
		Categoria: strings.TrimSpace(query.Get("categoria")),
		Coleccion: strings.TrimSpace(query.Get("coleccion")),
		Badge:     strings.TrimSpace(query.Get("badge")),
	}
	if raw := strings.TrimSpace(query.Get("enStock")); raw != "" {
		filter.OnlyInStock = raw == "true" || raw == "1"
	}

	hasFilter := filter.Query != "" || filter.Categoria != "" || filter.Coleccion != "" || filter.Badge != "" || filter.OnlyInStock
	return filter, hasFilter
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to fetch catalog", http.StatusInternalServerError))
	}
}

type productListResponse struct {
	Productos []productPayload `json:"productos"`
	Total     int              `json:"total"`
}

type productResponse struct {
	Producto productPayload `json:"producto"`
}

type productPayload struct {
	ID              string             `json:"id"`
	Nombre          string             `json:"nombre"`
	Descripcion     string             `json:"descripcion"`
	Caracteristicas string             `json:"caracteristicas,omitempty"`
	Categoria       string             `json:"categoria"`
	Coleccion       string             `json:"coleccion,omitempty"`
	Precio          float64            `json:"precio"`
	Stock           int                `json:"stock"`
	Colores         []string           `json:"colores"`
	Color           string             `json:"color,omitempty"`
	Imagen          string             `json:"imagen"`
	Imagenes        []string           `json:"imagenes"`
	SKU             string             `json:"sku,omitempty"`
	Badge           *string            `json:"badge"`
	Dimensiones     *dimensionsPayload `json:"dimensiones,omitempty"`
}

type dimensionsPayload struct {
	Alto        string `json:"alto"`
	Ancho       string `json:"ancho"`
	Profundidad string `json:"profundidad"`
	Capacidad   string `json:"capacidad"`
}

func buildProductPayloads(products []services.Product) []productPayload {
	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	return payload
}

func buildProductPayload(product services.Product) productPayload {
	payload := productPayload{
		ID:              product.ID,
		Nombre:          product.Nombre,
		Descripcion:     product.Descripcion,
		Caracteristicas: product.Caracteristicas,
		Categoria:       product.Categoria,
		Coleccion:       product.Coleccion,
		Precio:          product.Precio,
		Stock:           product.Stock,
		Colores:         append([]string{}, product.Colores...),
		Color:           product.Color,
		Imagen:          product.Imagen,
		Imagenes:        append([]string{}, product.Imagenes...),
		SKU:             product.SKU,
	}
	if product.Badge != nil {
		badge := string(*product.Badge)
		payload.Badge = &badge
	}
	if product.Dimensiones != nil {
		payload.Dimensiones = &dimensionsPayload{
			Alto:        product.Dimensiones.Alto,
			Ancho:       product.Dimensiones.Ancho,
			Profundidad: product.Dimensiones.Profundidad,
			Capacidad:   product.Dimensiones.Capacidad,
		}
	}
	return payload
}
