package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalad-store/api/internal/platform/httpx"
	"github.com/kalad-store/api/internal/services"
)

const (
	maxProductFormMemory = 8 << 20
	maxUploadFileBytes   = 1 << 20
)

// AdminProductHandlers exposes the product editing endpoints used by the
// admin surface. Writes go through the editing workflow so image uploads and
// persistence share one submission.
type AdminProductHandlers struct {
	editor    *services.ProductEditor
	catalog   services.CatalogService
	inventory services.InventoryService
}

// NewAdminProductHandlers constructs the admin product handlers.
func NewAdminProductHandlers(editor *services.ProductEditor, catalog services.CatalogService, inventory services.InventoryService) *AdminProductHandlers {
	return &AdminProductHandlers{
		editor:    editor,
		catalog:   catalog,
		inventory: inventory,
	}
}

// Routes wires the admin product endpoints onto the provided router.
func (h *AdminProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/productos", h.listProducts)
	r.Get("/productos/{productID}", h.getProduct)
	r.Post("/productos", h.createProduct)
	r.Put("/productos/{productID}", h.updateProduct)
	r.Put("/productos/{productID}/stock", h.setStock)
	r.Delete("/productos/{productID}", h.deleteProduct)
}

func (h *AdminProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
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

func (h *AdminProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
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

func (h *AdminProductHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "")
}

func (h *AdminProductHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}
	h.saveProduct(w, r, productID)
}

// saveProduct parses the multipart submission and runs it through the editing
// workflow. The form carries the product JSON under "producto", an optional
// primary image under "imagen", and any number of gallery files under
// "galeria".
func (h *AdminProductHandlers) saveProduct(w http.ResponseWriter, r *http.Request, productID string) {
	ctx := r.Context()
	if h.editor == nil {
		httpx.WriteError(ctx, w, httpx.NewError("editor_unavailable", "product editor is unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := r.ParseMultipartForm(maxProductFormMemory); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request must be multipart/form-data", http.StatusBadRequest))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	input, err := parseProductInput(r.FormValue("producto"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cmd := services.SaveCommand{
		ProductID: productID,
		Input:     input,
	}

	primary, ok := h.readFormFile(ctx, w, r, "imagen")
	if !ok {
		return
	}
	cmd.PrimaryImage = primary

	// A gallery is only part of the submission when the product JSON carries
	// imagenes or the form carries files; otherwise the stored gallery stays
	// untouched.
	var galleryFiles int
	if r.MultipartForm != nil {
		galleryFiles = len(r.MultipartForm.File["galeria"])
	}
	if input.Imagenes != nil || galleryFiles > 0 {
		gallery, ok := h.buildGallery(ctx, w, r, input.Imagenes)
		if !ok {
			return
		}
		cmd.Gallery = gallery
	}

	result, err := h.editor.Save(ctx, cmd)
	if err != nil {
		writeEditorError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, saveResultPayload{
		ID:       result.ProductID,
		Created:  result.Created,
		Message:  result.Message,
		Imagen:   result.ImageURL,
		Imagenes: result.Gallery,
	})
}

func (h *AdminProductHandlers) setStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.inventory == nil {
		httpx.WriteError(ctx, w, httpx.NewError("inventory_service_unavailable", "inventory service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var req struct {
		Stock *int `json:"stock"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Stock == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "stock must be an integer", http.StatusBadRequest))
		return
	}

	if err := h.inventory.SetStock(ctx, productID, *req.Stock); err != nil {
		switch {
		case errors.Is(err, services.ErrInventoryInvalidInput):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		case errors.Is(err, services.ErrInventoryNotFound):
			httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("inventory_service_unavailable", "inventory service is unavailable", http.StatusServiceUnavailable))
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"id": productID, "stock": *req.Stock})
}

func (h *AdminProductHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
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

	if err := h.catalog.DeleteProduct(ctx, productID); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"deleted": true, "id": productID})
}

// readFormFile loads an optional single upload from the form. A missing file
// yields (nil, true); read failures report to the client and yield false.
func (h *AdminProductHandlers) readFormFile(ctx context.Context, w http.ResponseWriter, r *http.Request, field string) (*services.ImageFile, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "could not read uploaded file", http.StatusBadRequest))
		return nil, false
	}
	defer file.Close()

	image, ok := h.readImage(ctx, w, file, header)
	if !ok {
		return nil, false
	}
	return image, true
}

func (h *AdminProductHandlers) buildGallery(ctx context.Context, w http.ResponseWriter, r *http.Request, persisted []string) (*services.GalleryEditor, bool) {
	gallery := services.NewGalleryEditor(services.DefaultGalleryLimit, persisted)

	if r.MultipartForm == nil {
		return gallery, true
	}

	for _, header := range r.MultipartForm.File["galeria"] {
		file, err := header.Open()
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "could not read gallery file", http.StatusBadRequest))
			return nil, false
		}

		image, ok := h.readImage(ctx, w, file, header)
		file.Close()
		if !ok {
			return nil, false
		}

		if err := gallery.AddPending(*image); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("gallery_full", err.Error(), http.StatusBadRequest))
			return nil, false
		}
	}

	return gallery, true
}

func (h *AdminProductHandlers) readImage(ctx context.Context, w http.ResponseWriter, file multipart.File, header *multipart.FileHeader) (*services.ImageFile, bool) {
	data, err := io.ReadAll(io.LimitReader(file, maxUploadFileBytes+1))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "could not read uploaded file", http.StatusBadRequest))
		return nil, false
	}
	if len(data) > maxUploadFileBytes {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "image exceeds allowed size", http.StatusRequestEntityTooLarge))
		return nil, false
	}

	name := "imagen"
	if header != nil && strings.TrimSpace(header.Filename) != "" {
		name = header.Filename
	}
	return &services.ImageFile{Name: name, Data: data}, true
}

// productInputRequest mirrors ProductInput's optionality: a key absent from
// the JSON stays nil and the stored field keeps its value.
type productInputRequest struct {
	Nombre          *string            `json:"nombre"`
	Descripcion     *string            `json:"descripcion"`
	Caracteristicas *string            `json:"caracteristicas"`
	Categoria       *string            `json:"categoria"`
	Coleccion       *string            `json:"coleccion"`
	Precio          *float64           `json:"precio"`
	Stock           *int               `json:"stock"`
	Colores         []string           `json:"colores"`
	Color           *string            `json:"color"`
	Imagen          *string            `json:"imagen"`
	Imagenes        []string           `json:"imagenes"`
	SKU             *string            `json:"sku"`
	Badge           *string            `json:"badge"`
	Dimensiones     *dimensionsPayload `json:"dimensiones"`
}

func parseProductInput(raw string) (services.ProductInput, error) {
	if strings.TrimSpace(raw) == "" {
		return services.ProductInput{}, errors.New("field producto is required")
	}

	var req productInputRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return services.ProductInput{}, errors.New("field producto must be valid JSON")
	}

	input := services.ProductInput{
		Nombre:          req.Nombre,
		Descripcion:     req.Descripcion,
		Caracteristicas: req.Caracteristicas,
		Categoria:       req.Categoria,
		Coleccion:       req.Coleccion,
		Precio:          req.Precio,
		Stock:           req.Stock,
		Colores:         req.Colores,
		Color:           req.Color,
		Imagen:          req.Imagen,
		Imagenes:        req.Imagenes,
		SKU:             req.SKU,
		Badge:           req.Badge,
	}
	if req.Dimensiones != nil {
		input.Dimensiones = &services.Dimensions{
			Alto:        req.Dimensiones.Alto,
			Ancho:       req.Dimensiones.Ancho,
			Profundidad: req.Dimensiones.Profundidad,
			Capacidad:   req.Dimensiones.Capacidad,
		}
	}
	return input, nil
}

func writeEditorError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrEditorBusy):
		httpx.WriteError(ctx, w, httpx.NewError("save_in_progress", "a save is already in progress", http.StatusConflict))
	case errors.Is(err, services.ErrEditorInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("save_failed", "failed to save product", http.StatusInternalServerError))
	}
}

type saveResultPayload struct {
	ID       string   `json:"id"`
	Created  bool     `json:"created"`
	Message  string   `json:"message"`
	Imagen   string   `json:"imagen,omitempty"`
	Imagenes []string `json:"imagenes,omitempty"`
}
