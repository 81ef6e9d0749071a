package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalad-store/api/internal/platform/httpx"
	"github.com/kalad-store/api/internal/services"
)

const maxCartBodySize = 16 * 1024

// CartHandlers exposes the shopping cart endpoints. Cart lines are snapshots
// taken from the catalog at add time, so mutations resolve the product first.
type CartHandlers struct {
	cart      *services.CartStore
	catalog   services.CatalogService
	inventory services.InventoryService
}

// NewCartHandlers constructs handlers over the persisted cart store.
func NewCartHandlers(cart *services.CartStore, catalog services.CatalogService, inventory services.InventoryService) *CartHandlers {
	return &CartHandlers{
		cart:      cart,
		catalog:   catalog,
		inventory: inventory,
	}
}

// Routes wires the /carrito endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items", h.updateItem)
	r.Delete("/items/{productID}", h.removeItem)
	r.Post("/checkout", h.checkout)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil {
		writeCartUnavailable(ctx, w)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(h.cart))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil || h.catalog == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	req, ok := h.decodeItemRequest(ctx, w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	if err := h.cart.AddProduct(ctx, product, req.Qty, req.Color); err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildCartResponse(h.cart))
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	req, ok := h.decodeItemRequest(ctx, w, r)
	if !ok {
		return
	}

	if err := h.cart.UpdateQuantity(ctx, req.ProductID, req.Color, req.Qty); err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildCartResponse(h.cart))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}
	color := strings.TrimSpace(r.URL.Query().Get("color"))

	if err := h.cart.Remove(ctx, productID, color); err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildCartResponse(h.cart))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	if err := h.cart.Clear(ctx); err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildCartResponse(h.cart))
}

// checkout reduces stock for every cart line and empties the cart on success.
// Each line decrements atomically on its own; a failed line aborts the rest
// and leaves the cart intact so the shopper can adjust quantities.
func (h *CartHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil || h.inventory == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	items := h.cart.Items()
	if len(items) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart has no items", http.StatusBadRequest))
		return
	}

	for _, item := range items {
		if err := h.inventory.ReduceStock(ctx, item.ID, item.Qty); err != nil {
			writeCheckoutError(ctx, w, item.ID, err)
			return
		}
	}

	if err := h.cart.Clear(ctx); err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, checkoutResponse{
		Message: "Compra realizada correctamente.",
		Items:   len(items),
	})
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
	Color     string `json:"color"`
}

func (h *CartHandlers) decodeItemRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (cartItemRequest, bool) {
	var req cartItemRequest

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return req, false
	}

	req.ProductID = strings.TrimSpace(req.ProductID)
	req.Color = strings.TrimSpace(req.Color)
	if req.ProductID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "productId is required", http.StatusBadRequest))
		return req, false
	}
	return req, true
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartLineNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_line_not_found", "cart line not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartUnavailable):
		writeCartUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to update cart", http.StatusInternalServerError))
	}
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, productID string, err error) {
	switch {
	case errors.Is(err, services.ErrInventoryInsufficientStock):
		e := httpx.NewError("insufficient_stock", "not enough stock for product", http.StatusConflict)
		httpx.WriteError(ctx, w, e.WithDetails(map[string]any{"productId": productID}))
	case errors.Is(err, services.ErrInventoryNotFound):
		e := httpx.NewError("product_not_found", "product no longer exists", http.StatusConflict)
		httpx.WriteError(ctx, w, e.WithDetails(map[string]any{"productId": productID}))
	case errors.Is(err, services.ErrInventoryInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("inventory_service_unavailable", "inventory service is unavailable", http.StatusServiceUnavailable))
	}
}

func writeCartUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
}

type cartResponse struct {
	Items []services.CartItem `json:"items"`
	Count int                 `json:"count"`
	Total float64             `json:"total"`
}

type checkoutResponse struct {
	Message string `json:"message"`
	Items   int    `json:"items"`
}

func buildCartResponse(cart *services.CartStore) cartResponse {
	items := cart.Items()
	if items == nil {
		items = []services.CartItem{}
	}
	return cartResponse{
		Items: items,
		Count: cart.Count(),
		Total: cart.Total(),
	}
}
