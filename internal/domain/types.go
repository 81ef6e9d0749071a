package domain

import "strings"

// Badge is a promotional tag drawn from a closed set. Any other stored value
// is rejected at the normalization boundary.
type Badge string

const (
	BadgeNuevo    Badge = "Nuevo"
	BadgeOferta   Badge = "Oferta"
	BadgeLimitada Badge = "Limitada"
)

// Badges lists the allowed badge values in display order.
var Badges = []Badge{BadgeNuevo, BadgeOferta, BadgeLimitada}

// ParseBadge validates a raw badge value against the closed set.
func ParseBadge(raw string) (Badge, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, badge := range Badges {
		if string(badge) == trimmed {
			return badge, true
		}
	}
	return "", false
}

// Dimensions captures the optional physical measurements of a product. The
// fields are free-form display strings ("18 cm", "4 L").
type Dimensions struct {
	Alto        string `json:"alto"`
	Ancho       string `json:"ancho"`
	Profundidad string `json:"profundidad"`
	Capacidad   string `json:"capacidad"`
}

// Present reports whether at least one dimension carries a non-blank value.
// Records failing this are treated as having no dimensions at all.
func (d Dimensions) Present() bool {
	for _, v := range []string{d.Alto, d.Ancho, d.Profundidad, d.Capacidad} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Product is the normalized catalog record. Every Product surfaced by the
// catalog has passed through normalization; callers never see raw stored
// shapes.
type Product struct {
	ID              string
	Nombre          string
	Descripcion     string
	Caracteristicas string
	Categoria       string
	Coleccion       string
	Precio          float64
	Stock           int
	Colores         []string
	// Color is derived convenience data: Colores[0] or "".
	Color       string
	Imagen      string
	Imagenes    []string
	SKU         string
	Badge       *Badge
	Dimensiones *Dimensions
}

// ProductInput is the write-side shape accepted by the catalog. Every field
// is optional: a nil field was not submitted and keeps its stored value,
// while a present field is written even when empty. Badge carries the raw
// value as entered; invalid badges are persisted as explicit nulls rather
// than dropped, so stale badges are cleared on save.
type ProductInput struct {
	Nombre          *string
	Descripcion     *string
	Caracteristicas *string
	Categoria       *string
	Coleccion       *string
	Precio          *float64
	Stock           *int
	Colores         []string
	Color           *string
	Imagen          *string
	Imagenes        []string
	SKU             *string
	Badge           *string
	Dimensiones     *Dimensions
}

// CartItem is a line in the shopping cart. Identity is the (ID, Color) pair;
// the remaining fields are a snapshot copied from the product at add time and
// do not track later catalog changes.
type CartItem struct {
	ID        string  `json:"id"`
	Nombre    string  `json:"nombre"`
	Precio    float64 `json:"precio"`
	Imagen    string  `json:"imagen"`
	Qty       int     `json:"qty"`
	Color     string  `json:"color,omitempty"`
	SKU       string  `json:"sku,omitempty"`
	Coleccion string  `json:"coleccion,omitempty"`
}
