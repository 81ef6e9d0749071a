package firestore

import (
	"strings"

	domain "github.com/kalad-store/api/internal/domain"
)

// normalizeProduct converts a raw stored document into the canonical product
// shape. Missing fields fall back to zero defaults, numeric values are
// coerced, and legacy badge aliases are honoured.
func normalizeProduct(id string, data map[string]any) domain.Product {
	if data == nil {
		data = map[string]any{}
	}

	colores := sanitizeStrings(stringSliceValue(data["colores"]))
	color := strings.TrimSpace(stringValue(data["color"]))
	if len(colores) == 0 && color != "" {
		colores = []string{color}
	}
	if len(colores) > 0 {
		color = colores[0]
	} else {
		color = ""
	}

	imagenes := sanitizeStrings(stringSliceValue(data["imagenes"]))
	if len(imagenes) > galleryLimit {
		imagenes = imagenes[:galleryLimit]
	}

	product := domain.Product{
		ID:              id,
		Nombre:          strings.TrimSpace(stringValue(data["nombre"])),
		Descripcion:     strings.TrimSpace(stringValue(data["descripcion"])),
		Caracteristicas: strings.TrimSpace(stringValue(data["caracteristicas"])),
		Categoria:       strings.TrimSpace(stringValue(data["categoria"])),
		Coleccion:       strings.TrimSpace(stringValue(data["coleccion"])),
		Precio:          nonNegative(floatValue(data["precio"])),
		Stock:           nonNegativeInt(intValue(data["stock"])),
		Colores:         colores,
		Color:           color,
		Imagen:          strings.TrimSpace(stringValue(data["imagen"])),
		Imagenes:        imagenes,
		SKU:             strings.TrimSpace(stringValue(data["sku"])),
		Badge:           normalizeBadge(data),
		Dimensiones:     normalizeDimensions(data["dimensiones"]),
	}
	return product
}

// productWritePayload sanitizes the input into the map persisted to
// Firestore. Only submitted fields appear in the payload, so a merge leaves
// everything else untouched. The document never stores its own id, and
// invalid badges are written as explicit nulls so a save clears stale values.
func productWritePayload(input domain.ProductInput) map[string]any {
	payload := map[string]any{}

	putTrimmed := func(key string, value *string) {
		if value != nil {
			payload[key] = strings.TrimSpace(*value)
		}
	}
	putTrimmed("nombre", input.Nombre)
	putTrimmed("descripcion", input.Descripcion)
	putTrimmed("caracteristicas", input.Caracteristicas)
	putTrimmed("categoria", input.Categoria)
	putTrimmed("coleccion", input.Coleccion)
	putTrimmed("imagen", input.Imagen)
	putTrimmed("sku", input.SKU)

	if input.Precio != nil {
		payload["precio"] = nonNegative(*input.Precio)
	}
	if input.Stock != nil {
		payload["stock"] = nonNegativeInt(*input.Stock)
	}

	// The list and its derived scalar are written together so they cannot
	// drift apart in storage.
	if input.Colores != nil || input.Color != nil {
		colores := sanitizeStrings(input.Colores)
		color := ""
		if input.Color != nil {
			color = strings.TrimSpace(*input.Color)
		}
		if len(colores) == 0 && color != "" {
			colores = []string{color}
		}
		if len(colores) > 0 {
			color = colores[0]
		} else {
			color = ""
		}
		payload["colores"] = colores
		payload["color"] = color
	}

	if input.Imagenes != nil {
		imagenes := sanitizeStrings(input.Imagenes)
		if len(imagenes) > galleryLimit {
			imagenes = imagenes[:galleryLimit]
		}
		payload["imagenes"] = imagenes
	}

	if input.Badge != nil {
		var badge any
		if parsed, ok := domain.ParseBadge(*input.Badge); ok {
			badge = string(parsed)
		}
		payload["badge"] = badge
		payload["Etiqueta"] = badge
	}

	if input.Dimensiones != nil {
		if input.Dimensiones.Present() {
			payload["dimensiones"] = map[string]any{
				"alto":        strings.TrimSpace(input.Dimensiones.Alto),
				"ancho":       strings.TrimSpace(input.Dimensiones.Ancho),
				"profundidad": strings.TrimSpace(input.Dimensiones.Profundidad),
				"capacidad":   strings.TrimSpace(input.Dimensiones.Capacidad),
			}
		} else {
			payload["dimensiones"] = nil
		}
	}

	return payload
}

// normalizeBadge resolves the badge from the current field or its legacy
// aliases, rejecting values outside the closed set.
func normalizeBadge(data map[string]any) *domain.Badge {
	for _, key := range []string{"badge", "Etiqueta", "etiqueta"} {
		raw := strings.TrimSpace(stringValue(data[key]))
		if raw == "" {
			continue
		}
		if badge, ok := domain.ParseBadge(raw); ok {
			return &badge
		}
	}
	return nil
}

func normalizeDimensions(value any) *domain.Dimensions {
	raw, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	dims := domain.Dimensions{
		Alto:        strings.TrimSpace(stringValue(raw["alto"])),
		Ancho:       strings.TrimSpace(stringValue(raw["ancho"])),
		Profundidad: strings.TrimSpace(stringValue(raw["profundidad"])),
		Capacidad:   strings.TrimSpace(stringValue(raw["capacidad"])),
	}
	if !dims.Present() {
		return nil
	}
	return &dims
}

// sanitizeStrings trims entries, drops blanks, and removes duplicates while
// preserving first-seen order.
func sanitizeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// stringSliceValue accepts both native string slices and the []any shape
// Firestore returns for array fields. Non-string entries are skipped, and a
// bare string stored by legacy documents is promoted to a one-element list.
func stringSliceValue(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func stringValue(value any) string {
	s, _ := value.(string)
	return s
}

func floatValue(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func intValue(value any) int {
	switch v := value.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return 0
	}
}

func nonNegative(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
}

func nonNegativeInt(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
