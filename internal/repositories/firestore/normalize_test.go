package firestore

import (
	"reflect"
	"testing"

	domain "github.com/kalad-store/api/internal/domain"
)

func TestNormalizeProductDefaults(t *testing.T) {
	product := normalizeProduct("p1", map[string]any{})

	if product.ID != "p1" {
		t.Errorf("unexpected id: %s", product.ID)
	}
	if product.Nombre != "" || product.Descripcion != "" || product.Categoria != "" {
		t.Error("expected blank string defaults")
	}
	if product.Precio != 0 || product.Stock != 0 {
		t.Error("expected zero numeric defaults")
	}
	if len(product.Colores) != 0 || product.Color != "" {
		t.Errorf("expected no colors, got %v / %q", product.Colores, product.Color)
	}
	if product.Badge != nil {
		t.Errorf("expected nil badge, got %v", *product.Badge)
	}
	if product.Dimensiones != nil {
		t.Error("expected nil dimensions")
	}
}

func TestNormalizeProductCoercesNumbers(t *testing.T) {
	product := normalizeProduct("p1", map[string]any{
		"precio": int64(1200),
		"stock":  float64(7),
	})
	if product.Precio != 1200 {
		t.Errorf("unexpected precio: %v", product.Precio)
	}
	if product.Stock != 7 {
		t.Errorf("unexpected stock: %d", product.Stock)
	}

	negative := normalizeProduct("p2", map[string]any{
		"precio": float64(-10),
		"stock":  int64(-3),
	})
	if negative.Precio != 0 || negative.Stock != 0 {
		t.Errorf("expected negatives clamped to zero, got %v / %d", negative.Precio, negative.Stock)
	}
}

func TestNormalizeProductPromotesLegacyColor(t *testing.T) {
	product := normalizeProduct("p1", map[string]any{
		"color": "Nogal",
	})
	if !reflect.DeepEqual(product.Colores, []string{"Nogal"}) {
		t.Errorf("expected color promoted into colores, got %v", product.Colores)
	}
	if product.Color != "Nogal" {
		t.Errorf("unexpected derived color: %q", product.Color)
	}
}

func TestNormalizeProductDerivesColorFromColores(t *testing.T) {
	product := normalizeProduct("p1", map[string]any{
		"colores": []any{" Roble ", "", "Roble", "Blanco"},
		"color":   "ignored",
	})
	if !reflect.DeepEqual(product.Colores, []string{"Roble", "Blanco"}) {
		t.Errorf("expected trimmed deduped colores, got %v", product.Colores)
	}
	if product.Color != "Roble" {
		t.Errorf("expected first color derived, got %q", product.Color)
	}
}

func TestNormalizeProductPromotesScalarImagenes(t *testing.T) {
	product := normalizeProduct("p1", map[string]any{
		"imagenes": "solo.jpg",
	})
	if !reflect.DeepEqual(product.Imagenes, []string{"solo.jpg"}) {
		t.Errorf("expected scalar imagenes promoted to a list, got %v", product.Imagenes)
	}
}

func TestNormalizeProductCapsGallery(t *testing.T) {
	product := normalizeProduct("p1", map[string]any{
		"imagenes": []any{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"},
	})
	if len(product.Imagenes) != galleryLimit {
		t.Fatalf("expected gallery capped at %d, got %d", galleryLimit, len(product.Imagenes))
	}
	if product.Imagenes[3] != "d.jpg" {
		t.Errorf("unexpected gallery order: %v", product.Imagenes)
	}
}

func TestNormalizeProductBadgeAliases(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		want *domain.Badge
	}{
		{"current field", map[string]any{"badge": "Nuevo"}, badgePtr(domain.BadgeNuevo)},
		{"legacy capitalised", map[string]any{"Etiqueta": "Oferta"}, badgePtr(domain.BadgeOferta)},
		{"legacy lowercase", map[string]any{"etiqueta": "Limitada"}, badgePtr(domain.BadgeLimitada)},
		{"current wins over legacy", map[string]any{"badge": "Oferta", "Etiqueta": "Nuevo"}, badgePtr(domain.BadgeOferta)},
		{"invalid rejected", map[string]any{"badge": "Destacado"}, nil},
		{"blank falls through to legacy", map[string]any{"badge": "  ", "etiqueta": "Nuevo"}, badgePtr(domain.BadgeNuevo)},
	}
	for _, tc := range cases {
		product := normalizeProduct("p1", tc.data)
		if tc.want == nil {
			if product.Badge != nil {
				t.Errorf("%s: expected nil badge, got %v", tc.name, *product.Badge)
			}
			continue
		}
		if product.Badge == nil || *product.Badge != *tc.want {
			t.Errorf("%s: expected badge %v, got %v", tc.name, *tc.want, product.Badge)
		}
	}
}

func TestNormalizeProductDimensions(t *testing.T) {
	product := normalizeProduct("p1", map[string]any{
		"dimensiones": map[string]any{"alto": "18 cm", "capacidad": ""},
	})
	if product.Dimensiones == nil {
		t.Fatal("expected dimensions present")
	}
	if product.Dimensiones.Alto != "18 cm" {
		t.Errorf("unexpected alto: %q", product.Dimensiones.Alto)
	}

	blank := normalizeProduct("p2", map[string]any{
		"dimensiones": map[string]any{"alto": "  ", "ancho": ""},
	})
	if blank.Dimensiones != nil {
		t.Error("expected all-blank dimensions normalized to nil")
	}
}

func TestProductWritePayloadSanitizes(t *testing.T) {
	payload := productWritePayload(domain.ProductInput{
		Nombre:   strPtr("  Mesa Roble  "),
		Precio:   floatPtr(-50),
		Stock:    intPtr(-2),
		Colores:  []string{" Roble ", "Roble", "", "Blanco"},
		Imagenes: []string{"a.jpg", "", "b.jpg", "c.jpg", "d.jpg", "e.jpg"},
		Badge:    strPtr("Oferta"),
	})

	if payload["nombre"] != "Mesa Roble" {
		t.Errorf("unexpected nombre: %v", payload["nombre"])
	}
	if payload["precio"] != float64(0) || payload["stock"] != 0 {
		t.Errorf("expected negatives clamped, got %v / %v", payload["precio"], payload["stock"])
	}
	if !reflect.DeepEqual(payload["colores"], []string{"Roble", "Blanco"}) {
		t.Errorf("unexpected colores: %v", payload["colores"])
	}
	if payload["color"] != "Roble" {
		t.Errorf("expected derived color, got %v", payload["color"])
	}
	imagenes, _ := payload["imagenes"].([]string)
	if len(imagenes) != galleryLimit {
		t.Errorf("expected gallery capped, got %v", imagenes)
	}
	if payload["badge"] != "Oferta" || payload["Etiqueta"] != "Oferta" {
		t.Errorf("expected badge mirrored to legacy field, got %v / %v", payload["badge"], payload["Etiqueta"])
	}
	if _, ok := payload["id"]; ok {
		t.Error("payload must not carry the document id")
	}
}

func TestProductWritePayloadInvalidBadgeWritesNull(t *testing.T) {
	payload := productWritePayload(domain.ProductInput{Badge: strPtr("Destacado")})
	if badge, ok := payload["badge"]; !ok || badge != nil {
		t.Errorf("expected explicit null badge, got %v (present %t)", badge, ok)
	}
	if legacy, ok := payload["Etiqueta"]; !ok || legacy != nil {
		t.Errorf("expected explicit null Etiqueta, got %v (present %t)", legacy, ok)
	}
}

func TestProductWritePayloadOmitsUnsetFields(t *testing.T) {
	payload := productWritePayload(domain.ProductInput{Nombre: strPtr("Mesa")})

	if payload["nombre"] != "Mesa" {
		t.Fatalf("unexpected nombre: %v", payload["nombre"])
	}
	if len(payload) != 1 {
		t.Fatalf("expected only the submitted field, got %v", payload)
	}
	for _, key := range []string{"descripcion", "caracteristicas", "precio", "stock", "colores", "color", "imagen", "imagenes", "sku", "badge", "Etiqueta", "dimensiones"} {
		if _, ok := payload[key]; ok {
			t.Errorf("unsubmitted field %q must not reach the merge", key)
		}
	}
}

func TestProductWritePayloadDimensions(t *testing.T) {
	payload := productWritePayload(domain.ProductInput{
		Dimensiones: &domain.Dimensions{Alto: " 18 cm "},
	})
	dims, ok := payload["dimensiones"].(map[string]any)
	if !ok {
		t.Fatalf("expected dimensions map, got %T", payload["dimensiones"])
	}
	if dims["alto"] != "18 cm" {
		t.Errorf("unexpected alto: %v", dims["alto"])
	}

	empty := productWritePayload(domain.ProductInput{
		Dimensiones: &domain.Dimensions{Alto: "  "},
	})
	if empty["dimensiones"] != nil {
		t.Errorf("expected all-blank dimensions written as null, got %v", empty["dimensiones"])
	}
}

func badgePtr(b domain.Badge) *domain.Badge { return &b }

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
