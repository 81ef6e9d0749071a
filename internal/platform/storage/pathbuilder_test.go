package storage

import "testing"

func TestBuildProductImagePath(t *testing.T) {
	path, err := BuildObjectPath(PurposeProductImage, PathParams{
		UploadedAtMillis: 1735689600000,
		Disambiguator:    "a1b2c3",
		FileName:         "mesa roble.jpg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "productos/1735689600000_a1b2c3_mesa_roble.jpg"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildProductImagePathCollapsesWhitespace(t *testing.T) {
	path, err := BuildObjectPath(PurposeProductImage, PathParams{
		UploadedAtMillis: 1,
		Disambiguator:    "zz9yy8",
		FileName:         "  silla   de\tjardin.png ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "productos/1_zz9yy8_silla_de_jardin.png"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildProductImagePathRejectsTraversal(t *testing.T) {
	_, err := BuildObjectPath(PurposeProductImage, PathParams{
		UploadedAtMillis: 1,
		Disambiguator:    "a1b2c3",
		FileName:         "../escape.png",
	})
	if err == nil {
		t.Fatalf("expected error for traversal sequence")
	}
}

func TestBuildObjectPathUnknownPurpose(t *testing.T) {
	_, err := BuildObjectPath(AssetPurpose("banner"), PathParams{})
	if err == nil {
		t.Fatalf("expected error for unknown purpose")
	}
}
