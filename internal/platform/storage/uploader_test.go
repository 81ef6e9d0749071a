package storage

import "testing"

func TestPublicURLEscapesObjectPath(t *testing.T) {
	got := PublicURL("kalad-dev.appspot.com", "productos/1_a1b2c3_mesa.jpg")
	want := "https://firebasestorage.googleapis.com/v0/b/kalad-dev.appspot.com/o/productos%2F1_a1b2c3_mesa.jpg?alt=media"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
