//go:build integration

package firestore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/kalad-store/api/internal/domain"
	pconfig "github.com/kalad-store/api/internal/platform/config"
	pfirestore "github.com/kalad-store/api/internal/platform/firestore"
	"github.com/kalad-store/api/internal/repositories"
)

const firestoreEmulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"

func TestProductRepositoryIntegration(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available: " + err.Error())
	}

	ensureDockerDaemon(t)

	port := freePort(t)
	endpoint := fmt.Sprintf("127.0.0.1:%d", port)
	containerID := startFirestoreEmulator(t, port)
	t.Cleanup(func() { stopContainer(containerID) })

	waitForEndpoint(t, endpoint, 30*time.Second)

	cfg := pconfig.FirestoreConfig{
		ProjectID:    "catalog-test",
		EmulatorHost: endpoint,
	}

	provider := pfirestore.NewProvider(cfg)
	t.Cleanup(func() {
		_ = provider.Close(context.Background())
	})

	repo, err := NewProductRepository(provider)
	if err != nil {
		t.Fatalf("new product repository: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	id, err := repo.Insert(ctx, domain.ProductInput{
		Nombre:    strPtr("Mesa Roble"),
		Categoria: strPtr("Mesas"),
		Precio:    floatPtr(1200),
		Stock:     intPtr(5),
		Colores:   []string{"Roble", "Blanco"},
		Badge:     strPtr("Nuevo"),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == "" {
		t.Fatal("expected store-assigned id")
	}

	product, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if product.Nombre != "Mesa Roble" || product.Stock != 5 {
		t.Fatalf("unexpected product: %+v", product)
	}
	if product.Color != "Roble" {
		t.Fatalf("expected derived color Roble, got %q", product.Color)
	}
	if product.Badge == nil || *product.Badge != domain.BadgeNuevo {
		t.Fatalf("unexpected badge: %v", product.Badge)
	}

	// Legacy documents carry the Etiqueta alias and a scalar color field.
	client, err := provider.Client(ctx)
	if err != nil {
		t.Fatalf("provider client: %v", err)
	}
	if _, err := client.Collection(productsCollection).Doc("legacy-1").Set(ctx, map[string]any{
		"nombre":   "Banco Antiguo",
		"precio":   int64(300),
		"stock":    int64(2),
		"color":    "Nogal",
		"Etiqueta": "Oferta",
	}); err != nil {
		t.Fatalf("seed legacy doc: %v", err)
	}
	legacy, err := repo.FindByID(ctx, "legacy-1")
	if err != nil {
		t.Fatalf("find legacy: %v", err)
	}
	if len(legacy.Colores) != 1 || legacy.Colores[0] != "Nogal" {
		t.Fatalf("expected promoted colores, got %v", legacy.Colores)
	}
	if legacy.Badge == nil || *legacy.Badge != domain.BadgeOferta {
		t.Fatalf("expected legacy badge honoured, got %v", legacy.Badge)
	}

	products, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	// Selection and ordering come from the query itself.
	inStock, err := repo.ListInStock(ctx)
	if err != nil {
		t.Fatalf("list in stock: %v", err)
	}
	if len(inStock) != 2 || inStock[0].ID != id || inStock[1].ID != "legacy-1" {
		t.Fatalf("expected stock-descending order, got %+v", inStock)
	}
	byCategory, err := repo.ListByCategory(ctx, "Mesas")
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].ID != id {
		t.Fatalf("unexpected category listing: %+v", byCategory)
	}

	// A partial update must leave unsubmitted fields alone.
	if err := repo.Update(ctx, id, domain.ProductInput{
		Nombre: strPtr("Mesa Roble XL"),
		Precio: floatPtr(1500),
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if updated.Nombre != "Mesa Roble XL" || updated.Precio != 1500 {
		t.Fatalf("unexpected updated product: %+v", updated)
	}
	if updated.Stock != 5 {
		t.Fatalf("partial update must not touch stock, got %d", updated.Stock)
	}
	if len(updated.Colores) != 2 || updated.Badge == nil {
		t.Fatalf("partial update clobbered untouched fields: %+v", updated)
	}

	if err := repo.ReduceStock(ctx, id, 2); err != nil {
		t.Fatalf("reduce stock: %v", err)
	}
	afterReduce, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("find after reduce: %v", err)
	}
	if afterReduce.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", afterReduce.Stock)
	}

	err = repo.ReduceStock(ctx, id, 10)
	var stockErr *repositories.StockError
	if !errors.As(err, &stockErr) || stockErr.Code != repositories.StockErrorInsufficient {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	err = repo.ReduceStock(ctx, "missing-product", 1)
	if !errors.As(err, &stockErr) || stockErr.Code != repositories.StockErrorProductNotFound {
		t.Fatalf("expected product not found error, got %v", err)
	}

	// Concurrent decrements must never oversell.
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.ReduceStock(ctx, id, 1)
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			if !errors.As(err, &stockErr) || stockErr.Code != repositories.StockErrorInsufficient {
				t.Fatalf("unexpected concurrent error: %v", err)
			}
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly one insufficient stock failure, got %d", failures)
	}
	final, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("find after concurrent reduce: %v", err)
	}
	if final.Stock != 0 {
		t.Fatalf("expected stock exhausted, got %d", final.Stock)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, id); err == nil {
		t.Fatal("expected not found after delete")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	addr, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to allocate port: %v", err)
	}
	defer addr.Close()
	return addr.Addr().(*net.TCPAddr).Port
}

func startFirestoreEmulator(t *testing.T, port int) string {
	t.Helper()
	args := []string{
		"run", "-d", "--rm",
		"-p", fmt.Sprintf("%d:8080", port),
		firestoreEmulatorImage,
		"gcloud", "beta", "emulators", "firestore", "start",
		"--host-port=0.0.0.0:8080",
		"--quiet",
	}

	cmd := exec.Command("docker", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to start firestore emulator: %v - %s", err, string(out))
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		t.Fatalf("docker returned empty container id")
	}
	// Shorten the ID to match docker CLI behaviour for stop/remove commands.
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

func stopContainer(id string) {
	if id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", "stop", id)
	_ = cmd.Run()
}

func waitForEndpoint(t *testing.T, endpoint string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", endpoint, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		lastErr = err
		time.Sleep(250 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for endpoint")
	}
	t.Fatalf("emulator did not become ready: %v", lastErr)
}

func ensureDockerDaemon(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		t.Skip("docker daemon unavailable: " + err.Error())
	}
}
