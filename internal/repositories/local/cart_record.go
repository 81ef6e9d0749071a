// Package local persists small device-scoped records on the filesystem. The
// cart record is the analogue of a browser-local cart: it survives restarts
// but never leaves the machine.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	domain "github.com/kalad-store/api/internal/domain"
)

// CartRecordStore stores the cart snapshot as a JSON file. Saves go through
// a temp file and rename so a crash mid-write never leaves a torn record.
type CartRecordStore struct {
	path string
	mu   sync.Mutex
}

// NewCartRecordStore constructs a store writing to the given file path.
func NewCartRecordStore(path string) (*CartRecordStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cart record store: file path is required")
	}
	return &CartRecordStore{path: path}, nil
}

// Load reads the persisted cart. A missing or unreadable record yields an
// empty cart rather than an error; a corrupt record is treated the same way
// so a bad write can never wedge the cart.
func (s *CartRecordStore) Load(ctx context.Context) ([]domain.CartItem, error) {
	if s == nil {
		return nil, errors.New("cart record store not initialised")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart record store: read %s: %w", s.path, err)
	}

	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return []domain.CartItem{}, nil
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	return items, nil
}

// Save writes the full cart snapshot, replacing any previous record.
func (s *CartRecordStore) Save(ctx context.Context, items []domain.CartItem) error {
	if s == nil {
		return errors.New("cart record store not initialised")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []domain.CartItem{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cart record store: encode cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cart record store: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cart record store: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cart record store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cart record store: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cart record store: replace %s: %w", s.path, err)
	}
	return nil
}
