package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	domain "github.com/kalad-store/api/internal/domain"
	"github.com/kalad-store/api/internal/repositories"
)

var errCartRecordsRequired = errors.New("cart store: record store is required")

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart store: invalid input")

// ErrCartUnavailable indicates the cart could not be persisted.
var ErrCartUnavailable = errors.New("cart store: unavailable")

// ErrCartLineNotFound indicates no cart line matches the given identity.
var ErrCartLineNotFound = errors.New("cart store: line not found")

// CartStoreDeps wires the persistence dependency for the cart.
type CartStoreDeps struct {
	Records repositories.CartRecordStore
	Logger  func(context.Context, string, map[string]any)
}

// CartStore holds the in-memory cart and keeps it in sync with the persisted
// record. Every mutation persists before it becomes visible: a failed save
// leaves the cart unchanged. Subscribers receive a snapshot after each commit.
type CartStore struct {
	records repositories.CartRecordStore
	logger  func(context.Context, string, map[string]any)

	mu      sync.Mutex
	items   []domain.CartItem
	subs    map[int]chan []domain.CartItem
	nextSub int
}

// NewCartStore constructs a CartStore seeded from the persisted record.
func NewCartStore(ctx context.Context, deps CartStoreDeps) (*CartStore, error) {
	if deps.Records == nil {
		return nil, errCartRecordsRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	items, err := deps.Records.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &CartStore{
		records: deps.Records,
		logger:  logger,
		items:   items,
		subs:    make(map[int]chan []domain.CartItem),
	}, nil
}

// Items returns a snapshot of the current cart lines.
func (s *CartStore) Items() []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotItems(s.items)
}

// Count returns the total unit count across all lines.
func (s *CartStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, item := range s.items {
		total += item.Qty
	}
	return total
}

// Total returns the cart subtotal.
func (s *CartStore) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, item := range s.items {
		total += item.Precio * float64(item.Qty)
	}
	return total
}

// AddProduct adds quantity units of the product in the given color. Lines
// are identified by the (product, color) pair: adding an existing pair grows
// that line instead of creating a duplicate. Quantities below one are
// rejected, not clamped.
func (s *CartStore) AddProduct(ctx context.Context, product Product, quantity int, color string) error {
	if s == nil || s.records == nil {
		return ErrCartUnavailable
	}
	if strings.TrimSpace(product.ID) == "" {
		return ErrCartInvalidInput
	}
	if quantity < 1 {
		return ErrCartInvalidInput
	}

	color = strings.TrimSpace(color)
	if color == "" {
		color = product.Color
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := snapshotItems(s.items)
	merged := false
	for i := range next {
		if next[i].ID == product.ID && next[i].Color == color {
			next[i].Qty += quantity
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, domain.CartItem{
			ID:        product.ID,
			Nombre:    product.Nombre,
			Precio:    product.Precio,
			Imagen:    product.Imagen,
			Qty:       quantity,
			Color:     color,
			SKU:       product.SKU,
			Coleccion: product.Coleccion,
		})
	}

	return s.commitLocked(ctx, next)
}

// UpdateQuantity sets the quantity of an existing line. Values below one
// clamp to one; removal is always an explicit action.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID, color string, quantity int) error {
	if s == nil || s.records == nil {
		return ErrCartUnavailable
	}
	if strings.TrimSpace(productID) == "" {
		return ErrCartInvalidInput
	}
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := snapshotItems(s.items)
	for i := range next {
		if next[i].ID == productID && next[i].Color == color {
			next[i].Qty = quantity
			return s.commitLocked(ctx, next)
		}
	}
	return ErrCartLineNotFound
}

// Remove deletes the line matching the (product, color) identity.
func (s *CartStore) Remove(ctx context.Context, productID, color string) error {
	if s == nil || s.records == nil {
		return ErrCartUnavailable
	}
	if strings.TrimSpace(productID) == "" {
		return ErrCartInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.CartItem, 0, len(s.items))
	removed := false
	for _, item := range s.items {
		if item.ID == productID && item.Color == color {
			removed = true
			continue
		}
		next = append(next, item)
	}
	if !removed {
		return ErrCartLineNotFound
	}
	return s.commitLocked(ctx, next)
}

// Clear empties the cart.
func (s *CartStore) Clear(ctx context.Context) error {
	if s == nil || s.records == nil {
		return ErrCartUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commitLocked(ctx, []domain.CartItem{})
}

// Subscribe registers an observer. The channel immediately carries the
// current snapshot and then one snapshot per committed mutation; slow
// consumers only ever see the latest state. The returned cancel function
// must be called to release the subscription.
func (s *CartStore) Subscribe() (<-chan []CartItem, func()) {
	ch := make(chan []domain.CartItem, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- snapshotItems(s.items)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// commitLocked persists the next state and, only on success, makes it
// visible and notifies subscribers. Callers must hold the mutex.
func (s *CartStore) commitLocked(ctx context.Context, next []domain.CartItem) error {
	if err := s.records.Save(ctx, next); err != nil {
		s.logger(ctx, "cart.save.failed", map[string]any{"error": err.Error()})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return ErrCartUnavailable
	}
	s.items = next
	for _, ch := range s.subs {
		// Replace a pending stale snapshot rather than blocking.
		select {
		case <-ch:
		default:
		}
		ch <- snapshotItems(s.items)
	}
	return nil
}

func snapshotItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}
