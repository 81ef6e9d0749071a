package services

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultGalleryLimit caps the number of gallery images per product.
const DefaultGalleryLimit = 4

// ErrGalleryFull indicates the gallery already holds the maximum number of
// images, counting both persisted URLs and pending files.
var ErrGalleryFull = errors.New("gallery editor: gallery is full")

// ErrGalleryIndexOutOfRange indicates the displayed index does not resolve
// to any slot.
var ErrGalleryIndexOutOfRange = errors.New("gallery editor: index out of range")

// GallerySlot is one displayed gallery position: either an already persisted
// URL or a pending file awaiting upload.
type GallerySlot struct {
	URL     string
	Pending *ImageFile
}

// Persisted reports whether the slot is backed by a stored URL.
func (s GallerySlot) Persisted() bool { return s.Pending == nil }

// GalleryEditor tracks the gallery while a product is being edited. Persisted
// URLs and pending files live in separate spaces but share one displayed
// ordering: persisted slots first, pending slots after, so removal by the
// index a viewer sees always resolves to the right entry.
type GalleryEditor struct {
	mu        sync.Mutex
	limit     int
	persisted []string
	pending   []ImageFile
}

// NewGalleryEditor constructs an editor seeded with the product's stored
// gallery. A non-positive limit falls back to DefaultGalleryLimit; stored
// entries beyond the limit are dropped.
func NewGalleryEditor(limit int, persisted []string) *GalleryEditor {
	if limit <= 0 {
		limit = DefaultGalleryLimit
	}
	seeded := snapshotStrings(persisted)
	if len(seeded) > limit {
		seeded = seeded[:limit]
	}
	return &GalleryEditor{limit: limit, persisted: seeded}
}

// Displayed returns the slots in viewer order.
func (g *GalleryEditor) Displayed() []GallerySlot {
	g.mu.Lock()
	defer g.mu.Unlock()

	slots := make([]GallerySlot, 0, len(g.persisted)+len(g.pending))
	for _, url := range g.persisted {
		slots = append(slots, GallerySlot{URL: url})
	}
	for i := range g.pending {
		file := g.pending[i]
		slots = append(slots, GallerySlot{Pending: &file})
	}
	return slots
}

// Len returns the total number of occupied slots.
func (g *GalleryEditor) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.persisted) + len(g.pending)
}

// Remaining returns how many more images the gallery accepts.
func (g *GalleryEditor) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limit - len(g.persisted) - len(g.pending)
}

// AddPending stages a file for upload on the next save.
func (g *GalleryEditor) AddPending(file ImageFile) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.persisted)+len(g.pending) >= g.limit {
		return fmt.Errorf("%w: limit is %d", ErrGalleryFull, g.limit)
	}
	g.pending = append(g.pending, file)
	return nil
}

// RemoveAt removes the slot at the displayed index, resolving it into the
// persisted or pending space as appropriate.
func (g *GalleryEditor) RemoveAt(index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := len(g.persisted) + len(g.pending)
	if index < 0 || index >= total {
		return fmt.Errorf("%w: index %d of %d", ErrGalleryIndexOutOfRange, index, total)
	}
	if index < len(g.persisted) {
		g.persisted = append(g.persisted[:index], g.persisted[index+1:]...)
		return nil
	}
	index -= len(g.persisted)
	g.pending = append(g.pending[:index], g.pending[index+1:]...)
	return nil
}

// Persisted returns a copy of the stored URLs.
func (g *GalleryEditor) Persisted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return snapshotStrings(g.persisted)
}

// Pending returns a copy of the files staged for upload.
func (g *GalleryEditor) Pending() []ImageFile {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ImageFile, len(g.pending))
	copy(out, g.pending)
	return out
}
