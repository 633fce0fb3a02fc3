package mixin

import "sync"

// Index holds the scanned descriptors between rescans. Queries are
// linear over the stored list; the engine's probe cache absorbs the
// cost of repeated lookups, so no secondary index is kept.
type Index struct {
	mu      sync.RWMutex
	scanner Scanner
	descs   []Descriptor
}

// NewIndex builds an index by running the scanner once.
func NewIndex(scanner Scanner) (*Index, error) {
	ix := &Index{scanner: scanner}
	if err := ix.Rebuild(); err != nil {
		return nil, err
	}
	return ix, nil
}

// All returns every descriptor in discovery order. The returned slice
// is shared; callers must not mutate it.
func (ix *Index) All() []Descriptor {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.descs
}

// OfKind returns the descriptors of one kind, discovery order preserved.
func (ix *Index) OfKind(k Kind) []Descriptor {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []Descriptor
	for _, d := range ix.descs {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the descriptor count.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.descs)
}

// Rebuild re-runs the scanner and fully replaces the stored list. On
// scan failure the previous list is kept.
func (ix *Index) Rebuild() error {
	descs, err := ix.scanner.Scan()
	if err != nil {
		return err
	}
	ix.mu.Lock()
	ix.descs = descs
	ix.mu.Unlock()
	return nil
}
