package engine

import (
	"strings"
	"sync"
)

// normalizer canonicalizes class names to the slashed internal form,
// memoizing results. The cache is insert-if-absent and grows for the
// engine's lifetime; it is bounded in practice by the number of
// distinct class names a process loads.
type normalizer struct {
	mu    sync.Mutex
	cache map[string]string
}

func newNormalizer() *normalizer {
	return &normalizer{cache: make(map[string]string)}
}

// Normalize returns the slashed form of name. Pure substitution, no
// validation: mixin authors and the codec share the convention.
func (n *normalizer) Normalize(name string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if v, ok := n.cache[name]; ok {
		return v
	}
	v := strings.ReplaceAll(name, ".", "/")
	n.cache[name] = v
	return v
}

// size reports the number of cached entries.
func (n *normalizer) size() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.cache)
}
