package mixin

import (
	"fmt"
	"sync"
)

// Scanner yields the mixin descriptors of one or more modules. The
// engine scans once at start and again on explicit rescan.
type Scanner interface {
	Scan() ([]Descriptor, error)
}

// Registry is a Scanner fed by programmatic registration. Modules
// linked into the host register their mixins at init time.
type Registry struct {
	mu    sync.Mutex
	descs []Descriptor
}

// Add registers a descriptor. Registration order is the discovery
// order used for priority tie-breaks.
func (r *Registry) Add(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.descs = append(r.descs, d)
	r.mu.Unlock()
	return nil
}

// AddClass registers a class-kind mixin.
func (r *Registry) AddClass(module string, target Target, fn ClassFunc) error {
	return r.Add(Descriptor{Kind: KindClass, Target: target, Module: module, ClassFn: fn})
}

// AddField registers a field-kind mixin.
func (r *Registry) AddField(module string, target Target, fn FieldFunc) error {
	return r.Add(Descriptor{Kind: KindField, Target: target, Module: module, FieldFn: fn})
}

// AddMethod registers a method-kind mixin.
func (r *Registry) AddMethod(module string, target Target, fn MethodFunc) error {
	return r.Add(Descriptor{Kind: KindMethod, Target: target, Module: module, MethodFn: fn})
}

// AddMethodCode registers a method-code-kind mixin.
func (r *Registry) AddMethodCode(module string, target Target, fn CodeFunc) error {
	return r.Add(Descriptor{Kind: KindMethodCode, Target: target, Module: module, CodeFn: fn})
}

// Scan returns a copy of the registered descriptors.
func (r *Registry) Scan() ([]Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Descriptor, len(r.descs))
	copy(out, r.descs)
	return out, nil
}

// Default is the process-wide registry that convenience registration
// goes through. Embedding hosts that want isolation construct their
// own Registry instead.
var Default = &Registry{}

// Register adds a descriptor to the default registry, panicking on an
// invalid one. Intended for module init functions, where a bad
// descriptor is a programming error.
func Register(d Descriptor) {
	if err := Default.Add(d); err != nil {
		panic(err)
	}
}

// MultiScanner concatenates the results of several scanners in order.
type MultiScanner []Scanner

// Scan runs every scanner; the first failure aborts the scan.
func (m MultiScanner) Scan() ([]Descriptor, error) {
	var out []Descriptor
	for i, s := range m {
		descs, err := s.Scan()
		if err != nil {
			return nil, fmt.Errorf("mixin: scanner %d: %w", i, err)
		}
		out = append(out, descs...)
	}
	return out, nil
}
