// Package mapping holds the obfuscated/mapped name tables the engine
// consults when a mixin targets a class by its deobfuscated name.
// Tables load from TOML, round-trip through a CBOR compiled cache, and
// can persist in a sqlite store.
package mapping

import "strings"

// Member maps one field or method between namespaces. Descriptor is
// the member's type descriptor (or method signature) in the runtime
// namespace; it is the same string in both namespaces.
type Member struct {
	Mapped     string `toml:"mapped" cbor:"1,keyasint"`
	Obfuscated string `toml:"obfuscated" cbor:"2,keyasint"`
	Descriptor string `toml:"descriptor" cbor:"3,keyasint"`
}

// Class maps one class between namespaces, with its member mappings.
type Class struct {
	Mapped     string   `toml:"mapped" cbor:"1,keyasint"`
	Obfuscated string   `toml:"obfuscated" cbor:"2,keyasint"`
	Fields     []Member `toml:"field" cbor:"3,keyasint"`
	Methods    []Member `toml:"method" cbor:"4,keyasint"`
}

// FieldByMapped returns the field mapping with the given mapped name,
// or nil.
func (c *Class) FieldByMapped(name string) *Member {
	return memberByMapped(c.Fields, name)
}

// MethodByMapped returns the method mapping with the given mapped name
// and signature, or nil. An empty signature matches any.
func (c *Class) MethodByMapped(name, signature string) *Member {
	for i := range c.Methods {
		m := &c.Methods[i]
		if m.Mapped == name && (m.Descriptor == "" || signature == "" || m.Descriptor == signature) {
			return m
		}
	}
	return nil
}

func memberByMapped(members []Member, name string) *Member {
	for i := range members {
		if members[i].Mapped == name {
			return &members[i]
		}
	}
	return nil
}

// Table is an immutable mapping database with normalized-name lookup.
type Table struct {
	classes  []Class
	byMapped map[string]*Class
	byObf    map[string]*Class
}

// NewTable indexes the given classes. Names are normalized to the
// slashed internal form for lookup; the stored entries keep their
// original spelling.
func NewTable(classes []Class) *Table {
	t := &Table{
		classes:  classes,
		byMapped: make(map[string]*Class, len(classes)),
		byObf:    make(map[string]*Class, len(classes)),
	}
	for i := range t.classes {
		c := &t.classes[i]
		t.byMapped[normalize(c.Mapped)] = c
		t.byObf[normalize(c.Obfuscated)] = c
	}
	return t
}

// Classes iterates the entries in load order.
func (t *Table) Classes() []Class {
	return t.classes
}

// ByMapped returns the entry whose mapped name normalizes to name.
func (t *Table) ByMapped(name string) *Class {
	return t.byMapped[normalize(name)]
}

// ByObfuscated returns the entry whose obfuscated name normalizes to name.
func (t *Table) ByObfuscated(name string) *Class {
	return t.byObf[normalize(name)]
}

// Equivalent reports whether a target class name (possibly written in
// a partially-obfuscated form) denotes the observed runtime class.
func (t *Table) Equivalent(target, runtime string) bool {
	target = normalize(target)
	runtime = normalize(runtime)
	if target == runtime {
		return true
	}
	if c := t.byMapped[target]; c != nil && normalize(c.Obfuscated) == runtime {
		return true
	}
	return false
}

// normalize is the slashed-form substitution shared with the engine.
// The engine memoizes its own copy; table lookups are rare enough not to.
func normalize(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
