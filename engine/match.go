package engine

import (
	"weft/mapping"
	"weft/mixin"
)

// MappingService is what the engine needs from the mapping database.
// *mapping.Table satisfies it; a nil service is tolerated (obfuscated
// and mapped targets simply never match).
type MappingService interface {
	// Equivalent reports whether a possibly partially-obfuscated
	// target class name denotes the observed runtime class.
	Equivalent(target, runtime string) bool
	// ByMapped returns the class entry whose mapped name normalizes
	// to name, or nil.
	ByMapped(name string) *mapping.Class
}

// classMatches reports whether a mixin target denotes the runtime
// class. runtimeName must already be normalized. An unknown NameType
// matches nothing; it is never an error.
func (e *Engine) classMatches(t mixin.Target, runtimeName string) bool {
	target := e.names.Normalize(t.ClassName)
	switch t.NameType {
	case mixin.NameDefault:
		return target == runtimeName
	case mixin.NameObfuscated:
		return e.mappings != nil && e.mappings.Equivalent(target, runtimeName)
	case mixin.NameMapped:
		if e.mappings == nil {
			return false
		}
		c := e.mappings.ByMapped(target)
		return c != nil && e.names.Normalize(c.Obfuscated) == runtimeName
	default:
		return false
	}
}

// fieldMatches reports whether a field-kind target denotes the
// observed field of an already-matched class. Descriptors compare
// directly in every naming mode; under the mapped namespace the
// target's field name goes through the class entry's member mapping
// first, falling back to direct comparison when the member is
// unmapped.
func (e *Engine) fieldMatches(t mixin.Target, fieldName, fieldDescriptor string) bool {
	if t.FieldDescriptor != fieldDescriptor {
		return false
	}
	return e.memberName(t, t.FieldName, false, t.FieldDescriptor) == fieldName
}

// methodMatches is fieldMatches for method identities.
func (e *Engine) methodMatches(t mixin.Target, methodName, methodSignature string) bool {
	if t.MethodSignature != methodSignature {
		return false
	}
	return e.memberName(t, t.MethodName, true, t.MethodSignature) == methodName
}

// memberName translates a target's member name into the runtime
// namespace. Only the mapped naming mode translates; the per-class
// member mapping of the matched class entry is authoritative.
func (e *Engine) memberName(t mixin.Target, name string, isMethod bool, descriptor string) string {
	if t.NameType != mixin.NameMapped || e.mappings == nil {
		return name
	}
	c := e.mappings.ByMapped(e.names.Normalize(t.ClassName))
	if c == nil {
		return name
	}
	var m *mapping.Member
	if isMethod {
		m = c.MethodByMapped(name, descriptor)
	} else {
		m = c.FieldByMapped(name)
	}
	if m == nil || m.Obfuscated == "" {
		return name
	}
	return m.Obfuscated
}
