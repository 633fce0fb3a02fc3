// Package mixin defines the transformation descriptors external
// modules supply, the scanner that collects them, and the index the
// engine queries.
package mixin

import (
	"fmt"

	"weft/classfile"
)

// NameType selects the namespace a mixin's target class name is
// written in.
type NameType uint8

const (
	// NameDefault matches the target name against the runtime name
	// byte for byte (after normalization).
	NameDefault NameType = iota
	// NameObfuscated defers to the mapping service's class-equivalence
	// predicate; the target may be written partially obfuscated.
	NameObfuscated
	// NameMapped resolves the target through the mapping table: the
	// target is a deobfuscated name, the runtime name is not.
	NameMapped
)

func (n NameType) String() string {
	switch n {
	case NameDefault:
		return "default"
	case NameObfuscated:
		return "obfuscated"
	case NameMapped:
		return "mapped"
	default:
		return fmt.Sprintf("NameType(%d)", uint8(n))
	}
}

// Kind distinguishes the four mixin shapes.
type Kind uint8

const (
	KindClass Kind = iota
	KindField
	KindMethod
	KindMethodCode
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindMethodCode:
		return "method-code"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Target names what a mixin applies to. ClassName is in the namespace
// NameType selects; the member fields are used by the matching kinds
// only. Priority orders application ascending; ties keep discovery
// order.
type Target struct {
	ClassName string
	NameType  NameType
	Priority  int

	FieldName       string
	FieldDescriptor string

	MethodName      string
	MethodSignature string
}

// The kind-specific callables. Each receives the current class model;
// field, method, and code callables additionally receive the entity to
// rewrite and return its replacement. Replacements land at the
// entity's pre-pass index: callables must not add or remove fields or
// methods, and must not rely on pointer identity of the class model.
// A callable may fail by returning an error or by panicking; the
// engine isolates either to that one mixin.
type (
	ClassFunc  func(cf *classfile.ClassFile) (*classfile.ClassFile, error)
	FieldFunc  func(cf *classfile.ClassFile, field classfile.Member) (classfile.Member, error)
	MethodFunc func(cf *classfile.ClassFile, method classfile.Member) (classfile.Member, error)
	CodeFunc   func(cf *classfile.ClassFile, code *classfile.CodeAttribute) (*classfile.CodeAttribute, error)
)

// Descriptor is one scanned mixin: its kind, target, owning module
// (for log attribution), and the callable matching its kind.
type Descriptor struct {
	Kind   Kind
	Target Target
	Module string

	ClassFn  ClassFunc
	FieldFn  FieldFunc
	MethodFn MethodFunc
	CodeFn   CodeFunc
}

// Validate checks that the descriptor carries the callable its kind
// dispatches to.
func (d *Descriptor) Validate() error {
	var ok bool
	switch d.Kind {
	case KindClass:
		ok = d.ClassFn != nil
	case KindField:
		ok = d.FieldFn != nil
	case KindMethod:
		ok = d.MethodFn != nil
	case KindMethodCode:
		ok = d.CodeFn != nil
	default:
		return fmt.Errorf("mixin: unknown kind %d (module %s, target %s)", d.Kind, d.Module, d.Target.ClassName)
	}
	if !ok {
		return fmt.Errorf("mixin: %s mixin from %s on %s has no callable", d.Kind, d.Module, d.Target.ClassName)
	}
	return nil
}
