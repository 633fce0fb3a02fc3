package engine

import (
	"sort"

	"weft/mixin"
)

// byPriority orders ascending; the stable sort keeps discovery order
// for equal priorities.
func byPriority(descs []mixin.Descriptor) []mixin.Descriptor {
	sort.SliceStable(descs, func(i, j int) bool {
		return descs[i].Target.Priority < descs[j].Target.Priority
	})
	return descs
}

// SelectClass returns the class-kind mixins applicable to the class,
// in application order. className must be normalized.
func (e *Engine) SelectClass(className string) []mixin.Descriptor {
	var out []mixin.Descriptor
	for _, d := range e.index.OfKind(mixin.KindClass) {
		if e.classMatches(d.Target, className) {
			out = append(out, d)
		}
	}
	return byPriority(out)
}

// SelectField returns the field-kind mixins applicable to the named
// field, in application order.
func (e *Engine) SelectField(className, fieldName, fieldDescriptor string) []mixin.Descriptor {
	var out []mixin.Descriptor
	for _, d := range e.index.OfKind(mixin.KindField) {
		if e.classMatches(d.Target, className) && e.fieldMatches(d.Target, fieldName, fieldDescriptor) {
			out = append(out, d)
		}
	}
	return byPriority(out)
}

// SelectMethod returns the method-kind mixins applicable to the named
// method, in application order.
func (e *Engine) SelectMethod(className, methodName, methodSignature string) []mixin.Descriptor {
	var out []mixin.Descriptor
	for _, d := range e.index.OfKind(mixin.KindMethod) {
		if e.classMatches(d.Target, className) && e.methodMatches(d.Target, methodName, methodSignature) {
			out = append(out, d)
		}
	}
	return byPriority(out)
}

// SelectMethodCode returns the method-code-kind mixins applicable to
// the named method, in application order.
func (e *Engine) SelectMethodCode(className, methodName, methodSignature string) []mixin.Descriptor {
	var out []mixin.Descriptor
	for _, d := range e.index.OfKind(mixin.KindMethodCode) {
		if e.classMatches(d.Target, className) && e.methodMatches(d.Target, methodName, methodSignature) {
			out = append(out, d)
		}
	}
	return byPriority(out)
}

// hasAnyUncached scans the whole index for any target-class match,
// regardless of kind.
func (e *Engine) hasAnyUncached(className string) bool {
	for _, d := range e.index.All() {
		if e.classMatches(d.Target, className) {
			return true
		}
	}
	return false
}
