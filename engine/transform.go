package engine

import (
	"errors"
	"fmt"

	"weft/classfile"
	"weft/mixin"
)

var errNilResult = errors.New("mixin returned nil")

// transform parses, applies every applicable mixin in kind order
// (class, fields, methods, method code), and re-serializes. A nil
// return means "no modification": parse or serialize failure, or no
// mixin succeeded. id tags this call's log lines.
func (e *Engine) transform(id, className string, data []byte) []byte {
	cf, err := classfile.Parse(data)
	if err != nil {
		e.log.Warningf("[%s] cannot parse %s (%d bytes): %v", id, className, len(data), err)
		return nil
	}

	modified := false

	// Class pass. A failing mixin is skipped; the next one sees the
	// last successfully produced model.
	for _, d := range e.SelectClass(className) {
		out, err := invokeClass(d, cf)
		if err != nil {
			e.log.Errorf("[%s] class mixin from %s failed on %s: %v", id, d.Module, className, err)
			continue
		}
		cf = out
		modified = true
		e.log.Debugf("[%s] class mixin from %s applied to %s", id, d.Module, className)
	}

	// Field pass. Selection runs against the pre-pass snapshot;
	// results land at the snapshot index.
	fields := make([]classfile.Member, len(cf.Fields))
	copy(fields, cf.Fields)
	for i, f := range fields {
		current := f
		for _, d := range e.SelectField(className, f.Name, f.Descriptor) {
			out, err := invokeField(d, cf, current)
			if err != nil {
				e.log.Errorf("[%s] field mixin from %s failed on %s.%s: %v", id, d.Module, className, f.Name, err)
				continue
			}
			current = out
			modified = true
			e.log.Debugf("[%s] field mixin from %s applied to %s.%s", id, d.Module, className, f.Name)
		}
		cf.Fields[i] = current
	}

	// Method pass, then the code pass for the same method.
	methods := make([]classfile.Member, len(cf.Methods))
	copy(methods, cf.Methods)
	for j, m := range methods {
		current := m
		for _, d := range e.SelectMethod(className, m.Name, m.Descriptor) {
			out, err := invokeMethod(d, cf, current)
			if err != nil {
				e.log.Errorf("[%s] method mixin from %s failed on %s.%s%s: %v", id, d.Module, className, m.Name, m.Descriptor, err)
				continue
			}
			current = out
			modified = true
			e.log.Debugf("[%s] method mixin from %s applied to %s.%s%s", id, d.Module, className, m.Name, m.Descriptor)
		}
		cf.Methods[j] = current

		if e.applyCode(id, className, cf, j, m.Name, m.Descriptor) {
			modified = true
		}
	}

	if !modified {
		return nil
	}
	out, err := cf.Serialize()
	if err != nil {
		e.log.Warningf("[%s] cannot serialize modified %s: %v", id, className, err)
		return nil
	}
	return out
}

// applyCode runs the method-code mixins for the method at index j,
// identified by its pre-pass name and signature. Returns true when the
// method's Code payload was rewritten.
func (e *Engine) applyCode(id, className string, cf *classfile.ClassFile, j int, name, signature string) bool {
	descs := e.SelectMethodCode(className, name, signature)
	if len(descs) == 0 {
		return false
	}

	att := cf.CodeAttributeOf(&cf.Methods[j])
	if att == nil {
		// Abstract or native method: nothing to rewrite.
		e.log.Debugf("[%s] %s.%s%s has no Code attribute, skipping %d code mixin(s)", id, className, name, signature, len(descs))
		return false
	}

	code, err := classfile.ParseCode(&cf.ConstantPool, att.Info)
	if err != nil {
		e.log.Errorf("[%s] cannot decode Code of %s.%s%s: %v", id, className, name, signature, err)
		return false
	}

	changed := false
	for _, d := range descs {
		out, err := invokeCode(d, cf, code)
		if err != nil {
			e.log.Errorf("[%s] code mixin from %s failed on %s.%s%s: %v", id, d.Module, className, name, signature, err)
			continue
		}
		code = out
		changed = true
		e.log.Debugf("[%s] code mixin from %s applied to %s.%s%s", id, d.Module, className, name, signature)
	}
	if !changed {
		return false
	}

	info, err := code.Encode(&cf.ConstantPool)
	if err != nil {
		e.log.Errorf("[%s] cannot re-encode Code of %s.%s%s: %v", id, className, name, signature, err)
		return false
	}
	att.Info = info
	return true
}

// The invoke helpers funnel a mixin's two failure modes, error return
// and panic, into one error, so the passes above stay oblivious.

func invokeClass(d mixin.Descriptor, cf *classfile.ClassFile) (out *classfile.ClassFile, err error) {
	defer recoverInvoke(&err)
	if d.ClassFn == nil {
		return nil, d.Validate()
	}
	out, err = d.ClassFn(cf)
	if err == nil && out == nil {
		err = errNilResult
	}
	return out, err
}

func invokeField(d mixin.Descriptor, cf *classfile.ClassFile, f classfile.Member) (out classfile.Member, err error) {
	defer recoverInvoke(&err)
	if d.FieldFn == nil {
		return f, d.Validate()
	}
	return d.FieldFn(cf, f)
}

func invokeMethod(d mixin.Descriptor, cf *classfile.ClassFile, m classfile.Member) (out classfile.Member, err error) {
	defer recoverInvoke(&err)
	if d.MethodFn == nil {
		return m, d.Validate()
	}
	return d.MethodFn(cf, m)
}

func invokeCode(d mixin.Descriptor, cf *classfile.ClassFile, c *classfile.CodeAttribute) (out *classfile.CodeAttribute, err error) {
	defer recoverInvoke(&err)
	if d.CodeFn == nil {
		return nil, d.Validate()
	}
	out, err = d.CodeFn(cf, c)
	if err == nil && out == nil {
		err = errNilResult
	}
	return out, err
}

func recoverInvoke(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}
