package classfile

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of a class: header,
// members, and the code of every method that has any.
func (cf *ClassFile) Disassemble() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("; class %s\n", cf.Name()))
	if super := cf.SuperName(); super != "" {
		sb.WriteString(fmt.Sprintf("; extends %s\n", super))
	}
	sb.WriteString(fmt.Sprintf("; version %d.%d, access 0x%04X, constant pool %d entries\n",
		cf.MajorVersion, cf.MinorVersion, cf.AccessFlags, cf.ConstantPool.Count()-1))

	if len(cf.Fields) > 0 {
		sb.WriteString("\n; fields:\n")
		for _, f := range cf.Fields {
			sb.WriteString(fmt.Sprintf(";   %s %s (0x%04X)\n", f.Name, f.Descriptor, f.AccessFlags))
		}
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		sb.WriteString(fmt.Sprintf("\n%s%s:\n", m.Name, m.Descriptor))
		att := cf.CodeAttributeOf(m)
		if att == nil {
			sb.WriteString("    ; no code\n")
			continue
		}
		code, err := ParseCode(&cf.ConstantPool, att.Info)
		if err != nil {
			sb.WriteString(fmt.Sprintf("    ; undecodable code: %v\n", err))
			continue
		}
		sb.WriteString(code.Disassemble())
	}
	return sb.String()
}

// Disassemble returns a listing of the code attribute's instructions.
func (c *CodeAttribute) Disassemble() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("    ; stack=%d, locals=%d\n", c.MaxStack, c.MaxLocals))
	for _, in := range c.Instructions {
		name := in.Name()
		if name == "" {
			name = fmt.Sprintf("0x%02X", in.Opcode)
		}
		if len(in.Operands) == 0 {
			sb.WriteString(fmt.Sprintf("    %4d: %s\n", in.Offset, name))
		} else {
			sb.WriteString(fmt.Sprintf("    %4d: %-15s % X\n", in.Offset, name, in.Operands))
		}
	}
	for _, e := range c.ExceptionTable {
		sb.WriteString(fmt.Sprintf("    ; handler [%d,%d) -> %d (catch #%d)\n",
			e.StartPC, e.EndPC, e.HandlerPC, e.CatchType))
	}
	return sb.String()
}
