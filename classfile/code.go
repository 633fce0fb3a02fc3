package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ExceptionEntry is one row of a Code attribute's exception table.
// CatchType 0 catches everything (the finally convention).
type ExceptionEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// Instruction is a decoded bytecode instruction. Operands holds the raw
// operand bytes; the alignment padding of tableswitch/lookupswitch is
// excluded and recomputed on encode. Offset is the instruction's byte
// offset in the decoded code array.
type Instruction struct {
	Offset   int
	Opcode   byte
	Operands []byte
}

// Name returns the instruction's mnemonic.
func (in Instruction) Name() string {
	return OpcodeName(in.Opcode)
}

// CodeAttribute is the decoded payload of a "Code" attribute. Nested
// attributes (LineNumberTable and friends) are carried opaquely.
type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Instructions   []Instruction
	ExceptionTable []ExceptionEntry
	Attributes     []Attribute
}

// ParseCode decodes a Code attribute payload. The constant pool is
// needed to resolve nested attribute names.
func ParseCode(cp *ConstantPool, info []byte) (*CodeAttribute, error) {
	r := newReader(info)
	c := &CodeAttribute{}
	var err error
	if c.MaxStack, err = r.u16(); err != nil {
		return nil, err
	}
	if c.MaxLocals, err = r.u16(); err != nil {
		return nil, err
	}
	codeLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	code, err := r.bytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	if c.Instructions, err = decodeInstructions(code); err != nil {
		return nil, err
	}

	excCount, err := r.u16()
	if err != nil {
		return nil, err
	}
	c.ExceptionTable = make([]ExceptionEntry, 0, excCount)
	for i := 0; i < int(excCount); i++ {
		var e ExceptionEntry
		if e.StartPC, err = r.u16(); err != nil {
			return nil, err
		}
		if e.EndPC, err = r.u16(); err != nil {
			return nil, err
		}
		if e.HandlerPC, err = r.u16(); err != nil {
			return nil, err
		}
		if e.CatchType, err = r.u16(); err != nil {
			return nil, err
		}
		c.ExceptionTable = append(c.ExceptionTable, e)
	}

	if c.Attributes, err = parseAttributes(r, cp); err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("classfile: code attribute: %d trailing bytes", r.remaining())
	}
	return c, nil
}

// decodeInstructions walks the code array using the operand width
// tables. Switch padding depends on the instruction's offset, so the
// walk tracks offsets exactly.
func decodeInstructions(code []byte) ([]Instruction, error) {
	var out []Instruction
	r := newReader(code)
	for r.remaining() > 0 {
		offset := r.offset
		op, err := r.u8()
		if err != nil {
			return nil, err
		}
		var operands []byte
		switch w := operandWidth(op); {
		case w >= 0:
			if operands, err = r.bytes(w); err != nil {
				return nil, fmt.Errorf("classfile: truncated %s at %d", OpcodeName(op), offset)
			}
		case op == OpWide:
			// wide <op> <index:u16> [<const:u16> when <op> is iinc]
			inner, err := r.u8()
			if err != nil {
				return nil, ErrTruncated
			}
			n := 2
			if inner == OpIinc {
				n = 4
			}
			rest, err := r.bytes(n)
			if err != nil {
				return nil, ErrTruncated
			}
			operands = append([]byte{inner}, rest...)
		case op == OpTableswitch:
			if err := r.skip(switchPadding(offset)); err != nil {
				return nil, ErrTruncated
			}
			start := r.offset
			if err := r.skip(4); err != nil { // default
				return nil, ErrTruncated
			}
			low, err := r.s32()
			if err != nil {
				return nil, err
			}
			high, err := r.s32()
			if err != nil {
				return nil, err
			}
			if high < low {
				return nil, fmt.Errorf("classfile: tableswitch at %d: high %d < low %d", offset, high, low)
			}
			if err := r.skip(4 * (int(high) - int(low) + 1)); err != nil {
				return nil, ErrTruncated
			}
			operands = code[start:r.offset]
		case op == OpLookupswitch:
			if err := r.skip(switchPadding(offset)); err != nil {
				return nil, ErrTruncated
			}
			start := r.offset
			if err := r.skip(4); err != nil { // default
				return nil, ErrTruncated
			}
			npairs, err := r.s32()
			if err != nil {
				return nil, err
			}
			if npairs < 0 {
				return nil, fmt.Errorf("classfile: lookupswitch at %d: negative npairs", offset)
			}
			if err := r.skip(8 * int(npairs)); err != nil {
				return nil, ErrTruncated
			}
			operands = code[start:r.offset]
		}
		out = append(out, Instruction{Offset: offset, Opcode: op, Operands: append([]byte(nil), operands...)})
	}
	return out, nil
}

// switchPadding returns the pad byte count that aligns the operand
// block of a switch instruction at the given offset to 4 bytes.
func switchPadding(offset int) int {
	return (4 - (offset+1)%4) % 4
}

// Encode re-serializes the attribute into a Code payload. Instruction
// offsets are recomputed from the current instruction list; relative
// branch targets inside operands are the mixin author's responsibility.
func (c *CodeAttribute) Encode(cp *ConstantPool) ([]byte, error) {
	code := &bytes.Buffer{}
	for i := range c.Instructions {
		in := &c.Instructions[i]
		offset := code.Len()
		code.WriteByte(in.Opcode)
		if in.Opcode == OpTableswitch || in.Opcode == OpLookupswitch {
			for p := switchPadding(offset); p > 0; p-- {
				code.WriteByte(0)
			}
		} else if w := operandWidth(in.Opcode); w >= 0 && len(in.Operands) != w {
			return nil, fmt.Errorf("classfile: %s at %d: %d operand bytes, want %d",
				in.Name(), offset, len(in.Operands), w)
		}
		code.Write(in.Operands)
	}

	syncAttrs(cp, c.Attributes)

	buf := &bytes.Buffer{}
	var tmp [4]byte
	binary.BigEndian.PutUint16(tmp[:2], c.MaxStack)
	buf.Write(tmp[:2])
	binary.BigEndian.PutUint16(tmp[:2], c.MaxLocals)
	buf.Write(tmp[:2])
	binary.BigEndian.PutUint32(tmp[:4], uint32(code.Len()))
	buf.Write(tmp[:4])
	buf.Write(code.Bytes())
	binary.BigEndian.PutUint16(tmp[:2], uint16(len(c.ExceptionTable)))
	buf.Write(tmp[:2])
	for _, e := range c.ExceptionTable {
		binary.BigEndian.PutUint16(tmp[:2], e.StartPC)
		buf.Write(tmp[:2])
		binary.BigEndian.PutUint16(tmp[:2], e.EndPC)
		buf.Write(tmp[:2])
		binary.BigEndian.PutUint16(tmp[:2], e.HandlerPC)
		buf.Write(tmp[:2])
		binary.BigEndian.PutUint16(tmp[:2], e.CatchType)
		buf.Write(tmp[:2])
	}
	writeAttributes(buf, c.Attributes)
	return buf.Bytes(), nil
}
