package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Constant pool tags, JVM spec table 4.4-A.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// Constant is one constant pool entry. Only the fields relevant to the
// entry's tag are populated; the rest stay zero. Utf8 holds the raw
// modified-UTF-8 bytes as a Go string, so unmodified entries re-encode
// byte for byte.
type Constant struct {
	Tag     uint8
	Utf8    string
	Int     int32
	Float   float32
	Long    int64
	Double  float64
	RefKind uint8  // MethodHandle reference kind
	Ref1    uint16 // name/class/bootstrap index, tag-dependent
	Ref2    uint16 // descriptor/name-and-type index, tag-dependent
}

// ConstantPool holds the pool indexed the way the format does: valid
// indices run 1..Count()-1, index 0 is unused, and Long/Double entries
// are followed by a phantom slot with tag 0.
type ConstantPool struct {
	entries []Constant
}

// Count returns the constant_pool_count value (entry count plus one).
func (cp *ConstantPool) Count() int {
	return len(cp.entries)
}

// Lookup returns the entry at index i, or false when i is out of range
// or points at a phantom slot.
func (cp *ConstantPool) Lookup(i uint16) (*Constant, bool) {
	if int(i) == 0 || int(i) >= len(cp.entries) {
		return nil, false
	}
	c := &cp.entries[i]
	if c.Tag == 0 {
		return nil, false
	}
	return c, true
}

// Utf8 returns the string for a Utf8 entry, or "" when the index does
// not name one.
func (cp *ConstantPool) Utf8(i uint16) string {
	c, ok := cp.Lookup(i)
	if !ok || c.Tag != TagUtf8 {
		return ""
	}
	return c.Utf8
}

// ClassName resolves a Class entry to its internal name.
func (cp *ConstantPool) ClassName(i uint16) string {
	c, ok := cp.Lookup(i)
	if !ok || c.Tag != TagClass {
		return ""
	}
	return cp.Utf8(c.Ref1)
}

// InternUtf8 returns the index of a Utf8 entry equal to s, appending a
// new entry when none exists.
func (cp *ConstantPool) InternUtf8(s string) uint16 {
	for i := 1; i < len(cp.entries); i++ {
		if cp.entries[i].Tag == TagUtf8 && cp.entries[i].Utf8 == s {
			return uint16(i)
		}
	}
	return cp.append(Constant{Tag: TagUtf8, Utf8: s})
}

// InternClass returns the index of a Class entry naming the given
// internal class name, appending pool entries as needed.
func (cp *ConstantPool) InternClass(name string) uint16 {
	utf8 := cp.InternUtf8(name)
	for i := 1; i < len(cp.entries); i++ {
		if cp.entries[i].Tag == TagClass && cp.entries[i].Ref1 == utf8 {
			return uint16(i)
		}
	}
	return cp.append(Constant{Tag: TagClass, Ref1: utf8})
}

// append adds an entry, reserving the unused index-0 slot on first use.
func (cp *ConstantPool) append(c Constant) uint16 {
	if len(cp.entries) == 0 {
		cp.entries = make([]Constant, 1)
	}
	cp.entries = append(cp.entries, c)
	return uint16(len(cp.entries) - 1)
}

// parsePool reads constant_pool_count and the pool entries.
func parsePool(r *reader) (ConstantPool, error) {
	var cp ConstantPool
	count, err := r.u16()
	if err != nil {
		return cp, err
	}
	cp.entries = make([]Constant, 1, count)
	for len(cp.entries) < int(count) {
		tag, err := r.u8()
		if err != nil {
			return cp, err
		}
		c := Constant{Tag: tag}
		switch tag {
		case TagUtf8:
			n, err := r.u16()
			if err != nil {
				return cp, err
			}
			b, err := r.bytes(int(n))
			if err != nil {
				return cp, err
			}
			c.Utf8 = string(b)
		case TagInteger:
			v, err := r.u32()
			if err != nil {
				return cp, err
			}
			c.Int = int32(v)
		case TagFloat:
			v, err := r.u32()
			if err != nil {
				return cp, err
			}
			c.Float = math.Float32frombits(v)
		case TagLong:
			v, err := r.u64()
			if err != nil {
				return cp, err
			}
			c.Long = int64(v)
		case TagDouble:
			v, err := r.u64()
			if err != nil {
				return cp, err
			}
			c.Double = math.Float64frombits(v)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			if c.Ref1, err = r.u16(); err != nil {
				return cp, err
			}
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			if c.Ref1, err = r.u16(); err != nil {
				return cp, err
			}
			if c.Ref2, err = r.u16(); err != nil {
				return cp, err
			}
		case TagMethodHandle:
			if c.RefKind, err = r.u8(); err != nil {
				return cp, err
			}
			if c.Ref1, err = r.u16(); err != nil {
				return cp, err
			}
		default:
			return cp, fmt.Errorf("classfile: unknown constant tag %d at index %d", tag, len(cp.entries))
		}
		cp.entries = append(cp.entries, c)
		if tag == TagLong || tag == TagDouble {
			// 8-byte constants occupy two pool slots.
			cp.entries = append(cp.entries, Constant{})
		}
	}
	return cp, nil
}

// write serializes constant_pool_count and the entries.
func (cp *ConstantPool) write(buf *bytes.Buffer) error {
	var tmp [8]byte
	binary.BigEndian.PutUint16(tmp[:2], uint16(len(cp.entries)))
	buf.Write(tmp[:2])
	for i := 1; i < len(cp.entries); i++ {
		c := &cp.entries[i]
		if c.Tag == 0 {
			continue // phantom slot after Long/Double
		}
		buf.WriteByte(c.Tag)
		switch c.Tag {
		case TagUtf8:
			binary.BigEndian.PutUint16(tmp[:2], uint16(len(c.Utf8)))
			buf.Write(tmp[:2])
			buf.WriteString(c.Utf8)
		case TagInteger:
			binary.BigEndian.PutUint32(tmp[:4], uint32(c.Int))
			buf.Write(tmp[:4])
		case TagFloat:
			binary.BigEndian.PutUint32(tmp[:4], math.Float32bits(c.Float))
			buf.Write(tmp[:4])
		case TagLong:
			binary.BigEndian.PutUint64(tmp[:8], uint64(c.Long))
			buf.Write(tmp[:8])
		case TagDouble:
			binary.BigEndian.PutUint64(tmp[:8], math.Float64bits(c.Double))
			buf.Write(tmp[:8])
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			binary.BigEndian.PutUint16(tmp[:2], c.Ref1)
			buf.Write(tmp[:2])
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			binary.BigEndian.PutUint16(tmp[:2], c.Ref1)
			buf.Write(tmp[:2])
			binary.BigEndian.PutUint16(tmp[2:4], c.Ref2)
			buf.Write(tmp[2:4])
		case TagMethodHandle:
			buf.WriteByte(c.RefKind)
			binary.BigEndian.PutUint16(tmp[:2], c.Ref1)
			buf.Write(tmp[:2])
		default:
			return fmt.Errorf("classfile: cannot encode constant tag %d at index %d", c.Tag, i)
		}
	}
	return nil
}
