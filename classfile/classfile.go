package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic is the class-file magic number.
const Magic uint32 = 0xCAFEBABE

// CodeAttributeName is the attribute name carrying method bytecode.
const CodeAttributeName = "Code"

// ErrNotClassFile indicates the input does not start with the class-file magic.
var ErrNotClassFile = errors.New("classfile: bad magic")

// Attribute is a named attribute with an opaque payload. Name is the
// resolved constant-pool string; the serializer re-interns it when it no
// longer matches NameIndex, so renames need no manual pool edits.
type Attribute struct {
	NameIndex uint16
	Name      string
	Info      []byte
}

// Member is a field_info or method_info structure. Name and Descriptor
// are resolved from the constant pool at parse time and re-interned at
// serialize time, like Attribute.Name.
type Member struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Name            string
	Descriptor      string
	Attributes      []Attribute
}

// ClassFile is the parsed class model. Field, method, and attribute
// order is the order in the input and is preserved by Serialize.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
}

// Name returns the class's internal name (e.g. "a/b/C").
func (cf *ClassFile) Name() string {
	return cf.ConstantPool.ClassName(cf.ThisClass)
}

// SuperName returns the superclass's internal name, "" for java/lang/Object's parent.
func (cf *ClassFile) SuperName() string {
	return cf.ConstantPool.ClassName(cf.SuperClass)
}

// CodeAttributeOf returns the member's first attribute named "Code",
// or nil when the member has none (abstract and native methods).
func (cf *ClassFile) CodeAttributeOf(m *Member) *Attribute {
	for i := range m.Attributes {
		if m.Attributes[i].Name == CodeAttributeName {
			return &m.Attributes[i]
		}
	}
	return nil
}

// Parse decodes a class file into the structural model.
func Parse(data []byte) (*ClassFile, error) {
	r := newReader(data)
	magic, err := r.u32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, ErrNotClassFile
	}

	cf := &ClassFile{}
	if cf.MinorVersion, err = r.u16(); err != nil {
		return nil, err
	}
	if cf.MajorVersion, err = r.u16(); err != nil {
		return nil, err
	}
	if cf.ConstantPool, err = parsePool(r); err != nil {
		return nil, err
	}
	if cf.AccessFlags, err = r.u16(); err != nil {
		return nil, err
	}
	if cf.ThisClass, err = r.u16(); err != nil {
		return nil, err
	}
	if cf.SuperClass, err = r.u16(); err != nil {
		return nil, err
	}

	ifaceCount, err := r.u16()
	if err != nil {
		return nil, err
	}
	cf.Interfaces = make([]uint16, 0, ifaceCount)
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.u16()
		if err != nil {
			return nil, err
		}
		cf.Interfaces = append(cf.Interfaces, idx)
	}

	if cf.Fields, err = parseMembers(r, &cf.ConstantPool); err != nil {
		return nil, fmt.Errorf("classfile: fields: %w", err)
	}
	if cf.Methods, err = parseMembers(r, &cf.ConstantPool); err != nil {
		return nil, fmt.Errorf("classfile: methods: %w", err)
	}
	if cf.Attributes, err = parseAttributes(r, &cf.ConstantPool); err != nil {
		return nil, fmt.Errorf("classfile: class attributes: %w", err)
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("classfile: %d trailing bytes", r.remaining())
	}
	return cf, nil
}

func parseMembers(r *reader, cp *ConstantPool) ([]Member, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, count)
	for i := 0; i < int(count); i++ {
		var m Member
		if m.AccessFlags, err = r.u16(); err != nil {
			return nil, err
		}
		if m.NameIndex, err = r.u16(); err != nil {
			return nil, err
		}
		if m.DescriptorIndex, err = r.u16(); err != nil {
			return nil, err
		}
		m.Name = cp.Utf8(m.NameIndex)
		m.Descriptor = cp.Utf8(m.DescriptorIndex)
		if m.Attributes, err = parseAttributes(r, cp); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func parseAttributes(r *reader, cp *ConstantPool) ([]Attribute, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		var a Attribute
		if a.NameIndex, err = r.u16(); err != nil {
			return nil, err
		}
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		info, err := r.bytes(int(n))
		if err != nil {
			return nil, err
		}
		a.Name = cp.Utf8(a.NameIndex)
		a.Info = append([]byte(nil), info...)
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// Serialize re-encodes the model. Member and attribute names whose
// resolved string diverged from their index are re-interned first, so
// the output pool may be longer than the input's.
func (cf *ClassFile) Serialize() ([]byte, error) {
	cf.internNames()

	buf := &bytes.Buffer{}
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:4], Magic)
	buf.Write(tmp[:4])
	binary.BigEndian.PutUint16(tmp[:2], cf.MinorVersion)
	buf.Write(tmp[:2])
	binary.BigEndian.PutUint16(tmp[:2], cf.MajorVersion)
	buf.Write(tmp[:2])
	if err := cf.ConstantPool.write(buf); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint16(tmp[:2], cf.AccessFlags)
	buf.Write(tmp[:2])
	binary.BigEndian.PutUint16(tmp[:2], cf.ThisClass)
	buf.Write(tmp[:2])
	binary.BigEndian.PutUint16(tmp[:2], cf.SuperClass)
	buf.Write(tmp[:2])
	binary.BigEndian.PutUint16(tmp[:2], uint16(len(cf.Interfaces)))
	buf.Write(tmp[:2])
	for _, idx := range cf.Interfaces {
		binary.BigEndian.PutUint16(tmp[:2], idx)
		buf.Write(tmp[:2])
	}
	writeMembers(buf, cf.Fields)
	writeMembers(buf, cf.Methods)
	writeAttributes(buf, cf.Attributes)
	return buf.Bytes(), nil
}

// internNames synchronizes resolved name strings back into the pool.
// Indices that still resolve to their string are left alone so an
// unmodified model round-trips byte for byte.
func (cf *ClassFile) internNames() {
	cp := &cf.ConstantPool
	syncMembers := func(members []Member) {
		for i := range members {
			m := &members[i]
			if cp.Utf8(m.NameIndex) != m.Name {
				m.NameIndex = cp.InternUtf8(m.Name)
			}
			if cp.Utf8(m.DescriptorIndex) != m.Descriptor {
				m.DescriptorIndex = cp.InternUtf8(m.Descriptor)
			}
			syncAttrs(cp, m.Attributes)
		}
	}
	syncMembers(cf.Fields)
	syncMembers(cf.Methods)
	syncAttrs(cp, cf.Attributes)
}

func syncAttrs(cp *ConstantPool, attrs []Attribute) {
	for i := range attrs {
		if cp.Utf8(attrs[i].NameIndex) != attrs[i].Name {
			attrs[i].NameIndex = cp.InternUtf8(attrs[i].Name)
		}
	}
}

func writeMembers(buf *bytes.Buffer, members []Member) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(len(members)))
	buf.Write(tmp[:])
	for i := range members {
		m := &members[i]
		binary.BigEndian.PutUint16(tmp[:], m.AccessFlags)
		buf.Write(tmp[:])
		binary.BigEndian.PutUint16(tmp[:], m.NameIndex)
		buf.Write(tmp[:])
		binary.BigEndian.PutUint16(tmp[:], m.DescriptorIndex)
		buf.Write(tmp[:])
		writeAttributes(buf, m.Attributes)
	}
}

func writeAttributes(buf *bytes.Buffer, attrs []Attribute) {
	var tmp [4]byte
	binary.BigEndian.PutUint16(tmp[:2], uint16(len(attrs)))
	buf.Write(tmp[:2])
	for i := range attrs {
		a := &attrs[i]
		binary.BigEndian.PutUint16(tmp[:2], a.NameIndex)
		buf.Write(tmp[:2])
		binary.BigEndian.PutUint32(tmp[:4], uint32(len(a.Info)))
		buf.Write(tmp[:4])
		buf.Write(a.Info)
	}
}
