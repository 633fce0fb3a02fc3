package classfile

// Java 8 class-file version, the floor most toolchains emit today.
const (
	DefaultMajorVersion = 52
	DefaultMinorVersion = 0
)

// Access flag bits shared by classes, fields, and methods.
const (
	AccPublic    uint16 = 0x0001
	AccPrivate   uint16 = 0x0002
	AccProtected uint16 = 0x0004
	AccStatic    uint16 = 0x0008
	AccFinal     uint16 = 0x0010
	AccSuper     uint16 = 0x0020
	AccNative    uint16 = 0x0100
	AccAbstract  uint16 = 0x0400
)

// New builds a minimal class with the given internal names. The result
// serializes to a structurally valid (if empty) class file; fields and
// methods are added with AddField and AddMethod.
func New(name, superName string) *ClassFile {
	cf := &ClassFile{
		MinorVersion: DefaultMinorVersion,
		MajorVersion: DefaultMajorVersion,
		AccessFlags:  AccPublic | AccSuper,
	}
	cf.ThisClass = cf.ConstantPool.InternClass(name)
	if superName != "" {
		cf.SuperClass = cf.ConstantPool.InternClass(superName)
	}
	return cf
}

// AddField appends a field with no attributes.
func (cf *ClassFile) AddField(flags uint16, name, descriptor string) *Member {
	cf.Fields = append(cf.Fields, cf.newMember(flags, name, descriptor))
	return &cf.Fields[len(cf.Fields)-1]
}

// AddMethod appends a method; a non-nil code attribute is encoded and
// attached as the method's "Code" attribute.
func (cf *ClassFile) AddMethod(flags uint16, name, descriptor string, code *CodeAttribute) (*Member, error) {
	m := cf.newMember(flags, name, descriptor)
	if code != nil {
		info, err := code.Encode(&cf.ConstantPool)
		if err != nil {
			return nil, err
		}
		m.Attributes = append(m.Attributes, Attribute{
			NameIndex: cf.ConstantPool.InternUtf8(CodeAttributeName),
			Name:      CodeAttributeName,
			Info:      info,
		})
	}
	cf.Methods = append(cf.Methods, m)
	return &cf.Methods[len(cf.Methods)-1], nil
}

func (cf *ClassFile) newMember(flags uint16, name, descriptor string) Member {
	return Member{
		AccessFlags:     flags,
		NameIndex:       cf.ConstantPool.InternUtf8(name),
		DescriptorIndex: cf.ConstantPool.InternUtf8(descriptor),
		Name:            name,
		Descriptor:      descriptor,
	}
}
