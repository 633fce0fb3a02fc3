package classfile

import (
	"bytes"
	"testing"
)

// buildSample builds a small but representative class: one field, a
// no-arg constructor-shaped method with code, and an abstract method.
func buildSample(t *testing.T) *ClassFile {
	t.Helper()
	cf := New("a/b/C", "java/lang/Object")
	cf.AddField(AccPrivate, "count", "I")
	code := &CodeAttribute{
		MaxStack:  1,
		MaxLocals: 1,
		Instructions: []Instruction{
			{Opcode: 0x2a},                              // aload_0
			{Opcode: OpReturn},                          // return
		},
	}
	if _, err := cf.AddMethod(AccPublic, "run", "()V", code); err != nil {
		t.Fatalf("AddMethod: %v", err)
	}
	if _, err := cf.AddMethod(AccPublic|AccAbstract, "tick", "(I)V", nil); err != nil {
		t.Fatalf("AddMethod: %v", err)
	}
	return cf
}

func TestParseRejectsBadMagic(t *testing.T) {
	if _, err := Parse([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0}); err != ErrNotClassFile {
		t.Errorf("err = %v, want ErrNotClassFile", err)
	}
	if _, err := Parse([]byte{0xCA, 0xFE}); err == nil {
		t.Error("truncated magic should fail")
	}
}

func TestRoundTripBytes(t *testing.T) {
	data, err := buildSample(t).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	cf, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	again, err := cf.Serialize()
	if err != nil {
		t.Fatalf("re-Serialize: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("round trip changed bytes: %d -> %d", len(data), len(again))
	}
}

func TestParsedModel(t *testing.T) {
	data, err := buildSample(t).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	cf, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cf.Name() != "a/b/C" {
		t.Errorf("Name = %q, want %q", cf.Name(), "a/b/C")
	}
	if cf.SuperName() != "java/lang/Object" {
		t.Errorf("SuperName = %q", cf.SuperName())
	}
	if len(cf.Fields) != 1 || cf.Fields[0].Name != "count" || cf.Fields[0].Descriptor != "I" {
		t.Errorf("Fields = %+v", cf.Fields)
	}
	if len(cf.Methods) != 2 {
		t.Fatalf("method count = %d, want 2", len(cf.Methods))
	}
	if att := cf.CodeAttributeOf(&cf.Methods[0]); att == nil {
		t.Error("run()V should carry a Code attribute")
	}
	if att := cf.CodeAttributeOf(&cf.Methods[1]); att != nil {
		t.Error("abstract tick(I)V should not carry a Code attribute")
	}
}

func TestSerializeReinternsRenamedMember(t *testing.T) {
	data, err := buildSample(t).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	cf, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cf.Methods[0].Name = "run_v1"
	renamed, err := cf.Serialize()
	if err != nil {
		t.Fatalf("Serialize renamed: %v", err)
	}
	if bytes.Equal(data, renamed) {
		t.Fatal("rename should change the serialized bytes")
	}
	cf2, err := Parse(renamed)
	if err != nil {
		t.Fatalf("Parse renamed: %v", err)
	}
	if cf2.Methods[0].Name != "run_v1" {
		t.Errorf("renamed method reads back as %q", cf2.Methods[0].Name)
	}
	// The other member strings must be untouched.
	if cf2.Fields[0].Name != "count" || cf2.Methods[1].Name != "tick" {
		t.Errorf("unrelated members changed: %+v", cf2.Methods)
	}
}

func TestInternUtf8Stable(t *testing.T) {
	var cp ConstantPool
	a := cp.InternUtf8("alpha")
	b := cp.InternUtf8("beta")
	if a == 0 || b == 0 {
		t.Fatal("index 0 must stay unused")
	}
	if got := cp.InternUtf8("alpha"); got != a {
		t.Errorf("re-intern = %d, want %d", got, a)
	}
	if cp.Utf8(a) != "alpha" || cp.Utf8(b) != "beta" {
		t.Errorf("lookup mismatch: %q %q", cp.Utf8(a), cp.Utf8(b))
	}
}

func TestLongDoublePhantomSlots(t *testing.T) {
	cf := New("x/Y", "java/lang/Object")
	cf.ConstantPool.append(Constant{Tag: TagLong, Long: 1 << 40})
	cf.ConstantPool.append(Constant{})
	idx := cf.ConstantPool.append(Constant{Tag: TagUtf8, Utf8: "after"})

	data, err := cf.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := parsed.ConstantPool.Utf8(idx); got != "after" {
		t.Errorf("entry after long = %q, want %q", got, "after")
	}
	if _, ok := parsed.ConstantPool.Lookup(idx - 1); ok {
		t.Error("phantom slot after long should not resolve")
	}
}

func TestParseTrailingBytes(t *testing.T) {
	data, err := buildSample(t).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if _, err := Parse(append(data, 0x00)); err == nil {
		t.Error("trailing byte should fail the parse")
	}
}
