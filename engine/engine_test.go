package engine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/tliron/commonlog/simple"

	"weft/classfile"
	"weft/mixin"
)

func classNoop(cf *classfile.ClassFile) (*classfile.ClassFile, error) { return cf, nil }

// sampleClassBytes serializes a small class "a/b/C" with one field, a
// concrete method with code, and an abstract method.
func sampleClassBytes(t *testing.T) []byte {
	t.Helper()
	cf := classfile.New("a/b/C", "java/lang/Object")
	cf.AddField(classfile.AccPrivate, "count", "I")
	code := &classfile.CodeAttribute{
		MaxStack:  1,
		MaxLocals: 1,
		Instructions: []classfile.Instruction{
			{Opcode: classfile.OpReturn},
		},
	}
	if _, err := cf.AddMethod(classfile.AccPublic, "run", "()V", code); err != nil {
		t.Fatalf("AddMethod: %v", err)
	}
	if _, err := cf.AddMethod(classfile.AccPublic|classfile.AccAbstract, "tick", "(I)V", nil); err != nil {
		t.Fatalf("AddMethod: %v", err)
	}
	data, err := cf.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	return data
}

// Scenario 1: no mixins registered.
func TestNoMixins(t *testing.T) {
	e := newTestEngine(t, &mixin.Registry{}, nil)

	if got := e.ModifyClass("a/b/C", nil); got != nil {
		t.Errorf("probe with no mixins = %v, want nil", got)
	}
	if got := e.ModifyClass("a/b/C", sampleClassBytes(t)); got != nil {
		t.Errorf("transform with no mixins = %v, want nil", got)
	}
}

// Scenario 2: one Default class mixin.
func TestClassMixinProbeAndTransform(t *testing.T) {
	var reg mixin.Registry
	err := reg.AddClass("demo", mixin.Target{ClassName: "a/b/C"}, func(cf *classfile.ClassFile) (*classfile.ClassFile, error) {
		cf.AccessFlags |= classfile.AccFinal
		return cf, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, &reg, nil)

	probe := e.ModifyClass("a/b/C", nil)
	if probe == nil || len(probe) != 0 {
		t.Errorf("probe = %v, want non-nil empty", probe)
	}
	// Dotted names normalize to the same class.
	if got := e.ModifyClass("a.b.C", nil); got == nil {
		t.Error("probe with dotted name should hit the same target")
	}

	in := sampleClassBytes(t)
	out := e.ModifyClass("a/b/C", in)
	if out == nil {
		t.Fatal("transform returned nil, want rewritten bytes")
	}
	if bytes.Equal(in, out) {
		t.Error("transform output should differ from input")
	}
	cf, err := classfile.Parse(out)
	if err != nil {
		t.Fatalf("output unparseable: %v", err)
	}
	if cf.AccessFlags&classfile.AccFinal == 0 {
		t.Error("class mixin's flag change missing from output")
	}
}

// Scenario 3: mapped-name mixin.
func TestMappedNameProbe(t *testing.T) {
	var reg mixin.Registry
	err := reg.AddClass("demo", mixin.Target{ClassName: "net/game/Entity", NameType: mixin.NameMapped}, classNoop)
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, &reg, entityTable())

	if got := e.ModifyClass("a/b/C", nil); got == nil || len(got) != 0 {
		t.Errorf("probe of obfuscated name = %v, want non-nil empty", got)
	}
	if got := e.ModifyClass("net/game/Entity", nil); got != nil {
		t.Errorf("probe of mapped name = %v, want nil (runtime uses obfuscated names)", got)
	}
}

// Scenario 4: two method mixins; the higher priority observes the
// lower priority's output.
func TestMethodMixinPriorityChaining(t *testing.T) {
	var reg mixin.Registry
	target := mixin.Target{ClassName: "a/b/C", MethodName: "run", MethodSignature: "()V"}

	t10 := target
	t10.Priority = 10
	err := reg.AddMethod("renamer", t10, func(cf *classfile.ClassFile, m classfile.Member) (classfile.Member, error) {
		m.Name = "run_v1"
		return m, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	var observed string
	t20 := target
	t20.Priority = 20
	err = reg.AddMethod("observer", t20, func(cf *classfile.ClassFile, m classfile.Member) (classfile.Member, error) {
		observed = m.Name
		return m, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t, &reg, nil)
	out := e.ModifyClass("a/b/C", sampleClassBytes(t))
	if out == nil {
		t.Fatal("transform returned nil")
	}
	if observed != "run_v1" {
		t.Errorf("priority-20 mixin observed %q, want %q", observed, "run_v1")
	}
	cf, err := classfile.Parse(out)
	if err != nil {
		t.Fatalf("output unparseable: %v", err)
	}
	if cf.Methods[0].Name != "run_v1" {
		t.Errorf("method name in output = %q, want %q", cf.Methods[0].Name, "run_v1")
	}
}

// Scenario 5: method-code mixin on a method with no Code attribute.
func TestCodeMixinOnAbstractMethod(t *testing.T) {
	var reg mixin.Registry
	called := false
	err := reg.AddMethodCode("demo",
		mixin.Target{ClassName: "a/b/C", MethodName: "tick", MethodSignature: "(I)V"},
		func(cf *classfile.ClassFile, c *classfile.CodeAttribute) (*classfile.CodeAttribute, error) {
			called = true
			return c, nil
		})
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, &reg, nil)

	if got := e.ModifyClass("a/b/C", sampleClassBytes(t)); got != nil {
		t.Errorf("no mixin applied, want nil, got %d bytes", len(got))
	}
	if called {
		t.Error("code mixin must not run without a Code attribute")
	}
}

// Scenario 6: a throwing mixin is skipped; its sibling still applies
// to the original value.
func TestFieldMixinFailIsolation(t *testing.T) {
	var reg mixin.Registry
	target := mixin.Target{ClassName: "a/b/C", FieldName: "count", FieldDescriptor: "I"}

	t1 := target
	t1.Priority = 1
	err := reg.AddField("broken", t1, func(cf *classfile.ClassFile, f classfile.Member) (classfile.Member, error) {
		panic("mixin bug")
	})
	if err != nil {
		t.Fatal(err)
	}

	var sawFlags uint16
	t2 := target
	t2.Priority = 2
	err = reg.AddField("fixer", t2, func(cf *classfile.ClassFile, f classfile.Member) (classfile.Member, error) {
		sawFlags = f.AccessFlags
		f.AccessFlags |= classfile.AccFinal
		return f, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t, &reg, nil)
	out := e.ModifyClass("a/b/C", sampleClassBytes(t))
	if out == nil {
		t.Fatal("transform returned nil, want the surviving mixin's output")
	}
	if sawFlags != classfile.AccPrivate {
		t.Errorf("surviving mixin saw flags 0x%04X, want the original 0x%04X", sawFlags, classfile.AccPrivate)
	}
	cf, err := classfile.Parse(out)
	if err != nil {
		t.Fatalf("output unparseable: %v", err)
	}
	if cf.Fields[0].AccessFlags != classfile.AccPrivate|classfile.AccFinal {
		t.Errorf("field flags = 0x%04X", cf.Fields[0].AccessFlags)
	}
}

func TestOnlyFailingMixinsMeansNoChange(t *testing.T) {
	var reg mixin.Registry
	err := reg.AddClass("broken", mixin.Target{ClassName: "a/b/C"},
		func(cf *classfile.ClassFile) (*classfile.ClassFile, error) {
			return nil, errors.New("nope")
		})
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, &reg, nil)

	if got := e.ModifyClass("a/b/C", sampleClassBytes(t)); got != nil {
		t.Errorf("all mixins failed, want nil, got %d bytes", len(got))
	}
}

func TestCodeMixinRewritesCode(t *testing.T) {
	var reg mixin.Registry
	err := reg.AddMethodCode("grower",
		mixin.Target{ClassName: "a/b/C", MethodName: "run", MethodSignature: "()V"},
		func(cf *classfile.ClassFile, c *classfile.CodeAttribute) (*classfile.CodeAttribute, error) {
			c.MaxStack += 2
			c.Instructions = append([]classfile.Instruction{{Opcode: 0x00}}, c.Instructions...) // nop prefix
			return c, nil
		})
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, &reg, nil)

	out := e.ModifyClass("a/b/C", sampleClassBytes(t))
	if out == nil {
		t.Fatal("transform returned nil")
	}
	cf, err := classfile.Parse(out)
	if err != nil {
		t.Fatalf("output unparseable: %v", err)
	}
	att := cf.CodeAttributeOf(&cf.Methods[0])
	if att == nil {
		t.Fatal("Code attribute missing from output")
	}
	code, err := classfile.ParseCode(&cf.ConstantPool, att.Info)
	if err != nil {
		t.Fatalf("output code undecodable: %v", err)
	}
	if code.MaxStack != 3 {
		t.Errorf("MaxStack = %d, want 3", code.MaxStack)
	}
	if len(code.Instructions) != 2 || code.Instructions[0].Opcode != 0x00 {
		t.Errorf("instructions = %+v", code.Instructions)
	}
}

func TestTransformModeRejectsGarbage(t *testing.T) {
	var reg mixin.Registry
	if err := reg.AddClass("demo", mixin.Target{ClassName: "a/b/C"}, classNoop); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, &reg, nil)

	if got := e.ModifyClass("a/b/C", []byte("not a class file")); got != nil {
		t.Errorf("garbage input should yield nil, got %d bytes", len(got))
	}
}

func TestProbeCacheAndRescan(t *testing.T) {
	var reg mixin.Registry
	e := newTestEngine(t, &reg, nil)

	if got := e.ModifyClass("a/b/C", nil); got != nil {
		t.Fatalf("probe before registration = %v", got)
	}

	if err := reg.AddClass("late", mixin.Target{ClassName: "a/b/C"}, classNoop); err != nil {
		t.Fatal(err)
	}
	// The index snapshot predates the registration; nothing changes
	// until an explicit rescan.
	if got := e.ModifyClass("a/b/C", nil); got != nil {
		t.Error("probe should not see registrations made after the scan")
	}

	if err := e.Rescan(); err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if got := e.ModifyClass("a/b/C", nil); got == nil {
		t.Error("probe after rescan should see the new mixin")
	}
	if e.MixinCount() != 1 {
		t.Errorf("MixinCount = %d, want 1", e.MixinCount())
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.toml")
	src := `
[engine]
verbosity = 2
probe-cache-size = 64

[mappings]
file = "mappings.toml"
cache = "mappings.wmc"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine.Verbosity != 2 || cfg.Engine.ProbeCacheSize != 64 {
		t.Errorf("engine config = %+v", cfg.Engine)
	}
	if cfg.Mappings.File != "mappings.toml" || cfg.Mappings.Cache != "mappings.wmc" {
		t.Errorf("mappings config = %+v", cfg.Mappings)
	}
}
