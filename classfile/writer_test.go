package classfile

import (
	"bytes"
	"testing"

	"github.com/wippyai/jclass/cpool"
	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
)

func TestWriterDeterministic(t *testing.T) {
	a := buildTestClass(t)
	b := buildTestClass(t)
	if !bytes.Equal(a, b) {
		t.Error("identical writer call sequences produced different bytes")
	}
}

func TestWriterEmptyClassRoundTrip(t *testing.T) {
	w := NewWriter()
	this, err := w.InsertClass("Empty")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	if err := w.SetThisClass(this); err != nil {
		t.Fatalf("SetThisClass() error = %v", err)
	}
	buf, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	class, err := NewClass(buf)
	if err != nil {
		t.Fatalf("NewClass() error = %v", err)
	}
	ifaces, err := class.Interfaces()
	if err != nil {
		t.Fatalf("Interfaces() error = %v", err)
	}
	fields, err := class.Fields()
	if err != nil {
		t.Fatalf("Fields() error = %v", err)
	}
	methods, err := class.Methods()
	if err != nil {
		t.Fatalf("Methods() error = %v", err)
	}
	attrs, err := class.Attributes()
	if err != nil {
		t.Fatalf("Attributes() error = %v", err)
	}
	if ifaces.Count() != 0 || fields.Count() != 0 || methods.Count() != 0 || attrs.Count() != 0 {
		t.Errorf("counts = %d/%d/%d/%d, want all zero",
			ifaces.Count(), fields.Count(), methods.Count(), attrs.Count())
	}

	super, err := class.SuperClass()
	if err != nil {
		t.Fatalf("SuperClass() error = %v", err)
	}
	if super != 0 {
		t.Errorf("SuperClass() = %d, want 0", super)
	}
	name, err := class.SuperClassName()
	if err != nil {
		t.Fatalf("SuperClassName() error = %v", err)
	}
	if name != nil {
		t.Errorf("SuperClassName() = %q, want none", name.String())
	}
}

func TestWriterStringConstantRoundTrip(t *testing.T) {
	const content = "plain ascii payload"

	w := NewWriter()
	this, err := w.InsertClass("Strings")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	str, err := w.InsertString(content)
	if err != nil {
		t.Fatalf("InsertString() error = %v", err)
	}
	if err := w.SetThisClass(this); err != nil {
		t.Fatalf("SetThisClass() error = %v", err)
	}
	buf, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	class, err := NewClass(buf)
	if err != nil {
		t.Fatalf("NewClass() error = %v", err)
	}
	pool, err := class.Pool()
	if err != nil {
		t.Fatalf("Pool() error = %v", err)
	}
	v, err := pool.ResolveString(str)
	if err != nil {
		t.Fatalf("ResolveString() error = %v", err)
	}
	if v.Value.String() != content {
		t.Errorf("string constant = %q, want %q", v.Value.String(), content)
	}
	if !bytes.Equal(v.Value.Bytes(), []byte(content)) {
		t.Errorf("string bytes = %#v, want %#v", v.Value.Bytes(), []byte(content))
	}
}

func TestWriterPoolDedup(t *testing.T) {
	w := NewWriter()
	a, err := w.InsertClass("Same")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	b, err := w.InsertClass("Same")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	if a != b {
		t.Errorf("duplicate class entries got indices %d and %d", a, b)
	}

	// a field ref shares the class and name/type sub-entries
	r1, err := w.InsertFieldRef("Same", "x", "I")
	if err != nil {
		t.Fatalf("InsertFieldRef() error = %v", err)
	}
	r2, err := w.InsertFieldRef("Same", "x", "I")
	if err != nil {
		t.Fatalf("InsertFieldRef() error = %v", err)
	}
	if r1 != r2 {
		t.Errorf("duplicate field refs got indices %d and %d", r1, r2)
	}
}

func TestWriterWideConstantsTakeTwoSlots(t *testing.T) {
	w := NewWriter()
	l, err := w.InsertLong(1)
	if err != nil {
		t.Fatalf("InsertLong() error = %v", err)
	}
	next, err := w.InsertInteger(2)
	if err != nil {
		t.Fatalf("InsertInteger() error = %v", err)
	}
	if uint16(next) != uint16(l)+2 {
		t.Errorf("index after long = %d, want %d", next, uint16(l)+2)
	}

	this, err := w.InsertClass("Wide")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	if err := w.SetThisClass(this); err != nil {
		t.Fatalf("SetThisClass() error = %v", err)
	}
	buf, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	class, err := NewClass(buf)
	if err != nil {
		t.Fatalf("NewClass() error = %v", err)
	}
	pool, err := class.Pool()
	if err != nil {
		t.Fatalf("Pool() error = %v", err)
	}
	value, err := pool.ResolveLong(l)
	if err != nil {
		t.Fatalf("ResolveLong() error = %v", err)
	}
	if value != 1 {
		t.Errorf("long = %d, want 1", value)
	}
	if _, err := pool.GetAny(uint16(l) + 1); !errors.IsDecodeKind(err, errors.DecodeInvalidIndex) {
		t.Errorf("slot after long: error = %v, want invalid index", err)
	}
}

func TestWriterMissingThisClass(t *testing.T) {
	w := NewWriter()
	if err := w.SetAccessFlags(AccPublic); err != nil {
		t.Fatalf("SetAccessFlags() error = %v", err)
	}
	_, err := w.Finish()
	if !errors.IsEncodeKind(err, errors.EncodeValuesMissing) {
		t.Fatalf("Finish() error = %v, want missing values", err)
	}
}

func TestWriterOutOfOrderSection(t *testing.T) {
	w := NewWriter()
	this, err := w.InsertClass("Order")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	if err := w.SetThisClass(this); err != nil {
		t.Fatalf("SetThisClass() error = %v", err)
	}
	if err := w.SetAccessFlags(AccPublic); !errors.IsEncodeKind(err, errors.EncodeIncorrectState) {
		t.Fatalf("SetAccessFlags() after this-class: error = %v, want incorrect state", err)
	}
}

func TestWriterMemberStateMachine(t *testing.T) {
	w := NewWriter()
	this, err := w.InsertClass("Members")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	name, err := w.InsertUtf8("x")
	if err != nil {
		t.Fatalf("InsertUtf8() error = %v", err)
	}
	if err := w.SetThisClass(this); err != nil {
		t.Fatalf("SetThisClass() error = %v", err)
	}

	// descriptor before name
	err = w.AddField(func(fw *FieldWriter) error {
		if err := fw.SetAccessFlags(AccPublic); err != nil {
			return err
		}
		return fw.SetDescriptor(name)
	})
	if !errors.IsEncodeKind(err, errors.EncodeIncorrectState) {
		t.Fatalf("AddField() error = %v, want incorrect state", err)
	}

	// the failed item poisons the field table
	err = w.AddField(func(fw *FieldWriter) error { return nil })
	if !errors.IsEncodeKind(err, errors.EncodeErroredBefore) {
		t.Fatalf("AddField() after failure: error = %v, want errored before", err)
	}
}

func TestWriterIncompleteMember(t *testing.T) {
	w := NewWriter()
	this, err := w.InsertClass("Members")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	if err := w.SetThisClass(this); err != nil {
		t.Fatalf("SetThisClass() error = %v", err)
	}

	err = w.AddField(func(fw *FieldWriter) error {
		return fw.SetAccessFlags(AccPublic)
	})
	if !errors.IsEncodeKind(err, errors.EncodeValuesMissing) {
		t.Fatalf("AddField() error = %v, want missing values", err)
	}
}

func TestWriterAttributeSingleContent(t *testing.T) {
	w := NewWriter()
	this, err := w.InsertClass("Attrs")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	file, err := w.InsertUtf8("Attrs.java")
	if err != nil {
		t.Fatalf("InsertUtf8() error = %v", err)
	}
	if err := w.SetThisClass(this); err != nil {
		t.Fatalf("SetThisClass() error = %v", err)
	}

	err = w.AddAttribute(func(aw *AttributeWriter) error {
		if err := aw.SourceFile(file); err != nil {
			return err
		}
		return aw.Deprecated()
	})
	if !errors.IsEncodeKind(err, errors.EncodeIncorrectState) {
		t.Fatalf("AddAttribute() error = %v, want incorrect state", err)
	}
}

func TestWriterPoolInsertDuringBody(t *testing.T) {
	// Inserting pool entries while later sections are open must leave the
	// already written body intact: structured attributes insert their own
	// names mid-write.
	w := NewWriter()
	this, err := w.InsertClass("Late")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	if err := w.SetAccessFlags(AccPublic); err != nil {
		t.Fatalf("SetAccessFlags() error = %v", err)
	}
	if err := w.SetThisClass(this); err != nil {
		t.Fatalf("SetThisClass() error = %v", err)
	}
	err = w.AddAttribute(func(aw *AttributeWriter) error {
		return aw.Deprecated() // inserts "Deprecated" into the pool
	})
	if err != nil {
		t.Fatalf("AddAttribute() error = %v", err)
	}
	buf, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	class, err := NewClass(buf)
	if err != nil {
		t.Fatalf("NewClass() error = %v", err)
	}
	pool, err := class.Pool()
	if err != nil {
		t.Fatalf("Pool() error = %v", err)
	}
	attrs, err := class.Attributes()
	if err != nil {
		t.Fatalf("Attributes() error = %v", err)
	}
	it := attrs.Iter()
	if !it.Next() {
		t.Fatalf("attribute iterator yielded nothing: %v", it.Err())
	}
	attr := it.Value()
	content, err := attr.ReadContent(pool)
	if err != nil {
		t.Fatalf("ReadContent() error = %v", err)
	}
	if _, ok := content.(Deprecated); !ok {
		t.Errorf("content = %T, want Deprecated", content)
	}

	flags, err := class.AccessFlags()
	if err != nil {
		t.Fatalf("AccessFlags() error = %v", err)
	}
	if !flags.Has(AccPublic) {
		t.Errorf("flags = %#x, want public preserved across pool growth", flags)
	}
}

func TestWriterFinishTwice(t *testing.T) {
	w := NewWriter()
	this, err := w.InsertClass("Once")
	if err != nil {
		t.Fatalf("InsertClass() error = %v", err)
	}
	if err := w.SetThisClass(this); err != nil {
		t.Fatalf("SetThisClass() error = %v", err)
	}
	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if _, err := w.Finish(); !errors.IsEncodeKind(err, errors.EncodeIncorrectState) {
		t.Fatalf("second Finish() error = %v, want incorrect state", err)
	}
	if _, err := w.InsertUtf8("late"); !errors.IsEncodeKind(err, errors.EncodeCantChangeAnymore) {
		t.Fatalf("insert after Finish: error = %v, want cannot change anymore", err)
	}
}

// reencodeClass re-drives a fresh Writer from a decoded class: the pool is
// replayed in slot order, then every section is copied from the decoded
// values, with attributes carried over byte for byte.
func reencodeClass(t *testing.T, buf []byte) []byte {
	t.Helper()
	class, err := NewClass(buf)
	if err != nil {
		t.Fatalf("NewClass() error = %v", err)
	}
	pool, err := class.Pool()
	if err != nil {
		t.Fatalf("Pool() error = %v", err)
	}

	w := NewWriter()
	if err := w.SetVersion(class.Version()); err != nil {
		t.Fatalf("SetVersion() error = %v", err)
	}
	for i := 1; i < pool.Slots(); i++ {
		entry, err := pool.GetAny(uint16(i))
		if err != nil {
			continue // second slot of a wide entry
		}
		switch e := entry.(type) {
		case cpool.ConstantUtf8:
			_, err = w.InsertUtf8(e.Content.String())
		case cpool.ConstantClass:
			name, rerr := pool.Retrieve(e.Name)
			if rerr != nil {
				t.Fatalf("Retrieve() error = %v", rerr)
			}
			_, err = w.InsertClass(name.String())
		case cpool.ConstantInteger:
			_, err = w.InsertInteger(e.Value)
		default:
			t.Fatalf("pool slot %d: no replay for %T", i, entry)
		}
		if err != nil {
			t.Fatalf("pool slot %d: insert error = %v", i, err)
		}
	}

	flags, err := class.AccessFlags()
	if err != nil {
		t.Fatalf("AccessFlags() error = %v", err)
	}
	if err := w.SetAccessFlags(flags); err != nil {
		t.Fatalf("SetAccessFlags() error = %v", err)
	}
	this, err := class.ThisClass()
	if err != nil {
		t.Fatalf("ThisClass() error = %v", err)
	}
	if err := w.SetThisClass(this); err != nil {
		t.Fatalf("SetThisClass() error = %v", err)
	}
	super, err := class.SuperClass()
	if err != nil {
		t.Fatalf("SuperClass() error = %v", err)
	}
	if err := w.SetSuperClass(super); err != nil {
		t.Fatalf("SetSuperClass() error = %v", err)
	}

	ifaces, err := class.Interfaces()
	if err != nil {
		t.Fatalf("Interfaces() error = %v", err)
	}
	it := ifaces.Iter()
	for it.Next() {
		if err := w.AddInterface(it.Value()); err != nil {
			t.Fatalf("AddInterface() error = %v", err)
		}
	}
	if err := it.Err(); err != nil {
		t.Fatalf("interface iterator error = %v", err)
	}

	copyAttrs := func(attrs *encoding.CountedCopy[Attribute], add func(func(*AttributeWriter) error) error) {
		it := attrs.Iter()
		for it.Next() {
			attr := it.Value()
			err := add(func(aw *AttributeWriter) error {
				return aw.Raw(attr.Name, attr.Content())
			})
			if err != nil {
				t.Fatalf("attribute copy error = %v", err)
			}
		}
		if err := it.Err(); err != nil {
			t.Fatalf("attribute iterator error = %v", err)
		}
	}

	fields, err := class.Fields()
	if err != nil {
		t.Fatalf("Fields() error = %v", err)
	}
	fit := fields.Iter()
	for fit.Next() {
		field := fit.Value()
		err := w.AddField(func(fw *FieldWriter) error {
			if err := fw.SetAccessFlags(field.AccessFlags); err != nil {
				return err
			}
			if err := fw.SetName(field.Name); err != nil {
				return err
			}
			if err := fw.SetDescriptor(field.Descriptor); err != nil {
				return err
			}
			copyAttrs(field.Attributes(), fw.AddAttribute)
			return nil
		})
		if err != nil {
			t.Fatalf("AddField() error = %v", err)
		}
	}
	if err := fit.Err(); err != nil {
		t.Fatalf("field iterator error = %v", err)
	}

	methods, err := class.Methods()
	if err != nil {
		t.Fatalf("Methods() error = %v", err)
	}
	mit := methods.Iter()
	for mit.Next() {
		method := mit.Value()
		err := w.AddMethod(func(mw *MethodWriter) error {
			if err := mw.SetAccessFlags(method.AccessFlags); err != nil {
				return err
			}
			if err := mw.SetName(method.Name); err != nil {
				return err
			}
			if err := mw.SetDescriptor(method.Descriptor); err != nil {
				return err
			}
			copyAttrs(method.Attributes(), mw.AddAttribute)
			return nil
		})
		if err != nil {
			t.Fatalf("AddMethod() error = %v", err)
		}
	}
	if err := mit.Err(); err != nil {
		t.Fatalf("method iterator error = %v", err)
	}

	attrs, err := class.Attributes()
	if err != nil {
		t.Fatalf("Attributes() error = %v", err)
	}
	copyAttrs(attrs, w.AddAttribute)

	out, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return out
}

func TestWriterReencodeIsIdentity(t *testing.T) {
	buf := buildTestClass(t)
	out := reencodeClass(t, buf)
	if !bytes.Equal(out, buf) {
		t.Fatalf("re-encoded class differs from input:\n in: %x\nout: %x", buf, out)
	}
}
