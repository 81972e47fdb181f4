package cpool

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
)

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendUtf8(b []byte, s string) []byte {
	b = append(b, TagUtf8)
	b = appendU16(b, uint16(len(s)))
	return append(b, s...)
}

// testPool builds a small but representative pool:
//
//	1: Utf8 "java/lang/Object"
//	2: Class -> 1
//	3: Utf8 "value"
//	4: Utf8 "I"
//	5: NameAndType 3:4
//	6: FieldRef 2.5
//	7: Long 0x0102030405060708 (slot 8 unusable)
//	9: Utf8 "hello"
//	10: String -> 9
//	11: MethodHandle getField 6
//	12: InvokeDynamic 0:5
func testPool() []byte {
	var b []byte
	b = appendU16(b, 13)
	b = appendUtf8(b, "java/lang/Object")
	b = append(b, TagClass)
	b = appendU16(b, 1)
	b = appendUtf8(b, "value")
	b = appendUtf8(b, "I")
	b = append(b, TagNameAndType)
	b = appendU16(b, 3)
	b = appendU16(b, 4)
	b = append(b, TagFieldRef)
	b = appendU16(b, 2)
	b = appendU16(b, 5)
	b = append(b, TagLong, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08)
	b = appendUtf8(b, "hello")
	b = append(b, TagString)
	b = appendU16(b, 9)
	b = append(b, TagMethodHandle, byte(KindGetField))
	b = appendU16(b, 6)
	b = append(b, TagInvokeDynamic)
	b = appendU16(b, 0)
	b = appendU16(b, 5)
	return b
}

func decodePool(t *testing.T) *Pool {
	t.Helper()
	d := encoding.NewDecoder(testPool(), errors.InConstantPool(0))
	p, err := Decode(&d)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return p
}

func TestDecode(t *testing.T) {
	buf := append(testPool(), 0xDE, 0xAD)
	d := encoding.NewDecoder(buf, errors.NoContext())
	p, err := Decode(&d)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := p.Slots(); got != 13 {
		t.Errorf("Slots() = %d, want 13", got)
	}
	// the decoder must stop exactly at the pool end
	if got := d.BytesRemaining(); got != 2 {
		t.Errorf("BytesRemaining() = %d, want 2", got)
	}

	long, err := Get(p, Index[ConstantLong](7))
	if err != nil {
		t.Fatalf("Get(long) error = %v", err)
	}
	if long.Value != 0x0102030405060708 {
		t.Errorf("long value = %#x, want 0x0102030405060708", long.Value)
	}
}

func TestGetAnyInvalidIndex(t *testing.T) {
	p := decodePool(t)

	for _, index := range []uint16{0, 8, 13, 500} {
		if _, err := p.GetAny(index); !errors.IsDecodeKind(err, errors.DecodeInvalidIndex) {
			t.Errorf("GetAny(%d) error = %v, want invalid index", index, err)
		}
	}
}

func TestGetTagMismatch(t *testing.T) {
	p := decodePool(t)

	_, err := Get(p, Index[ConstantClass](1))
	if !errors.IsDecodeKind(err, errors.DecodeTagMismatch) {
		t.Fatalf("Get() error = %v, want tag mismatch", err)
	}
}

func TestRetrieve(t *testing.T) {
	p := decodePool(t)

	s, err := p.Retrieve(Index[ConstantUtf8](9))
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if s.String() != "hello" {
		t.Errorf("Retrieve() = %q, want %q", s.String(), "hello")
	}
}

func TestResolveFieldRef(t *testing.T) {
	p := decodePool(t)

	ref, err := p.ResolveFieldRef(Index[ConstantFieldRef](6))
	if err != nil {
		t.Fatalf("ResolveFieldRef() error = %v", err)
	}
	if got := ref.Class.Name.String(); got != "java/lang/Object" {
		t.Errorf("class name = %q, want %q", got, "java/lang/Object")
	}
	if got := ref.NameAndType.Name.String(); got != "value" {
		t.Errorf("member name = %q, want %q", got, "value")
	}
	if got := ref.NameAndType.Descriptor.String(); got != "I" {
		t.Errorf("descriptor = %q, want %q", got, "I")
	}

	// resolution reads the pool without mutating it
	again, err := p.ResolveFieldRef(Index[ConstantFieldRef](6))
	if err != nil {
		t.Fatalf("second ResolveFieldRef() error = %v", err)
	}
	if again.Class.Name.String() != ref.Class.Name.String() {
		t.Errorf("second resolution differs: %q vs %q", again.Class.Name, ref.Class.Name)
	}
}

func TestResolveString(t *testing.T) {
	p := decodePool(t)

	s, err := p.ResolveString(Index[ConstantString](10))
	if err != nil {
		t.Fatalf("ResolveString() error = %v", err)
	}
	if s.Value.String() != "hello" {
		t.Errorf("value = %q, want %q", s.Value.String(), "hello")
	}
}

func TestResolveMethodHandle(t *testing.T) {
	p := decodePool(t)

	h, err := p.ResolveMethodHandle(Index[ConstantMethodHandle](11))
	if err != nil {
		t.Fatalf("ResolveMethodHandle() error = %v", err)
	}
	if h.Kind != KindGetField {
		t.Errorf("kind = %d, want %d", h.Kind, KindGetField)
	}
	if _, ok := h.Reference.(ConstantFieldRef); !ok {
		t.Errorf("reference = %T, want ConstantFieldRef", h.Reference)
	}
}

func TestResolveInvokeDynamic(t *testing.T) {
	p := decodePool(t)

	d, err := p.ResolveInvokeDynamic(Index[ConstantInvokeDynamic](12))
	if err != nil {
		t.Fatalf("ResolveInvokeDynamic() error = %v", err)
	}
	if d.BootstrapMethod != 0 {
		t.Errorf("bootstrap method = %d, want 0", d.BootstrapMethod)
	}
	if d.NameAndType.Name.String() != "value" {
		t.Errorf("name = %q, want %q", d.NameAndType.Name, "value")
	}
}

func TestResolveDanglingIndex(t *testing.T) {
	// Class whose name index points past the pool.
	var b []byte
	b = appendU16(b, 2)
	b = append(b, TagClass)
	b = appendU16(b, 99)
	d := encoding.NewDecoder(b, errors.NoContext())
	p, err := Decode(&d)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	_, err = p.ResolveClass(Index[ConstantClass](1))
	if !errors.IsDecodeKind(err, errors.DecodeInvalidIndex) {
		t.Fatalf("ResolveClass() error = %v, want invalid index", err)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	var b []byte
	b = appendU16(b, 2)
	b = append(b, 2) // tag 2 is unassigned

	d := encoding.NewDecoder(b, errors.NoContext())
	_, err := Decode(&d)
	if !errors.IsDecodeKind(err, errors.DecodeInvalidTag) {
		t.Fatalf("Decode() error = %v, want invalid tag", err)
	}
}

func TestDecodeInvalidUtf8(t *testing.T) {
	var b []byte
	b = appendU16(b, 2)
	b = append(b, TagUtf8)
	b = appendU16(b, 1)
	b = append(b, 0x00) // raw NUL is not valid in the modified encoding

	d := encoding.NewDecoder(b, errors.NoContext())
	_, err := Decode(&d)
	if !errors.IsDecodeKind(err, errors.DecodeInvalidMutf8) {
		t.Fatalf("Decode() error = %v, want invalid string", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	full := testPool()
	d := encoding.NewDecoder(full[:len(full)-1], errors.NoContext())
	_, err := Decode(&d)
	if !errors.IsDecodeKind(err, errors.DecodeUnexpectedEOI) {
		t.Fatalf("Decode() error = %v, want unexpected end of input", err)
	}
	var derr *errors.DecodeError
	if !stderrors.As(err, &derr) {
		t.Fatalf("Decode() error type = %T", err)
	}
	if derr.Context.Kind != errors.ContextConstantPool {
		t.Errorf("context = %v, want constant pool", derr.Context.Kind)
	}
}
