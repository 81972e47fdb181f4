// Package cpool models the class-file constant pool: the shared, 1-indexed
// table of literals and cross-references every other structure in the format
// points into.
//
// Raw entries are the wire-level items (ConstantUtf8, ConstantClass, ...);
// they hold typed indices into the same pool rather than materialized values.
// Index[E] is a pool reference statically constrained to one expected entry
// kind; Get performs the tag-checked raw fetch, and the Resolve methods turn
// an index into a fully materialized, self-contained value.
package cpool

import (
	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/mutf8"
)

// Constant pool entry tags.
const (
	TagUtf8               uint8 = 1
	TagInteger            uint8 = 3
	TagFloat              uint8 = 4
	TagLong               uint8 = 5
	TagDouble             uint8 = 6
	TagClass              uint8 = 7
	TagString             uint8 = 8
	TagFieldRef           uint8 = 9
	TagMethodRef          uint8 = 10
	TagInterfaceMethodRef uint8 = 11
	TagNameAndType        uint8 = 12
	TagMethodHandle       uint8 = 15
	TagMethodType         uint8 = 16
	TagDynamic            uint8 = 17
	TagInvokeDynamic      uint8 = 18
	TagModule             uint8 = 19
	TagPackage            uint8 = 20
)

// Entry is a raw, tagged constant pool entry.
type Entry interface {
	Tag() uint8
}

// Index is a pool reference parameterized by the expected entry kind.
// Index 0 is reserved and always invalid.
type Index[E Entry] uint16

// MethodKind is the reference kind of a method handle.
type MethodKind uint8

const (
	KindGetField MethodKind = iota + 1
	KindGetStatic
	KindPutField
	KindPutStatic
	KindInvokeVirtual
	KindInvokeStatic
	KindInvokeSpecial
	KindNewInvokeSpecial
	KindInvokeInterface
)

// ConstantUtf8 is a modified UTF-8 string literal.
type ConstantUtf8 struct {
	Content mutf8.MString
}

func (ConstantUtf8) Tag() uint8 { return TagUtf8 }

// ConstantInteger is a 32-bit integer literal.
type ConstantInteger struct {
	Value int32
}

func (ConstantInteger) Tag() uint8 { return TagInteger }

// ConstantFloat is a 32-bit float literal.
type ConstantFloat struct {
	Value float32
}

func (ConstantFloat) Tag() uint8 { return TagFloat }

// ConstantLong is a 64-bit integer literal. It occupies two pool slots;
// the slot following it is unusable.
type ConstantLong struct {
	Value int64
}

func (ConstantLong) Tag() uint8 { return TagLong }

// ConstantDouble is a 64-bit float literal. It occupies two pool slots;
// the slot following it is unusable.
type ConstantDouble struct {
	Value float64
}

func (ConstantDouble) Tag() uint8 { return TagDouble }

// ConstantClass is a class or interface reference.
type ConstantClass struct {
	Name Index[ConstantUtf8]
}

func (ConstantClass) Tag() uint8 { return TagClass }

// ConstantString is a string object reference.
type ConstantString struct {
	String Index[ConstantUtf8]
}

func (ConstantString) Tag() uint8 { return TagString }

// ConstantFieldRef is a reference to a field of a class.
type ConstantFieldRef struct {
	Class       Index[ConstantClass]
	NameAndType Index[ConstantNameAndType]
}

func (ConstantFieldRef) Tag() uint8 { return TagFieldRef }

// ConstantMethodRef is a reference to a method of a class.
type ConstantMethodRef struct {
	Class       Index[ConstantClass]
	NameAndType Index[ConstantNameAndType]
}

func (ConstantMethodRef) Tag() uint8 { return TagMethodRef }

// ConstantInterfaceMethodRef is a reference to an interface method.
type ConstantInterfaceMethodRef struct {
	Class       Index[ConstantClass]
	NameAndType Index[ConstantNameAndType]
}

func (ConstantInterfaceMethodRef) Tag() uint8 { return TagInterfaceMethodRef }

// ConstantNameAndType pairs a name with a descriptor.
type ConstantNameAndType struct {
	Name       Index[ConstantUtf8]
	Descriptor Index[ConstantUtf8]
}

func (ConstantNameAndType) Tag() uint8 { return TagNameAndType }

// ConstantMethodHandle is a method handle literal. Reference is a raw pool
// index whose expected kind depends on Kind, so it stays untyped here.
type ConstantMethodHandle struct {
	Kind      MethodKind
	Reference uint16
}

func (ConstantMethodHandle) Tag() uint8 { return TagMethodHandle }

// ConstantMethodType is a method descriptor literal.
type ConstantMethodType struct {
	Descriptor Index[ConstantUtf8]
}

func (ConstantMethodType) Tag() uint8 { return TagMethodType }

// ConstantDynamic is a dynamically computed constant. BootstrapMethod is an
// index into the bootstrap method table of the enclosing class, carried
// through uninterpreted.
type ConstantDynamic struct {
	BootstrapMethod uint16
	NameAndType     Index[ConstantNameAndType]
}

func (ConstantDynamic) Tag() uint8 { return TagDynamic }

// ConstantInvokeDynamic is a dynamically computed call site. BootstrapMethod
// is an index into the bootstrap method table, carried through uninterpreted.
type ConstantInvokeDynamic struct {
	BootstrapMethod uint16
	NameAndType     Index[ConstantNameAndType]
}

func (ConstantInvokeDynamic) Tag() uint8 { return TagInvokeDynamic }

// ConstantModule is a module reference.
type ConstantModule struct {
	Name Index[ConstantUtf8]
}

func (ConstantModule) Tag() uint8 { return TagModule }

// ConstantPackage is a package reference.
type ConstantPackage struct {
	Name Index[ConstantUtf8]
}

func (ConstantPackage) Tag() uint8 { return TagPackage }

func readIndex[E Entry](d *encoding.Decoder) (Index[E], error) {
	v, err := d.ReadU16()
	return Index[E](v), err
}
