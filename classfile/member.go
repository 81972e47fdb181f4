package classfile

import (
	"github.com/wippyai/jclass/cpool"
	"github.com/wippyai/jclass/encoding"
)

// Field is one entry of the field table.
type Field struct {
	AccessFlags AccessFlags
	Name        cpool.Index[cpool.ConstantUtf8]
	Descriptor  cpool.Index[cpool.ConstantUtf8]

	attributes *encoding.CountedCopy[Attribute]
}

// Attributes returns the field's attribute table.
func (f Field) Attributes() *encoding.CountedCopy[Attribute] {
	return f.attributes
}

// Method is one entry of the method table. It has the same wire shape as
// Field but stays a distinct type.
type Method struct {
	AccessFlags AccessFlags
	Name        cpool.Index[cpool.ConstantUtf8]
	Descriptor  cpool.Index[cpool.ConstantUtf8]

	attributes *encoding.CountedCopy[Attribute]
}

// Attributes returns the method's attribute table.
func (m Method) Attributes() *encoding.CountedCopy[Attribute] {
	return m.attributes
}

func decodeField(d *encoding.Decoder) (Field, error) {
	flags, name, desc, attrs, err := decodeMember(d)
	if err != nil {
		return Field{}, err
	}
	return Field{AccessFlags: flags, Name: name, Descriptor: desc, attributes: attrs}, nil
}

func decodeMethod(d *encoding.Decoder) (Method, error) {
	flags, name, desc, attrs, err := decodeMember(d)
	if err != nil {
		return Method{}, err
	}
	return Method{AccessFlags: flags, Name: name, Descriptor: desc, attributes: attrs}, nil
}

func decodeMember(d *encoding.Decoder) (AccessFlags, cpool.Index[cpool.ConstantUtf8], cpool.Index[cpool.ConstantUtf8], *encoding.CountedCopy[Attribute], error) {
	flags, err := d.ReadU16()
	if err != nil {
		return 0, 0, 0, nil, err
	}
	name, err := d.ReadU16()
	if err != nil {
		return 0, 0, 0, nil, err
	}
	desc, err := d.ReadU16()
	if err != nil {
		return 0, 0, 0, nil, err
	}
	attrs, err := encoding.ReadCountedU16(d, decodeAttribute)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	return AccessFlags(flags),
		cpool.Index[cpool.ConstantUtf8](name),
		cpool.Index[cpool.ConstantUtf8](desc),
		attrs, nil
}
