package classfile

import (
	"math"

	"github.com/wippyai/jclass/cpool"
	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
)

// AttributeWriter writes one attribute table entry. Exactly one content
// method must be called per attribute; the structured methods insert the
// attribute's name into the constant pool themselves, while Raw takes a
// caller-provided name and pre-encoded body.
type AttributeWriter struct {
	w   *Writer
	out encoding.Encoder

	done bool
}

func (a *AttributeWriter) start() error {
	if a.done {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InAttributes())
	}
	return nil
}

// Raw writes a fully pre-encoded attribute body under the given name.
func (a *AttributeWriter) Raw(name cpool.Index[cpool.ConstantUtf8], content []byte) error {
	if err := a.start(); err != nil {
		return err
	}
	if uint64(len(content)) > math.MaxUint32 {
		return errors.EncodeErrorIn(errors.EncodeTooManyBytes, errors.InAttributes())
	}
	if err := encoding.WriteU16(a.out, uint16(name)); err != nil {
		return err
	}
	if err := encoding.WriteU32(a.out, uint32(len(content))); err != nil {
		return err
	}
	if err := a.out.WriteBytes(content); err != nil {
		return err
	}
	a.done = true
	return nil
}

// ConstantValue writes a constant field value attribute. value is the pool
// index of the constant; its entry kind must match the field's descriptor.
func (a *AttributeWriter) ConstantValue(value uint16) error {
	if err := a.begin("ConstantValue", 2); err != nil {
		return err
	}
	if err := encoding.WriteU16(a.out, value); err != nil {
		return err
	}
	a.done = true
	return nil
}

// SourceFile writes a source file attribute.
func (a *AttributeWriter) SourceFile(file cpool.Index[cpool.ConstantUtf8]) error {
	if err := a.begin("SourceFile", 2); err != nil {
		return err
	}
	if err := encoding.WriteU16(a.out, uint16(file)); err != nil {
		return err
	}
	a.done = true
	return nil
}

// Deprecated writes an empty deprecation marker attribute.
func (a *AttributeWriter) Deprecated() error {
	if err := a.begin("Deprecated", 0); err != nil {
		return err
	}
	a.done = true
	return nil
}

// Synthetic writes an empty compiler-generated marker attribute.
func (a *AttributeWriter) Synthetic() error {
	if err := a.begin("Synthetic", 0); err != nil {
		return err
	}
	a.done = true
	return nil
}

// Code writes a method body attribute through build.
func (a *AttributeWriter) Code(build func(*CodeWriter) error) error {
	if err := a.start(); err != nil {
		return err
	}
	name, err := a.w.InsertUtf8("Code")
	if err != nil {
		return err
	}
	if err := encoding.WriteU16(a.out, uint16(name)); err != nil {
		return err
	}

	body, err := newLengthWriter(a.w, a.out)
	if err != nil {
		return err
	}
	cw := &CodeWriter{w: a.w, out: body}
	if err := build(cw); err != nil {
		return err
	}
	if err := cw.finish(); err != nil {
		return err
	}
	if err := body.Finish(); err != nil {
		return err
	}
	a.done = true
	return nil
}

// begin inserts the attribute name and writes the header of a fixed-length
// body.
func (a *AttributeWriter) begin(name string, length uint32) error {
	if err := a.start(); err != nil {
		return err
	}
	nameIndex, err := a.w.InsertUtf8(name)
	if err != nil {
		return err
	}
	if err := encoding.WriteU16(a.out, uint16(nameIndex)); err != nil {
		return err
	}
	return encoding.WriteU32(a.out, length)
}

func (a *AttributeWriter) finish() error {
	if !a.done {
		return errors.EncodeErrorIn(errors.EncodeValuesMissing, errors.InAttributes())
	}
	return nil
}
