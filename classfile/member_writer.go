package classfile

import (
	"github.com/wippyai/jclass/cpool"
	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
)

type memberState uint8

const (
	memberStart memberState = iota
	memberFlags
	memberName
	memberDescriptor
	memberAttributes
)

// memberWriter is the shared core of FieldWriter and MethodWriter: access
// flags, name, and descriptor in order, then an optional attribute table.
type memberWriter struct {
	w   *Writer
	out encoding.Encoder
	ctx errors.Context

	state memberState
	attrs *CountedWriter[*AttributeWriter]
}

func (m *memberWriter) setAccessFlags(f AccessFlags) error {
	if m.state != memberStart {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, m.ctx)
	}
	if err := encoding.WriteU16(m.out, uint16(f)); err != nil {
		return err
	}
	m.state = memberFlags
	return nil
}

func (m *memberWriter) setName(i cpool.Index[cpool.ConstantUtf8]) error {
	if m.state != memberFlags {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, m.ctx)
	}
	if err := encoding.WriteU16(m.out, uint16(i)); err != nil {
		return err
	}
	m.state = memberName
	return nil
}

func (m *memberWriter) setDescriptor(i cpool.Index[cpool.ConstantUtf8]) error {
	if m.state != memberName {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, m.ctx)
	}
	if err := encoding.WriteU16(m.out, uint16(i)); err != nil {
		return err
	}
	m.state = memberDescriptor
	return nil
}

func (m *memberWriter) addAttribute(build func(*AttributeWriter) error) error {
	if m.attrs == nil {
		if m.state != memberDescriptor {
			return errors.EncodeErrorIn(errors.EncodeIncorrectState, m.ctx)
		}
		c, err := newCountedWriter(m.w, m.out, m.ctx, true,
			func() *AttributeWriter { return &AttributeWriter{w: m.w, out: m.out} },
			func(aw *AttributeWriter) error { return aw.finish() })
		if err != nil {
			return err
		}
		m.attrs = c
		m.state = memberAttributes
	}
	return m.attrs.Write(build)
}

// finish verifies the required fields were written and emits a zero
// attribute count when no attribute was added.
func (m *memberWriter) finish() error {
	switch m.state {
	case memberDescriptor:
		return encoding.WriteU16(m.out, 0)
	case memberAttributes:
		return nil
	default:
		return errors.EncodeErrorIn(errors.EncodeValuesMissing, m.ctx)
	}
}

// FieldWriter writes one field table entry: access flags, name, descriptor,
// then any attributes, strictly in that order.
type FieldWriter struct {
	memberWriter
}

// SetAccessFlags writes the field access flags.
func (f *FieldWriter) SetAccessFlags(flags AccessFlags) error { return f.setAccessFlags(flags) }

// SetName writes the field name reference.
func (f *FieldWriter) SetName(i cpool.Index[cpool.ConstantUtf8]) error { return f.setName(i) }

// SetDescriptor writes the field descriptor reference.
func (f *FieldWriter) SetDescriptor(i cpool.Index[cpool.ConstantUtf8]) error {
	return f.setDescriptor(i)
}

// AddAttribute writes one field attribute through build.
func (f *FieldWriter) AddAttribute(build func(*AttributeWriter) error) error {
	return f.addAttribute(build)
}

// MethodWriter writes one method table entry. Same wire shape as a field,
// kept a distinct type.
type MethodWriter struct {
	memberWriter
}

// SetAccessFlags writes the method access flags.
func (m *MethodWriter) SetAccessFlags(flags AccessFlags) error { return m.setAccessFlags(flags) }

// SetName writes the method name reference.
func (m *MethodWriter) SetName(i cpool.Index[cpool.ConstantUtf8]) error { return m.setName(i) }

// SetDescriptor writes the method descriptor reference.
func (m *MethodWriter) SetDescriptor(i cpool.Index[cpool.ConstantUtf8]) error {
	return m.setDescriptor(i)
}

// AddAttribute writes one method attribute through build.
func (m *MethodWriter) AddAttribute(build func(*AttributeWriter) error) error {
	return m.addAttribute(build)
}
