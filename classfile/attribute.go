package classfile

import (
	"github.com/wippyai/jclass/cpool"
	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
	"github.com/wippyai/jclass/mutf8"
)

// Attribute is one entry of an attribute table: a pool reference naming it
// and the raw content region. The content is parsed only on demand; the raw
// bytes stay accessible whether or not parsing succeeds.
type Attribute struct {
	Name cpool.Index[cpool.ConstantUtf8]

	content encoding.Decoder
	parsed  encoding.Lazy[Content]
}

// Content returns the attribute's raw content bytes.
func (a *Attribute) Content() []byte {
	return a.content.Buf()
}

// ReadContent parses the attribute content, dispatching on the attribute's
// name. The result, success or failure, is cached; repeated calls replay it.
// Attributes with names outside the supported set fail with an unknown
// attribute name error.
func (a *Attribute) ReadContent(pool *cpool.Pool) (Content, error) {
	d := a.content
	return a.parsed.Get(&d, func(d *encoding.Decoder) (Content, error) {
		return a.decodeContent(pool, d)
	})
}

func (a *Attribute) decodeContent(pool *cpool.Pool, d *encoding.Decoder) (Content, error) {
	name, err := pool.Retrieve(a.Name)
	if err != nil {
		return nil, err
	}

	switch name.String() {
	case "Code":
		return decodeCode(d)
	case "ConstantValue":
		v, err := d.ReadU16()
		if err != nil {
			return nil, err
		}
		return ConstantValue{Value: v}, nil
	case "SourceFile":
		v, err := d.ReadU16()
		if err != nil {
			return nil, err
		}
		return SourceFile{File: cpool.Index[cpool.ConstantUtf8](v)}, nil
	case "SourceDebugExtension":
		s, err := mutf8.Decode(a.Content())
		if err != nil {
			return nil, err
		}
		return SourceDebugExtension{Content: s}, nil
	case "Deprecated":
		return Deprecated{}, nil
	case "Synthetic":
		return Synthetic{}, nil
	default:
		debugf("attribute %q has no structured decoder", name.String())
		return nil, errors.DecodeErrorIn(errors.DecodeUnknownAttributeName, errors.InAttributeContent())
	}
}

// Content is a parsed attribute body.
type Content interface {
	isAttributeContent()
}

// ConstantValue is the initial value of a constant field. Value is a raw pool
// index; the entry kind depends on the field's descriptor, so it stays
// untyped here.
type ConstantValue struct {
	Value uint16
}

// SourceFile names the source file the class was compiled from.
type SourceFile struct {
	File cpool.Index[cpool.ConstantUtf8]
}

// SourceDebugExtension carries arbitrary debugging information.
type SourceDebugExtension struct {
	Content mutf8.MString
}

// Deprecated marks its carrier as superseded.
type Deprecated struct{}

// Synthetic marks its carrier as compiler-generated.
type Synthetic struct{}

func (Code) isAttributeContent()                 {}
func (ConstantValue) isAttributeContent()        {}
func (SourceFile) isAttributeContent()           {}
func (SourceDebugExtension) isAttributeContent() {}
func (Deprecated) isAttributeContent()           {}
func (Synthetic) isAttributeContent()            {}

// Code is a method body: operand stack and local limits, the raw instruction
// stream, the exception handler table, and nested attributes.
type Code struct {
	MaxStack  uint16
	MaxLocals uint16

	code       []byte
	handlers   *encoding.CountedCopy[ExceptionHandler]
	attributes *encoding.CountedCopy[Attribute]
}

// RawCode returns the undecoded instruction stream bytes.
func (c Code) RawCode() []byte {
	return c.code
}

// RawInstructions returns a fresh iterator over the instruction stream.
func (c Code) RawInstructions() *RawInstructions {
	return newRawInstructions(c.code)
}

// ExceptionHandlers returns the exception handler table.
func (c Code) ExceptionHandlers() *encoding.CountedCopy[ExceptionHandler] {
	return c.handlers
}

// Attributes returns the code attribute's nested attribute table.
func (c Code) Attributes() *encoding.CountedCopy[Attribute] {
	return c.attributes
}

// ExceptionHandler covers the code range [Start, End) and routes exceptions
// of CatchType to Handler. A zero CatchType catches everything.
type ExceptionHandler struct {
	Start     uint16
	End       uint16
	Handler   uint16
	CatchType cpool.Index[cpool.ConstantClass]
}

func decodeAttribute(d *encoding.Decoder) (Attribute, error) {
	name, err := d.ReadU16()
	if err != nil {
		return Attribute{}, err
	}
	length, err := d.ReadU32()
	if err != nil {
		return Attribute{}, err
	}
	content, err := d.Limit(int(length), errors.InAttributeContent())
	if err != nil {
		return Attribute{}, err
	}
	if err := d.Advance(int(length)); err != nil {
		return Attribute{}, err
	}
	return Attribute{
		Name:    cpool.Index[cpool.ConstantUtf8](name),
		content: content,
	}, nil
}

func decodeCode(d *encoding.Decoder) (Content, error) {
	sub := d.WithContext(errors.InCode())

	maxStack, err := sub.ReadU16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := sub.ReadU16()
	if err != nil {
		return nil, err
	}
	codeLen, err := sub.ReadU32()
	if err != nil {
		return nil, err
	}
	code, err := sub.ReadBytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	handlers, err := encoding.ReadCountedU16(&sub, decodeExceptionHandler)
	if err != nil {
		return nil, err
	}
	attrs, err := encoding.ReadCountedU16(&sub, decodeAttribute)
	if err != nil {
		return nil, err
	}
	return Code{
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
		code:       code,
		handlers:   handlers,
		attributes: attrs,
	}, nil
}

func decodeExceptionHandler(d *encoding.Decoder) (ExceptionHandler, error) {
	start, err := d.ReadU16()
	if err != nil {
		return ExceptionHandler{}, err
	}
	end, err := d.ReadU16()
	if err != nil {
		return ExceptionHandler{}, err
	}
	handler, err := d.ReadU16()
	if err != nil {
		return ExceptionHandler{}, err
	}
	catch, err := d.ReadU16()
	if err != nil {
		return ExceptionHandler{}, err
	}
	return ExceptionHandler{
		Start:     start,
		End:       end,
		Handler:   handler,
		CatchType: cpool.Index[cpool.ConstantClass](catch),
	}, nil
}
