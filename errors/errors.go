package errors

import (
	"fmt"
	"strings"
)

// DecodeKind categorizes a decode failure.
type DecodeKind string

const (
	DecodeUnexpectedEOI        DecodeKind = "unexpected_eoi"
	DecodeInvalidPrefix        DecodeKind = "invalid_prefix"
	DecodeInvalidMutf8         DecodeKind = "invalid_mutf8"
	DecodeInvalidIndex         DecodeKind = "invalid_index"
	DecodeTagMismatch          DecodeKind = "tag_mismatch"
	DecodeInvalidTag           DecodeKind = "invalid_tag"
	DecodeUnknownAttributeName DecodeKind = "unknown_attribute_name"
	DecodeInvalidInstruction   DecodeKind = "invalid_instruction"
)

// EncodeKind categorizes an encode failure.
type EncodeKind string

const (
	EncodeTooManyItems      EncodeKind = "too_many_items"
	EncodeTooManyBytes      EncodeKind = "too_many_bytes"
	EncodeIncorrectBounds   EncodeKind = "incorrect_bounds"
	EncodeErroredBefore     EncodeKind = "errored_before"
	EncodeCantChangeAnymore EncodeKind = "cant_change_anymore"
	EncodeIncorrectState    EncodeKind = "incorrect_state"
	EncodeValuesMissing     EncodeKind = "values_missing"
)

// ContextKind names the part of the class file a failure occurred in.
type ContextKind string

const (
	ContextNone             ContextKind = "none"
	ContextStart            ContextKind = "start"
	ContextConstantPool     ContextKind = "constant_pool"
	ContextInterfaces       ContextKind = "interfaces"
	ContextFields           ContextKind = "fields"
	ContextMethods          ContextKind = "methods"
	ContextAttributes       ContextKind = "attributes"
	ContextAttributeContent ContextKind = "attribute_content"
	ContextCode             ContextKind = "code"
)

// Context describes where in the class file an error occurred. It is attached
// at the failure site, never reconstructed from a stack trace. Index is only
// meaningful for ContextConstantPool, where it is the pool slot being decoded.
type Context struct {
	Kind  ContextKind
	Index uint16
}

// NoContext returns the empty context.
func NoContext() Context { return Context{Kind: ContextNone} }

// InStart returns the context for the magic prefix and version fields.
func InStart() Context { return Context{Kind: ContextStart} }

// InConstantPool returns the context for constant pool slot index.
func InConstantPool(index uint16) Context {
	return Context{Kind: ContextConstantPool, Index: index}
}

// InInterfaces returns the interface table context.
func InInterfaces() Context { return Context{Kind: ContextInterfaces} }

// InFields returns the field table context.
func InFields() Context { return Context{Kind: ContextFields} }

// InMethods returns the method table context.
func InMethods() Context { return Context{Kind: ContextMethods} }

// InAttributes returns the attribute table context.
func InAttributes() Context { return Context{Kind: ContextAttributes} }

// InAttributeContent returns the context for a single attribute's content.
func InAttributeContent() Context { return Context{Kind: ContextAttributeContent} }

// InCode returns the bytecode stream context.
func InCode() Context { return Context{Kind: ContextCode} }

func (c Context) String() string {
	if c.Kind == ContextConstantPool {
		return fmt.Sprintf("constant_pool[%d]", c.Index)
	}
	return string(c.Kind)
}

// DecodeError is the failure type returned by all decode operations.
// Position is the absolute byte offset from the start of the input buffer,
// or -1 for purely semantic failures that have no byte position.
type DecodeError struct {
	Kind     DecodeKind
	Position int
	Context  Context
}

// NewDecodeError creates a DecodeError without position or context.
func NewDecodeError(kind DecodeKind) *DecodeError {
	return &DecodeError{Kind: kind, Position: -1, Context: NoContext()}
}

// DecodeErrorAt creates a DecodeError with position and context information.
func DecodeErrorAt(kind DecodeKind, position int, ctx Context) *DecodeError {
	return &DecodeError{Kind: kind, Position: position, Context: ctx}
}

// DecodeErrorIn creates a positionless DecodeError with a context.
func DecodeErrorIn(kind DecodeKind, ctx Context) *DecodeError {
	return &DecodeError{Kind: kind, Position: -1, Context: ctx}
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(decodeKindMessage(e.Kind))
	if e.Position >= 0 {
		fmt.Fprintf(&b, " at byte %d", e.Position)
	}
	if e.Context.Kind != ContextNone {
		b.WriteString(" in ")
		b.WriteString(e.Context.String())
	}
	return b.String()
}

// Is reports whether target is a DecodeError of the same kind.
func (e *DecodeError) Is(target error) bool {
	if t, ok := target.(*DecodeError); ok {
		return e.Kind == t.Kind
	}
	return false
}

func decodeKindMessage(k DecodeKind) string {
	switch k {
	case DecodeUnexpectedEOI:
		return "unexpected end of input"
	case DecodeInvalidPrefix:
		return "invalid class file magic"
	case DecodeInvalidMutf8:
		return "invalid modified utf8"
	case DecodeInvalidIndex:
		return "invalid constant pool index"
	case DecodeTagMismatch:
		return "constant pool tag mismatch"
	case DecodeInvalidTag:
		return "invalid constant pool tag"
	case DecodeUnknownAttributeName:
		return "unknown attribute name"
	case DecodeInvalidInstruction:
		return "invalid instruction"
	default:
		return string(k)
	}
}

// EncodeError is the failure type returned by all encode operations.
type EncodeError struct {
	Kind    EncodeKind
	Context Context
}

// NewEncodeError creates an EncodeError without context.
func NewEncodeError(kind EncodeKind) *EncodeError {
	return &EncodeError{Kind: kind, Context: NoContext()}
}

// EncodeErrorIn creates an EncodeError with a context.
func EncodeErrorIn(kind EncodeKind, ctx Context) *EncodeError {
	return &EncodeError{Kind: kind, Context: ctx}
}

func (e *EncodeError) Error() string {
	var b strings.Builder
	b.WriteString(encodeKindMessage(e.Kind))
	if e.Context.Kind != ContextNone {
		b.WriteString(" in ")
		b.WriteString(e.Context.String())
	}
	return b.String()
}

// Is reports whether target is an EncodeError of the same kind.
func (e *EncodeError) Is(target error) bool {
	if t, ok := target.(*EncodeError); ok {
		return e.Kind == t.Kind
	}
	return false
}

func encodeKindMessage(k EncodeKind) string {
	switch k {
	case EncodeTooManyItems:
		return "too many items"
	case EncodeTooManyBytes:
		return "too many bytes"
	case EncodeIncorrectBounds:
		return "incorrect bounds"
	case EncodeErroredBefore:
		return "writer errored before"
	case EncodeCantChangeAnymore:
		return "cannot change anymore"
	case EncodeIncorrectState:
		return "writer called out of order"
	case EncodeValuesMissing:
		return "required values missing"
	default:
		return string(k)
	}
}

// IsDecodeKind reports whether err is a DecodeError with the given kind.
func IsDecodeKind(err error, kind DecodeKind) bool {
	e, ok := err.(*DecodeError)
	return ok && e.Kind == kind
}

// IsEncodeKind reports whether err is an EncodeError with the given kind.
func IsEncodeKind(err error, kind EncodeKind) bool {
	e, ok := err.(*EncodeError)
	return ok && e.Kind == kind
}
