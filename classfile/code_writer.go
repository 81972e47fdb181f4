package classfile

import (
	"math"

	"github.com/wippyai/jclass/cpool"
	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
)

type codeState uint8

const (
	codeStart codeState = iota
	codeMaxStack
	codeMaxLocals
	codeInstructions
	codeHandlers
	codeAttributes
)

// CodeWriter writes a method body: operand stack and local limits, the
// length-framed instruction stream, then the exception handler table and any
// nested attributes, strictly in that order.
type CodeWriter struct {
	w   *Writer
	out encoding.Encoder

	state    codeState
	handlers *CountedWriter[encoding.Encoder]
	attrs    *CountedWriter[*AttributeWriter]
}

// SetMaxStack writes the operand stack depth limit.
func (c *CodeWriter) SetMaxStack(v uint16) error {
	if c.state != codeStart {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
	}
	if err := encoding.WriteU16(c.out, v); err != nil {
		return err
	}
	c.state = codeMaxStack
	return nil
}

// SetMaxLocals writes the local variable slot limit.
func (c *CodeWriter) SetMaxLocals(v uint16) error {
	if c.state != codeMaxStack {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
	}
	if err := encoding.WriteU16(c.out, v); err != nil {
		return err
	}
	c.state = codeMaxLocals
	return nil
}

// Instructions writes the length-framed instruction stream through build.
func (c *CodeWriter) Instructions(build func(*InstructionWriter) error) error {
	if c.state != codeMaxLocals {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
	}
	length, err := newLengthWriter(c.w, c.out)
	if err != nil {
		return err
	}
	if err := build(&InstructionWriter{lw: length}); err != nil {
		return err
	}
	if err := length.Finish(); err != nil {
		return err
	}
	c.state = codeInstructions
	return nil
}

// AddExceptionHandler appends one handler table entry. A zero catchType
// catches every exception.
func (c *CodeWriter) AddExceptionHandler(start, end, handler uint16, catchType cpool.Index[cpool.ConstantClass]) error {
	if c.handlers == nil {
		if c.state != codeInstructions {
			return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
		}
		cw, err := newCountedWriter(c.w, c.out, errors.InCode(), true,
			func() encoding.Encoder { return c.out }, nil)
		if err != nil {
			return err
		}
		c.handlers = cw
		c.state = codeHandlers
	} else if c.state != codeHandlers {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
	}
	return c.handlers.Write(func(e encoding.Encoder) error {
		if err := encoding.WriteU16(e, start); err != nil {
			return err
		}
		if err := encoding.WriteU16(e, end); err != nil {
			return err
		}
		if err := encoding.WriteU16(e, handler); err != nil {
			return err
		}
		return encoding.WriteU16(e, uint16(catchType))
	})
}

// AddAttribute writes one nested code attribute through build.
func (c *CodeWriter) AddAttribute(build func(*AttributeWriter) error) error {
	if c.attrs == nil {
		switch c.state {
		case codeInstructions:
			// no handler table; emit its zero count first
			if err := encoding.WriteU16(c.out, 0); err != nil {
				return err
			}
		case codeHandlers:
		default:
			return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
		}
		cw, err := newCountedWriter(c.w, c.out, errors.InCode(), true,
			func() *AttributeWriter { return &AttributeWriter{w: c.w, out: c.out} },
			func(aw *AttributeWriter) error { return aw.finish() })
		if err != nil {
			return err
		}
		c.attrs = cw
		c.state = codeAttributes
	}
	return c.attrs.Write(build)
}

// finish verifies the required sections were written and fills the skipped
// trailing tables with zero counts.
func (c *CodeWriter) finish() error {
	switch c.state {
	case codeInstructions:
		if err := encoding.WriteU16(c.out, 0); err != nil { // handlers
			return err
		}
		return encoding.WriteU16(c.out, 0) // attributes
	case codeHandlers:
		return encoding.WriteU16(c.out, 0) // attributes
	case codeAttributes:
		return nil
	default:
		return errors.EncodeErrorIn(errors.EncodeValuesMissing, errors.InCode())
	}
}

// InstructionWriter emits raw bytecode into the instruction stream. The
// simple emitters take pre-framed operands; TableSwitch runs the
// alignment-sensitive switch-table state machine.
type InstructionWriter struct {
	lw *LengthWriter
}

// Op emits an operandless instruction.
func (i *InstructionWriter) Op(op uint8) error {
	return encoding.WriteU8(i.lw, op)
}

// OpU8 emits an instruction with one unsigned byte operand.
func (i *InstructionWriter) OpU8(op uint8, operand uint8) error {
	if err := encoding.WriteU8(i.lw, op); err != nil {
		return err
	}
	return encoding.WriteU8(i.lw, operand)
}

// OpU16 emits an instruction with one big-endian u16 operand.
func (i *InstructionWriter) OpU16(op uint8, operand uint16) error {
	if err := encoding.WriteU8(i.lw, op); err != nil {
		return err
	}
	return encoding.WriteU16(i.lw, operand)
}

// OpI16 emits an instruction with one big-endian i16 operand, the shape of
// every short-form branch.
func (i *InstructionWriter) OpI16(op uint8, operand int16) error {
	if err := encoding.WriteU8(i.lw, op); err != nil {
		return err
	}
	return encoding.WriteI16(i.lw, operand)
}

// Offset returns the current byte offset from the start of the instruction
// stream.
func (i *InstructionWriter) Offset() int {
	return int(i.lw.Written())
}

// TableSwitch emits a switch-table instruction through build. build must
// drive the TableSwitchWriter to completion: default, low, high, then
// exactly high-low+1 jump labels.
func (i *InstructionWriter) TableSwitch(build func(*TableSwitchWriter) error) error {
	offset := i.Offset()
	if err := encoding.WriteU8(i.lw, opTableSwitch); err != nil {
		return err
	}
	// zero padding so the operand block lands on a 4-byte boundary
	pad := 3 - (offset & 3)
	if pad > 0 {
		if err := i.lw.WriteBytes(make([]byte, pad)); err != nil {
			return err
		}
	}

	ts := &TableSwitchWriter{out: i.lw}
	if err := build(ts); err != nil {
		return err
	}
	return ts.finish()
}

type tableSwitchState uint8

const (
	tableSwitchDefault tableSwitchState = iota
	tableSwitchLow
	tableSwitchHigh
	tableSwitchJumps
	tableSwitchFinished
)

// TableSwitchWriter writes the operand block of a switch-table instruction.
// The calls must arrive strictly in order: WriteDefault, WriteLow,
// WriteHigh, then one WriteJump per label in the high-low+1 range.
type TableSwitchWriter struct {
	out encoding.Encoder

	state     tableSwitchState
	low       int32
	remaining uint32
}

// WriteDefault emits the default branch label.
func (t *TableSwitchWriter) WriteDefault(label int32) error {
	if t.state != tableSwitchDefault {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
	}
	if err := encoding.WriteI32(t.out, label); err != nil {
		return err
	}
	t.state = tableSwitchLow
	return nil
}

// WriteLow emits the low bound of the jump table.
func (t *TableSwitchWriter) WriteLow(low int32) error {
	if t.state != tableSwitchLow {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
	}
	if err := encoding.WriteI32(t.out, low); err != nil {
		return err
	}
	t.low = low
	t.state = tableSwitchHigh
	return nil
}

// WriteHigh emits the high bound. It fails when the bound falls below the
// low bound written before it, or when the range is too wide to count.
func (t *TableSwitchWriter) WriteHigh(high int32) error {
	if t.state != tableSwitchHigh {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
	}
	width := int64(high) - int64(t.low) + 1
	if width < 1 || width > math.MaxUint32 {
		return errors.EncodeErrorIn(errors.EncodeIncorrectBounds, errors.InCode())
	}
	if err := encoding.WriteI32(t.out, high); err != nil {
		return err
	}
	t.remaining = uint32(width)
	t.state = tableSwitchJumps
	return nil
}

// WriteJump emits one jump label. The call that provides the final label of
// the range completes the instruction; any jump past that fails.
func (t *TableSwitchWriter) WriteJump(label int32) error {
	switch t.state {
	case tableSwitchJumps:
	case tableSwitchFinished:
		return errors.EncodeErrorIn(errors.EncodeCantChangeAnymore, errors.InCode())
	default:
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
	}
	if err := encoding.WriteI32(t.out, label); err != nil {
		return err
	}
	t.remaining--
	if t.remaining == 0 {
		t.state = tableSwitchFinished
	}
	return nil
}

func (t *TableSwitchWriter) finish() error {
	if t.state != tableSwitchFinished {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InCode())
	}
	return nil
}
