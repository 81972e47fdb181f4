package classfile

import (
	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
)

// Bytecode opcodes the framing logic must special-case.
const (
	opTableSwitch  = 0xAA
	opLookupSwitch = 0xAB
	opInvokeIface  = 0xB9
	opWide         = 0xC4
	opIinc         = 0x84
)

// RawInstruction is one framed instruction: its byte offset from the start of
// the instruction stream, its opcode, and the complete instruction bytes
// (opcode included) borrowed from the stream.
type RawInstruction struct {
	Offset int
	Opcode uint8
	Bytes  []byte
}

// RawInstructions frames an instruction stream one instruction at a time
// without interpreting operands. Truncated instructions and unassigned
// opcodes stop iteration with an error.
type RawInstructions struct {
	d     encoding.Decoder
	start int

	cur RawInstruction
	err error
}

func newRawInstructions(code []byte) *RawInstructions {
	d := encoding.NewDecoder(code, errors.InCode())
	return &RawInstructions{d: d, start: d.FilePosition()}
}

// Next frames the next instruction, reporting false at the end of the stream
// or on the first error.
func (r *RawInstructions) Next() bool {
	if r.err != nil || r.d.BytesRemaining() == 0 {
		return false
	}

	offset := r.d.FilePosition() - r.start
	clone := r.d
	op, err := clone.ReadU8()
	if err != nil {
		r.err = err
		return false
	}
	size, err := instructionSize(&clone, op, offset)
	if err != nil {
		r.err = err
		return false
	}
	bytes, err := r.d.ReadBytes(size)
	if err != nil {
		r.err = err
		return false
	}
	r.cur = RawInstruction{Offset: offset, Opcode: op, Bytes: bytes}
	return true
}

// Value returns the instruction framed by the last successful Next.
func (r *RawInstructions) Value() RawInstruction {
	return r.cur
}

// Err returns the error that stopped iteration, if any.
func (r *RawInstructions) Err() error {
	return r.err
}

// instructionSize computes the total instruction byte length. d is a clone
// positioned just after the opcode; offset is the opcode's distance from the
// stream start, which the switch instructions need for their alignment
// padding.
func instructionSize(d *encoding.Decoder, op uint8, offset int) (int, error) {
	switch op {
	case opTableSwitch:
		// pad to a 4-byte boundary, then default/low/high and the jump table
		pad := 3 - (offset & 3)
		if err := d.Advance(pad); err != nil {
			return 0, err
		}
		if err := d.Advance(4); err != nil { // default
			return 0, err
		}
		low, err := d.ReadI32()
		if err != nil {
			return 0, err
		}
		high, err := d.ReadI32()
		if err != nil {
			return 0, err
		}
		if low > high {
			return 0, errors.DecodeErrorAt(errors.DecodeInvalidInstruction, d.FilePosition(), d.Context())
		}
		return 1 + pad + 12 + 4*int(high-low+1), nil
	case opLookupSwitch:
		pad := 3 - (offset & 3)
		if err := d.Advance(pad); err != nil {
			return 0, err
		}
		if err := d.Advance(4); err != nil { // default
			return 0, err
		}
		npairs, err := d.ReadI32()
		if err != nil {
			return 0, err
		}
		if npairs < 0 {
			return 0, errors.DecodeErrorAt(errors.DecodeInvalidInstruction, d.FilePosition(), d.Context())
		}
		return 1 + pad + 8 + 8*int(npairs), nil
	case opWide:
		// wide prefixes a local-variable instruction, widening its index
		// operand to two bytes; iinc additionally carries a wide constant
		modified, err := d.ReadU8()
		if err != nil {
			return 0, err
		}
		if modified == opIinc {
			return 6, nil
		}
		return 4, nil
	default:
		extra, ok := operandWidth(op)
		if !ok {
			return 0, errors.DecodeErrorAt(errors.DecodeInvalidInstruction, d.FilePosition()-1, d.Context())
		}
		return 1 + extra, nil
	}
}

// operandWidth returns the fixed operand byte count of op, or false for
// opcodes the format does not assign.
func operandWidth(op uint8) (int, bool) {
	switch {
	case op <= 0x0F: // nop, constants
		return 0, true
	case op == 0x10: // bipush
		return 1, true
	case op == 0x11: // sipush
		return 2, true
	case op == 0x12: // ldc
		return 1, true
	case op == 0x13 || op == 0x14: // ldc_w, ldc2_w
		return 2, true
	case op >= 0x15 && op <= 0x19: // loads with local index
		return 1, true
	case op >= 0x1A && op <= 0x35: // shorthand loads, array loads
		return 0, true
	case op >= 0x36 && op <= 0x3A: // stores with local index
		return 1, true
	case op >= 0x3B && op <= 0x83: // shorthand stores, stack ops, arithmetic
		return 0, true
	case op == opIinc:
		return 2, true
	case op >= 0x85 && op <= 0x98: // conversions, comparisons
		return 0, true
	case op >= 0x99 && op <= 0xA8: // branches, goto, jsr
		return 2, true
	case op == 0xA9: // ret
		return 1, true
	case op >= 0xAC && op <= 0xB1: // returns
		return 0, true
	case op >= 0xB2 && op <= 0xB8: // field access, invokes
		return 2, true
	case op == opInvokeIface || op == 0xBA: // invokeinterface, invokedynamic
		return 4, true
	case op == 0xBB: // new
		return 2, true
	case op == 0xBC: // newarray
		return 1, true
	case op == 0xBD: // anewarray
		return 2, true
	case op == 0xBE || op == 0xBF: // arraylength, athrow
		return 0, true
	case op == 0xC0 || op == 0xC1: // checkcast, instanceof
		return 2, true
	case op == 0xC2 || op == 0xC3: // monitorenter, monitorexit
		return 0, true
	case op == 0xC5: // multianewarray
		return 3, true
	case op == 0xC6 || op == 0xC7: // ifnull, ifnonnull
		return 2, true
	case op == 0xC8 || op == 0xC9: // goto_w, jsr_w
		return 4, true
	case op == 0xCA: // breakpoint
		return 0, true
	case op == 0xFE || op == 0xFF: // impdep1, impdep2
		return 0, true
	default:
		return 0, false
	}
}
