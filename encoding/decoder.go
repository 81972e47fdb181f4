package encoding

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/jclass/errors"
)

// Decoder is a position-tracked, zero-copy cursor over an input buffer.
// Advancing consumes bytes from the front of the view; the absolute file
// position and the remaining view always satisfy
// position + remaining == len(original input).
//
// Decoder is a value type: copying it yields an independent cursor over the
// same backing bytes.
type Decoder struct {
	buf []byte
	pos int
	ctx errors.Context
}

// NewDecoder creates a decoder over buf starting at file position 0.
func NewDecoder(buf []byte, ctx errors.Context) Decoder {
	return Decoder{buf: buf, ctx: ctx}
}

// FilePosition returns the absolute position inside the original input,
// not the offset inside this decoder's view.
func (d *Decoder) FilePosition() int {
	return d.pos
}

// BytesRemaining returns the number of unread bytes in this decoder's view.
func (d *Decoder) BytesRemaining() int {
	return len(d.buf)
}

// Buf returns the remaining bytes as a borrowed view.
func (d *Decoder) Buf() []byte {
	return d.buf
}

// Context returns the decoder's current error context.
func (d *Decoder) Context() errors.Context {
	return d.ctx
}

// SetContext changes the decoder's error context.
func (d *Decoder) SetContext(ctx errors.Context) {
	d.ctx = ctx
}

// WithContext returns a copy of the decoder with a different context.
func (d *Decoder) WithContext(ctx errors.Context) Decoder {
	c := *d
	c.ctx = ctx
	return c
}

// Limit returns a decoder bounded to exactly n bytes at the current
// location, with its own context. The receiver is not advanced. Bounded
// decoders are how nested regions with a declared byte length are parsed
// without over-reading into sibling data.
func (d *Decoder) Limit(n int, ctx errors.Context) (Decoder, error) {
	if n > len(d.buf) {
		return Decoder{}, d.eoi()
	}
	return Decoder{buf: d.buf[:n], pos: d.pos, ctx: ctx}, nil
}

// Advance consumes n bytes without returning them.
func (d *Decoder) Advance(n int) error {
	if n > len(d.buf) {
		return d.eoi()
	}
	d.buf = d.buf[n:]
	d.pos += n
	return nil
}

// ReadBytes consumes and returns n bytes as a borrowed view into the
// original input.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n > len(d.buf) {
		return nil, d.eoi()
	}
	v := d.buf[:n]
	d.buf = d.buf[n:]
	d.pos += n
	return v, nil
}

// ReadU8 reads a single byte.
func (d *Decoder) ReadU8() (uint8, error) {
	if len(d.buf) < 1 {
		return 0, d.eoi()
	}
	v := d.buf[0]
	d.buf = d.buf[1:]
	d.pos++
	return v, nil
}

// ReadI8 reads a signed byte.
func (d *Decoder) ReadI8() (int8, error) {
	v, err := d.ReadU8()
	return int8(v), err
}

// ReadU16 reads a big-endian uint16.
func (d *Decoder) ReadU16() (uint16, error) {
	b, err := d.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadI16 reads a big-endian int16.
func (d *Decoder) ReadI16() (int16, error) {
	v, err := d.ReadU16()
	return int16(v), err
}

// ReadU32 reads a big-endian uint32.
func (d *Decoder) ReadU32() (uint32, error) {
	b, err := d.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadI32 reads a big-endian int32.
func (d *Decoder) ReadI32() (int32, error) {
	v, err := d.ReadU32()
	return int32(v), err
}

// ReadU64 reads a big-endian uint64.
func (d *Decoder) ReadU64() (uint64, error) {
	b, err := d.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadI64 reads a big-endian int64.
func (d *Decoder) ReadI64() (int64, error) {
	v, err := d.ReadU64()
	return int64(v), err
}

// ReadF32 reads a big-endian IEEE 754 float via its bit pattern.
func (d *Decoder) ReadF32() (float32, error) {
	bits, err := d.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// ReadF64 reads a big-endian IEEE 754 double via its bit pattern.
func (d *Decoder) ReadF64() (float64, error) {
	bits, err := d.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (d *Decoder) eoi() error {
	return errors.DecodeErrorAt(errors.DecodeUnexpectedEOI, d.pos, d.ctx)
}
