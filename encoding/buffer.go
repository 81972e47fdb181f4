package encoding

import (
	"encoding/binary"
	"math"
)

// Offset is a relative position marker into an output buffer. It is not an
// absolute pointer: code that records offsets across splice insertions keeps
// them relative to an anchor and adds the anchor's current position only at
// patch time.
type Offset int

// Add returns the offset moved forward by another offset.
func (o Offset) Add(by Offset) Offset { return o + by }

// Sub returns the offset moved backward by another offset.
func (o Offset) Sub(by Offset) Offset { return o - by }

// Encoder is the single capability contract shared by the appending,
// inserting, and replacing encoders.
type Encoder interface {
	WriteBytes(p []byte) error
}

// Buffer is the appending encoder the output file is assembled in.
type Buffer struct {
	buf []byte
}

// NewBuffer creates an empty output buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// NewBufferCapacity creates an empty output buffer with preallocated space.
func NewBufferCapacity(n int) *Buffer {
	return &Buffer{buf: make([]byte, 0, n)}
}

// Position returns the current end of the buffer as an offset.
func (b *Buffer) Position() Offset {
	return Offset(len(b.buf))
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Bytes returns the assembled output.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// WriteBytes appends p to the end of the buffer.
func (b *Buffer) WriteBytes(p []byte) error {
	b.buf = append(b.buf, p...)
	return nil
}

// Inserting returns a splicing encoder positioned at an interior offset.
func (b *Buffer) Inserting(at Offset) *Inserting {
	return &Inserting{b: b, cursor: int(at)}
}

// Replacing returns an in-place encoder over the bytes starting at an
// interior offset. It must only be used to fill previously reserved
// fixed-width placeholders.
func (b *Buffer) Replacing(at Offset) *Replacing {
	return &Replacing{buf: b.buf[at:]}
}

// Inserting splices bytes into the middle of a buffer. A write splits the
// buffer at the cursor, places the new bytes there, and shifts everything
// after the cursor forward; nothing already written is lost or overwritten.
// The cursor advances past the inserted bytes, so consecutive writes stay in
// order.
type Inserting struct {
	b      *Buffer
	cursor int
}

// Position returns the current insertion cursor.
func (i *Inserting) Position() Offset {
	return Offset(i.cursor)
}

// WriteBytes splices p in at the cursor.
func (i *Inserting) WriteBytes(p []byte) error {
	n := len(p)
	if n == 0 {
		return nil
	}
	buf := append(i.b.buf, p...)
	copy(buf[i.cursor+n:], buf[i.cursor:])
	copy(buf[i.cursor:i.cursor+n], p)
	i.b.buf = buf
	i.cursor += n
	return nil
}

// Replacing overwrites a reserved region in place. Writing more bytes than
// the region holds is a programming error, not a recoverable condition.
type Replacing struct {
	buf []byte
}

// WriteBytes overwrites the next len(p) bytes of the reserved region.
func (r *Replacing) WriteBytes(p []byte) error {
	if len(p) > len(r.buf) {
		panic("encoding: replacing write exceeds the reserved region")
	}
	copy(r.buf, p)
	r.buf = r.buf[len(p):]
	return nil
}

// WriteU8 writes a single byte through any encoder.
func WriteU8(e Encoder, v uint8) error {
	return e.WriteBytes([]byte{v})
}

// WriteI8 writes a signed byte.
func WriteI8(e Encoder, v int8) error {
	return WriteU8(e, uint8(v))
}

// WriteU16 writes a big-endian uint16.
func WriteU16(e Encoder, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return e.WriteBytes(b[:])
}

// WriteI16 writes a big-endian int16.
func WriteI16(e Encoder, v int16) error {
	return WriteU16(e, uint16(v))
}

// WriteU32 writes a big-endian uint32.
func WriteU32(e Encoder, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return e.WriteBytes(b[:])
}

// WriteI32 writes a big-endian int32.
func WriteI32(e Encoder, v int32) error {
	return WriteU32(e, uint32(v))
}

// WriteU64 writes a big-endian uint64.
func WriteU64(e Encoder, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return e.WriteBytes(b[:])
}

// WriteI64 writes a big-endian int64.
func WriteI64(e Encoder, v int64) error {
	return WriteU64(e, uint64(v))
}

// WriteF32 writes a big-endian IEEE 754 float via its bit pattern.
func WriteF32(e Encoder, v float32) error {
	return WriteU32(e, math.Float32bits(v))
}

// WriteF64 writes a big-endian IEEE 754 double via its bit pattern.
func WriteF64(e Encoder, v float64) error {
	return WriteU64(e, math.Float64bits(v))
}
