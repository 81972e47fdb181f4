package classfile

import (
	"math"

	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
)

// CountedWriter emits a count-prefixed table: a zero placeholder up front,
// then one nested item writer per Write call, with the placeholder patched
// after every successful item so a partially written table still carries a
// correct count for the prefix that succeeded.
type CountedWriter[W any] struct {
	w    *Writer
	out  encoding.Encoder
	ctx  errors.Context
	wide bool

	countRel encoding.Offset
	count    uint32
	err      error

	newItem    func() W
	finishItem func(W) error
}

// newCountedWriter reserves the count placeholder. wide selects a two-byte
// counter; otherwise the counter is a single byte. finishItem may be nil.
func newCountedWriter[W any](w *Writer, out encoding.Encoder, ctx errors.Context, wide bool, newItem func() W, finishItem func(W) error) (*CountedWriter[W], error) {
	var err error
	if wide {
		err = encoding.WriteU16(out, 0)
	} else {
		err = encoding.WriteU8(out, 0)
	}
	if err != nil {
		return nil, err
	}
	var width encoding.Offset = 1
	if wide {
		width = 2
	}
	return &CountedWriter[W]{
		w:          w,
		out:        out,
		ctx:        ctx,
		wide:       wide,
		countRel:   w.rel(w.buf.Position()) - width,
		newItem:    newItem,
		finishItem: finishItem,
	}, nil
}

func (c *CountedWriter[W]) max() uint32 {
	if c.wide {
		return math.MaxUint16
	}
	return math.MaxUint8
}

// Write runs one item through its writer lifecycle and bumps the count.
func (c *CountedWriter[W]) Write(build func(W) error) error {
	if c.err != nil {
		return errors.EncodeErrorIn(errors.EncodeErroredBefore, c.ctx)
	}
	if c.count >= c.max() {
		return errors.EncodeErrorIn(errors.EncodeTooManyItems, c.ctx)
	}

	item := c.newItem()
	if err := c.fail(build(item)); err != nil {
		return err
	}
	if c.finishItem != nil {
		if err := c.fail(c.finishItem(item)); err != nil {
			return err
		}
	}

	c.count++
	r := c.w.buf.Replacing(c.w.abs(c.countRel))
	if c.wide {
		return encoding.WriteU16(r, uint16(c.count))
	}
	return encoding.WriteU8(r, uint8(c.count))
}

// Count returns the number of items written so far.
func (c *CountedWriter[W]) Count() uint32 {
	return c.count
}

func (c *CountedWriter[W]) fail(err error) error {
	if err != nil && c.err == nil {
		c.err = err
	}
	return err
}

// LengthWriter frames a byte-length-prefixed region: a four-byte zero
// placeholder, then every region byte written through it, then a Finish that
// patches the placeholder with the accumulated total. A write that would push
// the total past the field range fails and poisons the writer.
type LengthWriter struct {
	w   *Writer
	out encoding.Encoder

	lenRel   encoding.Offset
	written  uint64
	finished bool
	err      error
}

func newLengthWriter(w *Writer, out encoding.Encoder) (*LengthWriter, error) {
	if err := encoding.WriteU32(out, 0); err != nil {
		return nil, err
	}
	return &LengthWriter{
		w:      w,
		out:    out,
		lenRel: w.rel(w.buf.Position()) - 4,
	}, nil
}

// WriteBytes appends p to the framed region.
func (l *LengthWriter) WriteBytes(p []byte) error {
	if l.err != nil {
		return errors.NewEncodeError(errors.EncodeErroredBefore)
	}
	if l.finished {
		return errors.NewEncodeError(errors.EncodeCantChangeAnymore)
	}
	if l.written+uint64(len(p)) > math.MaxUint32 {
		l.err = errors.NewEncodeError(errors.EncodeTooManyBytes)
		return l.err
	}
	if err := l.out.WriteBytes(p); err != nil {
		l.err = err
		return err
	}
	l.written += uint64(len(p))
	return nil
}

// Written returns the region byte count so far.
func (l *LengthWriter) Written() uint64 {
	return l.written
}

// Finish patches the length placeholder with the accumulated total.
func (l *LengthWriter) Finish() error {
	if l.err != nil {
		return errors.NewEncodeError(errors.EncodeErroredBefore)
	}
	if l.finished {
		return errors.NewEncodeError(errors.EncodeCantChangeAnymore)
	}
	l.finished = true
	return encoding.WriteU32(l.w.buf.Replacing(l.w.abs(l.lenRel)), uint32(l.written))
}
