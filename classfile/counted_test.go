package classfile

import (
	"math"
	"testing"

	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
)

func TestCountedWriterU8Saturation(t *testing.T) {
	w := NewWriter()
	c, err := newCountedWriter(w, w.buf, errors.NoContext(), false,
		func() encoding.Encoder { return w.buf }, nil)
	if err != nil {
		t.Fatalf("newCountedWriter() error = %v", err)
	}

	for i := 0; i < 255; i++ {
		err := c.Write(func(e encoding.Encoder) error {
			return encoding.WriteU8(e, 0x11)
		})
		if err != nil {
			t.Fatalf("Write() %d error = %v", i, err)
		}
	}
	err = c.Write(func(e encoding.Encoder) error {
		return encoding.WriteU8(e, 0x11)
	})
	if !errors.IsEncodeKind(err, errors.EncodeTooManyItems) {
		t.Fatalf("256th Write() error = %v, want too many items", err)
	}
	if c.Count() != 255 {
		t.Errorf("Count() = %d, want 255", c.Count())
	}

	// the placeholder sits right after the header; it must hold the full
	// prefix that succeeded
	if got := w.buf.Bytes()[headerEnd]; got != 255 {
		t.Errorf("patched count = %d, want 255", got)
	}
}

func TestCountedWriterCountPatchedPerItem(t *testing.T) {
	w := NewWriter()
	c, err := newCountedWriter(w, w.buf, errors.NoContext(), true,
		func() encoding.Encoder { return w.buf }, nil)
	if err != nil {
		t.Fatalf("newCountedWriter() error = %v", err)
	}

	for i := 1; i <= 3; i++ {
		err := c.Write(func(e encoding.Encoder) error {
			return encoding.WriteU16(e, uint16(i))
		})
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		buf := w.buf.Bytes()
		got := uint16(buf[headerEnd])<<8 | uint16(buf[headerEnd+1])
		if got != uint16(i) {
			t.Errorf("count after item %d = %d", i, got)
		}
	}
}

func TestCountedWriterSurvivesPoolGrowth(t *testing.T) {
	w := NewWriter()
	c, err := newCountedWriter(w, w.buf, errors.NoContext(), true,
		func() encoding.Encoder { return w.buf }, nil)
	if err != nil {
		t.Fatalf("newCountedWriter() error = %v", err)
	}
	err = c.Write(func(e encoding.Encoder) error {
		return encoding.WriteU16(e, 0xAAAA)
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// growing the pool shifts the placeholder; the next patch must land on
	// it anyway
	if _, err := w.InsertUtf8("shift the tail"); err != nil {
		t.Fatalf("InsertUtf8() error = %v", err)
	}
	err = c.Write(func(e encoding.Encoder) error {
		return encoding.WriteU16(e, 0xBBBB)
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	buf := w.buf.Bytes()
	at := int(w.abs(c.countRel))
	got := uint16(buf[at])<<8 | uint16(buf[at+1])
	if got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
	if buf[at+2] != 0xAA || buf[at+3] != 0xAA || buf[at+4] != 0xBB || buf[at+5] != 0xBB {
		t.Errorf("items corrupted after pool growth: % x", buf[at+2:at+6])
	}
}

func TestLengthWriter(t *testing.T) {
	w := NewWriter()
	l, err := newLengthWriter(w, w.buf)
	if err != nil {
		t.Fatalf("newLengthWriter() error = %v", err)
	}
	if err := l.WriteBytes([]byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("WriteBytes() error = %v", err)
	}
	if err := l.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	buf := w.buf.Bytes()
	at := int(headerEnd)
	if buf[at] != 0 || buf[at+1] != 0 || buf[at+2] != 0 || buf[at+3] != 5 {
		t.Errorf("length field = % x, want 00 00 00 05", buf[at:at+4])
	}
	if err := l.Finish(); !errors.IsEncodeKind(err, errors.EncodeCantChangeAnymore) {
		t.Errorf("second Finish() error = %v, want cannot change anymore", err)
	}
	if err := l.WriteBytes([]byte{6}); !errors.IsEncodeKind(err, errors.EncodeCantChangeAnymore) {
		t.Errorf("write after Finish: error = %v, want cannot change anymore", err)
	}
}

func TestLengthWriterOverflow(t *testing.T) {
	w := NewWriter()
	l, err := newLengthWriter(w, w.buf)
	if err != nil {
		t.Fatalf("newLengthWriter() error = %v", err)
	}
	l.written = math.MaxUint32 // pretend the region is already full

	if err := l.WriteBytes([]byte{1}); !errors.IsEncodeKind(err, errors.EncodeTooManyBytes) {
		t.Fatalf("WriteBytes() error = %v, want too many bytes", err)
	}
	if err := l.Finish(); !errors.IsEncodeKind(err, errors.EncodeErroredBefore) {
		t.Fatalf("Finish() after overflow: error = %v, want errored before", err)
	}
}
