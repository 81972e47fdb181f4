package encoding

import (
	"testing"

	"github.com/wippyai/jclass/errors"
)

func readU16Item(d *Decoder) (uint16, error) {
	return d.ReadU16()
}

func TestCountedSequence(t *testing.T) {
	// count=3, items 1 2 3
	data := []byte{0x00, 0x03, 0x00, 0x01, 0x00, 0x02, 0x00, 0x03}
	it, err := NewCountedU16(NewDecoder(data, errors.NoContext()), readU16Item)
	if err != nil {
		t.Fatalf("NewCountedU16: %v", err)
	}

	var got []uint16
	for it.Next() {
		got = append(got, it.Value())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("items: got %v, want [1 2 3]", got)
	}

	// Fused: exhausted stays exhausted.
	if it.Next() {
		t.Error("Next after exhaustion returned true")
	}
}

func TestCountedU8(t *testing.T) {
	data := []byte{0x02, 0x00, 0x0A, 0x00, 0x0B}
	it, err := NewCountedU8(NewDecoder(data, errors.NoContext()), readU16Item)
	if err != nil {
		t.Fatal(err)
	}
	if it.Remaining() != 2 {
		t.Errorf("Remaining: got %d, want 2", it.Remaining())
	}
	n := 0
	for it.Next() {
		n++
	}
	if n != 2 || it.Err() != nil {
		t.Errorf("iterated %d items, err %v", n, it.Err())
	}
}

func TestCountedFailureIsFused(t *testing.T) {
	// count=3 but only one complete item present
	data := []byte{0x00, 0x03, 0x00, 0x01, 0x00}
	it, err := NewCountedU16(NewDecoder(data, errors.NoContext()), readU16Item)
	if err != nil {
		t.Fatal(err)
	}

	if !it.Next() {
		t.Fatal("first item should decode")
	}
	if it.Next() {
		t.Fatal("second item should fail")
	}
	if !errors.IsDecodeKind(it.Err(), errors.DecodeUnexpectedEOI) {
		t.Fatalf("Err: got %v", it.Err())
	}
	// Never resumes after an error.
	if it.Next() {
		t.Error("sequence resumed after error")
	}
}

func TestReadCountedAdvancesPastTable(t *testing.T) {
	data := []byte{
		0x00, 0x02, 0x00, 0x01, 0x00, 0x02, // table
		0xAB, // sibling byte after the table
	}
	d := NewDecoder(data, errors.NoContext())
	snap, err := ReadCountedU16(&d, readU16Item)
	if err != nil {
		t.Fatalf("ReadCountedU16: %v", err)
	}
	if snap.Count() != 2 {
		t.Errorf("Count: got %d, want 2", snap.Count())
	}

	// The outer decoder sits right after the table.
	b, err := d.ReadU8()
	if err != nil || b != 0xAB {
		t.Errorf("sibling read: got 0x%02X, %v", b, err)
	}
}

func TestCountedCopyRestartable(t *testing.T) {
	data := []byte{0x00, 0x02, 0x00, 0x07, 0x00, 0x08}
	d := NewDecoder(data, errors.NoContext())
	snap, err := ReadCountedU16(&d, readU16Item)
	if err != nil {
		t.Fatal(err)
	}

	for round := 0; round < 3; round++ {
		it := snap.Iter()
		var got []uint16
		for it.Next() {
			got = append(got, it.Value())
		}
		if it.Err() != nil {
			t.Fatalf("round %d: %v", round, it.Err())
		}
		if len(got) != 2 || got[0] != 7 || got[1] != 8 {
			t.Errorf("round %d: got %v", round, got)
		}
	}
}

func TestReadCountedValidatesEagerly(t *testing.T) {
	// count=2 but only one item of data
	data := []byte{0x00, 0x02, 0x00, 0x01}
	d := NewDecoder(data, errors.NoContext())
	if _, err := ReadCountedU16(&d, readU16Item); err == nil {
		t.Error("expected eager validation failure")
	}
}

func TestLazyCachesValue(t *testing.T) {
	d := NewDecoder([]byte{0x00, 0x2A}, errors.NoContext())
	var cell Lazy[uint16]

	calls := 0
	fn := func(d *Decoder) (uint16, error) {
		calls++
		return d.ReadU16()
	}

	v1, err := cell.Get(&d, fn)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := cell.Get(&d, fn)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != 42 || v2 != 42 {
		t.Errorf("values: %d, %d", v1, v2)
	}
	if calls != 1 {
		t.Errorf("decode ran %d times, want 1", calls)
	}
}

func TestLazyCachesFailure(t *testing.T) {
	d := NewDecoder(nil, errors.InFields())
	var cell Lazy[uint16]

	calls := 0
	fn := func(d *Decoder) (uint16, error) {
		calls++
		return d.ReadU16()
	}

	_, err1 := cell.Get(&d, fn)
	_, err2 := cell.Get(&d, fn)
	if err1 == nil || err2 == nil {
		t.Fatal("expected cached failure")
	}
	if err1 != err2 {
		t.Error("failure was not replayed from cache")
	}
	if calls != 1 {
		t.Errorf("decode ran %d times, want 1", calls)
	}
}
