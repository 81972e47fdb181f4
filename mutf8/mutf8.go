// Package mutf8 implements the modified UTF-8 string encoding used by the
// class-file format.
//
// Modified UTF-8 differs from standard UTF-8 in two ways: the NUL code point
// is encoded as the two-byte sequence 0xC0 0x80 so that encoded strings never
// contain a zero byte, and supplementary code points are encoded as a
// surrogate pair of two three-byte sequences instead of one four-byte
// sequence.
package mutf8

import (
	"bytes"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/wippyai/jclass/errors"
)

// MString is a validated modified UTF-8 byte sequence. It is a borrowed view
// into the decoded input; the backing buffer must outlive it. Validity is
// established once when the value is created through Decode.
type MString []byte

// Bytes returns the raw encoded bytes.
func (m MString) Bytes() []byte {
	return []byte(m)
}

// Len returns the encoded byte length, not the number of characters.
func (m MString) Len() int {
	return len(m)
}

// Equal reports whether two strings have identical encoded bytes.
func (m MString) Equal(other MString) bool {
	return bytes.Equal(m, other)
}

// String decodes to a Go string. Surrogate pairs become supplementary code
// points; an unpaired surrogate decodes to the replacement character.
func (m MString) String() string {
	var b []byte
	units := decodeUnits(m)
	for i := 0; i < len(units); i++ {
		u := units[i]
		if utf16.IsSurrogate(rune(u)) && i+1 < len(units) {
			if r := utf16.DecodeRune(rune(u), rune(units[i+1])); r != utf8.RuneError {
				b = utf8.AppendRune(b, r)
				i++
				continue
			}
		}
		if utf16.IsSurrogate(rune(u)) {
			b = utf8.AppendRune(b, utf8.RuneError)
			continue
		}
		b = utf8.AppendRune(b, rune(u))
	}
	return string(b)
}

// decodeUnits splits validated bytes into UTF-16 code units.
func decodeUnits(m []byte) []uint16 {
	units := make([]uint16, 0, len(m))
	for i := 0; i < len(m); {
		c := m[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c < 0xE0:
			units = append(units, uint16(c&0x1F)<<6|uint16(m[i+1]&0x3F))
			i += 2
		default:
			units = append(units, uint16(c&0x0F)<<12|uint16(m[i+1]&0x3F)<<6|uint16(m[i+2]&0x3F))
			i += 3
		}
	}
	return units
}

// Valid reports whether b is well-formed modified UTF-8.
func Valid(b []byte) bool {
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0x00 || c >= 0xF0:
			return false
		case c < 0x80:
			i++
		case c < 0xC0:
			// continuation byte outside a sequence
			return false
		case c < 0xE0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return false
			}
			i += 2
		default:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return false
			}
			i += 3
		}
	}
	return true
}

// Decode validates b and returns it as an MString view. Invalid input fails
// with an invalid_mutf8 decode error; no replacement characters are ever
// substituted.
func Decode(b []byte) (MString, error) {
	if !Valid(b) {
		return nil, errors.NewDecodeError(errors.DecodeInvalidMutf8)
	}
	return MString(b), nil
}

// Encode converts a Go string to modified UTF-8 bytes.
func Encode(s string) []byte {
	var b []byte
	for _, r := range s {
		switch {
		case r == 0:
			b = append(b, 0xC0, 0x80)
		case r < 0x80:
			b = append(b, byte(r))
		case r < 0x800:
			b = append(b, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r < 0x10000:
			b = append(b, 0xE0|byte(r>>12), 0x80|byte(r>>6&0x3F), 0x80|byte(r&0x3F))
		default:
			hi, lo := utf16.EncodeRune(r)
			b = append(b,
				0xE0|byte(hi>>12), 0x80|byte(hi>>6&0x3F), 0x80|byte(hi&0x3F),
				0xE0|byte(lo>>12), 0x80|byte(lo>>6&0x3F), 0x80|byte(lo&0x3F))
		}
	}
	return b
}
