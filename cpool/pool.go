package cpool

import (
	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
	"github.com/wippyai/jclass/mutf8"
)

// Pool is the decoded constant pool. Entries are 1-indexed; slot 0 and the
// slot following every long or double entry are unusable.
type Pool struct {
	entries []Entry
}

// Decode parses the count-prefixed constant pool from d, leaving d
// positioned at the first byte after the pool.
func Decode(d *encoding.Decoder) (*Pool, error) {
	count, err := d.ReadU16()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, count)
	for i := uint16(1); i < count; {
		d.SetContext(errors.InConstantPool(i))
		e, err := decodeEntry(d)
		if err != nil {
			return nil, err
		}
		entries[i] = e
		switch e.Tag() {
		case TagLong, TagDouble:
			// wide entries take two slots, the second stays nil
			i += 2
		default:
			i++
		}
	}
	return &Pool{entries: entries}, nil
}

// Slots returns the declared pool slot count, including slot 0 and the
// unusable slots after wide entries.
func (p *Pool) Slots() int {
	return len(p.entries)
}

// GetAny returns the raw entry at index, failing with invalid_index for
// slot 0, out-of-range indices, and the unusable slot after a wide entry.
func (p *Pool) GetAny(index uint16) (Entry, error) {
	if index == 0 || int(index) >= len(p.entries) || p.entries[index] == nil {
		return nil, errors.DecodeErrorIn(errors.DecodeInvalidIndex, errors.InConstantPool(index))
	}
	return p.entries[index], nil
}

// Get returns the raw entry behind a typed index, failing with tag_mismatch
// when the slot holds a different entry kind.
func Get[E Entry](p *Pool, i Index[E]) (E, error) {
	var zero E
	e, err := p.GetAny(uint16(i))
	if err != nil {
		return zero, err
	}
	v, ok := e.(E)
	if !ok {
		return zero, errors.DecodeErrorIn(errors.DecodeTagMismatch, errors.InConstantPool(uint16(i)))
	}
	return v, nil
}

// Retrieve returns the validated string behind a Utf8 index.
func (p *Pool) Retrieve(i Index[ConstantUtf8]) (mutf8.MString, error) {
	e, err := Get(p, i)
	if err != nil {
		return nil, err
	}
	return e.Content, nil
}

func decodeEntry(d *encoding.Decoder) (Entry, error) {
	tagPos := d.FilePosition()
	tag, err := d.ReadU8()
	if err != nil {
		return nil, err
	}

	switch tag {
	case TagUtf8:
		length, err := d.ReadU16()
		if err != nil {
			return nil, err
		}
		strPos := d.FilePosition()
		raw, err := d.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		if !mutf8.Valid(raw) {
			return nil, errors.DecodeErrorAt(errors.DecodeInvalidMutf8, strPos, d.Context())
		}
		return ConstantUtf8{Content: mutf8.MString(raw)}, nil

	case TagInteger:
		v, err := d.ReadI32()
		return ConstantInteger{Value: v}, err

	case TagFloat:
		v, err := d.ReadF32()
		return ConstantFloat{Value: v}, err

	case TagLong:
		v, err := d.ReadI64()
		return ConstantLong{Value: v}, err

	case TagDouble:
		v, err := d.ReadF64()
		return ConstantDouble{Value: v}, err

	case TagClass:
		name, err := readIndex[ConstantUtf8](d)
		return ConstantClass{Name: name}, err

	case TagString:
		s, err := readIndex[ConstantUtf8](d)
		return ConstantString{String: s}, err

	case TagFieldRef:
		return decodeRef(d, func(c Index[ConstantClass], nt Index[ConstantNameAndType]) Entry {
			return ConstantFieldRef{Class: c, NameAndType: nt}
		})

	case TagMethodRef:
		return decodeRef(d, func(c Index[ConstantClass], nt Index[ConstantNameAndType]) Entry {
			return ConstantMethodRef{Class: c, NameAndType: nt}
		})

	case TagInterfaceMethodRef:
		return decodeRef(d, func(c Index[ConstantClass], nt Index[ConstantNameAndType]) Entry {
			return ConstantInterfaceMethodRef{Class: c, NameAndType: nt}
		})

	case TagNameAndType:
		name, err := readIndex[ConstantUtf8](d)
		if err != nil {
			return nil, err
		}
		desc, err := readIndex[ConstantUtf8](d)
		return ConstantNameAndType{Name: name, Descriptor: desc}, err

	case TagMethodHandle:
		kind, err := d.ReadU8()
		if err != nil {
			return nil, err
		}
		ref, err := d.ReadU16()
		return ConstantMethodHandle{Kind: MethodKind(kind), Reference: ref}, err

	case TagMethodType:
		desc, err := readIndex[ConstantUtf8](d)
		return ConstantMethodType{Descriptor: desc}, err

	case TagDynamic:
		bm, nt, err := decodeDynamic(d)
		return ConstantDynamic{BootstrapMethod: bm, NameAndType: nt}, err

	case TagInvokeDynamic:
		bm, nt, err := decodeDynamic(d)
		return ConstantInvokeDynamic{BootstrapMethod: bm, NameAndType: nt}, err

	case TagModule:
		name, err := readIndex[ConstantUtf8](d)
		return ConstantModule{Name: name}, err

	case TagPackage:
		name, err := readIndex[ConstantUtf8](d)
		return ConstantPackage{Name: name}, err

	default:
		return nil, errors.DecodeErrorAt(errors.DecodeInvalidTag, tagPos, d.Context())
	}
}

func decodeRef(d *encoding.Decoder, make func(Index[ConstantClass], Index[ConstantNameAndType]) Entry) (Entry, error) {
	class, err := readIndex[ConstantClass](d)
	if err != nil {
		return nil, err
	}
	nt, err := readIndex[ConstantNameAndType](d)
	if err != nil {
		return nil, err
	}
	return make(class, nt), nil
}

func decodeDynamic(d *encoding.Decoder) (uint16, Index[ConstantNameAndType], error) {
	bm, err := d.ReadU16()
	if err != nil {
		return 0, 0, err
	}
	nt, err := readIndex[ConstantNameAndType](d)
	return bm, nt, err
}
