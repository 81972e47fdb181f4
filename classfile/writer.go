package classfile

import (
	"math"

	"github.com/wippyai/jclass/cpool"
	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
	"github.com/wippyai/jclass/mutf8"
)

// writer sections, entered strictly in order
type section uint8

const (
	sectionStart section = iota
	sectionAccessFlags
	sectionThisClass
	sectionSuperClass
	sectionInterfaces
	sectionFields
	sectionMethods
	sectionAttributes
	sectionFinished
)

// header layout: magic, minor, major, then the pool count placeholder
const (
	versionOffset   encoding.Offset = 4
	poolCountOffset encoding.Offset = 8
	headerEnd       encoding.Offset = 10
)

// Writer assembles a complete class file in memory. Constant-pool entries
// may be inserted at any time, even while later sections are being written:
// they are spliced in at the pool anchor and every pending placeholder
// offset is kept relative to that anchor, so earlier reservations stay valid
// as the pool grows. Structurally equal entries are deduplicated.
//
// Sections must be written in class-file order; skipped sections are filled
// with zero defaults. Finish rejects a class that never set its own class
// reference.
type Writer struct {
	buf     *encoding.Buffer
	section section
	err     error

	poolEnd   encoding.Offset
	nextIndex uint16
	dedup     map[poolKey]uint16
	hasThis   bool

	interfaces *CountedWriter[encoding.Encoder]
	fields     *CountedWriter[*FieldWriter]
	methods    *CountedWriter[*MethodWriter]
	attributes *CountedWriter[*AttributeWriter]
}

// NewWriter starts a class file with the default version.
func NewWriter() *Writer {
	buf := encoding.NewBuffer()
	encoding.WriteU32(buf, Magic)
	encoding.WriteU16(buf, 0) // minor
	encoding.WriteU16(buf, MajorJava8)
	encoding.WriteU16(buf, 0) // pool count, patched by Finish

	return &Writer{
		buf:       buf,
		poolEnd:   headerEnd,
		nextIndex: 1,
		dedup:     make(map[poolKey]uint16),
	}
}

// rel converts an absolute buffer offset into one relative to the pool
// anchor. Pool insertion shifts everything at or after the anchor, so only
// relative offsets may be held across inserts.
func (w *Writer) rel(abs encoding.Offset) encoding.Offset {
	return abs.Sub(w.poolEnd)
}

// abs converts an anchor-relative offset back using the anchor's current
// position.
func (w *Writer) abs(rel encoding.Offset) encoding.Offset {
	return rel.Add(w.poolEnd)
}

// SetVersion overwrites the default format version. It must be called before
// any section is written.
func (w *Writer) SetVersion(v Version) error {
	if w.err != nil {
		return errors.NewEncodeError(errors.EncodeErroredBefore)
	}
	if w.section != sectionStart {
		return errors.NewEncodeError(errors.EncodeIncorrectState)
	}
	r := w.buf.Replacing(versionOffset)
	if err := encoding.WriteU16(r, v.Minor); err != nil {
		return w.fail(err)
	}
	return w.fail(encoding.WriteU16(r, v.Major))
}

// enter moves the writer into target, emitting zero defaults for every
// section skipped on the way. It fails when target has already been passed.
func (w *Writer) enter(target section) error {
	if w.err != nil {
		return errors.NewEncodeError(errors.EncodeErroredBefore)
	}
	if w.section > target {
		return errors.NewEncodeError(errors.EncodeIncorrectState)
	}
	for w.section < target {
		// every skippable section defaults to a zero u16: flags, class
		// references, and the table counts alike
		if err := encoding.WriteU16(w.buf, 0); err != nil {
			return w.fail(err)
		}
		w.section++
	}
	return nil
}

// SetAccessFlags writes the class access flags.
func (w *Writer) SetAccessFlags(f AccessFlags) error {
	if err := w.enter(sectionStart); err != nil {
		return err
	}
	if err := encoding.WriteU16(w.buf, uint16(f)); err != nil {
		return w.fail(err)
	}
	w.section = sectionAccessFlags
	return nil
}

// SetThisClass writes the reference to the class being defined. Every class
// must set it before Finish.
func (w *Writer) SetThisClass(i cpool.Index[cpool.ConstantClass]) error {
	if err := w.enter(sectionAccessFlags); err != nil {
		return err
	}
	if err := encoding.WriteU16(w.buf, uint16(i)); err != nil {
		return w.fail(err)
	}
	w.section = sectionThisClass
	w.hasThis = true
	return nil
}

// SetSuperClass writes the superclass reference.
func (w *Writer) SetSuperClass(i cpool.Index[cpool.ConstantClass]) error {
	if err := w.enter(sectionThisClass); err != nil {
		return err
	}
	if err := encoding.WriteU16(w.buf, uint16(i)); err != nil {
		return w.fail(err)
	}
	w.section = sectionSuperClass
	return nil
}

// AddInterface appends one implemented interface.
func (w *Writer) AddInterface(i cpool.Index[cpool.ConstantClass]) error {
	if w.interfaces == nil {
		if err := w.enter(sectionSuperClass); err != nil {
			return err
		}
		c, err := newCountedWriter(w, w.buf, errors.InInterfaces(), true,
			func() encoding.Encoder { return w.buf }, nil)
		if err != nil {
			return w.fail(err)
		}
		w.interfaces = c
		w.section = sectionInterfaces
	} else if w.section != sectionInterfaces {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InInterfaces())
	}
	return w.interfaces.Write(func(e encoding.Encoder) error {
		return encoding.WriteU16(e, uint16(i))
	})
}

// AddField writes one field through build.
func (w *Writer) AddField(build func(*FieldWriter) error) error {
	if w.fields == nil {
		if err := w.enter(sectionInterfaces); err != nil {
			return err
		}
		c, err := newCountedWriter(w, w.buf, errors.InFields(), true,
			func() *FieldWriter { return &FieldWriter{memberWriter{w: w, out: w.buf, ctx: errors.InFields()}} },
			func(fw *FieldWriter) error { return fw.finish() })
		if err != nil {
			return w.fail(err)
		}
		w.fields = c
		w.section = sectionFields
	} else if w.section != sectionFields {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InFields())
	}
	return w.fields.Write(build)
}

// AddMethod writes one method through build.
func (w *Writer) AddMethod(build func(*MethodWriter) error) error {
	if w.methods == nil {
		if err := w.enter(sectionFields); err != nil {
			return err
		}
		c, err := newCountedWriter(w, w.buf, errors.InMethods(), true,
			func() *MethodWriter { return &MethodWriter{memberWriter{w: w, out: w.buf, ctx: errors.InMethods()}} },
			func(mw *MethodWriter) error { return mw.finish() })
		if err != nil {
			return w.fail(err)
		}
		w.methods = c
		w.section = sectionMethods
	} else if w.section != sectionMethods {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InMethods())
	}
	return w.methods.Write(build)
}

// AddAttribute writes one class-level attribute through build.
func (w *Writer) AddAttribute(build func(*AttributeWriter) error) error {
	if w.attributes == nil {
		if err := w.enter(sectionMethods); err != nil {
			return err
		}
		c, err := newCountedWriter(w, w.buf, errors.InAttributes(), true,
			func() *AttributeWriter { return &AttributeWriter{w: w, out: w.buf} },
			func(aw *AttributeWriter) error { return aw.finish() })
		if err != nil {
			return w.fail(err)
		}
		w.attributes = c
		w.section = sectionAttributes
	} else if w.section != sectionAttributes {
		return errors.EncodeErrorIn(errors.EncodeIncorrectState, errors.InAttributes())
	}
	return w.attributes.Write(build)
}

// Finish fills any trailing skipped sections with zero defaults, patches the
// pool count, and returns the complete class-file bytes. The Writer cannot
// be used afterwards.
func (w *Writer) Finish() ([]byte, error) {
	if w.err != nil {
		return nil, errors.NewEncodeError(errors.EncodeErroredBefore)
	}
	if w.section == sectionFinished {
		return nil, errors.NewEncodeError(errors.EncodeIncorrectState)
	}
	if !w.hasThis {
		return nil, errors.NewEncodeError(errors.EncodeValuesMissing)
	}
	if err := w.enter(sectionAttributes); err != nil {
		return nil, err
	}
	if err := encoding.WriteU16(w.buf.Replacing(poolCountOffset), w.nextIndex); err != nil {
		return nil, w.fail(err)
	}
	w.section = sectionFinished

	debugf("class file finished: %d pool slots, %d bytes", w.nextIndex, w.buf.Len())
	return w.buf.Bytes(), nil
}

func (w *Writer) fail(err error) error {
	if err != nil && w.err == nil {
		w.err = err
	}
	return err
}

// poolKey identifies a pool entry structurally. Composite entries key on the
// indices of their already-inserted children, numeric entries on their bit
// patterns.
type poolKey struct {
	tag  uint8
	str  string
	a, b uint32
}

// insert splices one entry in at the pool anchor, allocating slots index
// slots for it, and returns its index. Structurally equal entries reuse the
// previously allocated index.
func (w *Writer) insert(key poolKey, slots uint16, encode func(encoding.Encoder) error) (uint16, error) {
	if w.err != nil {
		return 0, errors.NewEncodeError(errors.EncodeErroredBefore)
	}
	if w.section == sectionFinished {
		return 0, errors.NewEncodeError(errors.EncodeCantChangeAnymore)
	}
	if index, ok := w.dedup[key]; ok {
		return index, nil
	}
	// the count field holds highest index + 1 and must stay a u16
	if uint32(w.nextIndex)+uint32(slots) > math.MaxUint16 {
		return 0, errors.EncodeErrorIn(errors.EncodeTooManyItems, errors.InConstantPool(w.nextIndex))
	}

	ins := w.buf.Inserting(w.poolEnd)
	if err := encode(ins); err != nil {
		return 0, w.fail(err)
	}
	w.poolEnd = ins.Position()

	index := w.nextIndex
	w.nextIndex += slots
	w.dedup[key] = index
	return index, nil
}

// InsertUtf8 inserts a string constant and returns its index.
func (w *Writer) InsertUtf8(s string) (cpool.Index[cpool.ConstantUtf8], error) {
	b := mutf8.Encode(s)
	if len(b) > math.MaxUint16 {
		return 0, errors.EncodeErrorIn(errors.EncodeTooManyBytes, errors.InConstantPool(w.nextIndex))
	}
	index, err := w.insert(poolKey{tag: cpool.TagUtf8, str: string(b)}, 1, func(e encoding.Encoder) error {
		if err := encoding.WriteU8(e, cpool.TagUtf8); err != nil {
			return err
		}
		if err := encoding.WriteU16(e, uint16(len(b))); err != nil {
			return err
		}
		return e.WriteBytes(b)
	})
	return cpool.Index[cpool.ConstantUtf8](index), err
}

// InsertInteger inserts an integer constant.
func (w *Writer) InsertInteger(v int32) (cpool.Index[cpool.ConstantInteger], error) {
	index, err := w.insert(poolKey{tag: cpool.TagInteger, a: uint32(v)}, 1, func(e encoding.Encoder) error {
		if err := encoding.WriteU8(e, cpool.TagInteger); err != nil {
			return err
		}
		return encoding.WriteI32(e, v)
	})
	return cpool.Index[cpool.ConstantInteger](index), err
}

// InsertFloat inserts a float constant, keyed by bit pattern.
func (w *Writer) InsertFloat(v float32) (cpool.Index[cpool.ConstantFloat], error) {
	index, err := w.insert(poolKey{tag: cpool.TagFloat, a: math.Float32bits(v)}, 1, func(e encoding.Encoder) error {
		if err := encoding.WriteU8(e, cpool.TagFloat); err != nil {
			return err
		}
		return encoding.WriteF32(e, v)
	})
	return cpool.Index[cpool.ConstantFloat](index), err
}

// InsertLong inserts a long constant. It occupies two pool slots.
func (w *Writer) InsertLong(v int64) (cpool.Index[cpool.ConstantLong], error) {
	key := poolKey{tag: cpool.TagLong, a: uint32(uint64(v) >> 32), b: uint32(uint64(v))}
	index, err := w.insert(key, 2, func(e encoding.Encoder) error {
		if err := encoding.WriteU8(e, cpool.TagLong); err != nil {
			return err
		}
		return encoding.WriteI64(e, v)
	})
	return cpool.Index[cpool.ConstantLong](index), err
}

// InsertDouble inserts a double constant, keyed by bit pattern. It occupies
// two pool slots.
func (w *Writer) InsertDouble(v float64) (cpool.Index[cpool.ConstantDouble], error) {
	bits := math.Float64bits(v)
	key := poolKey{tag: cpool.TagDouble, a: uint32(bits >> 32), b: uint32(bits)}
	index, err := w.insert(key, 2, func(e encoding.Encoder) error {
		if err := encoding.WriteU8(e, cpool.TagDouble); err != nil {
			return err
		}
		return encoding.WriteF64(e, v)
	})
	return cpool.Index[cpool.ConstantDouble](index), err
}

// InsertClass inserts a class reference by name, inserting the name string
// as needed.
func (w *Writer) InsertClass(name string) (cpool.Index[cpool.ConstantClass], error) {
	nameIndex, err := w.InsertUtf8(name)
	if err != nil {
		return 0, err
	}
	index, err := w.insertIndexed(cpool.TagClass, uint16(nameIndex))
	return cpool.Index[cpool.ConstantClass](index), err
}

// InsertString inserts a string object constant.
func (w *Writer) InsertString(value string) (cpool.Index[cpool.ConstantString], error) {
	valueIndex, err := w.InsertUtf8(value)
	if err != nil {
		return 0, err
	}
	index, err := w.insertIndexed(cpool.TagString, uint16(valueIndex))
	return cpool.Index[cpool.ConstantString](index), err
}

// InsertMethodType inserts a method descriptor constant.
func (w *Writer) InsertMethodType(descriptor string) (cpool.Index[cpool.ConstantMethodType], error) {
	descIndex, err := w.InsertUtf8(descriptor)
	if err != nil {
		return 0, err
	}
	index, err := w.insertIndexed(cpool.TagMethodType, uint16(descIndex))
	return cpool.Index[cpool.ConstantMethodType](index), err
}

// insertIndexed covers the entry kinds holding a single u16 pool index.
func (w *Writer) insertIndexed(tag uint8, ref uint16) (uint16, error) {
	return w.insert(poolKey{tag: tag, a: uint32(ref)}, 1, func(e encoding.Encoder) error {
		if err := encoding.WriteU8(e, tag); err != nil {
			return err
		}
		return encoding.WriteU16(e, ref)
	})
}

// InsertNameAndType inserts a name/descriptor pair.
func (w *Writer) InsertNameAndType(name, descriptor string) (cpool.Index[cpool.ConstantNameAndType], error) {
	nameIndex, err := w.InsertUtf8(name)
	if err != nil {
		return 0, err
	}
	descIndex, err := w.InsertUtf8(descriptor)
	if err != nil {
		return 0, err
	}
	key := poolKey{tag: cpool.TagNameAndType, a: uint32(nameIndex), b: uint32(descIndex)}
	index, err := w.insert(key, 1, func(e encoding.Encoder) error {
		if err := encoding.WriteU8(e, cpool.TagNameAndType); err != nil {
			return err
		}
		if err := encoding.WriteU16(e, uint16(nameIndex)); err != nil {
			return err
		}
		return encoding.WriteU16(e, uint16(descIndex))
	})
	return cpool.Index[cpool.ConstantNameAndType](index), err
}

// InsertFieldRef inserts a field reference, inserting the class and
// name/descriptor entries as needed.
func (w *Writer) InsertFieldRef(class, name, descriptor string) (cpool.Index[cpool.ConstantFieldRef], error) {
	index, err := w.insertRef(cpool.TagFieldRef, class, name, descriptor)
	return cpool.Index[cpool.ConstantFieldRef](index), err
}

// InsertMethodRef inserts a method reference.
func (w *Writer) InsertMethodRef(class, name, descriptor string) (cpool.Index[cpool.ConstantMethodRef], error) {
	index, err := w.insertRef(cpool.TagMethodRef, class, name, descriptor)
	return cpool.Index[cpool.ConstantMethodRef](index), err
}

// InsertInterfaceMethodRef inserts an interface method reference.
func (w *Writer) InsertInterfaceMethodRef(class, name, descriptor string) (cpool.Index[cpool.ConstantInterfaceMethodRef], error) {
	index, err := w.insertRef(cpool.TagInterfaceMethodRef, class, name, descriptor)
	return cpool.Index[cpool.ConstantInterfaceMethodRef](index), err
}

func (w *Writer) insertRef(tag uint8, class, name, descriptor string) (uint16, error) {
	classIndex, err := w.InsertClass(class)
	if err != nil {
		return 0, err
	}
	ntIndex, err := w.InsertNameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	key := poolKey{tag: tag, a: uint32(classIndex), b: uint32(ntIndex)}
	return w.insert(key, 1, func(e encoding.Encoder) error {
		if err := encoding.WriteU8(e, tag); err != nil {
			return err
		}
		if err := encoding.WriteU16(e, uint16(classIndex)); err != nil {
			return err
		}
		return encoding.WriteU16(e, uint16(ntIndex))
	})
}
