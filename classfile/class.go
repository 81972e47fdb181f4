package classfile

import (
	"github.com/wippyai/jclass/cpool"
	"github.com/wippyai/jclass/encoding"
	"github.com/wippyai/jclass/errors"
	"github.com/wippyai/jclass/mutf8"
)

// decode stages, advanced strictly in order
type stage uint8

const (
	stageStart stage = iota
	stagePool
	stageInfo
	stageInterfaces
	stageFields
	stageMethods
	stageAttributes
)

// Class is a lazily decoded class file. The magic and version are parsed up
// front; everything after is decoded in stages the first time an accessor
// needs it. A stage failure is cached and replayed on every later access.
//
// The Class borrows the input buffer and never copies it; the caller must
// keep the buffer alive and unmodified for as long as the Class or anything
// obtained from it is in use.
type Class struct {
	version Version

	d     encoding.Decoder
	stage stage
	err   error

	pool        *cpool.Pool
	accessFlags AccessFlags
	thisClass   cpool.Index[cpool.ConstantClass]
	superClass  cpool.Index[cpool.ConstantClass]
	interfaces  *encoding.CountedCopy[cpool.Index[cpool.ConstantClass]]
	fields      *encoding.CountedCopy[Field]
	methods     *encoding.CountedCopy[Method]
	attributes  *encoding.CountedCopy[Attribute]
}

// NewClass parses the header of buf and returns a lazy view over the rest.
func NewClass(buf []byte) (*Class, error) {
	d := encoding.NewDecoder(buf, errors.InStart())

	magic, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, errors.DecodeErrorAt(errors.DecodeInvalidPrefix, 0, errors.InStart())
	}
	minor, err := d.ReadU16()
	if err != nil {
		return nil, err
	}
	major, err := d.ReadU16()
	if err != nil {
		return nil, err
	}

	debugf("class header: version %d.%d, %d bytes", major, minor, len(buf))
	return &Class{
		version: Version{Major: major, Minor: minor},
		d:       d,
	}, nil
}

// Version returns the class-file format version.
func (c *Class) Version() Version {
	return c.version
}

// ensure decodes stages in order until s has been reached, replaying any
// previously cached failure.
func (c *Class) ensure(s stage) error {
	if c.err != nil {
		return c.err
	}
	for c.stage < s {
		if err := c.decodeNext(); err != nil {
			c.err = err
			return err
		}
	}
	return nil
}

func (c *Class) decodeNext() error {
	switch c.stage {
	case stageStart:
		c.d.SetContext(errors.InConstantPool(0))
		pool, err := cpool.Decode(&c.d)
		if err != nil {
			return err
		}
		c.pool = pool
	case stagePool:
		c.d.SetContext(errors.InStart())
		flags, err := c.d.ReadU16()
		if err != nil {
			return err
		}
		this, err := c.d.ReadU16()
		if err != nil {
			return err
		}
		super, err := c.d.ReadU16()
		if err != nil {
			return err
		}
		c.accessFlags = AccessFlags(flags)
		c.thisClass = cpool.Index[cpool.ConstantClass](this)
		c.superClass = cpool.Index[cpool.ConstantClass](super)
	case stageInfo:
		c.d.SetContext(errors.InInterfaces())
		ifaces, err := encoding.ReadCountedU16(&c.d, decodeClassIndex)
		if err != nil {
			return err
		}
		c.interfaces = ifaces
	case stageInterfaces:
		c.d.SetContext(errors.InFields())
		fields, err := encoding.ReadCountedU16(&c.d, decodeField)
		if err != nil {
			return err
		}
		c.fields = fields
	case stageFields:
		c.d.SetContext(errors.InMethods())
		methods, err := encoding.ReadCountedU16(&c.d, decodeMethod)
		if err != nil {
			return err
		}
		c.methods = methods
	case stageMethods:
		c.d.SetContext(errors.InAttributes())
		attrs, err := encoding.ReadCountedU16(&c.d, decodeAttribute)
		if err != nil {
			return err
		}
		c.attributes = attrs
	}
	c.stage++
	return nil
}

// Pool returns the decoded constant pool.
func (c *Class) Pool() (*cpool.Pool, error) {
	if err := c.ensure(stagePool); err != nil {
		return nil, err
	}
	return c.pool, nil
}

// AccessFlags returns the class access flags.
func (c *Class) AccessFlags() (AccessFlags, error) {
	if err := c.ensure(stageInfo); err != nil {
		return 0, err
	}
	return c.accessFlags, nil
}

// ThisClass returns the pool index of the class being defined.
func (c *Class) ThisClass() (cpool.Index[cpool.ConstantClass], error) {
	if err := c.ensure(stageInfo); err != nil {
		return 0, err
	}
	return c.thisClass, nil
}

// SuperClass returns the pool index of the superclass. A zero index means
// the class has no superclass.
func (c *Class) SuperClass() (cpool.Index[cpool.ConstantClass], error) {
	if err := c.ensure(stageInfo); err != nil {
		return 0, err
	}
	return c.superClass, nil
}

// ThisClassName resolves the name of the class being defined.
func (c *Class) ThisClassName() (mutf8.MString, error) {
	index, err := c.ThisClass()
	if err != nil {
		return nil, err
	}
	class, err := c.pool.ResolveClass(index)
	if err != nil {
		return nil, err
	}
	return class.Name, nil
}

// SuperClassName resolves the superclass name, or returns nil when the class
// has no superclass.
func (c *Class) SuperClassName() (mutf8.MString, error) {
	index, err := c.SuperClass()
	if err != nil {
		return nil, err
	}
	if index == 0 {
		return nil, nil
	}
	class, err := c.pool.ResolveClass(index)
	if err != nil {
		return nil, err
	}
	return class.Name, nil
}

// Interfaces returns the implemented interface table as restartable pool
// indices.
func (c *Class) Interfaces() (*encoding.CountedCopy[cpool.Index[cpool.ConstantClass]], error) {
	if err := c.ensure(stageInterfaces); err != nil {
		return nil, err
	}
	return c.interfaces, nil
}

// Fields returns the field table.
func (c *Class) Fields() (*encoding.CountedCopy[Field], error) {
	if err := c.ensure(stageFields); err != nil {
		return nil, err
	}
	return c.fields, nil
}

// Methods returns the method table.
func (c *Class) Methods() (*encoding.CountedCopy[Method], error) {
	if err := c.ensure(stageMethods); err != nil {
		return nil, err
	}
	return c.methods, nil
}

// Attributes returns the class-level attribute table.
func (c *Class) Attributes() (*encoding.CountedCopy[Attribute], error) {
	if err := c.ensure(stageAttributes); err != nil {
		return nil, err
	}
	return c.attributes, nil
}

func decodeClassIndex(d *encoding.Decoder) (cpool.Index[cpool.ConstantClass], error) {
	v, err := d.ReadU16()
	return cpool.Index[cpool.ConstantClass](v), err
}
