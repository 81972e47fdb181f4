package classfile

// Magic is the fixed four-byte prefix of every class file.
const Magic uint32 = 0xCAFEBABE

// Version is the class-file format version pair.
type Version struct {
	Major uint16
	Minor uint16
}

// Well-known major versions.
const (
	MajorJava8  uint16 = 52
	MajorJava11 uint16 = 55
	MajorJava17 uint16 = 61
	MajorJava21 uint16 = 65
)

// AccessFlags is the bit set attached to classes, fields, and methods. Which
// bits are meaningful depends on the carrier; the codec passes them through
// uninterpreted.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020 // classes
	AccSynchronized AccessFlags = 0x0020 // methods
	AccVolatile     AccessFlags = 0x0040 // fields
	AccBridge       AccessFlags = 0x0040 // methods
	AccTransient    AccessFlags = 0x0080 // fields
	AccVarargs      AccessFlags = 0x0080 // methods
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

// Has reports whether every bit of flag is set.
func (f AccessFlags) Has(flag AccessFlags) bool {
	return f&flag == flag
}
