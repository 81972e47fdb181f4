// Package classfile decodes and encodes JVM class files.
//
// The decode entry point is NewClass, which parses the header eagerly and
// everything after it lazily: the constant pool, the class info words, and
// the interface, field, method, and attribute tables are each decoded the
// first time an accessor needs them. Decoded structures borrow the input
// buffer; the caller keeps it alive and unmodified while they are in use.
//
// The encode entry point is NewWriter, which assembles a complete class file
// in memory. Constant-pool entries are spliced in at a fixed anchor as they
// are inserted, so pool references may be allocated at any point while the
// class body is being written. Count and length fields are reserved as
// placeholders and patched in place once their values are known.
package classfile
