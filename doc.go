// Package jclass provides decoding and encoding of JVM class files.
//
// The class file format is a single binary blob: a constant pool followed by
// access flags, the class hierarchy, and tables of fields, methods, and
// attributes. This library reads that blob lazily and builds new blobs
// incrementally, without ever materializing a full object tree.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	jclass/              Root package documentation
//	├── classfile/       Lazy class reader and incremental class writer
//	├── cpool/           Constant pool decoding and typed entry resolution
//	├── encoding/        Binary primitives: decoder, buffer, counted tables
//	├── mutf8/           Modified UTF-8 strings as stored in the pool
//	└── errors/          Structured decode and encode error types
//
// # Quick Start
//
// Decode a class file:
//
//	class, err := classfile.NewClass(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	name, err := class.ThisClassName()
//	fmt.Println(name) // "java/lang/String"
//
//	methods, err := class.Methods()
//	it := methods.Iter()
//	for it.Next() {
//	    m := it.Value()
//	    // ...
//	}
//
// Build a class file:
//
//	w := classfile.NewWriter()
//	this, _ := w.InsertClass("Example")
//	w.SetAccessFlags(classfile.AccPublic)
//	w.SetThisClass(this)
//	data, err := w.Finish()
//
// # Laziness
//
// The reader decodes sections on demand and caches what it has seen. Asking
// for the method table decodes everything up to and including methods, but
// leaves class attributes untouched. Attribute content is parsed only when
// ReadContent is called; the raw bytes remain available either way.
//
// # Thread Safety
//
// Class, Pool, and Writer are NOT safe for concurrent use. Iterators returned
// by Iter are independent and may be consumed from separate goroutines as
// long as the underlying Class is no longer being advanced.
package jclass
