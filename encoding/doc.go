// Package encoding implements the byte-level decode and encode engine for
// class files.
//
// # Decoding
//
// Decoder is a read-only cursor over the input buffer. It never copies the
// input: reads return subslices of the backing buffer, so the caller must
// keep the buffer alive and unmodified for as long as decoded views are used.
// Decoder has value semantics; copying one yields an independent cursor over
// the same bytes, which is how fallible multi-step decodes stay atomic: work
// on a copy, commit by assigning back on success.
//
//	d := encoding.NewDecoder(data, errors.InStart())
//	magic, err := d.ReadU32()
//
// Counted and CountedCopy provide count-prefixed lazy iteration, and Lazy is
// a decode-at-most-once cell that caches both values and failures.
//
// # Encoding
//
// Buffer is the appending encoder an output file is assembled in. Two derived
// encoders serve fields whose values are unknown when their position is
// reserved: Inserting splices bytes at an interior position, shifting the
// tail forward, and Replacing overwrites a previously reserved fixed-width
// placeholder in place. Offsets into the buffer are relative markers; code
// that must survive splice shifts records offsets relative to an anchor and
// resolves them to absolute positions only at patch time.
package encoding
