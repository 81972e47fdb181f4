// Package errors provides structured error types for the jclass library.
//
// Decode and encode failures are separate taxonomies, each a closed Kind
// enumeration. A DecodeError carries the absolute byte position at which the
// failure occurred (when the failure is an I/O-shaped one) and the Context
// describing which part of the class file was being decoded:
//
//	err := errors.DecodeErrorAt(errors.DecodeUnexpectedEOI, pos, ctx)
//
// An EncodeError carries only a Kind and Context; encode failures are
// semantic (a writer called out of phase, a counter saturated) and have no
// meaningful byte position:
//
//	err := errors.EncodeErrorIn(errors.EncodeTooManyItems, errors.InFields())
//
// All errors implement the standard error interface and support errors.Is
// matching on Kind.
package errors
