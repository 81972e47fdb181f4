// Package cpool models the class-file constant pool: the shared, 1-indexed
// table of literals and cross-references everything else in the format
// points into.
//
// Raw entries keep their nested pool references as typed indices. Get
// fetches an entry with its expected kind checked; the ResolveXxx methods
// additionally follow every nested index and materialize a self-contained
// value.
package cpool
