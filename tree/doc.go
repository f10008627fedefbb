// Package tree provides the hierarchical metadata tree extracted from a
// container and the navigator that locates a tabular entry inside it.
// This package implements:
// - An ordered string-keyed tree of scalars, mappings, sequences and
//   lazy array references
// - FindTable, which walks a key hint to the conventional table location
package tree
