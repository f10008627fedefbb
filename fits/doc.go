// Package fits reads the metadata tree of a FITS container.
// This package implements:
// - Header parsing: 80-byte cards in 2880-byte blocks, typed values
// - HDU traversal that skips data payloads by size, never reading them
// - Metadata tree construction with lazy references for binary tables
//
// Writing FITS files is out of scope.
package fits
