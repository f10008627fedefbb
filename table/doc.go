// Package table provides the lazy tabular array layer for SpecTable-Engine.
// This package implements:
// - Field schemas for named, typed, byte-ordered columns
// - Lazy array references (shape + schema known, bytes unread)
// - Materialization of references into Apache Arrow records
package table
