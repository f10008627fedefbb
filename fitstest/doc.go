// Package fitstest synthesizes small FITS containers for tests. It is
// deliberately minimal: fixed-format cards, big-endian binary tables,
// no compression or variable-length arrays.
package fitstest
