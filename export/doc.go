// Package export serializes a materialized table to delimited text.
// The first output line is the comma-joined field names; every
// following line is one record in schema order.
package export
