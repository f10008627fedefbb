package table

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ErrFieldNotFound is returned when a named column is absent.
var ErrFieldNotFound = errors.New("field not found")

// Table is a concrete structured array: a materialized Arrow record plus
// the field schema it was decoded with. It holds no reference to the
// container it came from and outlives the file handle.
type Table struct {
	rec    arrow.Record
	schema Schema
}

// NewTable wraps an existing Arrow record. The record's column count
// must match the schema.
func NewTable(rec arrow.Record, schema Schema) (*Table, error) {
	if rec == nil {
		return nil, errors.New("record is nil")
	}
	if int(rec.NumCols()) != len(schema) {
		return nil, fmt.Errorf("column count mismatch: record has %d, schema has %d",
			rec.NumCols(), len(schema))
	}
	return &Table{rec: rec, schema: schema}, nil
}

// Record returns the underlying Arrow record.
func (t *Table) Record() arrow.Record {
	return t.rec
}

// Schema returns the field schema.
func (t *Table) Schema() Schema {
	return t.schema
}

// NumRows returns the record count.
func (t *Table) NumRows() int64 {
	return t.rec.NumRows()
}

// NumCols returns the field count.
func (t *Table) NumCols() int {
	return int(t.rec.NumCols())
}

// Retain increments the underlying record's reference count.
func (t *Table) Retain() {
	t.rec.Retain()
}

// Release decrements the underlying record's reference count.
func (t *Table) Release() {
	t.rec.Release()
}

// Equal reports whether two tables hold field-identical data.
func (t *Table) Equal(other *Table) bool {
	if other == nil {
		return false
	}
	return array.RecordEqual(t.rec, other.rec)
}

// Float64Column returns the named numeric column widened to float64.
// Integer and float32 columns are converted; non-numeric columns are an
// error.
func (t *Table) Float64Column(name string) ([]float64, error) {
	idx := -1
	for i, f := range t.schema {
		if f.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}

	col := t.rec.Column(idx)
	out := make([]float64, col.Len())
	switch c := col.(type) {
	case *array.Float64:
		copy(out, c.Float64Values())
	case *array.Float32:
		for i, v := range c.Float32Values() {
			out[i] = float64(v)
		}
	case *array.Int16:
		for i, v := range c.Int16Values() {
			out[i] = float64(v)
		}
	case *array.Int32:
		for i, v := range c.Int32Values() {
			out[i] = float64(v)
		}
	case *array.Int64:
		for i, v := range c.Int64Values() {
			out[i] = float64(v)
		}
	case *array.Uint8:
		for i, v := range c.Uint8Values() {
			out[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("field %q is not numeric", name)
	}
	return out, nil
}
