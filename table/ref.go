package table

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Common errors for reference construction and materialization.
var (
	ErrInvalidShape = errors.New("shape must be positive")
	ErrShortRead    = errors.New("container payload shorter than declared shape")
)

// Ref is a lazy array reference: it describes a table payload inside a
// container file without holding its bytes. The schema and shape are
// fixed at construction and never change; Materialize may be called any
// number of times and leaves the reference valid.
type Ref struct {
	path   string
	offset int64
	rows   int64
	schema Schema
}

// NewRef creates a reference to a table of rows records located at the
// given byte offset of the container at path.
func NewRef(path string, offset, rows int64, schema Schema) (*Ref, error) {
	if rows < 0 {
		return nil, ErrInvalidShape
	}
	if len(schema) == 0 {
		return nil, ErrNoFields
	}
	if offset < 0 {
		return nil, fmt.Errorf("invalid payload offset %d", offset)
	}
	return &Ref{path: path, offset: offset, rows: rows, schema: schema}, nil
}

// Shape returns the array shape. Tables are one-dimensional: one entry,
// the record count.
func (r *Ref) Shape() []int64 {
	return []int64{r.rows}
}

// Rows returns the record count.
func (r *Ref) Rows() int64 {
	return r.rows
}

// Schema returns the field schema. The caller must not modify it.
func (r *Ref) Schema() Schema {
	return r.schema
}

// Locator returns a stable string identifying the referenced payload.
// Used as a cache key by callers that memoize materialized tables.
func (r *Ref) Locator() string {
	return fmt.Sprintf("%s@%d+%dx%d", r.path, r.offset, r.rows, r.schema.RowSize())
}

// Materialize reads the referenced payload and decodes it into a
// concrete Table. This is the one point where the container's bytes are
// read; the reference itself is untouched, so repeated calls yield
// bit-identical results.
func (r *Ref) Materialize() (*Table, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open container for payload read: %w", err)
	}
	defer f.Close()

	rowSize := r.schema.RowSize()
	raw := make([]byte, r.rows*int64(rowSize))
	if _, err := f.ReadAt(raw, r.offset); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: want %d bytes at offset %d", ErrShortRead, len(raw), r.offset)
		}
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	rec, err := decodeRecord(raw, r.rows, r.schema)
	if err != nil {
		return nil, err
	}
	return &Table{rec: rec, schema: r.schema}, nil
}

// decodeRecord decodes row-major fixed-width records into an Arrow
// record using one builder per column.
func decodeRecord(raw []byte, rows int64, schema Schema) (arrow.Record, error) {
	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema.ArrowSchema())
	defer builder.Release()

	rowSize := schema.RowSize()
	for i := int64(0); i < rows; i++ {
		row := raw[i*int64(rowSize) : (i+1)*int64(rowSize)]
		off := 0
		for col, field := range schema {
			if err := appendValue(builder.Field(col), field, row[off:off+field.Size()]); err != nil {
				return nil, fmt.Errorf("row %d field %s: %w", i, field.Name, err)
			}
			off += field.Size()
		}
	}
	return builder.NewRecord(), nil
}

// appendValue decodes one cell and appends it to the column builder.
func appendValue(b array.Builder, field Field, cell []byte) error {
	order := field.Order.byteOrder()
	switch field.Type {
	case Logical:
		b.(*array.BooleanBuilder).Append(cell[0] == 'T' || cell[0] == 1)
	case Uint8:
		b.(*array.Uint8Builder).Append(cell[0])
	case Int16:
		b.(*array.Int16Builder).Append(int16(order.Uint16(cell)))
	case Int32:
		b.(*array.Int32Builder).Append(int32(order.Uint32(cell)))
	case Int64:
		b.(*array.Int64Builder).Append(int64(order.Uint64(cell)))
	case Float32:
		b.(*array.Float32Builder).Append(math.Float32frombits(order.Uint32(cell)))
	case Float64:
		b.(*array.Float64Builder).Append(math.Float64frombits(order.Uint64(cell)))
	case String:
		b.(*array.StringBuilder).Append(trimPadding(cell))
	default:
		return fmt.Errorf("unsupported field type %v", field.Type)
	}
	return nil
}

// trimPadding strips trailing blanks and NULs from a character cell.
func trimPadding(cell []byte) string {
	end := len(cell)
	for end > 0 && (cell[end-1] == ' ' || cell[end-1] == 0) {
		end--
	}
	return string(cell[:end])
}
