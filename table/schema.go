package table

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Common errors for schema construction.
var (
	ErrNoFields      = errors.New("schema has no fields")
	ErrDuplicateName = errors.New("duplicate field name")
)

// Type identifies the scalar type of one column.
type Type int

const (
	Logical Type = iota // one-byte boolean
	Uint8
	Int16
	Int32
	Int64
	Float32
	Float64
	String // fixed-width character field
)

// String returns the name of the scalar type.
func (t Type) String() string {
	switch t {
	case Logical:
		return "logical"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case String:
		return "string"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Order is the byte order of one column's stored values.
type Order int

const (
	BigEndian Order = iota
	LittleEndian
)

// String returns the conventional name of the byte order.
func (o Order) String() string {
	if o == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

// byteOrder maps an Order to its encoding/binary implementation.
func (o Order) byteOrder() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Field describes one column: its name, scalar type, byte order and,
// for character fields, the fixed width in bytes.
type Field struct {
	Name  string
	Type  Type
	Order Order
	Width int // bytes, only consulted for String fields
}

// Size returns the number of bytes the field occupies in one row.
func (f Field) Size() int {
	switch f.Type {
	case Logical, Uint8:
		return 1
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	case String:
		return f.Width
	default:
		return 0
	}
}

// arrowType maps the field's scalar type to its Arrow data type.
func (f Field) arrowType() arrow.DataType {
	switch f.Type {
	case Logical:
		return arrow.FixedWidthTypes.Boolean
	case Uint8:
		return arrow.PrimitiveTypes.Uint8
	case Int16:
		return arrow.PrimitiveTypes.Int16
	case Int32:
		return arrow.PrimitiveTypes.Int32
	case Int64:
		return arrow.PrimitiveTypes.Int64
	case Float32:
		return arrow.PrimitiveTypes.Float32
	case Float64:
		return arrow.PrimitiveTypes.Float64
	case String:
		return arrow.BinaryTypes.String
	default:
		return nil
	}
}

// Schema is the ordered list of fields describing each record.
type Schema []Field

// NewSchema validates the field list and returns it as a Schema.
// Field names must be unique and at least one field is required.
func NewSchema(fields []Field) (Schema, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, errors.New("field name is required")
		}
		if _, ok := seen[f.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, f.Name)
		}
		if f.Size() <= 0 {
			return nil, fmt.Errorf("field %s has invalid size", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return Schema(fields), nil
}

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// RowSize returns the number of bytes one record occupies.
func (s Schema) RowSize() int {
	size := 0
	for _, f := range s {
		size += f.Size()
	}
	return size
}

// ArrowSchema builds the Arrow schema equivalent of the field list.
func (s Schema) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(s))
	for i, f := range s {
		fields[i] = arrow.Field{Name: f.Name, Type: f.arrowType()}
	}
	return arrow.NewSchema(fields, nil)
}
