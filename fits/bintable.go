package fits

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/VanDung-dev/SpecTable-Engine/table"
)

// ErrUnsupportedForm reports a TFORM code this reader cannot decode.
var ErrUnsupportedForm = errors.New("unsupported TFORM code")

// tformRE matches a TFORM value: optional repeat count, one type code.
var tformRE = regexp.MustCompile(`^(\d*)([LXBIJKAEDCMPQ])`)

// binTableRef derives a lazy array reference from a BINTABLE header.
// Only the header is consulted; the payload bytes stay unread.
func binTableRef(path string, h hdu) (*table.Ref, error) {
	rowSize, ok := h.header.Int("NAXIS1")
	if !ok {
		return nil, fmt.Errorf("%w: missing NAXIS1", ErrMalformedHeader)
	}
	rows, ok := h.header.Int("NAXIS2")
	if !ok {
		return nil, fmt.Errorf("%w: missing NAXIS2", ErrMalformedHeader)
	}
	nfields, ok := h.header.Int("TFIELDS")
	if !ok {
		return nil, fmt.Errorf("%w: missing TFIELDS", ErrMalformedHeader)
	}

	fields := make([]table.Field, 0, nfields)
	for n := int64(1); n <= nfields; n++ {
		suffix := strconv.FormatInt(n, 10)
		name, ok := h.header.Str("TTYPE" + suffix)
		if !ok {
			return nil, fmt.Errorf("%w: missing TTYPE%s", ErrMalformedHeader, suffix)
		}
		form, ok := h.header.Str("TFORM" + suffix)
		if !ok {
			return nil, fmt.Errorf("%w: missing TFORM%s", ErrMalformedHeader, suffix)
		}
		field, err := parseTForm(strings.TrimSpace(name), strings.TrimSpace(form))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		fields = append(fields, field)
	}

	schema, err := table.NewSchema(fields)
	if err != nil {
		return nil, err
	}
	if int64(schema.RowSize()) != rowSize {
		return nil, fmt.Errorf("%w: schema row size %d does not match NAXIS1=%d",
			ErrMalformedHeader, schema.RowSize(), rowSize)
	}
	return table.NewRef(path, h.dataOffset, rows, schema)
}

// parseTForm maps one TFORM code to a field. FITS binary tables store
// all values big-endian. Numeric repeat counts other than 1 describe
// array cells, which this reader does not flatten.
func parseTForm(name, form string) (table.Field, error) {
	m := tformRE.FindStringSubmatch(form)
	if m == nil {
		return table.Field{}, fmt.Errorf("%w: %q", ErrUnsupportedForm, form)
	}
	repeat := int64(1)
	if m[1] != "" {
		r, err := strconv.ParseInt(m[1], 10, 32)
		if err != nil {
			return table.Field{}, fmt.Errorf("%w: bad repeat in %q", ErrUnsupportedForm, form)
		}
		repeat = r
	}

	f := table.Field{Name: name, Order: table.BigEndian}
	switch m[2] {
	case "L":
		f.Type = table.Logical
	case "B":
		f.Type = table.Uint8
	case "I":
		f.Type = table.Int16
	case "J":
		f.Type = table.Int32
	case "K":
		f.Type = table.Int64
	case "E":
		f.Type = table.Float32
	case "D":
		f.Type = table.Float64
	case "A":
		f.Type = table.String
		f.Width = int(repeat)
		return f, nil
	default:
		return table.Field{}, fmt.Errorf("%w: %q", ErrUnsupportedForm, form)
	}

	if repeat != 1 {
		return table.Field{}, fmt.Errorf("%w: repeat count %d in %q (array cells not supported)",
			ErrUnsupportedForm, repeat, form)
	}
	return f, nil
}
