package fitstest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
)

const blockSize = 2880

// Col is one test table column: a TFORM code and one value per row.
// Value types by code: L bool, B uint8, I int16, J int32, K int64,
// E float32, D float64, rA string.
type Col struct {
	Name  string
	TForm string
	Vals  []any
}

// card renders one fixed-format 80-byte header card.
func card(keyword, value string) []byte {
	s := fmt.Sprintf("%-8s= %20s", keyword, value)
	return pad80(s)
}

// strCard renders a string-valued card.
func strCard(keyword, value string) []byte {
	s := fmt.Sprintf("%-8s= '%-8s'", keyword, value)
	return pad80(s)
}

func endCard() []byte {
	return pad80("END")
}

func pad80(s string) []byte {
	b := make([]byte, 80)
	copy(b, s)
	for i := len(s); i < 80; i++ {
		b[i] = ' '
	}
	return b
}

// padBlock pads buf with fill bytes up to the next 2880 boundary.
func padBlock(buf *bytes.Buffer, fill byte) {
	for buf.Len()%blockSize != 0 {
		buf.WriteByte(fill)
	}
}

// PrimaryHeader returns a minimal data-less primary HDU.
func PrimaryHeader() []byte {
	var buf bytes.Buffer
	buf.Write(card("SIMPLE", "T"))
	buf.Write(card("BITPIX", "8"))
	buf.Write(card("NAXIS", "0"))
	buf.Write(endCard())
	padBlock(&buf, ' ')
	return buf.Bytes()
}

// ImageHDU returns a small 16-bit image extension, useful for checking
// that payload skipping keeps offsets correct.
func ImageHDU(name string, width, height int) []byte {
	var buf bytes.Buffer
	buf.Write(strCard("XTENSION", "IMAGE"))
	buf.Write(card("BITPIX", "16"))
	buf.Write(card("NAXIS", "2"))
	buf.Write(card("NAXIS1", strconv.Itoa(width)))
	buf.Write(card("NAXIS2", strconv.Itoa(height)))
	buf.Write(card("PCOUNT", "0"))
	buf.Write(card("GCOUNT", "1"))
	if name != "" {
		buf.Write(strCard("EXTNAME", name))
	}
	buf.Write(endCard())
	padBlock(&buf, ' ')

	for i := 0; i < width*height; i++ {
		var cell [2]byte
		binary.BigEndian.PutUint16(cell[:], uint16(i))
		buf.Write(cell[:])
	}
	padBlock(&buf, 0)
	return buf.Bytes()
}

// TableHDU returns one BINTABLE extension with the given columns.
func TableHDU(name string, cols []Col) ([]byte, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns")
	}
	rows := len(cols[0].Vals)
	rowSize := 0
	for _, c := range cols {
		if len(c.Vals) != rows {
			return nil, fmt.Errorf("column %s has %d values, want %d", c.Name, len(c.Vals), rows)
		}
		size, err := formSize(c.TForm)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		rowSize += size
	}

	var buf bytes.Buffer
	buf.Write(strCard("XTENSION", "BINTABLE"))
	buf.Write(card("BITPIX", "8"))
	buf.Write(card("NAXIS", "2"))
	buf.Write(card("NAXIS1", strconv.Itoa(rowSize)))
	buf.Write(card("NAXIS2", strconv.Itoa(rows)))
	buf.Write(card("PCOUNT", "0"))
	buf.Write(card("GCOUNT", "1"))
	buf.Write(card("TFIELDS", strconv.Itoa(len(cols))))
	for i, c := range cols {
		n := strconv.Itoa(i + 1)
		buf.Write(strCard("TTYPE"+n, c.Name))
		buf.Write(strCard("TFORM"+n, c.TForm))
	}
	if name != "" {
		buf.Write(strCard("EXTNAME", name))
	}
	buf.Write(endCard())
	padBlock(&buf, ' ')

	for r := 0; r < rows; r++ {
		for _, c := range cols {
			if err := writeCell(&buf, c.TForm, c.Vals[r]); err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", c.Name, r, err)
			}
		}
	}
	padBlock(&buf, 0)
	return buf.Bytes(), nil
}

// formSize returns the cell width of a supported TFORM code.
func formSize(form string) (int, error) {
	repeat, code, err := splitForm(form)
	if err != nil {
		return 0, err
	}
	if code != 'A' && repeat != 1 {
		return 0, fmt.Errorf("array cells not supported: %q", form)
	}
	switch code {
	case 'L', 'B':
		return 1, nil
	case 'I':
		return 2, nil
	case 'J', 'E':
		return 4, nil
	case 'K', 'D':
		return 8, nil
	case 'A':
		return repeat, nil
	default:
		return 0, fmt.Errorf("unsupported TFORM %q", form)
	}
}

func splitForm(form string) (int, byte, error) {
	if form == "" {
		return 0, 0, fmt.Errorf("empty TFORM")
	}
	code := form[len(form)-1]
	repeat := 1
	if len(form) > 1 {
		r, err := strconv.Atoi(form[:len(form)-1])
		if err != nil {
			return 0, 0, fmt.Errorf("bad TFORM %q", form)
		}
		repeat = r
	}
	return repeat, code, nil
}

// writeCell encodes one big-endian cell value.
func writeCell(buf *bytes.Buffer, form string, v any) error {
	repeat, code, err := splitForm(form)
	if err != nil {
		return err
	}
	switch code {
	case 'L':
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("want bool, got %T", v)
		}
		if b {
			buf.WriteByte('T')
		} else {
			buf.WriteByte('F')
		}
	case 'B':
		b, ok := v.(uint8)
		if !ok {
			return fmt.Errorf("want uint8, got %T", v)
		}
		buf.WriteByte(b)
	case 'I':
		n, ok := v.(int16)
		if !ok {
			return fmt.Errorf("want int16, got %T", v)
		}
		var cell [2]byte
		binary.BigEndian.PutUint16(cell[:], uint16(n))
		buf.Write(cell[:])
	case 'J':
		n, ok := v.(int32)
		if !ok {
			return fmt.Errorf("want int32, got %T", v)
		}
		var cell [4]byte
		binary.BigEndian.PutUint32(cell[:], uint32(n))
		buf.Write(cell[:])
	case 'K':
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("want int64, got %T", v)
		}
		var cell [8]byte
		binary.BigEndian.PutUint64(cell[:], uint64(n))
		buf.Write(cell[:])
	case 'E':
		f, ok := v.(float32)
		if !ok {
			return fmt.Errorf("want float32, got %T", v)
		}
		var cell [4]byte
		binary.BigEndian.PutUint32(cell[:], math.Float32bits(f))
		buf.Write(cell[:])
	case 'D':
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("want float64, got %T", v)
		}
		var cell [8]byte
		binary.BigEndian.PutUint64(cell[:], math.Float64bits(f))
		buf.Write(cell[:])
	case 'A':
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", v)
		}
		cell := make([]byte, repeat)
		for i := range cell {
			cell[i] = ' '
		}
		copy(cell, s)
		buf.Write(cell)
	default:
		return fmt.Errorf("unsupported TFORM %q", form)
	}
	return nil
}

// WriteFile writes a container: a data-less primary followed by the
// given extension HDUs.
func WriteFile(path string, hdus ...[]byte) error {
	var buf bytes.Buffer
	buf.Write(PrimaryHeader())
	for _, h := range hdus {
		buf.Write(h)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// WriteTable writes a container holding one named binary table.
func WriteTable(path, extName string, cols []Col) error {
	hdu, err := TableHDU(extName, cols)
	if err != nil {
		return err
	}
	return WriteFile(path, hdu)
}

// WritePrimaryOnly writes a container with a data-less primary HDU and
// no extensions: a parseable container with no content.
func WritePrimaryOnly(path string) error {
	return WriteFile(path)
}

// SpectrumCols builds the canonical eight-column spectral layout with
// deterministic values.
func SpectrumCols(rows int) []Col {
	wavelength := make([]any, rows)
	flux := make([]any, rows)
	errv := make([]any, rows)
	dq := make([]any, rows)
	net := make([]any, rows)
	nerror := make([]any, rows)
	background := make([]any, rows)
	berror := make([]any, rows)
	for i := 0; i < rows; i++ {
		wavelength[i] = 1150.0 + float64(i)*0.05
		flux[i] = float32(i) * 1e-14
		errv[i] = float32(i) * 1e-16
		dq[i] = int16(i % 4)
		net[i] = float32(i) * 0.5
		nerror[i] = float32(i) * 0.01
		background[i] = float32(i) * 0.25
		berror[i] = float32(i) * 0.005
	}
	return []Col{
		{Name: "WAVELENGTH", TForm: "D", Vals: wavelength},
		{Name: "FLUX", TForm: "E", Vals: flux},
		{Name: "ERROR", TForm: "E", Vals: errv},
		{Name: "DQ", TForm: "I", Vals: dq},
		{Name: "NET", TForm: "E", Vals: net},
		{Name: "NERROR", TForm: "E", Vals: nerror},
		{Name: "BACKGROUND", TForm: "E", Vals: background},
		{Name: "BERROR", TForm: "E", Vals: berror},
	}
}
