package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow/csv"

	"github.com/VanDung-dev/SpecTable-Engine/table"
)

// ErrEmptyArray reports an export attempt on a table whose field schema
// cannot be determined. No output file is created in that case.
var ErrEmptyArray = errors.New("array has no fields")

// WriteCSV writes the table to dest as UTF-8 comma-separated text with
// \n line endings: one header line of field names, then one line per
// record. Values are rendered by the Arrow CSV writer's shortest
// round-trip numeric formatting. Returns the absolute destination path.
func WriteCSV(tbl *table.Table, dest string) (string, error) {
	if tbl == nil || len(tbl.Schema()) == 0 {
		return "", ErrEmptyArray
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dest, err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", abs, err)
	}

	w := csv.NewWriter(f, tbl.Record().Schema(),
		csv.WithComma(','),
		csv.WithHeader(true),
		csv.WithCRLF(false),
	)
	if err := w.Write(tbl.Record()); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write records: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("csv writer error: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", abs, err)
	}
	return abs, nil
}
