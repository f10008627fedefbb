package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VanDung-dev/SpecTable-Engine/fits"
	"github.com/VanDung-dev/SpecTable-Engine/fitstest"
	"github.com/VanDung-dev/SpecTable-Engine/table"
	"github.com/VanDung-dev/SpecTable-Engine/tree"
)

func materializeSpectrum(t *testing.T, rows int) *table.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x1d.fits")
	if err := fitstest.WriteTable(path, "SPEC", fitstest.SpectrumCols(rows)); err != nil {
		t.Fatal(err)
	}
	tr, err := fits.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	ref, err := tree.FindTable(tr, tree.DefaultHint("spec"))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := ref.Materialize()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(tbl.Release)
	return tbl
}

func TestWriteCSVHeaderRoundTrip(t *testing.T) {
	tbl := materializeSpectrum(t, 5)
	dest := filepath.Join(t.TempDir(), "out.csv")

	written, err := WriteCSV(tbl, dest)
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if !filepath.IsAbs(written) {
		t.Errorf("destination %q is not absolute", written)
	}

	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	// Re-reading the header as a comma-separated list recovers the
	// ordered field names exactly.
	header := strings.Split(lines[0], ",")
	want := tbl.Schema().Names()
	if len(header) != len(want) {
		t.Fatalf("header has %d fields, want %d", len(header), len(want))
	}
	for i := range want {
		if header[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, header[i], want[i])
		}
	}
}

func TestWriteCSVLineCount(t *testing.T) {
	tbl := materializeSpectrum(t, 7)
	dest := filepath.Join(t.TempDir(), "out.csv")

	written, err := WriteCSV(tbl, dest)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 1+7 {
		t.Fatalf("line count = %d, want 8", len(lines))
	}
	for i, line := range lines {
		if n := strings.Count(line, ",") + 1; n != tbl.NumCols() {
			t.Errorf("line %d has %d fields, want %d", i, n, tbl.NumCols())
		}
		if strings.HasSuffix(line, ",") {
			t.Errorf("line %d has a trailing comma", i)
		}
		if strings.Contains(line, "\"") {
			t.Errorf("line %d contains quoting", i)
		}
	}
}

func TestWriteCSVUnixLineEndings(t *testing.T) {
	tbl := materializeSpectrum(t, 2)
	dest := filepath.Join(t.TempDir(), "out.csv")

	written, err := WriteCSV(tbl, dest)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "\r") {
		t.Error("output contains carriage returns")
	}
}

func TestWriteCSVEmptyArray(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.csv")

	_, err := WriteCSV(nil, dest)
	if !errors.Is(err, ErrEmptyArray) {
		t.Fatalf("expected ErrEmptyArray, got %v", err)
	}
	// No partial file may exist.
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("output file created despite empty array")
	}
}
