package plot

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/VanDung-dev/SpecTable-Engine/fits"
	"github.com/VanDung-dev/SpecTable-Engine/fitstest"
	"github.com/VanDung-dev/SpecTable-Engine/table"
	"github.com/VanDung-dev/SpecTable-Engine/tree"
)

func spectrum(t *testing.T) *table.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x1d.fits")
	if err := fitstest.WriteTable(path, "SPEC", fitstest.SpectrumCols(4)); err != nil {
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

func TestColumns(t *testing.T) {
	tbl := spectrum(t)
	xs, ys, err := Columns(tbl, "WAVELENGTH", "FLUX")
	if err != nil {
		t.Fatalf("Columns failed: %v", err)
	}
	if len(xs) != 4 || len(ys) != 4 {
		t.Fatalf("lengths %d, %d, want 4", len(xs), len(ys))
	}
	if xs[0] != 1150.0 {
		t.Errorf("xs[0] = %v", xs[0])
	}
}

func TestColumnsMissingField(t *testing.T) {
	tbl := spectrum(t)
	_, _, err := Columns(tbl, "WAVELENGTH", "VELOCITY")
	if err == nil {
		t.Fatal("expected error for missing field")
	}
	// The message lists what the table does have.
	if !strings.Contains(err.Error(), "WAVELENGTH") || !strings.Contains(err.Error(), "VELOCITY") {
		t.Errorf("unhelpful message: %v", err)
	}
}
