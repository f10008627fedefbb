package plot

import (
	"fmt"
	"strings"

	"github.com/VanDung-dev/SpecTable-Engine/table"
)

// Columns extracts the x and y columns by name, widened to float64.
// A missing name yields a user-visible error listing the fields the
// table does have; there is no recovery beyond reporting.
func Columns(tbl *table.Table, x, y string) ([]float64, []float64, error) {
	xs, err := tbl.Float64Column(x)
	if err != nil {
		return nil, nil, describe(tbl, x, err)
	}
	ys, err := tbl.Float64Column(y)
	if err != nil {
		return nil, nil, describe(tbl, y, err)
	}
	return xs, ys, nil
}

func describe(tbl *table.Table, name string, err error) error {
	return fmt.Errorf("cannot plot %q: %w (table has: %s)",
		name, err, strings.Join(tbl.Schema().Names(), ", "))
}
