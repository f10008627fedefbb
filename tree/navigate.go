package tree

import (
	"errors"
	"fmt"

	"github.com/VanDung-dev/SpecTable-Engine/table"
)

// Navigation errors. ErrNoTable is the single outcome callers see;
// ErrMissingKey and ErrEmptyCollection are the two distinct internal
// reasons and stay reachable through errors.Is on the wrapped error.
var (
	ErrNoTable         = errors.New("no table found")
	ErrMissingKey      = errors.New("expected key not present")
	ErrEmptyCollection = errors.New("collection has no elements")
)

// Hint names the conventional nested location of a tabular entry: a
// top-level category key holding a sequence, whose first element is a
// mapping carrying the table reference.
type Hint struct {
	Category string // top-level key, e.g. "spec"
	Table    string // table key inside the first element, e.g. "spec_table"
}

// DefaultHint derives the table key from the category by the container
// reader's naming convention.
func DefaultHint(category string) Hint {
	return Hint{Category: category, Table: category + "_table"}
}

// FindTable walks the hint path and returns the first lazy array
// reference found under it. The array is not read. A missing category
// and an empty category sequence are both reported as ErrNoTable, with
// the distinct reason wrapped inside.
func FindTable(t *Tree, hint Hint) (*table.Ref, error) {
	v, ok := t.Get(hint.Category)
	if !ok {
		return nil, fmt.Errorf("%w: %w: category %q", ErrNoTable, ErrMissingKey, hint.Category)
	}

	seq, ok := v.(Sequence)
	if !ok {
		// A single mapping under the category is accepted as a
		// one-element sequence.
		if sub, isTree := v.(*Tree); isTree {
			seq = Sequence{sub}
		} else {
			return nil, fmt.Errorf("%w: category %q holds %T, not a sequence", ErrNoTable, hint.Category, v)
		}
	}
	if len(seq) == 0 {
		return nil, fmt.Errorf("%w: %w: category %q", ErrNoTable, ErrEmptyCollection, hint.Category)
	}

	first, ok := seq[0].(*Tree)
	if !ok {
		return nil, fmt.Errorf("%w: first element of %q is %T, not a mapping", ErrNoTable, hint.Category, seq[0])
	}

	entry, ok := first.Get(hint.Table)
	if !ok {
		return nil, fmt.Errorf("%w: %w: table key %q", ErrNoTable, ErrMissingKey, hint.Table)
	}
	ref, ok := entry.(*table.Ref)
	if !ok {
		return nil, fmt.Errorf("%w: key %q holds %T, not a table reference", ErrNoTable, hint.Table, entry)
	}
	return ref, nil
}
