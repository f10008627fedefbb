package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/VanDung-dev/SpecTable-Engine/table"
)

// Value is one node of the metadata tree. Concrete types are the
// scalars string, int64, float64 and bool, nested *Tree mappings,
// Sequence, and *table.Ref for deferred tabular payloads.
type Value interface{}

// Sequence is an ordered list of values under one key.
type Sequence []Value

// Tree is a rooted, ordered mapping from string keys to values. Keys at
// one level are unique; the tree is treated as read-only once the
// container reader returns it.
type Tree struct {
	keys   []string
	values map[string]Value
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{values: make(map[string]Value)}
}

// Set stores a value under key, preserving insertion order. Setting an
// existing key replaces its value in place.
func (t *Tree) Set(key string, v Value) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// Get returns the value stored under key.
func (t *Tree) Get(key string) (Value, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Keys returns the keys in insertion order. The caller must not modify
// the returned slice.
func (t *Tree) Keys() []string {
	return t.keys
}

// Len returns the number of top-level entries.
func (t *Tree) Len() int {
	return len(t.keys)
}

// Append adds a value to the sequence stored under key, creating the
// sequence if the key is new.
func (t *Tree) Append(key string, v Value) error {
	existing, ok := t.values[key]
	if !ok {
		t.Set(key, Sequence{v})
		return nil
	}
	seq, ok := existing.(Sequence)
	if !ok {
		return fmt.Errorf("key %q does not hold a sequence", key)
	}
	t.values[key] = append(seq, v)
	return nil
}

// Write renders the tree as indented text for human inspection. Lazy
// array references are shown by shape and field names, not read.
func (t *Tree) Write(w io.Writer) {
	t.write(w, 0)
}

func (t *Tree) write(w io.Writer, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, key := range t.keys {
		switch v := t.values[key].(type) {
		case *Tree:
			fmt.Fprintf(w, "%s%s:\n", indent, key)
			v.write(w, depth+1)
		case Sequence:
			fmt.Fprintf(w, "%s%s: [%d]\n", indent, key, len(v))
			for i, elem := range v {
				if sub, ok := elem.(*Tree); ok {
					fmt.Fprintf(w, "%s  - #%d\n", indent, i)
					sub.write(w, depth+2)
				} else {
					fmt.Fprintf(w, "%s  - %v\n", indent, elem)
				}
			}
		case *table.Ref:
			fmt.Fprintf(w, "%s%s: table shape=%v fields=%s\n",
				indent, key, v.Shape(), strings.Join(v.Schema().Names(), ","))
		default:
			fmt.Fprintf(w, "%s%s: %v\n", indent, key, v)
		}
	}
}
