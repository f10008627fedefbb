package cache

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/VanDung-dev/SpecTable-Engine/fits"
	"github.com/VanDung-dev/SpecTable-Engine/fitstest"
	"github.com/VanDung-dev/SpecTable-Engine/table"
	"github.com/VanDung-dev/SpecTable-Engine/tree"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x1d.fits")
	if err := fitstest.WriteTable(path, "SPEC", fitstest.SpectrumCols(3)); err != nil {
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

func TestPutGet(t *testing.T) {
	c := New(4, time.Minute)
	tbl := sampleTable(t)

	if err := c.Put("k", tbl); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("miss after Put")
	}
	defer got.Release()
	if got != tbl {
		t.Fatal("cache returned a different table")
	}
}

func TestGetMiss(t *testing.T) {
	c := New(4, time.Minute)
	if _, ok := c.Get("absent"); ok {
		t.Fatal("hit on empty cache")
	}
}

func TestPutNil(t *testing.T) {
	c := New(4, time.Minute)
	if err := c.Put("k", nil); err != ErrInvalidEntry {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestEvictOldest(t *testing.T) {
	c := New(2, 0)
	tbl := sampleTable(t)

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Put("a", tbl)
	now = now.Add(time.Second)
	c.Put("b", tbl)
	now = now.Add(time.Second)
	c.Put("c", tbl)

	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry survived eviction")
	}
	if got, ok := c.Get("c"); !ok {
		t.Error("newest entry evicted")
	} else {
		got.Release()
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(4, time.Minute)
	tbl := sampleTable(t)

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Put("k", tbl)
	if got, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry missed")
	} else {
		got.Release()
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry served")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry not dropped, size = %d", c.Size())
	}

	// Re-inserting after expiry works.
	if err := c.Put("k", tbl); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.Get("k"); !ok {
		t.Fatal("re-inserted entry missed")
	} else {
		got.Release()
	}
}

func TestPurge(t *testing.T) {
	c := New(8, 0)
	tbl := sampleTable(t)
	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("k%d", i), tbl)
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("size = %d after purge", c.Size())
	}
}

// allocTable builds a small single-column table on the given allocator
// so reference-count hygiene is observable.
func allocTable(t *testing.T, mem memory.Allocator, rows int) *table.Table {
	t.Helper()
	schema, err := table.NewSchema([]table.Field{{Name: "X", Type: table.Float64}})
	if err != nil {
		t.Fatal(err)
	}
	b := array.NewRecordBuilder(mem, schema.ArrowSchema())
	defer b.Release()
	fb := b.Field(0).(*array.Float64Builder)
	for i := 0; i < rows; i++ {
		fb.Append(float64(i))
	}
	tbl, err := table.NewTable(b.NewRecord(), schema)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestDroppedEntriesReleased(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	c := New(1, time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	a := allocTable(t, mem, 3)
	c.Put("a", a)
	a.Release()

	// Filling the cache evicts "a" and drops its reference.
	b := allocTable(t, mem, 3)
	c.Put("b", b)
	b.Release()

	// Replacing "b" drops the replaced entry's reference.
	b2 := allocTable(t, mem, 3)
	c.Put("b", b2)
	b2.Release()

	// Expiry drops the last one.
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("b"); ok {
		t.Fatal("expired entry served")
	}
	mem.AssertSize(t, 0)
}

func TestGetRetainsForCaller(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	c := New(2, 0)

	tbl := allocTable(t, mem, 3)
	c.Put("k", tbl)
	tbl.Release()

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("miss after Put")
	}
	c.Purge()
	// The caller's reference keeps the data live past the purge.
	if got.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", got.NumRows())
	}
	got.Release()
	mem.AssertSize(t, 0)
}
