package column

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/colibri-db/colibri/arena"
)

// StringColumn is the adaptive string column: a B-tree of string leaves that
// switch from inline to out-of-line encoding as values grow, with an
// optional search index kept in lockstep with every mutation.
type StringColumn struct {
	alloc arena.Allocator
	tr    tree[string]
	root  arena.Ref
	index *StringIndex
}

// NewStringColumn creates an empty string column backed by alloc.
func NewStringColumn(alloc arena.Allocator, optFns ...Option) (*StringColumn, error) {
	o := applyOptions(optFns)
	c := &StringColumn{alloc: alloc}
	c.tr = tree[string]{
		alloc:   alloc,
		leafCap: o.LeafCapacity,
		newLeaf: func(p arena.Parent, idx int) (leaf[string], error) {
			return newShortLeaf(alloc, p, idx)
		},
		loadLeaf: func(ref arena.Ref, p arena.Parent, idx int) leaf[string] {
			return loadStringLeaf(alloc, ref, p, idx)
		},
	}
	lf, err := newShortLeaf(alloc, c, 0)
	if err != nil {
		return nil, err
	}
	c.root = lf.ref()
	return c, nil
}

// UpdateChildRef records a relocation of the column's root node.
func (c *StringColumn) UpdateChildRef(_ int, ref arena.Ref) { c.root = ref }

func (c *StringColumn) rootRef() arena.Ref { return c.root }

// Size returns the number of rows.
func (c *StringColumn) Size() int { return c.tr.size(c.root) }

// IsEmpty reports whether the column holds no rows.
func (c *StringColumn) IsEmpty() bool { return c.Size() == 0 }

// Get returns the string at position i. Contract: i < Size().
func (c *StringColumn) Get(i int) string {
	if i >= c.Size() {
		panic(fmt.Sprintf("column: string get %d out of range (size %d)", i, c.Size()))
	}
	return c.tr.get(c.root, i)
}

// Set overwrites position i. The index, when present, is updated first —
// it needs the old value to locate the entry being replaced.
func (c *StringColumn) Set(i int, v string) error {
	if i >= c.Size() {
		panic(fmt.Sprintf("column: string set %d out of range (size %d)", i, c.Size()))
	}
	if c.index != nil {
		old := c.Get(i)
		c.index.Set(i, old, v)
	}
	return c.tr.set(c.root, c, 0, i, v)
}

// Insert adds v at position i, shifting the tail. Contract: i <= Size().
func (c *StringColumn) Insert(i int, v string) error {
	if i > c.Size() {
		panic(fmt.Sprintf("column: string insert %d out of range (size %d)", i, c.Size()))
	}
	if err := c.tr.insert(c, i, v); err != nil {
		return err
	}
	if c.index != nil {
		isLast := i+1 == c.Size()
		c.index.Insert(i, v, isLast)
	}
	return nil
}

// Add appends v.
func (c *StringColumn) Add(v string) error { return c.Insert(c.Size(), v) }

// Delete removes position i. The index is updated first, while the old value
// is still readable.
func (c *StringColumn) Delete(i int) error {
	if i >= c.Size() {
		panic(fmt.Sprintf("column: string delete %d out of range (size %d)", i, c.Size()))
	}
	if c.index != nil {
		old := c.Get(i)
		isLast := i == c.Size()-1
		c.index.Delete(i, old, isLast)
	}
	return c.tr.remove(c, i)
}

// Clear removes every row and reverts the root to an empty inline leaf.
func (c *StringColumn) Clear() error {
	c.tr.destroy(c.root)
	lf, err := newShortLeaf(c.alloc, c, 0)
	if err != nil {
		return err
	}
	c.root = lf.ref()
	if c.index != nil {
		c.index.Clear()
	}
	return nil
}

// Fill appends count empty strings. Contract: the column is empty and has no
// index; used to backfill a column added to a populated table.
func (c *StringColumn) Fill(count int) error {
	if !c.IsEmpty() || c.index != nil {
		panic("column: fill requires an empty, unindexed column")
	}
	for i := 0; i < count; i++ {
		if err := c.Insert(i, ""); err != nil {
			return err
		}
	}
	return nil
}

// FindFirst returns the first position in [start, end) equal to value, or
// NotFound. end < 0 means "to the end". The index is consulted only for
// full-column searches; partial ranges always scan.
func (c *StringColumn) FindFirst(value string, start, end int) int {
	if c.index != nil && start == 0 && end < 0 {
		return c.index.FindFirst(value)
	}
	return c.tr.findFirst(c.root, value, start, end)
}

// FindAll returns the positions in [start, end) equal to value. end < 0
// means "to the end". Same dual-path policy as FindFirst.
func (c *StringColumn) FindAll(value string, start, end int) *roaring.Bitmap {
	if c.index != nil && start == 0 && end < 0 {
		return c.index.FindAll(value)
	}
	result := roaring.New()
	c.tr.findAll(c.root, result, value, start, end)
	return result
}

// Count returns the number of rows equal to value.
func (c *StringColumn) Count(value string) int {
	if c.index != nil {
		return c.index.Count(value)
	}
	return c.tr.count(c.root, value)
}

// Compare reports positional equality with another column.
func (c *StringColumn) Compare(other *StringColumn) bool {
	n := c.Size()
	if other.Size() != n {
		return false
	}
	for i := 0; i < n; i++ {
		if c.Get(i) != other.Get(i) {
			return false
		}
	}
	return true
}

// FindKeyPos locates the first position whose stored key is greater than or
// equal to target (lower bound) in a column kept sorted by its caller, and
// reports whether the key at that position matches exactly.
func (c *StringColumn) FindKeyPos(target string) (int, bool) {
	lo, hi := -1, c.Size()
	found := false
	for hi-lo > 1 {
		probe := (lo + hi) / 2
		v := c.Get(probe)
		if v < target {
			lo = probe
		} else {
			hi = probe
			if v == target {
				found = true
			}
		}
	}
	return hi, found
}

// AutoEnumerate builds a sorted, deduplicated key column and a parallel
// column mapping each row to its key position, a transparent dictionary
// compression of the column. It gives up (ok == false) as soon as the
// distinct-key count exceeds half the row count, since enumeration only pays
// off with enough duplication.
func (c *StringColumn) AutoEnumerate() (keys *StringColumn, values *IntColumn, ok bool, err error) {
	keys, err = NewStringColumn(c.alloc)
	if err != nil {
		return nil, nil, false, err
	}
	count := c.Size()
	for i := 0; i < count; i++ {
		v := c.Get(i)
		pos, found := keys.FindKeyPos(v)
		if found {
			continue
		}
		if keys.Size() > count/2 {
			keys.Destroy()
			return nil, nil, false, nil
		}
		if err := keys.Insert(pos, v); err != nil {
			keys.Destroy()
			return nil, nil, false, err
		}
	}

	values, err = NewIntColumn(c.alloc)
	if err != nil {
		keys.Destroy()
		return nil, nil, false, err
	}
	for i := 0; i < count; i++ {
		pos, found := keys.FindKeyPos(c.Get(i))
		if !found {
			panic("column: enumeration key vanished during build")
		}
		if err := values.Add(int64(pos)); err != nil {
			keys.Destroy()
			values.Destroy()
			return nil, nil, false, err
		}
	}
	return keys, values, true, nil
}

// CreateIndex builds and attaches a search index over the current contents.
// Contract: the column is not already indexed.
func (c *StringColumn) CreateIndex() *StringIndex {
	if c.index != nil {
		panic("column: search index already exists")
	}
	c.index = NewStringIndex(c.Get)
	count := c.Size()
	for i := 0; i < count; i++ {
		c.index.Insert(i, c.Get(i), true)
	}
	return c.index
}

// Index returns the attached search index, or nil.
func (c *StringColumn) Index() *StringIndex { return c.index }

// HasIndex reports whether a search index is attached.
func (c *StringColumn) HasIndex() bool { return c.index != nil }

// Verify cross-checks the index against a full column scan. Debug aid; not
// called on production paths.
func (c *StringColumn) Verify() error {
	if c.index == nil {
		return nil
	}
	return c.index.VerifyEntries(c)
}

// Destroy frees the column's storage and discards the index.
func (c *StringColumn) Destroy() {
	c.tr.destroy(c.root)
	c.root = 0
	c.index = nil
}
