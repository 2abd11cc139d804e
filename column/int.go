package column

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/colibri-db/colibri/arena"
)

// IntColumn is a B-tree of packed integer leaves. It backs integer table
// columns and the value column produced by string auto-enumeration.
type IntColumn struct {
	alloc arena.Allocator
	tr    tree[int64]
	root  arena.Ref
}

// NewIntColumn creates an empty integer column backed by alloc.
func NewIntColumn(alloc arena.Allocator, optFns ...Option) (*IntColumn, error) {
	o := applyOptions(optFns)
	c := &IntColumn{alloc: alloc}
	c.tr = tree[int64]{
		alloc:   alloc,
		leafCap: o.LeafCapacity,
		newLeaf: func(p arena.Parent, idx int) (leaf[int64], error) {
			return newIntLeaf(alloc, p, idx)
		},
		loadLeaf: func(ref arena.Ref, p arena.Parent, idx int) leaf[int64] {
			return loadIntLeaf(alloc, ref, p, idx)
		},
	}
	lf, err := newIntLeaf(alloc, c, 0)
	if err != nil {
		return nil, err
	}
	c.root = lf.ref()
	return c, nil
}

// UpdateChildRef records a relocation of the column's root node.
func (c *IntColumn) UpdateChildRef(_ int, ref arena.Ref) { c.root = ref }

func (c *IntColumn) rootRef() arena.Ref { return c.root }

// Size returns the number of rows.
func (c *IntColumn) Size() int { return c.tr.size(c.root) }

// IsEmpty reports whether the column holds no rows.
func (c *IntColumn) IsEmpty() bool { return c.Size() == 0 }

// Get returns the value at position i. Contract: i < Size().
func (c *IntColumn) Get(i int) int64 {
	if i >= c.Size() {
		panic(fmt.Sprintf("column: int get %d out of range (size %d)", i, c.Size()))
	}
	return c.tr.get(c.root, i)
}

// Set overwrites position i.
func (c *IntColumn) Set(i int, v int64) error {
	if i >= c.Size() {
		panic(fmt.Sprintf("column: int set %d out of range (size %d)", i, c.Size()))
	}
	return c.tr.set(c.root, c, 0, i, v)
}

// Insert adds v at position i, shifting the tail. Contract: i <= Size().
func (c *IntColumn) Insert(i int, v int64) error {
	if i > c.Size() {
		panic(fmt.Sprintf("column: int insert %d out of range (size %d)", i, c.Size()))
	}
	return c.tr.insert(c, i, v)
}

// Add appends v.
func (c *IntColumn) Add(v int64) error { return c.Insert(c.Size(), v) }

// Delete removes position i.
func (c *IntColumn) Delete(i int) error {
	if i >= c.Size() {
		panic(fmt.Sprintf("column: int delete %d out of range (size %d)", i, c.Size()))
	}
	return c.tr.remove(c, i)
}

// Clear removes every row and reverts the root to an empty leaf.
func (c *IntColumn) Clear() error {
	c.tr.destroy(c.root)
	lf, err := newIntLeaf(c.alloc, c, 0)
	if err != nil {
		return err
	}
	c.root = lf.ref()
	return nil
}

// Fill appends count zeroes. Contract: the column is empty.
func (c *IntColumn) Fill(count int) error {
	if !c.IsEmpty() {
		panic("column: fill requires an empty column")
	}
	for i := 0; i < count; i++ {
		if err := c.Insert(i, 0); err != nil {
			return err
		}
	}
	return nil
}

// FindFirst returns the first position in [start, end) equal to value, or
// NotFound. end < 0 means "to the end".
func (c *IntColumn) FindFirst(value int64, start, end int) int {
	return c.tr.findFirst(c.root, value, start, end)
}

// FindAll returns the positions in [start, end) equal to value. end < 0
// means "to the end".
func (c *IntColumn) FindAll(value int64, start, end int) *roaring.Bitmap {
	result := roaring.New()
	c.tr.findAll(c.root, result, value, start, end)
	return result
}

// Count returns the number of rows equal to value.
func (c *IntColumn) Count(value int64) int {
	return c.tr.count(c.root, value)
}

// Compare reports positional equality with another column.
func (c *IntColumn) Compare(other *IntColumn) bool {
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

// Destroy frees the column's storage.
func (c *IntColumn) Destroy() {
	c.tr.destroy(c.root)
	c.root = 0
}
