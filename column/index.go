package column

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/btree"
)

// indexDegree is the fanout of the index B-tree.
const indexDegree = 32

// indexEntry maps one key to the ascending row positions holding it.
type indexEntry struct {
	key       string
	positions []uint32
}

// StringIndex is the ordered search index owned by a string column. It maps
// each value to its row positions and is maintained incrementally: the
// owning column updates it on every mutation, fetching the old value before
// touching the tree so the index never points at a value that is gone.
type StringIndex struct {
	entries *btree.BTreeG[*indexEntry]
	get     func(i int) string
}

// NewStringIndex creates an empty index over a column exposing the given
// row accessor.
func NewStringIndex(get func(i int) string) *StringIndex {
	return &StringIndex{
		entries: btree.NewG(indexDegree, func(a, b *indexEntry) bool {
			return a.key < b.key
		}),
		get: get,
	}
}

// adjustPositions shifts every recorded position >= from by delta. Needed
// when a row insert or delete renumbers the rows behind it.
func (x *StringIndex) adjustPositions(from uint32, delta int) {
	x.entries.Ascend(func(e *indexEntry) bool {
		for i, p := range e.positions {
			if p >= from {
				e.positions[i] = uint32(int(p) + delta)
			}
		}
		return true
	})
}

// Insert records a new occurrence of value at pos. isLast signals that pos
// is the logical end of the column, in which case no existing position needs
// renumbering.
func (x *StringIndex) Insert(pos int, value string, isLast bool) {
	if !isLast {
		x.adjustPositions(uint32(pos), +1)
	}
	e, ok := x.entries.Get(&indexEntry{key: value})
	if !ok {
		x.entries.ReplaceOrInsert(&indexEntry{key: value, positions: []uint32{uint32(pos)}})
		return
	}
	i := sort.Search(len(e.positions), func(j int) bool { return e.positions[j] >= uint32(pos) })
	e.positions = append(e.positions, 0)
	copy(e.positions[i+1:], e.positions[i:])
	e.positions[i] = uint32(pos)
}

// Set atomically replaces the association of pos: the old value is removed
// before the new one is added, so no reader observes both or neither.
func (x *StringIndex) Set(pos int, oldValue, newValue string) {
	if oldValue == newValue {
		return
	}
	x.removeOccurrence(pos, oldValue)
	x.Insert(pos, newValue, true)
}

// Delete removes the occurrence of value at pos. isLast signals that pos was
// the final row, skipping the renumbering pass.
func (x *StringIndex) Delete(pos int, value string, isLast bool) {
	x.removeOccurrence(pos, value)
	if !isLast {
		x.adjustPositions(uint32(pos)+1, -1)
	}
}

func (x *StringIndex) removeOccurrence(pos int, value string) {
	e, ok := x.entries.Get(&indexEntry{key: value})
	if !ok {
		panic(fmt.Sprintf("column: index out of step, key %q unknown", value))
	}
	i := sort.Search(len(e.positions), func(j int) bool { return e.positions[j] >= uint32(pos) })
	if i >= len(e.positions) || e.positions[i] != uint32(pos) {
		panic(fmt.Sprintf("column: index out of step, key %q missing position %d", value, pos))
	}
	e.positions = append(e.positions[:i], e.positions[i+1:]...)
	if len(e.positions) == 0 {
		x.entries.Delete(e)
	}
}

// FindFirst returns the lowest position holding value, or NotFound.
func (x *StringIndex) FindFirst(value string) int {
	e, ok := x.entries.Get(&indexEntry{key: value})
	if !ok {
		return NotFound
	}
	return int(e.positions[0])
}

// FindAll returns every position holding value.
func (x *StringIndex) FindAll(value string) *roaring.Bitmap {
	result := roaring.New()
	e, ok := x.entries.Get(&indexEntry{key: value})
	if !ok {
		return result
	}
	result.AddMany(e.positions)
	return result
}

// Count returns the number of positions holding value.
func (x *StringIndex) Count(value string) int {
	e, ok := x.entries.Get(&indexEntry{key: value})
	if !ok {
		return 0
	}
	return len(e.positions)
}

// Clear drops every entry.
func (x *StringIndex) Clear() {
	x.entries.Clear(false)
}

// VerifyEntries cross-checks every index entry against a direct column scan.
// Debug aid for tests; not a production path.
func (x *StringIndex) VerifyEntries(col *StringColumn) error {
	total := 0
	var err error
	x.entries.Ascend(func(e *indexEntry) bool {
		total += len(e.positions)
		for _, p := range e.positions {
			if int(p) >= col.Size() {
				err = fmt.Errorf("column: index key %q has position %d beyond size %d", e.key, p, col.Size())
				return false
			}
			if got := col.Get(int(p)); got != e.key {
				err = fmt.Errorf("column: index key %q at position %d, column holds %q", e.key, p, got)
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	if total != col.Size() {
		return fmt.Errorf("column: index tracks %d rows, column holds %d", total, col.Size())
	}
	return nil
}
