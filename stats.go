package colibri

import (
	"github.com/colibri-db/colibri/arena"
)

// TableStats is a point-in-time snapshot of a table's shape and storage use.
type TableStats struct {
	Rows    int
	Columns int
	Indexes int
	Version uint64
	// Storage reports the backing arena's counters. Tables sharing an arena
	// report the same storage figures.
	Storage arena.Stats
}

// Stats returns current table statistics. Handy for monitoring hooks and
// capacity checks; it never blocks mutations.
func (t *Table) Stats() TableStats {
	s := TableStats{
		Rows:    t.size,
		Columns: len(t.cols),
		Version: t.version,
	}
	for _, c := range t.cols {
		if c.typ == TypeString && c.str.HasIndex() {
			s.Indexes++
		}
	}
	if h, ok := t.alloc.(*arena.HeapArena); ok {
		s.Storage = h.Stats()
	}
	return s
}

// Destroy releases the table's column storage and detaches every live view.
// The table must not be used afterwards.
func (t *Table) Destroy() {
	for _, v := range t.views {
		v.table = nil
	}
	t.views = nil
	for _, c := range t.cols {
		switch c.typ {
		case TypeInt:
			c.ints.Destroy()
		case TypeString:
			c.str.Destroy()
			c.strNulls.Destroy()
		}
	}
	t.cols = nil
	t.size = 0
	t.rowKeys = nil
	t.keyToRow = nil
}
