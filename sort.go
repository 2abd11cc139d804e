package colibri

import (
	"sort"
	"strconv"
	"strings"
)

// ColumnPath addresses a column either directly or through a to-one link
// column (one hop).
type ColumnPath struct {
	// Link is the index of a link column to follow first, or -1 for a
	// direct column.
	Link int
	// Col is the column index, in the link's target table when Link >= 0.
	Col int
}

// Col addresses a column of the view's own table.
func Col(col int) ColumnPath { return ColumnPath{Link: -1, Col: col} }

// LinkCol addresses a column of the table behind a link column.
func LinkCol(link, col int) ColumnPath { return ColumnPath{Link: link, Col: col} }

// SortClause is one key of a sort order.
type SortClause struct {
	Path      ColumnPath
	Ascending bool
}

// Ascending sorts by a column, smallest first. Nulls order before all
// values.
func Ascending(path ColumnPath) SortClause { return SortClause{Path: path, Ascending: true} }

// Descending sorts by a column, largest first.
func Descending(path ColumnPath) SortClause { return SortClause{Path: path} }

// sortValue is a comparable rendering of one cell. Unresolvable link paths
// and null cells both read as null.
type sortValue struct {
	null  bool
	isStr bool
	s     string
	i     int64
}

// resolve follows a column path from a row, returning the addressed table
// and row. ok is false when a link on the path is null or broken.
func (p ColumnPath) resolve(t *Table, row int) (*Table, int, bool) {
	if p.Link < 0 {
		return t, row, true
	}
	lc := t.col(p.Link, TypeLink)
	target := lc.links[row]
	if target == nullLink || target >= lc.target.size {
		return nil, 0, false
	}
	return lc.target, target, true
}

func (t *Table) sortValueAt(row int, p ColumnPath) sortValue {
	vt, vr, ok := p.resolve(t, row)
	if !ok {
		return sortValue{null: true}
	}
	c := vt.cols[p.Col]
	switch c.typ {
	case TypeInt:
		return sortValue{i: c.ints.Get(vr)}
	case TypeString:
		if c.strNulls.Get(vr) != 0 {
			return sortValue{null: true, isStr: true}
		}
		return sortValue{isStr: true, s: c.str.Get(vr)}
	default:
		panic(&ErrColumnTypeMismatch{Column: c.name, Expected: TypeString, Actual: c.typ})
	}
}

// cmp returns -1, 0 or 1. Nulls order before every value.
func (a sortValue) cmp(b sortValue, t *Table) int {
	switch {
	case a.null && b.null:
		return 0
	case a.null:
		return -1
	case b.null:
		return 1
	}
	if a.isStr {
		switch {
		case t.comparer.Less(a.s, b.s):
			return -1
		case t.comparer.Less(b.s, a.s):
			return 1
		}
		return 0
	}
	switch {
	case a.i < b.i:
		return -1
	case a.i > b.i:
		return 1
	}
	return 0
}

// Sort orders the view by the given keys (stable), records them, and
// re-applies them on every subsequent sync. Sorting takes the view out of
// table order.
func (v *TableView) Sort(clauses ...SortClause) {
	if len(clauses) == 0 {
		return
	}
	v.sortDesc = clauses
	v.applySort(clauses)
}

func (v *TableView) applySort(clauses []SortClause) {
	t := v.table
	sort.SliceStable(v.rows, func(x, y int) bool {
		rx, ry := v.rows[x], v.rows[y]
		if rx == detachedRef || ry == detachedRef {
			return ry == detachedRef && rx != detachedRef
		}
		for _, cl := range clauses {
			c := t.sortValueAt(rx, cl.Path).cmp(t.sortValueAt(ry, cl.Path), t)
			if c == 0 {
				continue
			}
			if cl.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	v.tableOrdered = false
}

// Distinct keeps the first entry (in the view's current order) for each
// distinct combination of the given column values, records the descriptor,
// and re-applies it on every sync. Distinct never refines a previous
// Distinct: it always starts over from the full row set, re-sorted if a
// sort order is recorded, so calling it with a different key set recovers
// rows an earlier call dropped. No columns clears the descriptor.
func (v *TableView) Distinct(paths ...ColumnPath) error {
	v.rows = append(v.rows[:0], v.baseRows...)
	if len(v.sortDesc) > 0 {
		v.applySort(v.sortDesc)
	} else {
		v.tableOrdered = v.source.inTableOrder()
	}
	if len(paths) == 0 {
		v.distinctDesc = nil
		return nil
	}
	v.distinctDesc = paths
	return v.applyDistinct(paths)
}

func (v *TableView) applyDistinct(paths []ColumnPath) error {
	seen := make(map[string]struct{}, len(v.rows))
	out := v.rows[:0]
	for _, r := range v.rows {
		if r == detachedRef {
			continue
		}
		key := v.table.distinctKey(r, paths)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	v.rows = out
	return nil
}

// distinctKey encodes the cells addressed by paths into one dedup key.
// String values are length-prefixed so values containing separator bytes
// cannot shift a boundary between tuple fields; nulls are distinct from
// every value, including the empty string.
func (t *Table) distinctKey(row int, paths []ColumnPath) string {
	var b strings.Builder
	for _, p := range paths {
		sv := t.sortValueAt(row, p)
		switch {
		case sv.null:
			b.WriteString("n")
		case sv.isStr:
			b.WriteString("s")
			b.WriteString(strconv.Itoa(len(sv.s)))
			b.WriteByte(':')
			b.WriteString(sv.s)
		default:
			b.WriteString("i")
			b.WriteString(strconv.FormatInt(sv.i, 10))
		}
		b.WriteByte(0)
	}
	return b.String()
}
