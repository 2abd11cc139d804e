package colibri

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// findAllIntSource derives the rows where an integer column holds a value.
type findAllIntSource struct {
	col int
	val int64
}

func (s *findAllIntSource) derive(v *TableView) ([]int, error) {
	bm := v.table.col(s.col, TypeInt).ints.FindAll(s.val, 0, -1)
	rows := make([]int, 0, bm.GetCardinality())
	bm.Iterate(func(x uint32) bool {
		rows = append(rows, int(x))
		return true
	})
	return rows, nil
}

func (s *findAllIntSource) dependsOnDeletedObject(*TableView) bool { return false }
func (s *findAllIntSource) inTableOrder() bool                     { return true }

// findAllStringSource derives the rows where a string column holds a value.
// It goes through the column's search index when one exists.
type findAllStringSource struct {
	col int
	val string
}

func (s *findAllStringSource) derive(v *TableView) ([]int, error) {
	bm := v.table.col(s.col, TypeString).str.FindAll(s.val, 0, -1)
	rows := make([]int, 0, bm.GetCardinality())
	bm.Iterate(func(x uint32) bool {
		rows = append(rows, int(x))
		return true
	})
	return rows, nil
}

func (s *findAllStringSource) dependsOnDeletedObject(*TableView) bool { return false }
func (s *findAllStringSource) inTableOrder() bool                     { return true }

// rangeSource derives a half-open row range, clamped to the table size.
type rangeSource struct {
	begin, end int
}

func (s *rangeSource) derive(v *TableView) ([]int, error) {
	begin, end := s.begin, s.end
	if end < 0 || end > v.table.size {
		end = v.table.size
	}
	if begin < 0 {
		begin = 0
	}
	rows := make([]int, 0, max(end-begin, 0))
	for r := begin; r < end; r++ {
		rows = append(rows, r)
	}
	return rows, nil
}

func (s *rangeSource) dependsOnDeletedObject(*TableView) bool { return false }
func (s *rangeSource) inTableOrder() bool                     { return true }

// backlinkSource derives the origin rows whose link column points at one
// target row. The target is tracked by stable key: once it is removed the
// source reports dependsOnDeletedObject and derives empty from then on, even
// if new rows reuse its index.
type backlinkSource struct {
	target    *Table
	targetKey uint64
	originCol int
}

func (s *backlinkSource) derive(v *TableView) ([]int, error) {
	row, ok := s.target.rowOfKey(s.targetKey)
	if !ok {
		return nil, nil
	}
	c := v.table.cols[s.originCol]
	var rows []int
	switch c.typ {
	case TypeLink:
		for i, l := range c.links {
			if l == row {
				rows = append(rows, i)
			}
		}
	case TypeLinkList:
		for i, list := range c.lists {
			for _, l := range list {
				if l == row {
					rows = append(rows, i)
				}
			}
		}
	}
	return rows, nil
}

func (s *backlinkSource) dependsOnDeletedObject(*TableView) bool {
	_, ok := s.target.rowOfKey(s.targetKey)
	return !ok
}

func (s *backlinkSource) inTableOrder() bool { return false }

// subViewSource derives a view stacked on another view: the parent's rows
// filtered by one column value. The parent is synced first so the child
// never filters stale entries.
type subViewSource struct {
	parent *TableView
	col    int
	str    *string
	num    int64
}

func (s *subViewSource) derive(v *TableView) ([]int, error) {
	if _, err := s.parent.SyncIfNeeded(); err != nil {
		return nil, err
	}
	t := v.table
	var rows []int
	for _, r := range s.parent.rows {
		if r == detachedRef {
			continue
		}
		if s.str != nil {
			if t.GetString(s.col, r) == *s.str {
				rows = append(rows, r)
			}
		} else if t.GetInt(s.col, r) == s.num {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (s *subViewSource) dependsOnDeletedObject(v *TableView) bool {
	return s.parent.DependsOnDeletedObject()
}

func (s *subViewSource) inTableOrder() bool { return s.parent.tableOrdered }

// allRowsSource derives every row, for sorted and distinct views.
type allRowsSource struct{}

func (allRowsSource) derive(v *TableView) ([]int, error) {
	rows := make([]int, v.table.size)
	for i := range rows {
		rows[i] = i
	}
	return rows, nil
}

func (allRowsSource) dependsOnDeletedObject(*TableView) bool { return false }
func (allRowsSource) inTableOrder() bool                     { return true }

// FindFirstInt returns the first row where the integer column holds value,
// or -1.
func (t *Table) FindFirstInt(col int, value int64) int {
	return t.col(col, TypeInt).ints.FindFirst(value, 0, -1)
}

// FindFirstString returns the first row where the string column holds value,
// or -1. Indexed columns answer from the index.
func (t *Table) FindFirstString(col int, value string) int {
	return t.col(col, TypeString).str.FindFirst(value, 0, -1)
}

// CountString returns how many rows hold value in the string column.
func (t *Table) CountString(col int, value string) int {
	return t.col(col, TypeString).str.Count(value)
}

// FindAllInt returns a live view of the rows where the integer column holds
// value.
func (t *Table) FindAllInt(col int, value int64) (*TableView, error) {
	t.col(col, TypeInt)
	return newTableView(t, &findAllIntSource{col: col, val: value})
}

// FindAllString returns a live view of the rows where the string column
// holds value.
func (t *Table) FindAllString(col int, value string) (*TableView, error) {
	t.col(col, TypeString)
	return newTableView(t, &findAllStringSource{col: col, val: value})
}

// FindAllInt stacks a view on this one, keeping the rows where the integer
// column holds value. The child re-derives through the parent, so syncing it
// syncs the whole chain.
func (v *TableView) FindAllInt(col int, value int64) (*TableView, error) {
	v.table.col(col, TypeInt)
	return newTableView(v.table, &subViewSource{parent: v, col: col, num: value})
}

// FindAllString stacks a view on this one, keeping the rows where the string
// column holds value.
func (v *TableView) FindAllString(col int, value string) (*TableView, error) {
	v.table.col(col, TypeString)
	return newTableView(v.table, &subViewSource{parent: v, col: col, str: &value})
}

// RangeView returns a live view of the half-open row range [begin, end).
// A negative end means through the last row.
func (t *Table) RangeView(begin, end int) (*TableView, error) {
	return newTableView(t, &rangeSource{begin: begin, end: end})
}

// SortedView returns a live view of all rows, ordered by the given keys.
// The sort order is re-applied on every sync.
func (t *Table) SortedView(clauses ...SortClause) (*TableView, error) {
	v, err := newTableView(t, allRowsSource{})
	if err != nil {
		return nil, err
	}
	v.Sort(clauses...)
	return v, nil
}

// DistinctView returns a live view holding the first row for each distinct
// combination of the given column values, in table order.
func (t *Table) DistinctView(paths ...ColumnPath) (*TableView, error) {
	v, err := newTableView(t, allRowsSource{})
	if err != nil {
		return nil, err
	}
	if err := v.Distinct(paths...); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

// BacklinkView returns a live view over origin of the rows whose link column
// points at the given row of t. The target row is tracked by identity: if it
// is later removed, the view syncs to an empty result and reports
// DependsOnDeletedObject.
func (t *Table) BacklinkView(row int, origin *Table, originCol int) (*TableView, error) {
	t.checkRow(row)
	c := origin.cols[originCol]
	if (c.typ != TypeLink && c.typ != TypeLinkList) || c.target != t {
		return nil, &ErrColumnTypeMismatch{Column: c.name, Expected: TypeLink, Actual: c.typ}
	}
	return newTableView(origin, &backlinkSource{
		target:    t,
		targetKey: t.rowKey(row),
		originCol: originCol,
	})
}

// Verify cross-checks internal consistency: column sizes against the row
// count, search indexes against their columns, links against their target
// tables, and the stable-key map. Columns are checked concurrently.
func (t *Table) Verify() error {
	g := new(errgroup.Group)
	for _, c := range t.cols {
		c := c
		g.Go(func() error {
			switch c.typ {
			case TypeInt:
				if c.ints.Size() != t.size {
					return fmt.Errorf("column %q: size %d, table has %d rows", c.name, c.ints.Size(), t.size)
				}
			case TypeString:
				if c.str.Size() != t.size || c.strNulls.Size() != t.size {
					return fmt.Errorf("column %q: size %d, table has %d rows", c.name, c.str.Size(), t.size)
				}
				if err := c.str.Verify(); err != nil {
					return fmt.Errorf("column %q: %w", c.name, err)
				}
			case TypeLink:
				if len(c.links) != t.size {
					return fmt.Errorf("column %q: size %d, table has %d rows", c.name, len(c.links), t.size)
				}
				for i, l := range c.links {
					if l != nullLink && (l < 0 || l >= c.target.size) {
						return fmt.Errorf("column %q: row %d links to missing row %d", c.name, i, l)
					}
				}
			case TypeLinkList:
				if len(c.lists) != t.size {
					return fmt.Errorf("column %q: size %d, table has %d rows", c.name, len(c.lists), t.size)
				}
				for i, list := range c.lists {
					for _, l := range list {
						if l < 0 || l >= c.target.size {
							return fmt.Errorf("column %q: row %d links to missing row %d", c.name, i, l)
						}
					}
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		if len(t.rowKeys) != t.size {
			return fmt.Errorf("table %q: %d row keys for %d rows", t.name, len(t.rowKeys), t.size)
		}
		for i, k := range t.rowKeys {
			if t.keyToRow[k] != i {
				return fmt.Errorf("table %q: key %d maps to row %d, expected %d", t.name, k, t.keyToRow[k], i)
			}
		}
		return nil
	})
	return g.Wait()
}
