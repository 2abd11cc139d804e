package colibri

import (
	"fmt"

	"github.com/SierraSoftworks/connor"
)

// Query matches rows against a MongoDB-style filter document, for example
//
//	table.Query(map[string]any{"age": map[string]any{"$ge": 18}})
//
// Cells are rendered by column name: integers as float64, strings as string,
// nulls and null links as nil, link cells as the target row index, and link
// lists as []any. The float64 rendering keeps filter literals comparable the
// way JSON documents are, at the cost of precision for integer magnitudes
// beyond 2^53; use FindFirstInt/FindAllInt for exact matching on such values.
type Query struct {
	table  *Table
	filter map[string]interface{}
}

// Query builds a query over the table. A nil or empty filter matches every
// row.
func (t *Table) Query(filter map[string]interface{}) *Query {
	return &Query{table: t, filter: filter}
}

func (q *Query) match(row int) (bool, error) {
	if len(q.filter) == 0 {
		return true, nil
	}
	ok, err := connor.Match(q.filter, q.table.rowDocument(row))
	if err != nil {
		return false, fmt.Errorf("match row %d: %w", row, err)
	}
	return ok, nil
}

// FindFirst returns the first matching row, or ErrNotFound.
func (q *Query) FindFirst() (int, error) {
	for r := 0; r < q.table.size; r++ {
		ok, err := q.match(r)
		if err != nil {
			return 0, err
		}
		if ok {
			return r, nil
		}
	}
	return 0, ErrNotFound
}

// Count returns the number of matching rows.
func (q *Query) Count() (int, error) {
	n := 0
	for r := 0; r < q.table.size; r++ {
		ok, err := q.match(r)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// FindAll returns a live view of the matching rows, in table order. The
// filter is re-evaluated on every sync.
func (q *Query) FindAll() (*TableView, error) {
	return newTableView(q.table, &queryViewSource{q: q})
}

type queryViewSource struct {
	q *Query
}

func (s *queryViewSource) derive(v *TableView) ([]int, error) {
	var rows []int
	for r := 0; r < v.table.size; r++ {
		ok, err := s.q.match(r)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (s *queryViewSource) dependsOnDeletedObject(*TableView) bool { return false }
func (s *queryViewSource) inTableOrder() bool                     { return true }

// rowDocument renders one row as a filter-matchable document.
func (t *Table) rowDocument(row int) map[string]interface{} {
	doc := make(map[string]interface{}, len(t.cols))
	for _, c := range t.cols {
		switch c.typ {
		case TypeInt:
			doc[c.name] = float64(c.ints.Get(row))
		case TypeString:
			if c.strNulls.Get(row) != 0 {
				doc[c.name] = nil
			} else {
				doc[c.name] = c.str.Get(row)
			}
		case TypeLink:
			if l := c.links[row]; l == nullLink {
				doc[c.name] = nil
			} else {
				doc[c.name] = float64(l)
			}
		case TypeLinkList:
			list := make([]interface{}, len(c.lists[row]))
			for i, l := range c.lists[row] {
				list[i] = float64(l)
			}
			doc[c.name] = list
		}
	}
	return doc
}
