package colibri

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/colibri-db/colibri/arena"
	"github.com/colibri-db/colibri/column"
	"github.com/colibri-db/colibri/compare"
)

// ColumnType identifies the storage type of a table column.
type ColumnType uint8

const (
	// TypeInt is a 64-bit integer column.
	TypeInt ColumnType = iota
	// TypeString is an adaptive, nullable string column.
	TypeString
	// TypeLink is a to-one reference into a target table.
	TypeLink
	// TypeLinkList is a to-many ordered reference list into a target table.
	TypeLinkList
)

func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeLink:
		return "link"
	case TypeLinkList:
		return "linklist"
	default:
		return fmt.Sprintf("ColumnType(%d)", uint8(t))
	}
}

// nullLink marks an unset link.
const nullLink = -1

// Column is one typed column of a Table.
type Column struct {
	table *Table
	name  string
	typ   ColumnType

	// TypeString
	str      *column.StringColumn
	strNulls *column.IntColumn // parallel null flags, width stays 0 while all rows are set

	// TypeInt
	ints *column.IntColumn

	// TypeLink / TypeLinkList
	target *Table
	links  []int
	lists  [][]int
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the column type.
func (c *Column) Type() ColumnType { return c.typ }

// Target returns the linked-to table for link columns, nil otherwise.
func (c *Column) Target() *Table { return c.target }

// Table is the minimal mutable object model the column and view layers work
// against: typed columns over shared row positions, a version token bumped on
// every mutation, stable row keys for tracking rows across moves, and change
// notification to live views.
//
// Single-writer: mutations must be externally serialized.
type Table struct {
	id       uuid.UUID
	name     string
	alloc    arena.Allocator
	logger   *Logger
	comparer compare.Comparer
	leafCap  int

	version uint64
	cols    []*Column
	size    int

	rowKeys  []uint64
	keyToRow map[uint64]int
	nextKey  uint64

	// inbound lists link columns (in this or other tables) targeting this
	// table, so row moves here can fix their references.
	inbound []*Column

	// views are live result sets to notify of structural row changes.
	views []*TableView
}

// NewTable creates an empty table.
func NewTable(name string, optFns ...Option) (*Table, error) {
	o := options{
		logger:       NoopLogger(),
		comparer:     compare.Bytewise(),
		leafCapacity: column.DefaultLeafCapacity,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.alloc == nil {
		o.alloc = arena.NewHeapArena()
	}
	return &Table{
		id:       uuid.New(),
		name:     name,
		alloc:    o.alloc,
		logger:   o.logger,
		comparer: o.comparer,
		leafCap:  o.leafCapacity,
		keyToRow: make(map[uint64]int),
	}, nil
}

// ID returns the table's stable identity, used in log fields.
func (t *Table) ID() uuid.UUID { return t.id }

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Version returns the current version token. It increases on every mutation;
// views compare it against their snapshot to detect staleness.
func (t *Table) Version() uint64 { return t.version }

func (t *Table) bumpVersion() { t.version++ }

// Size returns the row count.
func (t *Table) Size() int { return t.size }

// IsEmpty reports whether the table holds no rows.
func (t *Table) IsEmpty() bool { return t.size == 0 }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.cols) }

// ColumnAt returns column metadata by index.
func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// ColumnByName returns the index of the named column, or -1.
func (t *Table) ColumnByName(name string) int {
	for i, c := range t.cols {
		if c.name == name {
			return i
		}
	}
	return -1
}

// AddIntColumn appends an integer column, backfilled with zeroes.
func (t *Table) AddIntColumn(name string) (int, error) {
	ints, err := column.NewIntColumn(t.alloc, column.WithLeafCapacity(t.leafCap))
	if err != nil {
		return 0, err
	}
	if err := ints.Fill(t.size); err != nil {
		return 0, err
	}
	t.cols = append(t.cols, &Column{table: t, name: name, typ: TypeInt, ints: ints})
	t.bumpVersion()
	return len(t.cols) - 1, nil
}

// AddStringColumn appends a nullable string column, backfilled with empty
// strings.
func (t *Table) AddStringColumn(name string) (int, error) {
	str, err := column.NewStringColumn(t.alloc, column.WithLeafCapacity(t.leafCap))
	if err != nil {
		return 0, err
	}
	if err := str.Fill(t.size); err != nil {
		return 0, err
	}
	nulls, err := column.NewIntColumn(t.alloc, column.WithLeafCapacity(t.leafCap))
	if err != nil {
		return 0, err
	}
	if err := nulls.Fill(t.size); err != nil {
		return 0, err
	}
	t.cols = append(t.cols, &Column{table: t, name: name, typ: TypeString, str: str, strNulls: nulls})
	t.bumpVersion()
	return len(t.cols) - 1, nil
}

// AddLinkColumn appends a to-one link column targeting another (or the same)
// table. Existing rows get null links.
func (t *Table) AddLinkColumn(name string, target *Table) int {
	links := make([]int, t.size)
	for i := range links {
		links[i] = nullLink
	}
	col := &Column{table: t, name: name, typ: TypeLink, target: target, links: links}
	t.cols = append(t.cols, col)
	target.inbound = append(target.inbound, col)
	t.bumpVersion()
	return len(t.cols) - 1
}

// AddLinkListColumn appends a to-many link column targeting another (or the
// same) table. Existing rows get empty lists.
func (t *Table) AddLinkListColumn(name string, target *Table) int {
	col := &Column{table: t, name: name, typ: TypeLinkList, target: target, lists: make([][]int, t.size)}
	t.cols = append(t.cols, col)
	target.inbound = append(target.inbound, col)
	t.bumpVersion()
	return len(t.cols) - 1
}

// AddSearchIndex builds a search index over a string column.
func (t *Table) AddSearchIndex(col int) {
	c := t.col(col, TypeString)
	c.str.CreateIndex()
	t.logger.logIndexBuild(t, c.name, t.size)
}

// HasSearchIndex reports whether the column carries a search index.
func (t *Table) HasSearchIndex(col int) bool {
	c := t.cols[col]
	return c.typ == TypeString && c.str.HasIndex()
}

// col asserts the column type; wrong usage is a programmer error.
func (t *Table) col(i int, want ColumnType) *Column {
	c := t.cols[i]
	if c.typ != want {
		panic(&ErrColumnTypeMismatch{Column: c.name, Expected: want, Actual: c.typ})
	}
	return c
}

func (t *Table) checkRow(row int) {
	if row < 0 || row >= t.size {
		panic(fmt.Sprintf("table %q: row %d out of range (size %d)", t.name, row, t.size))
	}
}

// GetInt returns the integer at (col, row).
func (t *Table) GetInt(col, row int) int64 {
	t.checkRow(row)
	return t.col(col, TypeInt).ints.Get(row)
}

// SetInt overwrites the integer at (col, row).
func (t *Table) SetInt(col, row int, v int64) error {
	t.checkRow(row)
	if err := t.col(col, TypeInt).ints.Set(row, v); err != nil {
		return err
	}
	t.bumpVersion()
	return nil
}

// GetString returns the string at (col, row); null rows read as "".
func (t *Table) GetString(col, row int) string {
	t.checkRow(row)
	return t.col(col, TypeString).str.Get(row)
}

// IsStringNull reports whether (col, row) holds null.
func (t *Table) IsStringNull(col, row int) bool {
	t.checkRow(row)
	return t.col(col, TypeString).strNulls.Get(row) != 0
}

// SetString overwrites the string at (col, row), clearing any null flag.
func (t *Table) SetString(col, row int, v string) error {
	t.checkRow(row)
	c := t.col(col, TypeString)
	if err := c.str.Set(row, v); err != nil {
		return err
	}
	if err := c.strNulls.Set(row, 0); err != nil {
		return err
	}
	t.bumpVersion()
	return nil
}

// SetStringNull sets (col, row) to null.
func (t *Table) SetStringNull(col, row int) error {
	t.checkRow(row)
	c := t.col(col, TypeString)
	if err := c.str.Set(row, ""); err != nil {
		return err
	}
	if err := c.strNulls.Set(row, 1); err != nil {
		return err
	}
	t.bumpVersion()
	return nil
}

// GetLink returns the target row of a link, or -1 when null.
func (t *Table) GetLink(col, row int) int {
	t.checkRow(row)
	return t.col(col, TypeLink).links[row]
}

// SetLink points a link at a target row.
func (t *Table) SetLink(col, row, targetRow int) error {
	t.checkRow(row)
	c := t.col(col, TypeLink)
	if targetRow < 0 || targetRow >= c.target.size {
		return &ErrInvalidLinkTarget{Table: c.target.name, Row: targetRow}
	}
	c.links[row] = targetRow
	t.bumpVersion()
	return nil
}

// NullifyLink clears a link.
func (t *Table) NullifyLink(col, row int) {
	t.checkRow(row)
	t.col(col, TypeLink).links[row] = nullLink
	t.bumpVersion()
}

// GetLinkList returns a copy of the link list at (col, row).
func (t *Table) GetLinkList(col, row int) []int {
	t.checkRow(row)
	list := t.col(col, TypeLinkList).lists[row]
	out := make([]int, len(list))
	copy(out, list)
	return out
}

// LinkListAdd appends a target row to the link list at (col, row).
func (t *Table) LinkListAdd(col, row, targetRow int) error {
	t.checkRow(row)
	c := t.col(col, TypeLinkList)
	if targetRow < 0 || targetRow >= c.target.size {
		return &ErrInvalidLinkTarget{Table: c.target.name, Row: targetRow}
	}
	c.lists[row] = append(c.lists[row], targetRow)
	t.bumpVersion()
	return nil
}

// LinkListClear empties the link list at (col, row).
func (t *Table) LinkListClear(col, row int) {
	t.checkRow(row)
	c := t.col(col, TypeLinkList)
	c.lists[row] = nil
	t.bumpVersion()
}

// rowKey returns the stable key of a row.
func (t *Table) rowKey(row int) uint64 { return t.rowKeys[row] }

// rowOfKey maps a stable key back to the row's current position.
func (t *Table) rowOfKey(key uint64) (int, bool) {
	row, ok := t.keyToRow[key]
	return row, ok
}

func (t *Table) registerView(v *TableView) {
	t.views = append(t.views, v)
}

func (t *Table) unregisterView(v *TableView) {
	for i, w := range t.views {
		if w == v {
			t.views = append(t.views[:i], t.views[i+1:]...)
			return
		}
	}
}
