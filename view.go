package colibri

// detachedRef marks a view entry whose underlying row has been removed.
const detachedRef = -1

// viewSource re-derives a view's row set on synchronization.
type viewSource interface {
	// derive recomputes the matching row indexes from the current table
	// state.
	derive(v *TableView) ([]int, error)
	// dependsOnDeletedObject reports whether the view's anchor object has
	// been removed, in which case derive yields an empty, frozen result.
	dependsOnDeletedObject(v *TableView) bool
	// inTableOrder reports whether derive returns rows in ascending table
	// order.
	inTableOrder() bool
}

// TableView is a live list of row references into a table.
//
// A view is a snapshot: table mutations make it stale rather than invalid.
// Structural row changes (remove, move-last-over, swap, clear) patch the
// view's row references in place, so stale reads never touch the wrong row;
// entries whose row was removed read as detached. SyncIfNeeded re-runs the
// view's defining operation and re-applies its sort and distinct
// descriptors, bringing the view back in sync with the table's version.
type TableView struct {
	table  *Table
	source viewSource

	rows     []int
	baseRows []int // derive output before sort/distinct, kept for re-distinct

	syncVersion  uint64
	synced       bool
	frozen       bool // anchor object gone; the empty result is final
	tableOrdered bool

	sortDesc     []SortClause
	distinctDesc []ColumnPath
}

func newTableView(t *Table, src viewSource) (*TableView, error) {
	v := &TableView{table: t, source: src}
	t.registerView(v)
	if _, err := v.sync(); err != nil {
		t.unregisterView(v)
		return nil, err
	}
	return v, nil
}

// Close detaches the view from its table. Further syncs and reads return
// ErrDetachedView.
func (v *TableView) Close() {
	if v.table != nil {
		v.table.unregisterView(v)
		v.table = nil
	}
}

// IsAttached reports whether the view still references a table.
func (v *TableView) IsAttached() bool { return v.table != nil }

// Size returns the number of entries, including detached ones.
func (v *TableView) Size() int { return len(v.rows) }

// NumAttachedRows returns the number of entries whose row still exists.
func (v *TableView) NumAttachedRows() int {
	n := 0
	for _, r := range v.rows {
		if r != detachedRef {
			n++
		}
	}
	return n
}

// IsRowAttached reports whether entry i still references a live row.
func (v *TableView) IsRowAttached(i int) bool { return v.rows[i] != detachedRef }

// GetSourceNdx returns the table row index of entry i, or -1 if the row has
// been removed.
func (v *TableView) GetSourceNdx(i int) int { return v.rows[i] }

// FindBySourceNdx returns the view position of the given table row, or -1.
func (v *TableView) FindBySourceNdx(row int) int {
	for i, r := range v.rows {
		if r == row {
			return i
		}
	}
	return -1
}

// IsInSync reports whether the view reflects the table's current version. A
// view that has synced against a deleted anchor object is permanently in
// sync: its empty result can never change again.
func (v *TableView) IsInSync() bool {
	if v.table == nil || !v.synced {
		return false
	}
	return v.frozen || v.syncVersion == v.table.version
}

// IsInTableOrder reports whether the view's entries are in ascending table
// row order. Sorting or distinct clears it.
func (v *TableView) IsInTableOrder() bool { return v.tableOrdered }

// DependsOnDeletedObject reports whether the view's anchor object (for
// example the backlink target row) has been removed. Such views sync to an
// empty, frozen result.
func (v *TableView) DependsOnDeletedObject() bool {
	if v.table == nil {
		return false
	}
	return v.source.dependsOnDeletedObject(v)
}

// SyncIfNeeded re-derives the view when the table has changed since the last
// sync. It returns the version the view is now in sync with.
func (v *TableView) SyncIfNeeded() (uint64, error) {
	if v.table == nil {
		return 0, ErrDetachedView
	}
	if v.IsInSync() {
		return v.syncVersion, nil
	}
	return v.sync()
}

func (v *TableView) sync() (uint64, error) {
	rows, err := v.source.derive(v)
	if err != nil {
		return 0, err
	}
	v.rows = rows
	v.baseRows = append(v.baseRows[:0], rows...)
	v.tableOrdered = v.source.inTableOrder()

	if len(v.sortDesc) > 0 {
		v.applySort(v.sortDesc)
	}
	if v.distinctDesc != nil {
		if err := v.applyDistinct(v.distinctDesc); err != nil {
			return 0, err
		}
	}

	v.syncVersion = v.table.version
	v.synced = true
	v.frozen = v.source.dependsOnDeletedObject(v)
	v.table.logger.logViewSync(v.table, len(v.rows), "stale version")
	return v.syncVersion, nil
}

// GetInt reads an integer through the view. Entry i must be attached.
func (v *TableView) GetInt(col, i int) int64 {
	return v.table.GetInt(col, v.mustRow(i))
}

// GetString reads a string through the view. Entry i must be attached.
func (v *TableView) GetString(col, i int) string {
	return v.table.GetString(col, v.mustRow(i))
}

// IsStringNull reads a null flag through the view. Entry i must be attached.
func (v *TableView) IsStringNull(col, i int) bool {
	return v.table.IsStringNull(col, v.mustRow(i))
}

// SetInt writes an integer through the view. Entry i must be attached.
func (v *TableView) SetInt(col, i int, val int64) error {
	return v.table.SetInt(col, v.mustRow(i), val)
}

// SetString writes a string through the view. Entry i must be attached.
func (v *TableView) SetString(col, i int, val string) error {
	return v.table.SetString(col, v.mustRow(i), val)
}

func (v *TableView) mustRow(i int) int {
	r := v.rows[i]
	if r == detachedRef {
		panic("view entry is detached")
	}
	return r
}

// RemoveMode selects the table-level deletion semantics used when removing
// rows through a view.
type RemoveMode int

const (
	// RemoveOrdered shifts following rows down, preserving table order.
	RemoveOrdered RemoveMode = iota
	// RemoveUnordered moves the last row into the gap.
	RemoveUnordered
)

// Remove deletes the underlying row of entry i from the table and drops the
// entry from the view. Other views are patched through the normal
// notification path.
func (v *TableView) Remove(i int, mode RemoveMode) error {
	if v.table == nil {
		return ErrDetachedView
	}
	row := v.mustRow(i)
	var err error
	if mode == RemoveUnordered {
		err = v.table.MoveLastOver(row)
	} else {
		err = v.table.Remove(row)
	}
	if err != nil {
		return err
	}
	// The removal notification detached entry i; drop it.
	v.rows = append(v.rows[:i], v.rows[i+1:]...)
	return nil
}

// RemoveLast deletes the underlying row of the view's last entry.
func (v *TableView) RemoveLast(mode RemoveMode) error {
	if len(v.rows) == 0 {
		return ErrNotFound
	}
	return v.Remove(len(v.rows)-1, mode)
}

// Clear deletes every underlying row the view references. The entries stay
// in the view as detached references until the next sync; Size is unchanged
// while NumAttachedRows drops to zero.
//
// Rows are resolved by stable key, so deletions that shuffle row indexes
// (RemoveUnordered) cannot strike the wrong row.
func (v *TableView) Clear(mode RemoveMode) error {
	if v.table == nil {
		return ErrDetachedView
	}
	keys := make([]uint64, 0, len(v.rows))
	for _, r := range v.rows {
		if r != detachedRef {
			keys = append(keys, v.table.rowKey(r))
		}
	}
	// Back to front, so ordered removal never shifts a pending row before
	// its key is resolved within the same loop step.
	for i := len(keys) - 1; i >= 0; i-- {
		row, ok := v.table.rowOfKey(keys[i])
		if !ok {
			continue
		}
		var err error
		if mode == RemoveUnordered {
			err = v.table.MoveLastOver(row)
		} else {
			err = v.table.Remove(row)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// rowRemoved patches entries after an ordered row removal.
func (v *TableView) rowRemoved(row int) {
	patch := func(r int) int {
		switch {
		case r == row:
			return detachedRef
		case r > row:
			return r - 1
		}
		return r
	}
	patchRows(v.rows, patch)
	patchRows(v.baseRows, patch)
}

// rowMovedLastOver patches entries after a move-last-over removal.
func (v *TableView) rowMovedLastOver(row, last int) {
	patch := func(r int) int {
		switch {
		case r == row:
			return detachedRef
		case r == last:
			return row
		}
		return r
	}
	patchRows(v.rows, patch)
	patchRows(v.baseRows, patch)
}

// rowsSwapped patches entries after a row swap.
func (v *TableView) rowsSwapped(a, b int) {
	patch := func(r int) int {
		switch r {
		case a:
			return b
		case b:
			return a
		}
		return r
	}
	patchRows(v.rows, patch)
	patchRows(v.baseRows, patch)
}

// tableCleared detaches every entry.
func (v *TableView) tableCleared() {
	for i := range v.rows {
		v.rows[i] = detachedRef
	}
	for i := range v.baseRows {
		v.baseRows[i] = detachedRef
	}
}

func patchRows(rows []int, f func(int) int) {
	for i, r := range rows {
		if r == detachedRef {
			continue
		}
		rows[i] = f(r)
	}
}
