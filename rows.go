package colibri

// AddRow appends one row with default values (0, "", null link, empty list)
// and returns its index.
func (t *Table) AddRow() (int, error) {
	if err := t.AddRows(1); err != nil {
		return 0, err
	}
	return t.size - 1, nil
}

// AddRows appends n default rows.
func (t *Table) AddRows(n int) error {
	for i := 0; i < n; i++ {
		for _, c := range t.cols {
			switch c.typ {
			case TypeInt:
				if err := c.ints.Add(0); err != nil {
					return err
				}
			case TypeString:
				if err := c.str.Add(""); err != nil {
					return err
				}
				if err := c.strNulls.Add(0); err != nil {
					return err
				}
			case TypeLink:
				c.links = append(c.links, nullLink)
			case TypeLinkList:
				c.lists = append(c.lists, nil)
			}
		}
		t.rowKeys = append(t.rowKeys, t.nextKey)
		t.keyToRow[t.nextKey] = t.size
		t.nextKey++
		t.size++
	}
	t.bumpVersion()
	return nil
}

// Remove deletes a row, shifting all following rows down by one (stable
// order). Links into this table are nullified or adjusted, and live views
// patch their row references in place.
func (t *Table) Remove(row int) error {
	t.checkRow(row)

	for _, v := range t.views {
		v.rowRemoved(row)
	}
	for _, c := range t.inbound {
		c.targetRowRemoved(row)
	}

	for _, c := range t.cols {
		switch c.typ {
		case TypeInt:
			if err := c.ints.Delete(row); err != nil {
				return err
			}
		case TypeString:
			if err := c.str.Delete(row); err != nil {
				return err
			}
			if err := c.strNulls.Delete(row); err != nil {
				return err
			}
		case TypeLink:
			c.links = append(c.links[:row], c.links[row+1:]...)
		case TypeLinkList:
			c.lists = append(c.lists[:row], c.lists[row+1:]...)
		}
	}

	delete(t.keyToRow, t.rowKeys[row])
	t.rowKeys = append(t.rowKeys[:row], t.rowKeys[row+1:]...)
	for i := row; i < len(t.rowKeys); i++ {
		t.keyToRow[t.rowKeys[i]] = i
	}
	t.size--
	t.bumpVersion()
	return nil
}

// MoveLastOver deletes a row by overwriting it with the last row and
// truncating. Order is not preserved: the last row takes the removed row's
// index. Links and live views tracking the moved row follow it to its new
// position; references to the removed row detach.
func (t *Table) MoveLastOver(row int) error {
	t.checkRow(row)
	last := t.size - 1

	for _, v := range t.views {
		v.rowMovedLastOver(row, last)
	}
	for _, c := range t.inbound {
		c.targetRowMovedLastOver(row, last)
	}

	for _, c := range t.cols {
		switch c.typ {
		case TypeInt:
			if row != last {
				if err := c.ints.Set(row, c.ints.Get(last)); err != nil {
					return err
				}
			}
			if err := c.ints.Delete(last); err != nil {
				return err
			}
		case TypeString:
			if row != last {
				if err := c.str.Set(row, c.str.Get(last)); err != nil {
					return err
				}
				if err := c.strNulls.Set(row, c.strNulls.Get(last)); err != nil {
					return err
				}
			}
			if err := c.str.Delete(last); err != nil {
				return err
			}
			if err := c.strNulls.Delete(last); err != nil {
				return err
			}
		case TypeLink:
			if row != last {
				c.links[row] = c.links[last]
			}
			c.links = c.links[:last]
		case TypeLinkList:
			if row != last {
				c.lists[row] = c.lists[last]
			}
			c.lists = c.lists[:last]
		}
	}

	delete(t.keyToRow, t.rowKeys[row])
	if row != last {
		moved := t.rowKeys[last]
		t.rowKeys[row] = moved
		t.keyToRow[moved] = row
	}
	t.rowKeys = t.rowKeys[:last]
	t.size--
	t.bumpVersion()
	return nil
}

// SwapRows exchanges two rows in place. Links and live views follow both
// rows to their new positions.
func (t *Table) SwapRows(a, b int) error {
	t.checkRow(a)
	t.checkRow(b)
	if a == b {
		return nil
	}

	for _, v := range t.views {
		v.rowsSwapped(a, b)
	}
	for _, c := range t.inbound {
		c.targetRowsSwapped(a, b)
	}

	for _, c := range t.cols {
		switch c.typ {
		case TypeInt:
			va, vb := c.ints.Get(a), c.ints.Get(b)
			if err := c.ints.Set(a, vb); err != nil {
				return err
			}
			if err := c.ints.Set(b, va); err != nil {
				return err
			}
		case TypeString:
			va, vb := c.str.Get(a), c.str.Get(b)
			if err := c.str.Set(a, vb); err != nil {
				return err
			}
			if err := c.str.Set(b, va); err != nil {
				return err
			}
			na, nb := c.strNulls.Get(a), c.strNulls.Get(b)
			if err := c.strNulls.Set(a, nb); err != nil {
				return err
			}
			if err := c.strNulls.Set(b, na); err != nil {
				return err
			}
		case TypeLink:
			c.links[a], c.links[b] = c.links[b], c.links[a]
		case TypeLinkList:
			c.lists[a], c.lists[b] = c.lists[b], c.lists[a]
		}
	}

	ka, kb := t.rowKeys[a], t.rowKeys[b]
	t.rowKeys[a], t.rowKeys[b] = kb, ka
	t.keyToRow[ka], t.keyToRow[kb] = b, a
	t.bumpVersion()
	return nil
}

// Clear removes all rows. Links into this table are nullified and view
// references detach.
func (t *Table) Clear() error {
	for _, v := range t.views {
		v.tableCleared()
	}
	for _, c := range t.inbound {
		c.targetCleared()
	}

	for _, c := range t.cols {
		switch c.typ {
		case TypeInt:
			if err := c.ints.Clear(); err != nil {
				return err
			}
		case TypeString:
			if err := c.str.Clear(); err != nil {
				return err
			}
			if err := c.strNulls.Clear(); err != nil {
				return err
			}
		case TypeLink:
			c.links = c.links[:0]
		case TypeLinkList:
			c.lists = c.lists[:0]
		}
	}

	t.rowKeys = t.rowKeys[:0]
	t.keyToRow = make(map[uint64]int)
	t.size = 0
	t.bumpVersion()
	return nil
}

// targetRowRemoved fixes a link column after the target table removed a row
// with ordered semantics.
func (c *Column) targetRowRemoved(row int) {
	switch c.typ {
	case TypeLink:
		for i, l := range c.links {
			switch {
			case l == row:
				c.links[i] = nullLink
			case l > row:
				c.links[i] = l - 1
			}
		}
	case TypeLinkList:
		for i, list := range c.lists {
			out := list[:0]
			for _, l := range list {
				switch {
				case l == row:
					continue
				case l > row:
					out = append(out, l-1)
				default:
					out = append(out, l)
				}
			}
			c.lists[i] = out
		}
	}
	c.table.bumpVersion()
}

// targetRowMovedLastOver fixes a link column after the target table removed
// a row with move-last-over semantics.
func (c *Column) targetRowMovedLastOver(row, last int) {
	switch c.typ {
	case TypeLink:
		for i, l := range c.links {
			switch {
			case l == row:
				c.links[i] = nullLink
			case l == last:
				c.links[i] = row
			}
		}
	case TypeLinkList:
		for i, list := range c.lists {
			out := list[:0]
			for _, l := range list {
				switch {
				case l == row:
					continue
				case l == last:
					out = append(out, row)
				default:
					out = append(out, l)
				}
			}
			c.lists[i] = out
		}
	}
	c.table.bumpVersion()
}

// targetRowsSwapped fixes a link column after the target table swapped two
// rows.
func (c *Column) targetRowsSwapped(a, b int) {
	switch c.typ {
	case TypeLink:
		for i, l := range c.links {
			switch l {
			case a:
				c.links[i] = b
			case b:
				c.links[i] = a
			}
		}
	case TypeLinkList:
		for _, list := range c.lists {
			for i, l := range list {
				switch l {
				case a:
					list[i] = b
				case b:
					list[i] = a
				}
			}
		}
	}
	c.table.bumpVersion()
}

// targetCleared nullifies all links after the target table was cleared.
func (c *Column) targetCleared() {
	switch c.typ {
	case TypeLink:
		for i := range c.links {
			c.links[i] = nullLink
		}
	case TypeLinkList:
		for i := range c.lists {
			c.lists[i] = nil
		}
	}
	c.table.bumpVersion()
}
