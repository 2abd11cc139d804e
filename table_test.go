package colibri

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableBasics(t *testing.T) {
	t.Run("ColumnsAndCells", func(t *testing.T) {
		tbl := newPeopleTable(t)

		require.Equal(t, 2, tbl.NumColumns())
		assert.Equal(t, 0, tbl.ColumnByName("name"))
		assert.Equal(t, 1, tbl.ColumnByName("age"))
		assert.Equal(t, -1, tbl.ColumnByName("missing"))
		assert.Equal(t, TypeString, tbl.ColumnAt(0).Type())

		require.NoError(t, tbl.AddRows(2))
		require.NoError(t, tbl.SetString(0, 0, "ada"))
		require.NoError(t, tbl.SetInt(1, 0, 36))
		require.NoError(t, tbl.SetString(0, 1, "brian"))
		require.NoError(t, tbl.SetInt(1, 1, 41))

		assert.Equal(t, 2, tbl.Size())
		assert.Equal(t, "ada", tbl.GetString(0, 0))
		assert.Equal(t, int64(41), tbl.GetInt(1, 1))
	})

	t.Run("EmptyStringCell", func(t *testing.T) {
		tbl := newPeopleTable(t)
		require.NoError(t, tbl.AddRows(1))

		// Fresh rows default to empty strings; writing "" back is a no-op
		// at the narrowest slot stride, not an error.
		require.NoError(t, tbl.SetString(0, 0, ""))
		assert.Equal(t, "", tbl.GetString(0, 0))
		assert.False(t, tbl.IsStringNull(0, 0))
	})

	t.Run("TypeMismatchPanics", func(t *testing.T) {
		tbl := newPeopleTable(t)
		require.NoError(t, tbl.AddRows(1))

		assert.PanicsWithError(t,
			`column "age": type mismatch: expected string, got int`,
			func() { tbl.GetString(1, 0) })
	})

	t.Run("Nulls", func(t *testing.T) {
		tbl := newPeopleTable(t)
		require.NoError(t, tbl.AddRows(1))

		assert.False(t, tbl.IsStringNull(0, 0))
		require.NoError(t, tbl.SetStringNull(0, 0))
		assert.True(t, tbl.IsStringNull(0, 0))
		assert.Equal(t, "", tbl.GetString(0, 0))

		require.NoError(t, tbl.SetString(0, 0, "x"))
		assert.False(t, tbl.IsStringNull(0, 0))
	})

	t.Run("BackfillNewColumn", func(t *testing.T) {
		tbl, err := NewTable("t")
		require.NoError(t, err)
		_, err = tbl.AddIntColumn("a")
		require.NoError(t, err)
		require.NoError(t, tbl.AddRows(3))

		col, err := tbl.AddStringColumn("b")
		require.NoError(t, err)
		assert.Equal(t, "", tbl.GetString(col, 2))
		require.NoError(t, tbl.Verify())
	})

	t.Run("VersionBumpsOnMutation", func(t *testing.T) {
		tbl := newPeopleTable(t)
		v := tbl.Version()

		require.NoError(t, tbl.AddRows(1))
		assert.Greater(t, tbl.Version(), v)

		v = tbl.Version()
		require.NoError(t, tbl.SetInt(1, 0, 5))
		assert.Greater(t, tbl.Version(), v)
	})

	t.Run("SearchIndex", func(t *testing.T) {
		tbl := newPeopleTable(t)
		require.NoError(t, tbl.AddRows(3))
		for i, name := range []string{"a", "b", "a"} {
			require.NoError(t, tbl.SetString(0, i, name))
		}

		tbl.AddSearchIndex(0)
		require.True(t, tbl.HasSearchIndex(0))

		assert.Equal(t, 0, tbl.FindFirstString(0, "a"))
		assert.Equal(t, 2, tbl.CountString(0, "a"))
		require.NoError(t, tbl.Verify())
	})
}

func TestTableLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tbl, err := NewTable("people", WithLogger(logger))
	require.NoError(t, err)
	_, err = tbl.AddStringColumn("name")
	require.NoError(t, err)
	fillPeople(t, tbl, "a", "b")

	tbl.AddSearchIndex(0)
	assert.Contains(t, buf.String(), "search index built")
	assert.Contains(t, buf.String(), tbl.ID().String())

	v, err := tbl.FindAllString(0, "a")
	require.NoError(t, err)
	defer v.Close()

	require.NoError(t, tbl.SetString(0, 1, "a"))
	buf.Reset()
	_, err = v.SyncIfNeeded()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "view synchronized")
	assert.Contains(t, buf.String(), tbl.ID().String())
}

func TestTableRowRemoval(t *testing.T) {
	t.Run("OrderedRemove", func(t *testing.T) {
		tbl := newPeopleTable(t)
		fillPeople(t, tbl, "a", "b", "c", "d")

		require.NoError(t, tbl.Remove(1))

		assert.Equal(t, 3, tbl.Size())
		assert.Equal(t, []string{"a", "c", "d"}, namesOf(tbl))
		require.NoError(t, tbl.Verify())
	})

	t.Run("MoveLastOver", func(t *testing.T) {
		tbl := newPeopleTable(t)
		fillPeople(t, tbl, "a", "b", "c", "d")

		require.NoError(t, tbl.MoveLastOver(1))

		assert.Equal(t, []string{"a", "d", "c"}, namesOf(tbl))
	})

	t.Run("MoveLastOverLastRow", func(t *testing.T) {
		tbl := newPeopleTable(t)
		fillPeople(t, tbl, "a", "b")

		require.NoError(t, tbl.MoveLastOver(1))
		assert.Equal(t, []string{"a"}, namesOf(tbl))
	})

	t.Run("SwapRows", func(t *testing.T) {
		tbl := newPeopleTable(t)
		fillPeople(t, tbl, "a", "b", "c")

		require.NoError(t, tbl.SwapRows(0, 2))
		assert.Equal(t, []string{"c", "b", "a"}, namesOf(tbl))
		require.NoError(t, tbl.Verify())
	})

	t.Run("Clear", func(t *testing.T) {
		tbl := newPeopleTable(t)
		fillPeople(t, tbl, "a", "b")

		require.NoError(t, tbl.Clear())
		assert.True(t, tbl.IsEmpty())
		require.NoError(t, tbl.Verify())

		// The table is fully usable afterwards.
		fillPeople(t, tbl, "x")
		assert.Equal(t, []string{"x"}, namesOf(tbl))
	})

	t.Run("RemoveWithIndexedColumn", func(t *testing.T) {
		tbl := newPeopleTable(t)
		fillPeople(t, tbl, "a", "b", "a", "c")
		tbl.AddSearchIndex(0)

		require.NoError(t, tbl.Remove(0))
		require.NoError(t, tbl.MoveLastOver(0))

		// [a b a c] -> [b a c] -> [c a].
		assert.Equal(t, []string{"c", "a"}, namesOf(tbl))
		assert.Equal(t, 1, tbl.FindFirstString(0, "a"))
		require.NoError(t, tbl.Verify())
	})
}

func TestTableLinks(t *testing.T) {
	setup := func(t *testing.T) (dogs, owners *Table, linkCol int) {
		t.Helper()
		dogs = newPeopleTable(t)
		fillPeople(t, dogs, "fido", "rex", "buster")

		owners, err := NewTable("owners")
		require.NoError(t, err)
		_, err = owners.AddStringColumn("name")
		require.NoError(t, err)
		linkCol = owners.AddLinkColumn("dog", dogs)
		fillPeopleCol(t, owners, 0, "ada", "brian")
		return dogs, owners, linkCol
	}

	t.Run("SetAndGet", func(t *testing.T) {
		dogs, owners, dog := setup(t)
		_ = dogs

		require.NoError(t, owners.SetLink(dog, 0, 2))
		assert.Equal(t, 2, owners.GetLink(dog, 0))
		assert.Equal(t, nullLink, owners.GetLink(dog, 1))

		owners.NullifyLink(dog, 0)
		assert.Equal(t, nullLink, owners.GetLink(dog, 0))
	})

	t.Run("InvalidTargetRejected", func(t *testing.T) {
		_, owners, dog := setup(t)

		err := owners.SetLink(dog, 0, 99)
		var e *ErrInvalidLinkTarget
		require.ErrorAs(t, err, &e)
		assert.Equal(t, 99, e.Row)
	})

	t.Run("TargetOrderedRemoveAdjusts", func(t *testing.T) {
		dogs, owners, dog := setup(t)

		require.NoError(t, owners.SetLink(dog, 0, 0))
		require.NoError(t, owners.SetLink(dog, 1, 2))

		require.NoError(t, dogs.Remove(0))

		assert.Equal(t, nullLink, owners.GetLink(dog, 0)) // target gone
		assert.Equal(t, 1, owners.GetLink(dog, 1))        // shifted down
		require.NoError(t, owners.Verify())
	})

	t.Run("TargetMoveLastOverAdjusts", func(t *testing.T) {
		dogs, owners, dog := setup(t)

		require.NoError(t, owners.SetLink(dog, 0, 0))
		require.NoError(t, owners.SetLink(dog, 1, 2))

		require.NoError(t, dogs.MoveLastOver(0))

		assert.Equal(t, nullLink, owners.GetLink(dog, 0)) // target gone
		assert.Equal(t, 0, owners.GetLink(dog, 1))        // followed the move
	})

	t.Run("TargetSwapAdjusts", func(t *testing.T) {
		dogs, owners, dog := setup(t)

		require.NoError(t, owners.SetLink(dog, 0, 0))
		require.NoError(t, owners.SetLink(dog, 1, 1))

		require.NoError(t, dogs.SwapRows(0, 1))

		assert.Equal(t, 1, owners.GetLink(dog, 0))
		assert.Equal(t, 0, owners.GetLink(dog, 1))
	})

	t.Run("TargetClearNullifies", func(t *testing.T) {
		dogs, owners, dog := setup(t)

		require.NoError(t, owners.SetLink(dog, 0, 1))
		require.NoError(t, dogs.Clear())

		assert.Equal(t, nullLink, owners.GetLink(dog, 0))
	})

	t.Run("LinkList", func(t *testing.T) {
		dogs, owners, _ := setup(t)
		pack := owners.AddLinkListColumn("pack", dogs)

		require.NoError(t, owners.LinkListAdd(pack, 0, 0))
		require.NoError(t, owners.LinkListAdd(pack, 0, 2))
		assert.Equal(t, []int{0, 2}, owners.GetLinkList(pack, 0))

		// Ordered removal of dog 1 shifts dog 2 down to 1.
		require.NoError(t, dogs.Remove(1))
		assert.Equal(t, []int{0, 1}, owners.GetLinkList(pack, 0))

		// Removing a linked target drops it from the list.
		require.NoError(t, dogs.Remove(0))
		assert.Equal(t, []int{0}, owners.GetLinkList(pack, 0))

		owners.LinkListClear(pack, 0)
		assert.Empty(t, owners.GetLinkList(pack, 0))
		require.NoError(t, owners.Verify())
	})

	t.Run("SelfLink", func(t *testing.T) {
		tbl := newPeopleTable(t)
		fillPeople(t, tbl, "a", "b", "c")
		boss := tbl.AddLinkColumn("boss", tbl)

		require.NoError(t, tbl.SetLink(boss, 0, 2))
		require.NoError(t, tbl.Remove(1))

		assert.Equal(t, 1, tbl.GetLink(boss, 0))
		require.NoError(t, tbl.Verify())
	})
}

// newPeopleTable builds a table with a string "name" and an int "age" column.
func newPeopleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable("people")
	require.NoError(t, err)
	_, err = tbl.AddStringColumn("name")
	require.NoError(t, err)
	_, err = tbl.AddIntColumn("age")
	require.NoError(t, err)
	return tbl
}

func fillPeople(t *testing.T, tbl *Table, names ...string) {
	t.Helper()
	fillPeopleCol(t, tbl, 0, names...)
}

func fillPeopleCol(t *testing.T, tbl *Table, col int, names ...string) {
	t.Helper()
	for _, name := range names {
		row, err := tbl.AddRow()
		require.NoError(t, err)
		require.NoError(t, tbl.SetString(col, row, name))
	}
}

func namesOf(tbl *Table) []string {
	out := make([]string, tbl.Size())
	for i := range out {
		out[i] = tbl.GetString(0, i)
	}
	return out
}
