package column

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colibri-db/colibri/arena"
)

func TestStringColumn(t *testing.T) {
	t.Run("AddAndGet", func(t *testing.T) {
		c := newTestStringColumn(t)

		require.NoError(t, c.Add("alpha"))
		require.NoError(t, c.Add("beta"))
		require.NoError(t, c.Add(""))

		require.Equal(t, 3, c.Size())
		assert.Equal(t, "alpha", c.Get(0))
		assert.Equal(t, "beta", c.Get(1))
		assert.Equal(t, "", c.Get(2))
	})

	t.Run("InsertShifts", func(t *testing.T) {
		c := newTestStringColumn(t)

		require.NoError(t, c.Add("a"))
		require.NoError(t, c.Add("c"))
		require.NoError(t, c.Insert(1, "b"))

		assert.Equal(t, []string{"a", "b", "c"}, collectStrings(c))
	})

	t.Run("SetAndDelete", func(t *testing.T) {
		c := newTestStringColumn(t)

		for _, s := range []string{"x", "y", "z"} {
			require.NoError(t, c.Add(s))
		}
		require.NoError(t, c.Set(1, "Y"))
		require.NoError(t, c.Delete(0))

		assert.Equal(t, []string{"Y", "z"}, collectStrings(c))
	})

	t.Run("LongStringUpgrade", func(t *testing.T) {
		c := newTestStringColumn(t)

		require.NoError(t, c.Add("short"))
		require.NoError(t, c.Add("also short"))

		// Crossing the inline limit re-encodes the whole leaf out-of-line;
		// the short neighbours must survive.
		long := strings.Repeat("long string ", 10)
		require.NoError(t, c.Set(1, long))

		assert.Equal(t, "short", c.Get(0))
		assert.Equal(t, long, c.Get(1))

		require.NoError(t, c.Insert(1, "mid"))
		assert.Equal(t, []string{"short", "mid", long}, collectStrings(c))
	})

	t.Run("ExactlySixteenBytes", func(t *testing.T) {
		c := newTestStringColumn(t)

		// 15 bytes stays inline, 16 goes out-of-line.
		require.NoError(t, c.Add(strings.Repeat("a", 15)))
		require.NoError(t, c.Add(strings.Repeat("b", 16)))

		assert.Equal(t, strings.Repeat("a", 15), c.Get(0))
		assert.Equal(t, strings.Repeat("b", 16), c.Get(1))
	})

	t.Run("DeepTree", func(t *testing.T) {
		alloc := arena.NewHeapArena()
		c, err := NewStringColumn(alloc, WithLeafCapacity(4))
		require.NoError(t, err)

		const n = 500
		for i := 0; i < n; i++ {
			require.NoError(t, c.Add(fmt.Sprintf("row-%04d", i)))
		}
		require.Equal(t, n, c.Size())
		for i := 0; i < n; i++ {
			require.Equal(t, fmt.Sprintf("row-%04d", i), c.Get(i))
		}

		// Front insertions exercise splits on the leftmost path.
		for i := 0; i < 50; i++ {
			require.NoError(t, c.Insert(0, fmt.Sprintf("front-%02d", i)))
		}
		assert.Equal(t, "front-49", c.Get(0))
		assert.Equal(t, "row-0000", c.Get(50))
		assert.Equal(t, n+50, c.Size())

		// Drain from the middle until empty.
		for c.Size() > 0 {
			require.NoError(t, c.Delete(c.Size()/2))
		}
		assert.True(t, c.IsEmpty())
	})

	t.Run("MixedLengthsDeepTree", func(t *testing.T) {
		alloc := arena.NewHeapArena()
		c, err := NewStringColumn(alloc, WithLeafCapacity(4))
		require.NoError(t, err)

		want := make([]string, 0, 200)
		for i := 0; i < 200; i++ {
			s := fmt.Sprintf("v%d", i)
			if i%3 == 0 {
				s = strings.Repeat(s, 10) // well past the inline limit
			}
			require.NoError(t, c.Add(s))
			want = append(want, s)
		}
		assert.Equal(t, want, collectStrings(c))
	})

	t.Run("FindFirstAndFindAll", func(t *testing.T) {
		c := newTestStringColumn(t)

		for _, s := range []string{"a", "b", "a", "c", "a"} {
			require.NoError(t, c.Add(s))
		}

		assert.Equal(t, 0, c.FindFirst("a", 0, -1))
		assert.Equal(t, 2, c.FindFirst("a", 1, -1))
		assert.Equal(t, NotFound, c.FindFirst("a", 3, 4))
		assert.Equal(t, NotFound, c.FindFirst("nope", 0, -1))

		assert.Equal(t, []uint32{0, 2, 4}, c.FindAll("a", 0, -1).ToArray())
		assert.Equal(t, []uint32{2}, c.FindAll("a", 1, 3).ToArray())
		assert.Equal(t, 3, c.Count("a"))
		assert.Equal(t, 1, c.Count("c"))
		assert.Equal(t, 0, c.Count("nope"))
	})

	t.Run("Clear", func(t *testing.T) {
		c := newTestStringColumn(t)

		require.NoError(t, c.Add(strings.Repeat("x", 100)))
		require.NoError(t, c.Add("y"))
		require.NoError(t, c.Clear())

		assert.True(t, c.IsEmpty())
		require.NoError(t, c.Add("fresh"))
		assert.Equal(t, "fresh", c.Get(0))
	})

	t.Run("Fill", func(t *testing.T) {
		c := newTestStringColumn(t)

		require.NoError(t, c.Fill(10))
		require.Equal(t, 10, c.Size())
		assert.Equal(t, "", c.Get(9))

		assert.Panics(t, func() { _ = c.Fill(1) })
	})

	t.Run("Compare", func(t *testing.T) {
		a := newTestStringColumn(t)
		b := newTestStringColumn(t)

		for _, s := range []string{"p", "q"} {
			require.NoError(t, a.Add(s))
			require.NoError(t, b.Add(s))
		}
		assert.True(t, a.Compare(b))

		require.NoError(t, b.Set(1, "r"))
		assert.False(t, a.Compare(b))
	})
}

func TestStringColumnIndex(t *testing.T) {
	t.Run("IndexedFindMatchesScan", func(t *testing.T) {
		c := newTestStringColumn(t)

		values := []string{"red", "green", "red", "blue", "", "red", "green"}
		for _, s := range values {
			require.NoError(t, c.Add(s))
		}
		c.CreateIndex()
		require.True(t, c.HasIndex())

		for _, s := range append(values, "missing") {
			var scan []uint32
			for i := 0; i < c.Size(); i++ {
				if c.Get(i) == s {
					scan = append(scan, uint32(i))
				}
			}
			indexed := c.FindAll(s, 0, -1).ToArray()
			if len(scan) == 0 {
				assert.Empty(t, indexed, "value %q", s)
			} else {
				assert.Equal(t, scan, indexed, "value %q", s)
			}
		}
		require.NoError(t, c.Verify())
	})

	t.Run("IndexFollowsMutations", func(t *testing.T) {
		c := newTestStringColumn(t)
		c.CreateIndex()

		require.NoError(t, c.Add("a"))
		require.NoError(t, c.Add("b"))
		require.NoError(t, c.Insert(1, "c"))  // middle insert shifts b
		require.NoError(t, c.Set(0, "b"))     // a -> b
		require.NoError(t, c.Delete(1))       // drop c, shifts b
		require.NoError(t, c.Add("b"))        // append
		require.NoError(t, c.Insert(0, "a"))  // front insert shifts everything

		// Column is now [a b b b].
		assert.Equal(t, []uint32{0}, c.FindAll("a", 0, -1).ToArray())
		assert.Equal(t, []uint32{1, 2, 3}, c.FindAll("b", 0, -1).ToArray())
		assert.Equal(t, 0, c.Count("c"))
		require.NoError(t, c.Verify())
	})

	t.Run("PartialRangeBypassesIndex", func(t *testing.T) {
		c := newTestStringColumn(t)
		for _, s := range []string{"k", "k", "k"} {
			require.NoError(t, c.Add(s))
		}
		c.CreateIndex()

		assert.Equal(t, []uint32{1}, c.FindAll("k", 1, 2).ToArray())
		assert.Equal(t, 1, c.FindFirst("k", 1, -1))
	})

	t.Run("CreateIndexTwicePanics", func(t *testing.T) {
		c := newTestStringColumn(t)
		c.CreateIndex()
		assert.Panics(t, func() { c.CreateIndex() })
	})

	t.Run("ClearResetsIndex", func(t *testing.T) {
		c := newTestStringColumn(t)
		require.NoError(t, c.Add("x"))
		c.CreateIndex()

		require.NoError(t, c.Clear())
		assert.Equal(t, 0, c.Count("x"))

		require.NoError(t, c.Add("x"))
		assert.Equal(t, []uint32{0}, c.FindAll("x", 0, -1).ToArray())
	})
}

func TestFindKeyPos(t *testing.T) {
	c := newTestStringColumn(t)
	for _, s := range []string{"b", "d", "f"} {
		require.NoError(t, c.Add(s))
	}

	pos, found := c.FindKeyPos("a")
	assert.Equal(t, 0, pos)
	assert.False(t, found)

	pos, found = c.FindKeyPos("b")
	assert.Equal(t, 0, pos)
	assert.True(t, found)

	pos, found = c.FindKeyPos("c")
	assert.Equal(t, 1, pos)
	assert.False(t, found)

	pos, found = c.FindKeyPos("f")
	assert.Equal(t, 2, pos)
	assert.True(t, found)

	pos, found = c.FindKeyPos("g")
	assert.Equal(t, 3, pos)
	assert.False(t, found)
}

func TestAutoEnumerate(t *testing.T) {
	t.Run("Enumerates", func(t *testing.T) {
		c := newTestStringColumn(t)
		data := []string{"b", "a", "b", "a", "b", "a", "b", "a"}
		for _, s := range data {
			require.NoError(t, c.Add(s))
		}

		keys, values, ok, err := c.AutoEnumerate()
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, []string{"a", "b"}, collectStrings(keys))
		for i, s := range data {
			assert.Equal(t, s, keys.Get(int(values.Get(i))))
		}
	})

	t.Run("AbandonsLowDuplication", func(t *testing.T) {
		c := newTestStringColumn(t)
		for i := 0; i < 10; i++ {
			require.NoError(t, c.Add(fmt.Sprintf("unique-%d", i)))
		}

		_, _, ok, err := c.AutoEnumerate()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func newTestStringColumn(t *testing.T) *StringColumn {
	t.Helper()
	c, err := NewStringColumn(arena.NewHeapArena())
	require.NoError(t, err)
	return c
}

func collectStrings(c *StringColumn) []string {
	out := make([]string, c.Size())
	for i := range out {
		out[i] = c.Get(i)
	}
	return out
}
