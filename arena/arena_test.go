package arena

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapArena(t *testing.T) {
	t.Run("AllocateAndTranslate", func(t *testing.T) {
		a := NewHeapArena()

		ref, err := a.Allocate(16)
		require.NoError(t, err)
		require.False(t, ref.IsNull())

		buf := a.Translate(ref)
		require.Len(t, buf, 16)

		copy(buf, []byte("hello"))
		assert.Equal(t, []byte("hello"), a.Translate(ref)[:5])
	})

	t.Run("DistinctRefs", func(t *testing.T) {
		a := NewHeapArena()

		r1, err := a.Allocate(8)
		require.NoError(t, err)
		r2, err := a.Allocate(8)
		require.NoError(t, err)

		assert.NotEqual(t, r1, r2)
	})

	t.Run("FreeReleases", func(t *testing.T) {
		a := NewHeapArena()

		ref, err := a.Allocate(8)
		require.NoError(t, err)
		a.Free(ref)

		assert.Panics(t, func() { a.Translate(ref) })
	})

	t.Run("Stats", func(t *testing.T) {
		a := NewHeapArena()

		r1, err := a.Allocate(10)
		require.NoError(t, err)
		_, err = a.Allocate(20)
		require.NoError(t, err)

		s := a.Stats()
		assert.Equal(t, uint64(2), s.TotalAllocs)
		assert.Equal(t, uint64(2), s.LiveRefs)
		assert.Equal(t, uint64(30), s.BytesReserved)

		a.Free(r1)
		s = a.Stats()
		assert.Equal(t, uint64(1), s.LiveRefs)
		assert.Equal(t, uint64(20), s.BytesReserved)
	})

	t.Run("ZeroSizeRejected", func(t *testing.T) {
		_, err := NewHeapArena().Allocate(0)
		require.ErrorIs(t, err, ErrInvalidSize)
	})
}

func TestSnapshot(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		a := NewHeapArena()

		r1, err := a.Allocate(4)
		require.NoError(t, err)
		copy(a.Translate(r1), []byte{1, 2, 3, 4})

		r2, err := a.Allocate(3)
		require.NoError(t, err)
		copy(a.Translate(r2), []byte{9, 8, 7})

		var buf bytes.Buffer
		require.NoError(t, a.Snapshot(&buf))

		b, err := RestoreArena(&buf)
		require.NoError(t, err)

		assert.Equal(t, []byte{1, 2, 3, 4}, b.Translate(r1))
		assert.Equal(t, []byte{9, 8, 7}, b.Translate(r2))

		// Restored arena must not reuse live refs.
		r3, err := b.Allocate(1)
		require.NoError(t, err)
		assert.NotEqual(t, r1, r3)
		assert.NotEqual(t, r2, r3)
	})

	t.Run("Empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewHeapArena().Snapshot(&buf))

		b, err := RestoreArena(&buf)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), b.Stats().LiveRefs)
	})

	t.Run("BadMagic", func(t *testing.T) {
		_, err := RestoreArena(bytes.NewReader([]byte("nope")))
		require.ErrorIs(t, err, ErrBadSnapshot)
	})
}
