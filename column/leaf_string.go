package column

import (
	"github.com/colibri-db/colibri/arena"
	"github.com/colibri-db/colibri/array"
)

// longStringThreshold is the first string length that forces a short leaf to
// re-encode as a long leaf. The switch never reverses for a live leaf.
const longStringThreshold = 16

// shortLeaf holds strings inline in fixed-stride slots.
type shortLeaf struct {
	arr       *array.Array
	parent    arena.Parent
	parentIdx int
}

func newShortLeaf(alloc arena.Allocator, parent arena.Parent, idx int) (*shortLeaf, error) {
	arr, err := array.New(alloc, array.Bytes, false, parent, idx)
	if err != nil {
		return nil, err
	}
	return &shortLeaf{arr: arr, parent: parent, parentIdx: idx}, nil
}

func loadShortLeaf(alloc arena.Allocator, ref arena.Ref, parent arena.Parent, idx int) *shortLeaf {
	return &shortLeaf{arr: array.Load(alloc, ref, parent, idx), parent: parent, parentIdx: idx}
}

func (l *shortLeaf) ref() arena.Ref { return l.arr.Ref() }
func (l *shortLeaf) size() int      { return l.arr.Size() }
func (l *shortLeaf) get(i int) string {
	return l.arr.GetString(i)
}

// toLong re-encodes the whole leaf out-of-line: build the long leaf, copy
// every entry, re-link the parent slot, destroy the stale leaf. Either the
// new leaf fully replaces the old one or nothing visible changes.
func (l *shortLeaf) toLong(alloc arena.Allocator) (*longLeaf, error) {
	ll, err := newLongLeaf(alloc, nil, 0)
	if err != nil {
		return nil, err
	}
	for j := 0; j < l.arr.Size(); j++ {
		if err := ll.append(l.arr.GetString(j)); err != nil {
			return nil, err
		}
	}
	if l.parent != nil {
		l.parent.UpdateChildRef(l.parentIdx, ll.top.Ref())
	}
	ll.setParent(l.parent, l.parentIdx)
	l.arr.Destroy()
	return ll, nil
}

func (l *shortLeaf) set(i int, v string) (leaf[string], error) {
	if len(v) < longStringThreshold {
		return l, l.arr.SetString(i, v)
	}
	ll, err := l.toLong(l.arr.Alloc())
	if err != nil {
		return nil, err
	}
	return ll.set(i, v)
}

func (l *shortLeaf) insert(i int, v string) (leaf[string], error) {
	if len(v) < longStringThreshold {
		return l, l.arr.InsertString(i, v)
	}
	ll, err := l.toLong(l.arr.Alloc())
	if err != nil {
		return nil, err
	}
	return ll.insert(i, v)
}

func (l *shortLeaf) remove(i int) { l.arr.DeleteString(i) }

func (l *shortLeaf) split(at int) (leaf[string], error) {
	nl, err := newShortLeaf(l.arr.Alloc(), nil, 0)
	if err != nil {
		return nil, err
	}
	for j := at; j < l.arr.Size(); j++ {
		if err := nl.arr.AddString(l.arr.GetString(j)); err != nil {
			return nil, err
		}
	}
	l.arr.Truncate(at)
	return nl, nil
}

func (l *shortLeaf) destroy() { l.arr.Destroy() }

// longLeaf stores string bytes in one blob with a parallel cumulative
// end-offsets array: string i occupies blob[offsets[i-1]:offsets[i]].
type longLeaf struct {
	top     *array.Array // Refs: [offsetsRef, blobRef]
	offsets *array.Array
	blob    *array.Array
}

func newLongLeaf(alloc arena.Allocator, parent arena.Parent, idx int) (*longLeaf, error) {
	offsets, err := array.New(alloc, array.Packed, false, nil, 0)
	if err != nil {
		return nil, err
	}
	blob, err := array.New(alloc, array.Blob, false, nil, 0)
	if err != nil {
		return nil, err
	}
	top, err := array.New(alloc, array.Refs, false, parent, idx)
	if err != nil {
		return nil, err
	}
	if err := top.AddRef(offsets.Ref()); err != nil {
		return nil, err
	}
	if err := top.AddRef(blob.Ref()); err != nil {
		return nil, err
	}
	offsets.SetParent(top, 0)
	blob.SetParent(top, 1)
	return &longLeaf{top: top, offsets: offsets, blob: blob}, nil
}

func loadLongLeaf(alloc arena.Allocator, ref arena.Ref, parent arena.Parent, idx int) *longLeaf {
	top := array.Load(alloc, ref, parent, idx)
	return &longLeaf{
		top:     top,
		offsets: array.Load(alloc, top.GetRef(0), top, 0),
		blob:    array.Load(alloc, top.GetRef(1), top, 1),
	}
}

func (l *longLeaf) setParent(p arena.Parent, idx int) { l.top.SetParent(p, idx) }

func (l *longLeaf) ref() arena.Ref { return l.top.Ref() }
func (l *longLeaf) size() int      { return l.offsets.Size() }

func (l *longLeaf) span(i int) (start, end int) {
	if i > 0 {
		start = int(l.offsets.Get(i - 1))
	}
	return start, int(l.offsets.Get(i))
}

func (l *longLeaf) get(i int) string {
	start, end := l.span(i)
	return string(l.blob.ViewBytes(start, end))
}

func (l *longLeaf) set(i int, v string) (leaf[string], error) {
	start, end := l.span(i)
	if err := l.blob.ReplaceBytes(start, end, []byte(v)); err != nil {
		return nil, err
	}
	delta := int64(len(v) - (end - start))
	if delta != 0 {
		if err := l.offsets.Adjust(i, delta); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *longLeaf) insert(i int, v string) (leaf[string], error) {
	start := 0
	if i > 0 {
		start = int(l.offsets.Get(i - 1))
	}
	if err := l.blob.InsertBytes(start, []byte(v)); err != nil {
		return nil, err
	}
	if err := l.offsets.Insert(i, int64(start+len(v))); err != nil {
		return nil, err
	}
	if err := l.offsets.Adjust(i+1, int64(len(v))); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *longLeaf) append(v string) error {
	_, err := l.insert(l.size(), v)
	return err
}

func (l *longLeaf) remove(i int) {
	start, end := l.span(i)
	l.blob.DeleteBytes(start, end)
	l.offsets.Delete(i)
	// Ignoring the error is safe: shrinking adjustments never reallocate.
	_ = l.offsets.Adjust(i, int64(start-end))
}

func (l *longLeaf) split(at int) (leaf[string], error) {
	nl, err := newLongLeaf(l.top.Alloc(), nil, 0)
	if err != nil {
		return nil, err
	}
	base := 0
	if at > 0 {
		base = int(l.offsets.Get(at - 1))
	}
	if err := nl.blob.AppendBytes(l.blob.ViewBytes(base, l.blob.Size())); err != nil {
		return nil, err
	}
	for j := at; j < l.offsets.Size(); j++ {
		if err := nl.offsets.Add(l.offsets.Get(j) - int64(base)); err != nil {
			return nil, err
		}
	}
	l.blob.Truncate(base)
	l.offsets.Truncate(at)
	return nl, nil
}

func (l *longLeaf) destroy() {
	l.offsets.Destroy()
	l.blob.Destroy()
	l.top.Destroy()
}

// loadStringLeaf dispatches on the header at ref: Bytes arrays are short
// leaves, ref-holding arrays without the inner flag are long leaves.
func loadStringLeaf(alloc arena.Allocator, ref arena.Ref, parent arena.Parent, idx int) leaf[string] {
	kind, _ := array.KindOf(alloc, ref)
	if kind == array.Refs {
		return loadLongLeaf(alloc, ref, parent, idx)
	}
	return loadShortLeaf(alloc, ref, parent, idx)
}
