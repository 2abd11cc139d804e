package column

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/colibri-db/colibri/arena"
	"github.com/colibri-db/colibri/array"
)

// DefaultLeafCapacity bounds how many elements a single leaf holds before a
// B-tree split. Inner nodes use the same fanout bound.
const DefaultLeafCapacity = 1000

// NotFound is returned by find operations when no position matches.
const NotFound = -1

// leaf is the tagged-variant interface over the concrete leaf encodings.
// set and insert return the leaf that now holds the data, which differs from
// the receiver after an encoding switch.
type leaf[V comparable] interface {
	ref() arena.Ref
	size() int
	get(i int) V
	set(i int, v V) (leaf[V], error)
	insert(i int, v V) (leaf[V], error)
	remove(i int)
	// split moves elements [at, size) into a fresh unparented leaf.
	split(at int) (leaf[V], error)
	destroy()
}

// rootHolder is the location record of a column's root slot. The column
// itself implements it, so leaf relocation at the root propagates through
// the same UpdateChildRef upcall as everywhere else in the tree.
type rootHolder interface {
	arena.Parent
	rootRef() arena.Ref
}

// tree carries the leaf-kind-independent B-tree logic. Columns embed one and
// supply leaf constructors.
type tree[V comparable] struct {
	alloc    arena.Allocator
	leafCap  int
	newLeaf  func(parent arena.Parent, idx int) (leaf[V], error)
	loadLeaf func(ref arena.Ref, parent arena.Parent, idx int) leaf[V]
}

func isNode(alloc arena.Allocator, ref arena.Ref) bool {
	kind, inner := array.KindOf(alloc, ref)
	return kind == array.Refs && inner
}

// loadNode materializes the three arrays of an inner node with the parent
// chain wired so ref relocations propagate upward.
func (t *tree[V]) loadNode(ref arena.Ref, parent arena.Parent, slot int) (top, offsets, children *array.Array) {
	top = array.Load(t.alloc, ref, parent, slot)
	offsets = array.Load(t.alloc, top.GetRef(0), top, 0)
	children = array.Load(t.alloc, top.GetRef(1), top, 1)
	return top, offsets, children
}

// newNode allocates an empty inner node (top array plus its offsets and
// children arrays).
func (t *tree[V]) newNode(parent arena.Parent, slot int) (top, offsets, children *array.Array, err error) {
	offsets, err = array.New(t.alloc, array.Packed, false, nil, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	children, err = array.New(t.alloc, array.Refs, false, nil, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	top, err = array.New(t.alloc, array.Refs, true, parent, slot)
	if err != nil {
		return nil, nil, nil, err
	}
	if err = top.AddRef(offsets.Ref()); err != nil {
		return nil, nil, nil, err
	}
	if err = top.AddRef(children.Ref()); err != nil {
		return nil, nil, nil, err
	}
	offsets.SetParent(top, 0)
	children.SetParent(top, 1)
	return top, offsets, children, nil
}

func (t *tree[V]) size(root arena.Ref) int {
	if isNode(t.alloc, root) {
		_, offsets, _ := t.loadNode(root, nil, 0)
		if offsets.IsEmpty() {
			return 0
		}
		return int(offsets.Back())
	}
	return t.loadLeaf(root, nil, 0).size()
}

func (t *tree[V]) get(root arena.Ref, i int) V {
	ref := root
	for isNode(t.alloc, ref) {
		_, offsets, children := t.loadNode(ref, nil, 0)
		ci := offsets.ChildIndex(int64(i))
		if ci > 0 {
			i -= int(offsets.Get(ci - 1))
		}
		ref = children.GetRef(ci)
	}
	return t.loadLeaf(ref, nil, 0).get(i)
}

func (t *tree[V]) set(ref arena.Ref, parent arena.Parent, slot, i int, v V) error {
	if !isNode(t.alloc, ref) {
		lf := t.loadLeaf(ref, parent, slot)
		_, err := lf.set(i, v)
		return err
	}
	_, offsets, children := t.loadNode(ref, parent, slot)
	ci := offsets.ChildIndex(int64(i))
	if ci > 0 {
		i -= int(offsets.Get(ci - 1))
	}
	return t.set(children.GetRef(ci), children, ci, i, v)
}

// insert adds v at position i of the tree rooted in h, growing tree depth
// when the root splits.
func (t *tree[V]) insert(h rootHolder, i int, v V) error {
	sibling, moved, err := t.insertRec(h.rootRef(), h, 0, i, v)
	if err != nil {
		return err
	}
	if sibling.IsNull() {
		return nil
	}

	// The root split: raise a new root over the old root and its sibling.
	// Capture the old root before allocating the new top array; wiring h as
	// the top's parent means any relocation inside newNode already repoints
	// the root slot at the new node.
	oldRoot := h.rootRef()
	left := t.size(oldRoot)
	top, offsets, children, err := t.newNode(h, 0)
	if err != nil {
		return err
	}
	if err := children.AddRef(oldRoot); err != nil {
		return err
	}
	if err := children.AddRef(sibling); err != nil {
		return err
	}
	if err := offsets.Add(int64(left)); err != nil {
		return err
	}
	if err := offsets.Add(int64(left + moved)); err != nil {
		return err
	}
	h.UpdateChildRef(0, top.Ref())
	return nil
}

// insertRec returns the ref of a new right-hand sibling when the subtree had
// to split, along with the element count that moved into it.
func (t *tree[V]) insertRec(ref arena.Ref, parent arena.Parent, slot, i int, v V) (arena.Ref, int, error) {
	if !isNode(t.alloc, ref) {
		lf := t.loadLeaf(ref, parent, slot)
		if lf.size() < t.leafCap {
			_, err := lf.insert(i, v)
			return 0, 0, err
		}
		if i == lf.size() {
			// Append past a full leaf: start a fresh sibling.
			nl, err := t.newLeaf(nil, 0)
			if err != nil {
				return 0, 0, err
			}
			if nl, err = nl.insert(0, v); err != nil {
				return 0, 0, err
			}
			return nl.ref(), 1, nil
		}
		sib, err := lf.split(i)
		if err != nil {
			return 0, 0, err
		}
		moved := sib.size()
		if _, err := lf.insert(i, v); err != nil {
			return 0, 0, err
		}
		return sib.ref(), moved, nil
	}

	top, offsets, children := t.loadNode(ref, parent, slot)
	_ = top
	ci := offsets.ChildIndex(int64(i))
	if ci == offsets.Size() {
		ci-- // append past the end goes into the last child
	}
	pos := i
	if ci > 0 {
		pos -= int(offsets.Get(ci - 1))
	}

	sib, moved, err := t.insertRec(children.GetRef(ci), children, ci, pos, v)
	if err != nil {
		return 0, 0, err
	}
	if err := offsets.Adjust(ci, 1); err != nil {
		return 0, 0, err
	}
	if sib.IsNull() {
		return 0, 0, nil
	}

	// Link the new sibling right of the child that split. offsets[ci]
	// currently counts everything including what moved to the sibling.
	cum := offsets.Get(ci)
	if err := offsets.Set(ci, cum-int64(moved)); err != nil {
		return 0, 0, err
	}
	if err := offsets.Insert(ci+1, cum); err != nil {
		return 0, 0, err
	}
	if err := children.InsertRef(ci+1, sib); err != nil {
		return 0, 0, err
	}

	if children.Size() > t.leafCap {
		return t.splitNode(offsets, children)
	}
	return 0, 0, nil
}

// splitNode moves the upper half of a node's children into a fresh sibling
// node and returns its ref plus the element count that moved.
func (t *tree[V]) splitNode(offsets, children *array.Array) (arena.Ref, int, error) {
	h := children.Size() / 2
	base := offsets.Get(h - 1)
	moved := int(offsets.Back() - base)

	newTop, newOffsets, newChildren, err := t.newNode(nil, 0)
	if err != nil {
		return 0, 0, err
	}
	for j := h; j < children.Size(); j++ {
		if err := newChildren.AddRef(children.GetRef(j)); err != nil {
			return 0, 0, err
		}
		if err := newOffsets.Add(offsets.Get(j) - base); err != nil {
			return 0, 0, err
		}
	}
	children.Truncate(h)
	offsets.Truncate(h)
	return newTop.Ref(), moved, nil
}

// remove deletes position i from the tree rooted in h. An emptied inner root
// reverts to a single empty leaf.
func (t *tree[V]) remove(h rootHolder, i int) error {
	emptied, err := t.removeRec(h.rootRef(), h, 0, i)
	if err != nil {
		return err
	}
	if emptied && isNode(t.alloc, h.rootRef()) {
		t.destroy(h.rootRef())
		lf, err := t.newLeaf(h, 0)
		if err != nil {
			return err
		}
		h.UpdateChildRef(0, lf.ref())
	}
	return nil
}

func (t *tree[V]) removeRec(ref arena.Ref, parent arena.Parent, slot, i int) (bool, error) {
	if !isNode(t.alloc, ref) {
		lf := t.loadLeaf(ref, parent, slot)
		lf.remove(i)
		return lf.size() == 0, nil
	}
	_, offsets, children := t.loadNode(ref, parent, slot)
	ci := offsets.ChildIndex(int64(i))
	pos := i
	if ci > 0 {
		pos -= int(offsets.Get(ci - 1))
	}
	childRef := children.GetRef(ci)
	emptied, err := t.removeRec(childRef, children, ci, pos)
	if err != nil {
		return false, err
	}
	if err := offsets.Adjust(ci, -1); err != nil {
		return false, err
	}
	if emptied {
		// Unlink and free the empty child; refs may have changed during the
		// removal, so re-read the slot.
		t.destroy(children.GetRef(ci))
		children.Delete(ci)
		offsets.Delete(ci)
	}
	return children.IsEmpty(), nil
}

// scan visits every leaf left to right, passing each leaf's global start
// position. fn returns false to stop early.
func (t *tree[V]) scan(root arena.Ref, offset int, fn func(lf leaf[V], offset int) bool) bool {
	if !isNode(t.alloc, root) {
		return fn(t.loadLeaf(root, nil, 0), offset)
	}
	_, offsets, children := t.loadNode(root, nil, 0)
	for j := 0; j < children.Size(); j++ {
		start := offset
		if j > 0 {
			start = offset + int(offsets.Get(j-1))
		}
		if !t.scan(children.GetRef(j), start, fn) {
			return false
		}
	}
	return true
}

// findFirst returns the first position in [start, end) holding v, or
// NotFound. end < 0 means "to the end".
func (t *tree[V]) findFirst(root arena.Ref, v V, start, end int) int {
	if end < 0 {
		end = t.size(root)
	}
	found := NotFound
	t.scan(root, 0, func(lf leaf[V], offset int) bool {
		n := lf.size()
		if offset >= end {
			return false
		}
		lo, hi := 0, n
		if start > offset {
			lo = start - offset
		}
		if end-offset < hi {
			hi = end - offset
		}
		for j := lo; j < hi; j++ {
			if lf.get(j) == v {
				found = offset + j
				return false
			}
		}
		return true
	})
	return found
}

// findAll adds every position in [start, end) holding v to result.
func (t *tree[V]) findAll(root arena.Ref, result *roaring.Bitmap, v V, start, end int) {
	if end < 0 {
		end = t.size(root)
	}
	t.scan(root, 0, func(lf leaf[V], offset int) bool {
		n := lf.size()
		if offset >= end {
			return false
		}
		lo, hi := 0, n
		if start > offset {
			lo = start - offset
		}
		if end-offset < hi {
			hi = end - offset
		}
		for j := lo; j < hi; j++ {
			if lf.get(j) == v {
				result.Add(uint32(offset + j))
			}
		}
		return true
	})
}

// count returns how many positions hold v.
func (t *tree[V]) count(root arena.Ref, v V) int {
	n := 0
	t.scan(root, 0, func(lf leaf[V], _ int) bool {
		for j := 0; j < lf.size(); j++ {
			if lf.get(j) == v {
				n++
			}
		}
		return true
	})
	return n
}

// destroy frees the whole subtree at root. Inner nodes and long leaves both
// reach their constituent arrays through Refs arrays, so one deep free covers
// every encoding.
func (t *tree[V]) destroy(root arena.Ref) {
	array.Load(t.alloc, root, nil, 0).DestroyDeep()
}
