package column

import (
	"github.com/colibri-db/colibri/arena"
	"github.com/colibri-db/colibri/array"
)

// intLeaf wraps a single packed array; integers never re-encode, the array
// widens in place.
type intLeaf struct {
	arr *array.Array
}

func newIntLeaf(alloc arena.Allocator, parent arena.Parent, idx int) (*intLeaf, error) {
	arr, err := array.New(alloc, array.Packed, false, parent, idx)
	if err != nil {
		return nil, err
	}
	return &intLeaf{arr: arr}, nil
}

func loadIntLeaf(alloc arena.Allocator, ref arena.Ref, parent arena.Parent, idx int) *intLeaf {
	return &intLeaf{arr: array.Load(alloc, ref, parent, idx)}
}

func (l *intLeaf) ref() arena.Ref { return l.arr.Ref() }
func (l *intLeaf) size() int      { return l.arr.Size() }
func (l *intLeaf) get(i int) int64 {
	return l.arr.Get(i)
}

func (l *intLeaf) set(i int, v int64) (leaf[int64], error) {
	return l, l.arr.Set(i, v)
}

func (l *intLeaf) insert(i int, v int64) (leaf[int64], error) {
	return l, l.arr.Insert(i, v)
}

func (l *intLeaf) remove(i int) { l.arr.Delete(i) }

func (l *intLeaf) split(at int) (leaf[int64], error) {
	nl, err := newIntLeaf(l.arr.Alloc(), nil, 0)
	if err != nil {
		return nil, err
	}
	for j := at; j < l.arr.Size(); j++ {
		if err := nl.arr.Add(l.arr.Get(j)); err != nil {
			return nil, err
		}
	}
	l.arr.Truncate(at)
	return nl, nil
}

func (l *intLeaf) destroy() { l.arr.Destroy() }
