package array

import (
	"encoding/binary"
	"fmt"

	"github.com/colibri-db/colibri/arena"
)

// Kind selects the element encoding of an Array.
type Kind uint8

const (
	// Packed holds plain integers at a power-of-two bit width.
	Packed Kind = iota
	// Refs holds arena refs; with the inner flag set it is a B-tree inner node.
	Refs
	// Bytes holds short strings inline at a fixed byte stride.
	Bytes
	// Blob holds a raw byte payload.
	Blob
)

const (
	headerSize = 8
	// initialPayload is the payload size of a freshly allocated Array.
	initialPayload = 16
)

// Array is a resizable packed sequence located at a stable arena ref.
//
// Mutations may relocate the buffer; when that happens the registered parent
// is notified via UpdateChildRef. An Array is owned by exactly one parent
// slot (or is a root); the back-pointer exists only for ref propagation.
type Array struct {
	alloc arena.Allocator
	ref   arena.Ref

	kind  Kind
	inner bool
	width int // bits for Packed/Refs, slot stride in bytes for Bytes
	size  int // element count, or byte count for Blob

	parent    arena.Parent
	parentIdx int
}

// New allocates an empty Array of the given kind.
func New(alloc arena.Allocator, kind Kind, inner bool, parent arena.Parent, parentIdx int) (*Array, error) {
	ref, err := alloc.Allocate(headerSize + initialPayload)
	if err != nil {
		return nil, err
	}
	a := &Array{
		alloc:     alloc,
		ref:       ref,
		kind:      kind,
		inner:     inner,
		parent:    parent,
		parentIdx: parentIdx,
	}
	a.writeHeader()
	return a, nil
}

// Load attaches to an existing Array at ref.
func Load(alloc arena.Allocator, ref arena.Ref, parent arena.Parent, parentIdx int) *Array {
	buf := alloc.Translate(ref)
	a := &Array{
		alloc:     alloc,
		ref:       ref,
		parent:    parent,
		parentIdx: parentIdx,
	}
	a.readHeader(buf)
	return a
}

// KindOf reads the kind and inner-node flag from the header at ref without
// materializing the Array.
func KindOf(alloc arena.Allocator, ref arena.Ref) (Kind, bool) {
	buf := alloc.Translate(ref)
	return Kind(buf[0] & 0x3), buf[0]&0x4 != 0
}

func (a *Array) writeHeader() {
	buf := a.alloc.Translate(a.ref)
	flags := byte(a.kind) & 0x3
	if a.inner {
		flags |= 0x4
	}
	buf[0] = flags
	buf[1] = byte(a.width)
	buf[2], buf[3] = 0, 0
	binary.LittleEndian.PutUint32(buf[4:], uint32(a.size))
}

func (a *Array) readHeader(buf []byte) {
	a.kind = Kind(buf[0] & 0x3)
	a.inner = buf[0]&0x4 != 0
	a.width = int(buf[1])
	a.size = int(binary.LittleEndian.Uint32(buf[4:]))
}

func (a *Array) payload() []byte {
	return a.alloc.Translate(a.ref)[headerSize:]
}

// Ref returns the Array's current arena ref.
func (a *Array) Ref() arena.Ref { return a.ref }

// Alloc returns the allocator the Array lives in.
func (a *Array) Alloc() arena.Allocator { return a.alloc }

// Kind returns the element encoding.
func (a *Array) Kind() Kind { return a.kind }

// IsInner reports whether the Array is flagged as a B-tree inner node.
func (a *Array) IsInner() bool { return a.inner }

// Size returns the element count (byte count for Blob arrays).
func (a *Array) Size() int { return a.size }

// IsEmpty reports whether the Array holds no elements.
func (a *Array) IsEmpty() bool { return a.size == 0 }

// Width returns the current element width (bits, or stride bytes for Bytes).
func (a *Array) Width() int { return a.width }

// SetParent re-registers the owning location record.
func (a *Array) SetParent(p arena.Parent, idx int) {
	a.parent = p
	a.parentIdx = idx
}

// UpdateChildRef lets this Array serve as the parent of its ref children.
func (a *Array) UpdateChildRef(childIdx int, ref arena.Ref) {
	a.SetRef(childIdx, ref)
}

// Destroy frees the Array's own buffer. Children of Refs arrays are not
// touched; use DestroyDeep for whole subtrees.
func (a *Array) Destroy() {
	a.alloc.Free(a.ref)
	a.ref = 0
}

// DestroyDeep frees the Array and, for Refs arrays, every reachable child.
func (a *Array) DestroyDeep() {
	if a.kind == Refs {
		for i := 0; i < a.size; i++ {
			child := a.GetRef(i)
			if child.IsNull() {
				continue
			}
			Load(a.alloc, child, nil, 0).DestroyDeep()
		}
	}
	a.Destroy()
}

// relocate moves the Array into a fresh buffer with the given width and at
// least capElems of room, re-encoding all elements, then notifies the parent.
func (a *Array) relocate(newWidth int, capElems int) error {
	var payloadBytes int
	switch a.kind {
	case Packed, Refs:
		if newWidth == 0 {
			payloadBytes = initialPayload
		} else {
			payloadBytes = (capElems*newWidth + 7) / 8
		}
	case Bytes:
		payloadBytes = capElems * newWidth
	case Blob:
		payloadBytes = capElems
	}
	if payloadBytes < initialPayload {
		payloadBytes = initialPayload
	}

	newRef, err := a.alloc.Allocate(headerSize + payloadBytes)
	if err != nil {
		return err
	}

	oldRef := a.ref
	oldWidth := a.width
	oldPayload := a.payload()

	switch a.kind {
	case Packed, Refs:
		// Re-encode element-wise into the new width.
		vals := make([]int64, a.size)
		for i := range vals {
			vals[i] = bitGet(oldPayload, oldWidth, i)
		}
		a.ref = newRef
		a.width = newWidth
		a.writeHeader()
		np := a.payload()
		for i, v := range vals {
			bitSet(np, newWidth, i, v)
		}
	case Bytes:
		strs := make([]string, a.size)
		for i := range strs {
			strs[i] = slotGet(oldPayload, oldWidth, i)
		}
		a.ref = newRef
		a.width = newWidth
		a.writeHeader()
		np := a.payload()
		for i, s := range strs {
			slotSet(np, newWidth, i, s)
		}
	case Blob:
		data := oldPayload[:a.size]
		a.ref = newRef
		a.writeHeader()
		copy(a.payload(), data)
	}

	a.alloc.Free(oldRef)
	if a.parent != nil {
		a.parent.UpdateChildRef(a.parentIdx, a.ref)
	}
	return nil
}

// capElems returns how many elements the current buffer can hold.
func (a *Array) capElems() int {
	pb := len(a.payload())
	switch a.kind {
	case Packed, Refs:
		if a.width == 0 {
			return int(^uint(0) >> 1) // width 0 stores nothing
		}
		return pb * 8 / a.width
	case Bytes:
		if a.width == 0 {
			return int(^uint(0) >> 1)
		}
		return pb / a.width
	default: // Blob
		return pb
	}
}

// ensureRoom widens and/or grows the buffer so that n elements of values up
// to and including v fit.
func (a *Array) ensureRoom(n int, v int64) error {
	w := a.width
	if need := widthNeeded(v); need > w {
		w = need
	}
	if w == a.width && n <= a.capElems() {
		return nil
	}
	capElems := n * 2
	if capElems < 8 {
		capElems = 8
	}
	return a.relocate(w, capElems)
}

// widthNeeded returns the minimum power-of-two bit width that fits v.
// Widths 1, 2 and 4 hold small unsigned values; 8 and up are two's
// complement.
func widthNeeded(v int64) int {
	switch {
	case v == 0:
		return 0
	case v >= 0 && v < 2:
		return 1
	case v >= 0 && v < 4:
		return 2
	case v >= 0 && v < 16:
		return 4
	case v >= -0x80 && v < 0x80:
		return 8
	case v >= -0x8000 && v < 0x8000:
		return 16
	case v >= -0x80000000 && v < 0x80000000:
		return 32
	default:
		return 64
	}
}

// bitGet reads element i of a packed payload at the given bit width.
func bitGet(p []byte, width, i int) int64 {
	switch width {
	case 0:
		return 0
	case 1, 2, 4:
		perByte := 8 / width
		b := p[i/perByte]
		shift := uint(i%perByte) * uint(width)
		mask := byte(1<<uint(width)) - 1
		return int64((b >> shift) & mask)
	case 8:
		return int64(int8(p[i]))
	case 16:
		return int64(int16(binary.LittleEndian.Uint16(p[i*2:])))
	case 32:
		return int64(int32(binary.LittleEndian.Uint32(p[i*4:])))
	case 64:
		return int64(binary.LittleEndian.Uint64(p[i*8:]))
	default:
		panic(fmt.Sprintf("array: bad width %d", width))
	}
}

// bitSet writes element i of a packed payload at the given bit width. The
// caller guarantees v fits in width bits.
func bitSet(p []byte, width, i int, v int64) {
	switch width {
	case 0:
		// Nothing stored; v is zero by contract.
	case 1, 2, 4:
		perByte := 8 / width
		shift := uint(i%perByte) * uint(width)
		mask := (byte(1<<uint(width)) - 1) << shift
		p[i/perByte] = p[i/perByte]&^mask | byte(v)<<shift&mask
	case 8:
		p[i] = byte(int8(v))
	case 16:
		binary.LittleEndian.PutUint16(p[i*2:], uint16(int16(v)))
	case 32:
		binary.LittleEndian.PutUint32(p[i*4:], uint32(int32(v)))
	case 64:
		binary.LittleEndian.PutUint64(p[i*8:], uint64(v))
	default:
		panic(fmt.Sprintf("array: bad width %d", width))
	}
}

// Get returns element i. Contract: i < Size().
func (a *Array) Get(i int) int64 {
	if i >= a.size {
		panic(fmt.Sprintf("array: index %d out of range (size %d)", i, a.size))
	}
	return bitGet(a.payload(), a.width, i)
}

// Back returns the last element. Contract: the Array is non-empty.
func (a *Array) Back() int64 { return a.Get(a.size - 1) }

// Set overwrites element i, widening the encoding if needed.
func (a *Array) Set(i int, v int64) error {
	if i >= a.size {
		panic(fmt.Sprintf("array: index %d out of range (size %d)", i, a.size))
	}
	if err := a.ensureRoom(a.size, v); err != nil {
		return err
	}
	bitSet(a.payload(), a.width, i, v)
	return nil
}

// Insert makes room at i and stores v there. Contract: i <= Size().
func (a *Array) Insert(i int, v int64) error {
	if i > a.size {
		panic(fmt.Sprintf("array: index %d out of range (size %d)", i, a.size))
	}
	if err := a.ensureRoom(a.size+1, v); err != nil {
		return err
	}
	p := a.payload()
	for j := a.size; j > i; j-- {
		bitSet(p, a.width, j, bitGet(p, a.width, j-1))
	}
	bitSet(p, a.width, i, v)
	a.size++
	a.writeHeader()
	return nil
}

// Add appends v.
func (a *Array) Add(v int64) error { return a.Insert(a.size, v) }

// Delete removes element i, shifting the tail left.
func (a *Array) Delete(i int) {
	if i >= a.size {
		panic(fmt.Sprintf("array: index %d out of range (size %d)", i, a.size))
	}
	p := a.payload()
	for j := i; j < a.size-1; j++ {
		bitSet(p, a.width, j, bitGet(p, a.width, j+1))
	}
	a.size--
	a.writeHeader()
}

// Truncate drops all elements from i on.
func (a *Array) Truncate(i int) {
	if i > a.size {
		panic(fmt.Sprintf("array: index %d out of range (size %d)", i, a.size))
	}
	a.size = i
	a.writeHeader()
}

// Adjust adds delta to every element from index from on. Used to maintain
// cumulative offset arrays.
func (a *Array) Adjust(from int, delta int64) error {
	for j := from; j < a.size; j++ {
		if err := a.Set(j, a.Get(j)+delta); err != nil {
			return err
		}
	}
	return nil
}

// ChildIndex returns the index of the first element greater than pos.
// Elements must be sorted ascending (a cumulative offsets array). Returns
// Size() when no element is greater.
func (a *Array) ChildIndex(pos int64) int {
	lo, hi := 0, a.size
	for lo < hi {
		mid := (lo + hi) / 2
		if a.Get(mid) > pos {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// GetRef returns element i of a Refs array as an arena ref.
func (a *Array) GetRef(i int) arena.Ref { return arena.Ref(a.Get(i)) }

// SetRef overwrites element i of a Refs array.
func (a *Array) SetRef(i int, ref arena.Ref) error { return a.Set(i, int64(ref)) }

// InsertRef makes room at i of a Refs array and stores ref there.
func (a *Array) InsertRef(i int, ref arena.Ref) error { return a.Insert(i, int64(ref)) }

// AddRef appends ref to a Refs array.
func (a *Array) AddRef(ref arena.Ref) error { return a.Add(int64(ref)) }
