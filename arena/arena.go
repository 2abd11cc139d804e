package arena

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned when an allocation size is not positive.
	ErrInvalidSize = errors.New("arena: allocation size must be positive")
	// ErrStaleRef is raised (as a panic) when a ref does not resolve. A stale
	// ref always means a bookkeeping bug in the caller, never bad user input.
	ErrStaleRef = errors.New("arena: stale or unknown ref")
)

// Ref is an opaque logical address handed out by an Allocator.
// The zero Ref is the null ref and never resolves.
type Ref uint64

// IsNull reports whether r is the null ref.
func (r Ref) IsNull() bool { return r == 0 }

// Allocator is the storage collaborator the core allocates nodes through.
//
// Translate returns the memory backing ref. The returned slice stays valid
// until the next structural mutation of that ref (its Free, or arena
// teardown). Translate panics on a ref that was never allocated or was freed;
// per the core's error taxonomy that is a contract violation, not a
// recoverable condition.
type Allocator interface {
	Allocate(size int) (Ref, error)
	Translate(ref Ref) []byte
	Free(ref Ref)
}

// Parent is the single upcall a relocated node makes so that higher tree
// levels stay consistent: whoever owns slot childIndex must start referring
// to ref. It is a location record (owning container + slot), never a
// dereferenceable pointer.
type Parent interface {
	UpdateChildRef(childIndex int, ref Ref)
}

// Stats tracks arena usage.
//
//   - BytesReserved: bytes currently held by live allocations
//   - LiveRefs: number of refs currently allocated and not freed
//   - TotalAllocs: cumulative allocation count
type Stats struct {
	BytesReserved uint64
	LiveRefs      uint64
	TotalAllocs   uint64
}

// HeapArena is the bundled in-memory Allocator. Refs are monotonically
// increasing handles into a table of heap buffers.
type HeapArena struct {
	buffers map[Ref][]byte
	nextRef Ref
	stats   Stats
}

// NewHeapArena creates an empty in-memory arena.
func NewHeapArena() *HeapArena {
	return &HeapArena{
		buffers: make(map[Ref][]byte),
		nextRef: 1,
	}
}

// Allocate reserves a zeroed buffer of the given size and returns its ref.
func (a *HeapArena) Allocate(size int) (Ref, error) {
	if size <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	ref := a.nextRef
	a.nextRef++
	a.buffers[ref] = make([]byte, size)
	a.stats.BytesReserved += uint64(size)
	a.stats.LiveRefs++
	a.stats.TotalAllocs++
	return ref, nil
}

// Translate resolves ref to its backing memory.
func (a *HeapArena) Translate(ref Ref) []byte {
	buf, ok := a.buffers[ref]
	if !ok {
		panic(fmt.Errorf("%w: %d", ErrStaleRef, ref))
	}
	return buf
}

// Free releases the memory behind ref. Freeing an unknown ref panics.
func (a *HeapArena) Free(ref Ref) {
	buf, ok := a.buffers[ref]
	if !ok {
		panic(fmt.Errorf("%w: %d", ErrStaleRef, ref))
	}
	a.stats.BytesReserved -= uint64(len(buf))
	a.stats.LiveRefs--
	delete(a.buffers, ref)
}

// Stats returns a copy of the current usage counters.
func (a *HeapArena) Stats() Stats { return a.stats }
