// Package arena supplies the allocator collaborator used by the storage core.
//
// The core never touches memory directly: every node of every column lives at
// an opaque Ref that the allocator resolves via Translate. Translated slices
// remain valid until the next structural mutation of that ref (Free or a
// replacing Allocate). Durability, when wanted, is the allocator's job, not
// the core's; HeapArena offers Snapshot/Restore for that.
//
// Single-writer discipline: allocations and frees for one arena must come
// from one goroutine at a time.
package arena
