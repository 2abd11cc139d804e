// Package column implements the adaptive column storage engine: B-trees of
// packed arrays with typed leaves, plus the search index kept in lockstep
// with string column mutations.
//
// A column root is either a single leaf or an inner node. Inner nodes carry a
// cumulative-offsets array (offsets[i] = total element count in children
// 0..i) next to the child refs, giving O(log n) position-to-leaf mapping.
// String leaves start in a compact inline encoding and are re-encoded
// out-of-line the first time a value of 16 bytes or more arrives; the switch
// is irreversible for the life of the leaf.
//
// Columns are single-writer structures: no internal locking, mutations must
// be externally serialized.
package column
