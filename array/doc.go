// Package array implements the flat, packed sequence primitive every column
// structure is built from.
//
// An Array owns one arena buffer and comes in four kinds:
//
//   - Packed:  int64 elements at the minimum power-of-two bit width that
//     fits every stored value (0, 1, 2, 4, 8, 16, 32 or 64 bits)
//   - Refs:    like Packed but elements are arena refs; an extra header flag
//     marks B-tree inner nodes
//   - Bytes:   fixed-stride byte slots holding short strings inline
//   - Blob:    a raw byte payload, used for out-of-line string storage
//
// Growing an Array relocates it (allocate, copy, free), after which the
// registered parent is told the new ref through the single
// Parent.UpdateChildRef upcall.
package array
