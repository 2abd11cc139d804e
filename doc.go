// Package colibri is an embedded, mutable, columnar data store for Go.
//
// Colibri provides typed columns with adaptive storage, secondary search
// indexes that maintain themselves across mutations, and live query result
// views that detect staleness and resynchronize on demand:
//
//   - Adaptive string columns: values under 16 bytes are packed inline at a
//     fixed stride; longer values transparently switch the leaf to an
//     out-of-line encoding. Column nodes form a B-tree of packed arrays.
//   - Search indexes: an ordered value-to-positions index per string column,
//     updated in lockstep with every set/insert/delete.
//   - TableViews: materialized row sets from queries, scans, distinct
//     projections or backlink traversals; a view notices underlying table
//     mutations through a version token and re-derives itself in
//     SyncIfNeeded, re-applying its sort and distinct descriptors.
//
// # Quick start
//
//	tbl, err := colibri.NewTable("people")
//	if err != nil { ... }
//	name, _ := tbl.AddStringColumn("name")
//	age, _ := tbl.AddIntColumn("age")
//	_ = tbl.AddRows(2)
//	_ = tbl.SetString(name, 0, "ada")
//	_ = tbl.SetInt(age, 0, 36)
//
//	view, err := tbl.FindAllInt(age, 36)
//	...
//	_ = tbl.SetInt(age, 1, 36)    // view is now stale
//	_, _ = view.SyncIfNeeded()    // view re-derives, size grows
//
// # Concurrency
//
// The store is single-writer: all mutations to one table must be externally
// serialized. No operation blocks; everything is a synchronous, in-process
// transformation of arena-backed memory.
package colibri
