// Package state holds the console's mirror of the backend's orders, products
// and opening hours.
//
// # Overview
//
// Store is the single shared container. It is filled wholesale from REST
// snapshots (ReplaceOrders, ReplaceProducts, ReplaceOpeningHours) and patched
// incrementally from realtime pushes (ApplyOrder, ApplyProduct).
//
// # Reconciliation
//
// Each pushed change returns an Outcome telling the caller what to do next:
//
//	new/add     → upsert, Changed; "new" orders also Notify and Highlight
//	update      → upsert, Changed
//	archive     → remove; an absent id leaves the store untouched
//	archive_all → clear, Changed + Reload (the caller refetches the snapshot)
//
// Unknown actions return the zero Outcome. There is no causal ordering across
// pushes and reloads: whichever lands last wins, and a manual refresh is
// always available.
//
// # Views
//
// VisibleOrders is a pure projection of orders through a Filter, newest
// first. The Filter is owned by the UI, not the Store.
//
// # Concurrency Model
//
// Store uses a readers-writer lock and returns independent copies from
// Snapshot, as the UI renders from snapshots while loads run in commands.
// The zero value is ready to use.
package state
