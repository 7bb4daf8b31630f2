// Package inventory implements the Cairn variable resolution and
// relationship reconciliation engine.
//
// The inventory is a directed tagging graph: Items (hosts, machines)
// belong to Tags and to each other via parent/child edges, and every
// entity carries its own key/value variables. The engine computes each
// item's effective variable set and reconciles stored state against
// client-submitted desired-state documents.
//
// # Resolution
//
// An item's effective variables are the overlay of every associated
// tag's variables, applied ascending by tag name length (name as tie
// break), with the item's own variables applied last. The longer tag
// name approximates "more specific wins"; an own variable always beats
// an inherited one. Provenance records which tag contributed each
// surviving value.
//
// # Reconciliation
//
// Desired-state documents are applied with set-difference semantics:
// exactly the adds and removes needed, no unnecessary writes. Every
// mutation appends one audit entry in the same transaction, so the
// audit log measures real change - a document the entity already
// satisfies writes nothing. A desired relation naming an entity that
// does not exist fails the whole call with a Reference error; removals
// of already-gone entities are skipped.
//
// # Concurrency
//
// The engine is synchronous and holds no locks; isolation between
// concurrent callers is delegated to the backing store's transactions.
package inventory
