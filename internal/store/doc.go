// Package store provides SQLite-backed durable storage for the Cairn
// inventory graph and its audit log.
//
// Tables:
//   - items, tags: named entities with an opaque JSON property blob
//   - items_to_tags: Item↔Tag membership (set semantics via composite PK)
//   - items_to_items: directed parent→child edges, cycles permitted
//   - log: append-only audit entries, weakly referencing entities by name
//
// # Transactions
//
// Store.WithTx wraps one engine operation in one SQL transaction. Audit
// entries are appended through the same Tx as the mutation they
// describe, so a rollback never leaves an orphan log row. The store
// offers no locking or version checks of its own beyond SQLite's
// isolation; concurrent writers race at the SQLite level.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: relation rows cascade when an entity is deleted
package store
