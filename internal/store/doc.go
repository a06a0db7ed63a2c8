// Package store owns all per-user conversation state for the relay.
//
// # Ownership
//
// ConversationStore is the single choke point for Profile and History
// mutations. No other component holds a mutable reference to the underlying
// maps; reads hand out deep copies. Invariants (history cap, closed style
// set, monotonic message counter) are enforced here and nowhere else.
//
// # Concurrency
//
// Mutations are serialized per user key with a per-user mutex, so two
// messages from the same user cannot interleave while distinct users proceed
// in parallel. ToggleDevMode and ClearAll take the store-wide lock.
//
// # Persistence
//
// Persistence is write-through: every mutating operation flushes a full
// Snapshot through a Persister. Two implementations exist:
//
//   - FilePersister: single JSON document, write-to-temp-then-rename
//   - SQLitePersister: single-row table, transactional UPSERT
//
// A flush failure is logged and the in-memory state stays authoritative; the
// contract is at-most-eventually-durable, not transactional. A missing or
// corrupt snapshot at startup loads as empty state.
package store
