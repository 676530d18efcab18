// Package hashstore provides SQLite-backed durable storage for the
// digest → verdict-metadata table and the synchronization journal.
//
// The table is rebuilt wholesale from the mirror after every successful
// synchronization, inside a single transaction: either the new content
// fully replaces the old, or a failed rebuild rolls back and leaves the
// prior content untouched. Duplicate digests within one feed are ignored
// on insert (the digest is the primary key).
//
// Opening a database does not create the schema. A database whose table
// was never created is a distinct, recoverable condition surfaced as
// ErrNotInitialized so lookups can answer "store not initialized"
// instead of failing with a raw driver error.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package hashstore
