// Package store provides a SQLite-backed keyed collection.
//
// A Store holds one collection of nodes, datapoints and elements with their
// stored fields and groups, and satisfies engine.Collection and
// field.Source. Identifier uniqueness is enforced by a UNIQUE(kind, tag,
// number) constraint, so ChangeIdentifier is atomic: it either relabels
// the entity or fails with ErrIdentifierInUse and changes nothing.
//
// Every relabel is appended to a change log, stamped with a sequence number
// (seq) and the batch ID of the bracket it happened in.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s for locks
//   - foreign_keys=ON: Enforce referential integrity
//
// # Migrations
//
// Schema changes are tracked with PRAGMA user_version and applied in order
// by Open.
package store
