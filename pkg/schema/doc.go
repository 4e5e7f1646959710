// Package schema defines the canonical in-memory model of a relational
// schema snapshot: tables, columns, indexes, unique constraints, and
// foreign keys, together with the structural invariants the migration
// planner relies on.
//
// Entities are created only through factory methods on their owner (a
// Snapshot creates Tables, a Table creates Columns and constraints), so a
// free-floating, unlinked entity is unrepresentable. A snapshot and
// everything it owns is discarded wholesale once a diff has been computed
// from it.
package schema
