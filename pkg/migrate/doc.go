// Package migrate computes the ordered list of DDL statements that
// reconcile a current schema snapshot with a desired one.
//
// The target engine's ALTER grammar is deliberately restrictive: a
// column's type, nullability, default, primary key, uniqueness, and
// foreign keys cannot be changed in place. Diff classifies every table as
// unchanged, incrementally alterable, or requiring full recreation, and
// the generator synthesizes the multi-step workarounds, most notably the
// six-step recreate protocol that rebuilds a table through a randomized
// shadow copy while preserving row data.
//
// The whole package is pure, synchronous computation; executing the plan
// is the caller's concern, and has to happen as one atomic batch with
// referential-integrity enforcement disabled, because intermediate steps
// transiently violate constraints that are only restored by the end.
package migrate
