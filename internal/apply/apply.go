// Package apply executes a migration plan against a SQLite database.
// Referential checks are suspended for the duration because the plan
// rebuilds tables through drop-and-rename, which would otherwise trip
// foreign keys mid-flight. All statements run inside one transaction.
package apply

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/reshape/pkg/migrate"
)

// Open opens the SQLite database at path, creating the file if it does
// not exist yet. Foreign-key enforcement is switched on for every
// connection the pool hands out.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	return db, nil
}

// Run executes every statement of plan in order inside a single
// transaction. On any failure the transaction rolls back and the first
// error is returned with the offending statement attached.
//
// Everything runs on one pinned connection: PRAGMA foreign_keys is
// per-connection state, so issuing it through the pool could suspend
// enforcement on one connection and open the transaction on another.
func Run(ctx context.Context, db *sql.DB, plan *migrate.Plan) error {
	if plan.Empty() {
		return nil
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("suspending foreign keys: %w", err)
	}
	defer func() {
		// Restoration failure leaves the connection without enforcement;
		// nothing to do but let the pool recycle it.
		_, _ = conn.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration: %w", err)
	}
	for _, stmt := range plan.Statements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing %q: %w", stmt, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	return nil
}
